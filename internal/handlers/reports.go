package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// ReportList shows every report across the team's projects, searchable and
// paginated.
func (h *Handlers) ReportList(c *gin.Context) {
	user := currentUser(c)

	query := h.db.Model(&models.Report{}).Preload("Project").
		Joins("JOIN projects ON projects.id = reports.project_id")
	// Admins reach this page without a team and see everything.
	if user.TeamID != nil {
		query = query.Where("projects.team_id = ?", *user.TeamID)
	}

	q := c.Query("q")
	if q != "" {
		query = query.Where("reports.filename LIKE ?", "%"+q+"%")
	}

	switch c.DefaultQuery("sort", "newest") {
	case "name":
		query = query.Order("reports.filename ASC")
	case "oldest":
		query = query.Order("reports.created_at ASC")
	default:
		query = query.Order("reports.created_at DESC")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := h.config.ReportsPerPage

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count reports: %v", err)
		internalError(c)
		return
	}

	var reports []models.Report
	err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&reports).Error
	if err != nil {
		log.Printf("Failed to load reports: %v", err)
		internalError(c)
		return
	}

	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}

	// The manual-upload form needs the team's projects to pick from.
	projectQuery := h.db.Model(&models.Project{})
	if user.TeamID != nil {
		projectQuery = projectQuery.Where("team_id = ?", *user.TeamID)
	}
	var projects []models.Project
	if err := projectQuery.Order("name ASC").Find(&projects).Error; err != nil {
		log.Printf("Failed to load projects for report form: %v", err)
	}

	render(c, "reports", gin.H{
		"reports":  reports,
		"projects": projects,
		"q":        q,
		"page":     page,
		"pages":    pages,
		"total":    total,
	})
}

// CreateReport stores an externally produced report file for a project.
func (h *Handlers) CreateReport(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.PostForm("project_id"), 10, 64)
	if err != nil {
		redirectWithError(c, "/report/list", "Выберите проект")
		return
	}

	user := currentUser(c)
	var project models.Project
	if err := h.db.First(&project, uint(projectID)).Error; err != nil {
		redirectWithError(c, "/report/list", "Проект не найден")
		return
	}
	if !user.IsAdmin && (user.TeamID == nil || *user.TeamID != project.TeamID) {
		forbidden(c, "Проект принадлежит другой команде")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		redirectWithError(c, "/report/list", "Файл отчета обязателен")
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !allowedExtensions[ext] {
		redirectWithError(c, "/report/list", "Недопустимый формат файла")
		return
	}

	filename := filepath.Base(file.Filename)
	stored := uitoa(project.ID) + "_" + filename
	if err := c.SaveUploadedFile(file, filepath.Join(h.config.ReportDir, stored)); err != nil {
		log.Printf("Failed to save report file: %v", err)
		redirectWithError(c, "/report/list", "Не удалось сохранить файл")
		return
	}

	report := models.Report{
		Filename:  filename,
		Filepath:  stored,
		ProjectID: project.ID,
	}
	if err := h.db.Create(&report).Error; err != nil {
		log.Printf("Failed to record report: %v", err)
		redirectWithError(c, "/report/list", "Не удалось сохранить отчет")
		return
	}

	redirectWithNotice(c, "/report/list", "Отчет загружен!")
}

// GenerateReport builds the project's PDF summary and returns it inline.
func (h *Handlers) GenerateReport(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	report, pdf, err := h.reports.GenerateProjectReport(project)
	if err != nil {
		log.Printf("Failed to generate report for project %d: %v", project.ID, err)
		internalError(c)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\""+report.Filepath+"\"")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ViewReport streams a stored report file.
func (h *Handlers) ViewReport(c *gin.Context) {
	report, ok := h.teamReport(c)
	if !ok {
		return
	}
	c.File(h.reports.FilePath(report))
}

// DownloadReport streams a stored report file as an attachment.
func (h *Handlers) DownloadReport(c *gin.Context) {
	report, ok := h.teamReport(c)
	if !ok {
		return
	}
	c.FileAttachment(h.reports.FilePath(report), report.Filepath)
}

// DeleteReport removes a report row and its file.
func (h *Handlers) DeleteReport(c *gin.Context) {
	report, ok := h.teamReport(c)
	if !ok {
		return
	}

	if err := h.reports.DeleteReport(report); err != nil {
		log.Printf("Failed to delete report %d: %v", report.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/report/list", "Отчет удален!")
}

// ProjectReports returns a project's reports as JSON for the project page.
func (h *Handlers) ProjectReports(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}

	var reports []models.Report
	err := h.db.Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&reports).Error
	if err != nil {
		internalError(c)
		return
	}

	out := make([]gin.H, 0, len(reports))
	for _, report := range reports {
		out = append(out, gin.H{
			"id":         report.ID,
			"filename":   report.Filename,
			"created_at": report.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

// teamReport loads a report and checks it belongs to the caller's team. The
// access gate cannot cover reports because ownership runs through the
// project, so the check lives here.
func (h *Handlers) teamReport(c *gin.Context) (*models.Report, bool) {
	user := currentUser(c)

	reportID, ok := paramID(c, "reportID")
	if !ok {
		return nil, false
	}

	var report models.Report
	err := h.db.First(&report, reportID).Error
	if err == gorm.ErrRecordNotFound {
		notFound(c)
		return nil, false
	}
	if err != nil {
		internalError(c)
		return nil, false
	}

	if !user.IsAdmin {
		var project models.Project
		if err := h.db.First(&project, report.ProjectID).Error; err != nil {
			internalError(c)
			return nil, false
		}
		if user.TeamID == nil || *user.TeamID != project.TeamID {
			forbidden(c, "Отчет принадлежит другой команде")
			return nil, false
		}
	}

	return &report, true
}
