package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// ReportService renders project reports to PDF files and keeps the Report
// rows in sync with the files on disk.
type ReportService struct {
	db        *gorm.DB
	reportDir string
}

func NewReportService(db *gorm.DB, reportDir string) *ReportService {
	return &ReportService{db: db, reportDir: reportDir}
}

// ProjectStats are the headline numbers of a project report.
type ProjectStats struct {
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	OverdueTasks   int     `json:"overdue_tasks"`
	Completion     float64 `json:"completion_percentage"`
}

// ComputeStats derives headline numbers from a project's tasks.
func ComputeStats(tasks []models.Task) ProjectStats {
	stats := ProjectStats{TotalTasks: len(tasks)}
	now := time.Now()
	for _, task := range tasks {
		if task.Status == models.StatusDone {
			stats.CompletedTasks++
			continue
		}
		if task.Deadline != nil && task.Deadline.Before(now) {
			stats.OverdueTasks++
		}
	}
	if stats.TotalTasks > 0 {
		stats.Completion = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}
	return stats
}

// GanttItem is one bar of the Gantt chart: a task spanning from its creation
// to its deadline.
type GanttItem struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Color  string `json:"color"`
	Status string `json:"status"`
}

func statusColor(status models.TaskStatus) string {
	switch status {
	case models.StatusInProgress:
		return "#facc15"
	case models.StatusDone:
		return "#4ade80"
	}
	return "#f87171"
}

// BuildGanttData shapes a project's tasks into Gantt rows. Tasks without a
// deadline are skipped: they have no bar to draw.
func (rs *ReportService) BuildGanttData(projectID uint) ([]GanttItem, error) {
	var tasks []models.Task
	err := rs.db.Where("project_id = ?", projectID).Order("deadline").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for gantt data: %w", err)
	}

	items := make([]GanttItem, 0, len(tasks))
	for _, task := range tasks {
		if task.Deadline == nil {
			continue
		}
		items = append(items, GanttItem{
			ID:     task.ID,
			Title:  task.Title,
			Start:  task.CreatedAt.Format("2006-01-02"),
			End:    task.Deadline.Format("2006-01-02"),
			Color:  statusColor(task.Status),
			Status: task.Status.Label(),
		})
	}
	return items, nil
}

// GenerateProjectReport renders a PDF report for the project, writes it under
// the report directory and only then records the Report row. A failed file
// write leaves no row behind.
func (rs *ReportService) GenerateProjectReport(project *models.Project) (*models.Report, []byte, error) {
	var tasks []models.Task
	err := rs.db.Preload("AssignedUser").Where("project_id = ?", project.ID).Find(&tasks).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load project tasks: %w", err)
	}

	var members []models.User
	if err := rs.db.Where("team_id = ?", project.TeamID).Find(&members).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load team members: %w", err)
	}

	stats := ComputeStats(tasks)
	pdf, err := rs.renderPDF(project, tasks, members, stats)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	relPath := fmt.Sprintf("%d_%s.pdf", project.ID, now.Format("20060102150405"))
	fullPath := filepath.Join(rs.reportDir, relPath)

	if err := os.MkdirAll(rs.reportDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(fullPath, pdf, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to write report file: %w", err)
	}

	report := &models.Report{
		Filename:  fmt.Sprintf("Отчет по проекту %s от %s", project.Name, now.Format("02.01.2006")),
		Filepath:  relPath,
		ProjectID: project.ID,
	}
	if err := rs.db.Create(report).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to record report: %w", err)
	}

	return report, pdf, nil
}

// DeleteReport removes the report row and, best effort, its file.
func (rs *ReportService) DeleteReport(report *models.Report) error {
	if err := rs.db.Delete(report).Error; err != nil {
		return err
	}
	// File removal failure is tolerated: the row is gone, the orphan file is
	// harmless.
	_ = os.Remove(filepath.Join(rs.reportDir, report.Filepath))
	return nil
}

// FilePath returns the absolute location of a report's PDF.
func (rs *ReportService) FilePath(report *models.Report) string {
	return filepath.Join(rs.reportDir, report.Filepath)
}

func (rs *ReportService) renderPDF(project *models.Project, tasks []models.Task, members []models.User, stats ProjectStats) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("Отчет по проекту: %s", project.Name)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Дата формирования: %s", time.Now().Format("02.01.2006"))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Сводка"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Всего задач: %d", stats.TotalTasks)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Выполнено: %d", stats.CompletedTasks)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Просрочено: %d", stats.OverdueTasks)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Готовность: %.0f%%", stats.Completion)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	drawProgressChart(pdf, tr, tasks)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Задачи"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(70, 6, tr("Название"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, tr("Статус"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, tr("Приоритет"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, tr("Дедлайн"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, tr("Исполнитель"), "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, task := range tasks {
		deadline := "-"
		if task.Deadline != nil {
			deadline = task.Deadline.Format("02.01.2006")
		}
		assignee := "-"
		if task.AssignedUser != nil {
			assignee = task.AssignedUser.Username
		}
		pdf.CellFormat(70, 6, tr(task.Title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(task.Status.Label()), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(task.Priority), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, deadline, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(assignee), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Команда"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, member := range members {
		role := ""
		if member.Role != nil {
			role = " — " + member.Role.Name
		}
		pdf.CellFormat(0, 6, tr(member.Username+role), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// drawProgressChart draws a small bar chart of task counts per status,
// replacing the matplotlib image of the HTML report.
func drawProgressChart(pdf *gofpdf.Fpdf, tr func(string) string, tasks []models.Task) {
	counts := map[models.TaskStatus]int{}
	maxCount := 1
	for _, task := range tasks {
		counts[task.Status]++
		if counts[task.Status] > maxCount {
			maxCount = counts[task.Status]
		}
	}

	type bar struct {
		status models.TaskStatus
		r, g, b int
	}
	bars := []bar{
		{models.StatusToDo, 248, 113, 113},
		{models.StatusInProgress, 250, 204, 21},
		{models.StatusDone, 74, 222, 128},
	}

	const chartHeight = 40.0
	baseY := pdf.GetY() + chartHeight
	x := 20.0
	pdf.SetFont("Helvetica", "", 8)
	for _, b := range bars {
		height := chartHeight * float64(counts[b.status]) / float64(maxCount)
		pdf.SetFillColor(b.r, b.g, b.b)
		pdf.Rect(x, baseY-height, 25, height, "F")
		pdf.SetXY(x, baseY+1)
		pdf.CellFormat(25, 5, tr(fmt.Sprintf("%s (%d)", b.status.Label(), counts[b.status])), "", 0, "C", false, 0, "")
		x += 35
	}
	pdf.SetY(baseY + 8)
}
