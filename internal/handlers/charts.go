package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zarathustragosling/project-management/internal/models"
)

// ChartsPage renders the Gantt view shell for a project.
func (h *Handlers) ChartsPage(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	render(c, "charts", gin.H{"project": project})
}

// GanttData returns the timeline series consumed by the chart frontend.
// Tasks without a deadline are left off the chart.
func (h *Handlers) GanttData(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	items, err := h.reports.BuildGanttData(project.ID)
	if err != nil {
		log.Printf("Failed to build gantt data for project %d: %v", project.ID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": items})
}
