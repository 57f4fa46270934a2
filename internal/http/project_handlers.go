package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/http/middleware"
	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
	"github.com/itops-hk/itpm-service/internal/service"
)

func (h *Handler) registerProjectRoutes(group *gin.RouterGroup) {
	group.GET("/projects", h.listProjects)
	group.GET("/projects/export", h.exportProjects)
	group.GET("/projects/:id", h.getProject)
	group.POST("/projects", h.createProject)
	group.PATCH("/projects/:id", h.updateProject)
	group.DELETE("/projects/:id", h.deleteProject)
	group.GET("/projects/:id/budget-usage", h.projectBudgetUsage)
	group.POST("/projects/:id/complete-charge-out", h.completeProjectChargeOut)
}

func (h *Handler) projectFilter(c *gin.Context) (repository.ProjectFilter, bool) {
	managerID, ok := parseUUIDQuery(c, "manager_id")
	if !ok {
		return repository.ProjectFilter{}, false
	}
	poolID, ok := parseUUIDQuery(c, "budget_pool_id")
	if !ok {
		return repository.ProjectFilter{}, false
	}
	return repository.ProjectFilter{
		Status:       model.ProjectStatus(c.Query("status")),
		ManagerID:    managerID,
		BudgetPoolID: poolID,
		Search:       c.Query("search"),
	}, true
}

func (h *Handler) listProjects(c *gin.Context) {
	filter, ok := h.projectFilter(c)
	if !ok {
		return
	}

	projects, err := h.projects.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) getProject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type createProjectRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	ManagerID       string  `json:"manager_id" binding:"required"`
	SupervisorID    string  `json:"supervisor_id" binding:"required"`
	BudgetPoolID    string  `json:"budget_pool_id" binding:"required"`
	RequestedBudget float64 `json:"requested_budget"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
}

func (h *Handler) createProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	managerID, err := uuid.Parse(req.ManagerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid manager_id"})
		return
	}
	supervisorID, err := uuid.Parse(req.SupervisorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supervisor_id"})
		return
	}
	poolID, err := uuid.Parse(req.BudgetPoolID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget_pool_id"})
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	project, err := h.projects.Create(c.Request.Context(), principal, service.CreateProjectInput{
		Name:            req.Name,
		Description:     req.Description,
		ManagerID:       managerID,
		SupervisorID:    supervisorID,
		BudgetPoolID:    poolID,
		RequestedBudget: req.RequestedBudget,
		StartDate:       startDate,
		EndDate:         endDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

type updateProjectRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	RequestedBudget *float64 `json:"requested_budget"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
}

func (h *Handler) updateProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	project, err := h.projects.Update(c.Request.Context(), principal, service.UpdateProjectInput{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		RequestedBudget: req.RequestedBudget,
		StartDate:       startDate,
		EndDate:         endDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) deleteProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) projectBudgetUsage(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	usage, err := h.projects.BudgetUsage(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

type completeChargeOutRequest struct {
	ChargeOutDate string `json:"charge_out_date" binding:"required"`
}

func (h *Handler) completeProjectChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req completeChargeOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chargeOutDate, err := parseDate(req.ChargeOutDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge_out_date"})
		return
	}

	project, err := h.projects.CompleteChargeOut(c.Request.Context(), principal, id, chargeOutDate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) exportProjects(c *gin.Context) {
	filter, ok := h.projectFilter(c)
	if !ok {
		return
	}

	fileName, content, err := h.projects.ExportXLSX(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
