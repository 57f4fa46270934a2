package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/itops-hk/itpm-service/internal/http/middleware"
	"github.com/itops-hk/itpm-service/internal/service"
)

func (h *Handler) registerBudgetPoolRoutes(group *gin.RouterGroup) {
	group.GET("/budget-pools", h.listBudgetPools)
	group.GET("/budget-pools/stats", h.budgetPoolStats)
	group.GET("/budget-pools/export", h.exportBudgetPools)
	group.GET("/budget-pools/:id", h.getBudgetPool)
	group.POST("/budget-pools", middleware.RequireAdmin(), h.createBudgetPool)
	group.PATCH("/budget-pools/:id", middleware.RequireAdmin(), h.updateBudgetPool)
	group.DELETE("/budget-pools/:id", middleware.RequireAdmin(), h.deleteBudgetPool)
}

func (h *Handler) listBudgetPools(c *gin.Context) {
	financialYear := 0
	if raw := c.Query("financial_year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid financial_year"})
			return
		}
		financialYear = parsed
	}

	pools, err := h.pools.List(c.Request.Context(), financialYear)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pools)
}

func (h *Handler) getBudgetPool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	pool, err := h.pools.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

type budgetPoolRequest struct {
	Name          string  `json:"name" binding:"required"`
	TotalAmount   float64 `json:"total_amount" binding:"required"`
	FinancialYear int     `json:"financial_year" binding:"required"`
	Description   string  `json:"description"`
}

func (h *Handler) createBudgetPool(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req budgetPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pool, err := h.pools.Create(c.Request.Context(), principal, service.BudgetPoolInput{
		Name:          req.Name,
		TotalAmount:   req.TotalAmount,
		FinancialYear: req.FinancialYear,
		Description:   req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pool)
}

type updateBudgetPoolRequest struct {
	Name        *string  `json:"name"`
	TotalAmount *float64 `json:"total_amount"`
	Description *string  `json:"description"`
}

func (h *Handler) updateBudgetPool(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateBudgetPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pool, err := h.pools.Update(c.Request.Context(), principal, service.UpdateBudgetPoolInput{
		ID:          id,
		Name:        req.Name,
		TotalAmount: req.TotalAmount,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

func (h *Handler) deleteBudgetPool(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.pools.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) budgetPoolStats(c *gin.Context) {
	stats, err := h.pools.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) exportBudgetPools(c *gin.Context) {
	fileName, content, err := h.pools.ExportXLSX(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
