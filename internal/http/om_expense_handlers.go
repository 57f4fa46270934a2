package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/http/middleware"
	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
	"github.com/itops-hk/itpm-service/internal/service"
)

func (h *Handler) registerOMExpenseRoutes(group *gin.RouterGroup) {
	group.GET("/om-expenses", h.listOMExpenses)
	group.GET("/om-expenses/monthly-totals", h.omMonthlyTotals)
	group.GET("/om-expenses/by-source/:id", h.omExpensesBySource)
	group.GET("/om-expenses/:id", h.getOMExpense)
	group.POST("/om-expenses", h.createOMExpense)
	group.PATCH("/om-expenses/:id", h.updateOMExpense)
	group.DELETE("/om-expenses/:id", h.deleteOMExpense)
	group.POST("/om-expenses/batch-delete", h.deleteManyOMExpenses)
	group.POST("/om-expenses/:id/items", h.addOMExpenseItem)
	group.PUT("/om-expenses/:id/items/order", h.reorderOMExpenseItems)
	group.POST("/om-expenses/:id/yoy-growth", h.omYoYGrowth)
	group.PATCH("/om-expense-items/:id", h.updateOMExpenseItem)
	group.DELETE("/om-expense-items/:id", h.removeOMExpenseItem)
	group.PUT("/om-expense-items/:id/monthly", h.updateOMExpenseItemMonthly)

	group.GET("/om-expense-categories", h.listOMCategories)
	group.GET("/om-expense-categories/:id", h.getOMCategory)
	group.POST("/om-expense-categories",
		middleware.RequireAction(model.ActionManageOMCategories), h.createOMCategory)
	group.PATCH("/om-expense-categories/:id",
		middleware.RequireAction(model.ActionManageOMCategories), h.updateOMCategory)
	group.DELETE("/om-expense-categories/:id",
		middleware.RequireAction(model.ActionManageOMCategories), h.deleteOMCategory)
}

func (h *Handler) listOMExpenses(c *gin.Context) {
	opCoID, ok := parseUUIDQuery(c, "op_co_id")
	if !ok {
		return
	}
	financialYear, _ := strconv.Atoi(c.Query("financial_year"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.omExpenses.List(c.Request.Context(), repository.OMExpenseFilter{
		FinancialYear: financialYear,
		Category:      c.Query("category"),
		OpCoID:        opCoID,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) getOMExpense(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expense, err := h.omExpenses.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

type omExpenseItemRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	SortOrder    *int     `json:"sort_order"`
	BudgetAmount float64  `json:"budget_amount"`
	LastFYActual *float64 `json:"last_fy_actual"`
	OpCoID       string   `json:"op_co_id" binding:"required"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	Ongoing      bool     `json:"ongoing"`
}

func (r omExpenseItemRequest) toInput(c *gin.Context) (service.OMExpenseItemInput, bool) {
	opCoID, err := uuid.Parse(r.OpCoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid op_co_id"})
		return service.OMExpenseItemInput{}, false
	}
	start, err := parseOptionalDate(r.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return service.OMExpenseItemInput{}, false
	}
	end, err := parseOptionalDate(r.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return service.OMExpenseItemInput{}, false
	}
	return service.OMExpenseItemInput{
		Name:         r.Name,
		Description:  r.Description,
		SortOrder:    r.SortOrder,
		BudgetAmount: r.BudgetAmount,
		LastFYActual: r.LastFYActual,
		OpCoID:       opCoID,
		StartDate:    start,
		EndDate:      end,
		Ongoing:      r.Ongoing,
	}, true
}

type createOMExpenseRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Description     string                 `json:"description"`
	FinancialYear   int                    `json:"financial_year" binding:"required"`
	Category        string                 `json:"category" binding:"required"`
	VendorID        *string                `json:"vendor_id"`
	SourceExpenseID *string                `json:"source_expense_id"`
	DefaultOpCoID   *string                `json:"default_op_co_id"`
	Items           []omExpenseItemRequest `json:"items" binding:"required"`
}

func (h *Handler) createOMExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createOMExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendorID, ok := parseOptionalUUID(c, req.VendorID, "vendor_id")
	if !ok {
		return
	}
	sourceExpenseID, ok := parseOptionalUUID(c, req.SourceExpenseID, "source_expense_id")
	if !ok {
		return
	}
	defaultOpCoID, ok := parseOptionalUUID(c, req.DefaultOpCoID, "default_op_co_id")
	if !ok {
		return
	}

	items := make([]service.OMExpenseItemInput, 0, len(req.Items))
	for _, itemReq := range req.Items {
		input, ok := itemReq.toInput(c)
		if !ok {
			return
		}
		items = append(items, input)
	}

	expense, err := h.omExpenses.Create(c.Request.Context(), principal, service.CreateOMExpenseInput{
		Name:            req.Name,
		Description:     req.Description,
		FinancialYear:   req.FinancialYear,
		Category:        req.Category,
		VendorID:        vendorID,
		SourceExpenseID: sourceExpenseID,
		DefaultOpCoID:   defaultOpCoID,
		Items:           items,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

type updateOMExpenseRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	VendorID      *string `json:"vendor_id"`
	DefaultOpCoID *string `json:"default_op_co_id"`
}

func (h *Handler) updateOMExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateOMExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendorID, ok := parseOptionalUUID(c, req.VendorID, "vendor_id")
	if !ok {
		return
	}
	defaultOpCoID, ok := parseOptionalUUID(c, req.DefaultOpCoID, "default_op_co_id")
	if !ok {
		return
	}

	expense, err := h.omExpenses.Update(c.Request.Context(), principal, service.UpdateOMExpenseInput{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		VendorID:      vendorID,
		DefaultOpCoID: defaultOpCoID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) deleteOMExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.omExpenses.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *Handler) deleteManyOMExpenses(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id " + raw})
			return
		}
		ids = append(ids, id)
	}

	deleted, err := h.omExpenses.DeleteMany(c.Request.Context(), principal, ids)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_count": deleted})
}

func (h *Handler) addOMExpenseItem(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req omExpenseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, ok := req.toInput(c)
	if !ok {
		return
	}

	expense, err := h.omExpenses.AddItem(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

type updateOMItemRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	BudgetAmount *float64 `json:"budget_amount"`
	LastFYActual *float64 `json:"last_fy_actual"`
	OpCoID       *string  `json:"op_co_id"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	Ongoing      *bool    `json:"ongoing"`
}

func (h *Handler) updateOMExpenseItem(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateOMItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opCoID, ok := parseOptionalUUID(c, req.OpCoID, "op_co_id")
	if !ok {
		return
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	expense, err := h.omExpenses.UpdateItem(c.Request.Context(), principal, service.UpdateOMItemInput{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		BudgetAmount: req.BudgetAmount,
		LastFYActual: req.LastFYActual,
		OpCoID:       opCoID,
		StartDate:    start,
		EndDate:      end,
		Ongoing:      req.Ongoing,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) removeOMExpenseItem(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expense, err := h.omExpenses.RemoveItem(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

type reorderItemsRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required"`
}

func (h *Handler) reorderOMExpenseItems(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req reorderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id " + raw})
			return
		}
		itemIDs = append(itemIDs, itemID)
	}

	expense, err := h.omExpenses.ReorderItems(c.Request.Context(), principal, id, itemIDs)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

type monthlyRecordRequest struct {
	Month        int     `json:"month" binding:"required"`
	ActualAmount float64 `json:"actual_amount"`
}

func (h *Handler) updateOMExpenseItemMonthly(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Records []monthlyRecordRequest `json:"records" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := make([]service.MonthlyAmountInput, 0, len(req.Records))
	for _, record := range req.Records {
		records = append(records, service.MonthlyAmountInput{
			Month:        record.Month,
			ActualAmount: record.ActualAmount,
		})
	}

	expense, err := h.omExpenses.UpdateItemMonthly(c.Request.Context(), principal, id, records)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) omExpensesBySource(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expenses, err := h.omExpenses.BySourceExpense(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *Handler) omMonthlyTotals(c *gin.Context) {
	financialYear, err := strconv.Atoi(c.Query("financial_year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid financial_year"})
		return
	}
	opCoID, ok := parseUUIDQuery(c, "op_co_id")
	if !ok {
		return
	}

	totals, err := h.omExpenses.MonthlyTotals(c.Request.Context(), financialYear, opCoID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) omYoYGrowth(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	growth, err := h.omExpenses.YoYGrowth(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, growth)
}

func (h *Handler) listOMCategories(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	categories, err := h.omExpenses.ListCategories(c.Request.Context(), activeOnly)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) getOMCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	category, err := h.omExpenses.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

type omCategoryRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (h *Handler) createOMCategory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req omCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.omExpenses.CreateCategory(c.Request.Context(), principal, service.OMCategoryInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

type updateOMCategoryRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	Active      *bool   `json:"active"`
}

func (h *Handler) updateOMCategory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateOMCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.omExpenses.UpdateCategory(c.Request.Context(), principal, service.UpdateOMCategoryInput{
		ID:          id,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		Active:      req.Active,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deleteOMCategory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.omExpenses.DeleteCategory(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
