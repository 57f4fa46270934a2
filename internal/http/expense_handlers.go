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

func (h *Handler) registerExpenseRoutes(group *gin.RouterGroup) {
	group.GET("/expenses", h.listExpenses)
	group.GET("/expenses/:id", h.getExpense)
	group.POST("/expenses", h.createExpense)
	group.PATCH("/expenses/:id", h.updateExpense)
	group.DELETE("/expenses/:id", h.deleteExpense)
	group.POST("/expenses/:id/submit", middleware.RequireAction(model.ActionSubmitExpense), h.submitExpense)
	group.POST("/expenses/:id/approve", middleware.RequireAction(model.ActionApproveExpense), h.approveExpense)
	group.POST("/expenses/:id/reject", middleware.RequireAction(model.ActionRejectExpense), h.rejectExpense)
	group.POST("/expenses/:id/mark-as-paid", h.markExpensePaid)
}

func (h *Handler) listExpenses(c *gin.Context) {
	purchaseOrderID, ok := parseUUIDQuery(c, "purchase_order_id")
	if !ok {
		return
	}
	projectID, ok := parseUUIDQuery(c, "project_id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.expenses.List(c.Request.Context(), repository.ExpenseFilter{
		Status:          model.ExpenseStatus(c.Query("status")),
		PurchaseOrderID: purchaseOrderID,
		ProjectID:       projectID,
		Search:          c.Query("search"),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) getExpense(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expense, err := h.expenses.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

type expenseItemRequest struct {
	ItemName string  `json:"item_name" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
}

type createExpenseRequest struct {
	Name              string               `json:"name" binding:"required"`
	Description       string               `json:"description"`
	PurchaseOrderID   string               `json:"purchase_order_id" binding:"required"`
	InvoiceNumber     string               `json:"invoice_number"`
	InvoiceDate       *string              `json:"invoice_date"`
	ExpenseDate       *string              `json:"expense_date"`
	RequiresChargeOut bool                 `json:"requires_charge_out"`
	Items             []expenseItemRequest `json:"items" binding:"required"`
}

func (h *Handler) createExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchaseOrderID, err := uuid.Parse(req.PurchaseOrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase_order_id"})
		return
	}

	invoiceDate, err := parseOptionalDate(req.InvoiceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice_date"})
		return
	}
	expenseDate, err := parseOptionalDate(req.ExpenseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense_date"})
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), principal, service.CreateExpenseInput{
		Name:              req.Name,
		Description:       req.Description,
		PurchaseOrderID:   purchaseOrderID,
		InvoiceNumber:     req.InvoiceNumber,
		InvoiceDate:       invoiceDate,
		ExpenseDate:       expenseDate,
		RequiresChargeOut: req.RequiresChargeOut,
		Items:             toExpenseItemInputs(req.Items),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

type updateExpenseRequest struct {
	Name              *string              `json:"name"`
	Description       *string              `json:"description"`
	InvoiceNumber     *string              `json:"invoice_number"`
	InvoiceDate       *string              `json:"invoice_date"`
	ExpenseDate       *string              `json:"expense_date"`
	RequiresChargeOut *bool                `json:"requires_charge_out"`
	Items             []expenseItemRequest `json:"items" binding:"required"`
}

func (h *Handler) updateExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoiceDate, err := parseOptionalDate(req.InvoiceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice_date"})
		return
	}
	expenseDate, err := parseOptionalDate(req.ExpenseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense_date"})
		return
	}

	expense, err := h.expenses.Update(c.Request.Context(), principal, service.UpdateExpenseInput{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		InvoiceNumber:     req.InvoiceNumber,
		InvoiceDate:       invoiceDate,
		ExpenseDate:       expenseDate,
		RequiresChargeOut: req.RequiresChargeOut,
		Items:             toExpenseItemInputs(req.Items),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) deleteExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.expenses.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) submitExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expense, err := h.expenses.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) approveExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expense, err := h.expenses.Approve(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

type rejectExpenseRequest struct {
	Comment string `json:"comment" binding:"required"`
}

func (h *Handler) rejectExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req rejectExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.expenses.Reject(c.Request.Context(), principal, id, req.Comment)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) markExpensePaid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	expense, err := h.expenses.MarkAsPaid(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func toExpenseItemInputs(items []expenseItemRequest) []service.ExpenseItemInput {
	inputs := make([]service.ExpenseItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.ExpenseItemInput{
			ItemName: item.ItemName,
			Amount:   item.Amount,
		})
	}
	return inputs
}
