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

func (h *Handler) registerChargeOutRoutes(group *gin.RouterGroup) {
	group.GET("/charge-outs", h.listChargeOuts)
	group.GET("/charge-outs/eligible-expenses", h.eligibleChargeOutExpenses)
	group.GET("/charge-outs/:id", h.getChargeOut)
	group.GET("/charge-outs/:id/debit-note", h.chargeOutDebitNote)
	group.POST("/charge-outs", h.createChargeOut)
	group.PATCH("/charge-outs/:id", h.updateChargeOut)
	group.PUT("/charge-outs/:id/items", h.updateChargeOutItems)
	group.POST("/charge-outs/:id/submit", h.submitChargeOut)
	group.POST("/charge-outs/:id/confirm", middleware.RequireAction(model.ActionConfirmChargeOut), h.confirmChargeOut)
	group.POST("/charge-outs/:id/reject", middleware.RequireAction(model.ActionRejectChargeOut), h.rejectChargeOut)
	group.POST("/charge-outs/:id/mark-as-paid", h.markChargeOutPaid)
	group.DELETE("/charge-outs/:id", h.deleteChargeOut)
}

func (h *Handler) listChargeOuts(c *gin.Context) {
	projectID, ok := parseUUIDQuery(c, "project_id")
	if !ok {
		return
	}
	opCoID, ok := parseUUIDQuery(c, "op_co_id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.chargeOuts.List(c.Request.Context(), repository.ChargeOutFilter{
		Status:    model.ChargeOutStatus(c.Query("status")),
		ProjectID: projectID,
		OpCoID:    opCoID,
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) getChargeOut(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	chargeOut, err := h.chargeOuts.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

type chargeOutItemRequest struct {
	ID          *string `json:"id"`
	ExpenseID   string  `json:"expense_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Delete      bool    `json:"_delete"`
}

func toChargeOutItemInputs(c *gin.Context, items []chargeOutItemRequest) ([]service.ChargeOutItemInput, bool) {
	inputs := make([]service.ChargeOutItemInput, 0, len(items))
	for _, item := range items {
		var itemID *uuid.UUID
		if item.ID != nil && *item.ID != "" {
			parsed, err := uuid.Parse(*item.ID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
				return nil, false
			}
			itemID = &parsed
		}

		var expenseID uuid.UUID
		if item.ExpenseID != "" {
			parsed, err := uuid.Parse(item.ExpenseID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense_id"})
				return nil, false
			}
			expenseID = parsed
		}

		inputs = append(inputs, service.ChargeOutItemInput{
			ID:          itemID,
			ExpenseID:   expenseID,
			Amount:      item.Amount,
			Description: item.Description,
			Delete:      item.Delete,
		})
	}
	return inputs, true
}

type createChargeOutRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	ProjectID   string                 `json:"project_id" binding:"required"`
	OpCoID      string                 `json:"op_co_id" binding:"required"`
	Items       []chargeOutItemRequest `json:"items" binding:"required"`
}

func (h *Handler) createChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createChargeOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}
	opCoID, err := uuid.Parse(req.OpCoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid op_co_id"})
		return
	}

	items, ok := toChargeOutItemInputs(c, req.Items)
	if !ok {
		return
	}

	chargeOut, err := h.chargeOuts.Create(c.Request.Context(), principal, service.CreateChargeOutInput{
		Name:        req.Name,
		Description: req.Description,
		ProjectID:   projectID,
		OpCoID:      opCoID,
		Items:       items,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chargeOut)
}

type updateChargeOutRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	DebitNoteNumber *string `json:"debit_note_number"`
	IssueDate       *string `json:"issue_date"`
	PaymentDate     *string `json:"payment_date"`
}

func (h *Handler) updateChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateChargeOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issueDate, err := parseOptionalDate(req.IssueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issue_date"})
		return
	}
	paymentDate, err := parseOptionalDate(req.PaymentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date"})
		return
	}

	chargeOut, err := h.chargeOuts.Update(c.Request.Context(), principal, service.UpdateChargeOutInput{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		DebitNoteNumber: req.DebitNoteNumber,
		IssueDate:       issueDate,
		PaymentDate:     paymentDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

type updateChargeOutItemsRequest struct {
	Items []chargeOutItemRequest `json:"items" binding:"required"`
}

func (h *Handler) updateChargeOutItems(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateChargeOutItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, ok := toChargeOutItemInputs(c, req.Items)
	if !ok {
		return
	}

	chargeOut, err := h.chargeOuts.UpdateItems(c.Request.Context(), principal, id, items)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

func (h *Handler) submitChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	chargeOut, err := h.chargeOuts.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

func (h *Handler) confirmChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	chargeOut, err := h.chargeOuts.Confirm(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

type rejectChargeOutRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req rejectChargeOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chargeOut, err := h.chargeOuts.Reject(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

type markChargeOutPaidRequest struct {
	PaymentDate string `json:"payment_date" binding:"required"`
}

func (h *Handler) markChargeOutPaid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req markChargeOutPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date"})
		return
	}

	chargeOut, err := h.chargeOuts.MarkAsPaid(c.Request.Context(), principal, id, paymentDate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chargeOut)
}

func (h *Handler) deleteChargeOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.chargeOuts.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) eligibleChargeOutExpenses(c *gin.Context) {
	projectID, ok := parseUUIDQuery(c, "project_id")
	if !ok {
		return
	}

	expenses, err := h.chargeOuts.EligibleExpenses(c.Request.Context(), projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *Handler) chargeOutDebitNote(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	fileName, content, err := h.chargeOuts.DebitNotePDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/pdf", content)
}
