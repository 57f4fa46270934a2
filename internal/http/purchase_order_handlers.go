package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/http/middleware"
	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
	"github.com/itops-hk/itpm-service/internal/service"
)

func (h *Handler) registerPurchaseOrderRoutes(group *gin.RouterGroup) {
	group.GET("/purchase-orders", h.listPurchaseOrders)
	group.GET("/purchase-orders/stats", h.purchaseOrderStats)
	group.GET("/purchase-orders/:id", h.getPurchaseOrder)
	group.POST("/purchase-orders", h.createPurchaseOrder)
	group.PATCH("/purchase-orders/:id", h.updatePurchaseOrder)
	group.DELETE("/purchase-orders/:id", h.deletePurchaseOrder)
	group.POST("/purchase-orders/:id/submit", h.submitPurchaseOrder)
	group.POST("/purchase-orders/:id/approve", middleware.RequireAction(model.ActionApprovePO), h.approvePurchaseOrder)
}

func (h *Handler) listPurchaseOrders(c *gin.Context) {
	projectID, ok := parseUUIDQuery(c, "project_id")
	if !ok {
		return
	}
	vendorID, ok := parseUUIDQuery(c, "vendor_id")
	if !ok {
		return
	}

	orders, err := h.orders.List(c.Request.Context(), repository.PurchaseOrderFilter{
		Status:    model.POStatus(c.Query("status")),
		ProjectID: projectID,
		VendorID:  vendorID,
		Search:    c.Query("search"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getPurchaseOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type purchaseOrderItemRequest struct {
	ItemName    string  `json:"item_name" binding:"required"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unit_price"`
}

type createPurchaseOrderRequest struct {
	PONumber    string                     `json:"po_number" binding:"required"`
	Name        string                     `json:"name" binding:"required"`
	Description string                     `json:"description"`
	Date        string                     `json:"date" binding:"required"`
	ProjectID   string                     `json:"project_id" binding:"required"`
	VendorID    string                     `json:"vendor_id" binding:"required"`
	QuoteID     *string                    `json:"quote_id"`
	Items       []purchaseOrderItemRequest `json:"items" binding:"required"`
}

func (h *Handler) createPurchaseOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
		return
	}

	var quoteID *uuid.UUID
	if req.QuoteID != nil && *req.QuoteID != "" {
		parsed, err := uuid.Parse(*req.QuoteID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote_id"})
			return
		}
		quoteID = &parsed
	}

	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	order, err := h.orders.Create(c.Request.Context(), principal, service.CreatePurchaseOrderInput{
		PONumber:    req.PONumber,
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		ProjectID:   projectID,
		VendorID:    vendorID,
		QuoteID:     quoteID,
		Items:       toPurchaseOrderItemInputs(req.Items),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type updatePurchaseOrderRequest struct {
	PONumber    *string                    `json:"po_number"`
	Name        *string                    `json:"name"`
	Description *string                    `json:"description"`
	Date        *string                    `json:"date"`
	VendorID    *string                    `json:"vendor_id"`
	QuoteID     *string                    `json:"quote_id"`
	Items       []purchaseOrderItemRequest `json:"items" binding:"required"`
}

func (h *Handler) updatePurchaseOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		date = &parsed
	}

	var vendorID *uuid.UUID
	if req.VendorID != nil {
		parsed, err := uuid.Parse(*req.VendorID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
			return
		}
		vendorID = &parsed
	}

	var quoteID *uuid.UUID
	if req.QuoteID != nil && *req.QuoteID != "" {
		parsed, err := uuid.Parse(*req.QuoteID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote_id"})
			return
		}
		quoteID = &parsed
	}

	order, err := h.orders.Update(c.Request.Context(), principal, service.UpdatePurchaseOrderInput{
		ID:          id,
		PONumber:    req.PONumber,
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		VendorID:    vendorID,
		QuoteID:     quoteID,
		Items:       toPurchaseOrderItemInputs(req.Items),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deletePurchaseOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) submitPurchaseOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) approvePurchaseOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.Approve(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) purchaseOrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func toPurchaseOrderItemInputs(items []purchaseOrderItemRequest) []service.PurchaseOrderItemInput {
	inputs := make([]service.PurchaseOrderItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.PurchaseOrderItemInput{
			ItemName:    item.ItemName,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return inputs
}
