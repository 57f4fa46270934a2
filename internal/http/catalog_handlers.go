package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/http/middleware"
	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/service"
)

func (h *Handler) registerCatalogRoutes(group *gin.RouterGroup) {
	group.GET("/vendors", h.listVendors)
	group.GET("/vendors/:id", h.getVendor)
	group.POST("/vendors", h.createVendor)
	group.PATCH("/vendors/:id", h.updateVendor)
	group.DELETE("/vendors/:id", h.deleteVendor)

	group.GET("/quotes", h.listQuotes)
	group.POST("/quotes", h.createQuote)
	group.PATCH("/quotes/:id", h.updateQuote)
	group.DELETE("/quotes/:id", h.deleteQuote)

	group.GET("/operating-companies", h.listOperatingCompanies)
	group.GET("/users", h.listUsers)
}

func (h *Handler) listVendors(c *gin.Context) {
	vendors, err := h.catalog.ListVendors(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

func (h *Handler) getVendor(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	vendor, err := h.catalog.GetVendor(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

type vendorRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email"`
	Phone         string `json:"phone"`
}

func (h *Handler) createVendor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendor, err := h.catalog.CreateVendor(c.Request.Context(), principal, service.VendorInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		Phone:         req.Phone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

func (h *Handler) updateVendor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendor, err := h.catalog.UpdateVendor(c.Request.Context(), principal, id, service.VendorInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		Phone:         req.Phone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (h *Handler) deleteVendor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteVendor(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listQuotes(c *gin.Context) {
	projectID, ok := parseUUIDQuery(c, "project_id")
	if !ok {
		return
	}

	quotes, err := h.catalog.ListQuotes(c.Request.Context(), projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

type createQuoteRequest struct {
	FilePath  string  `json:"file_path"`
	Amount    float64 `json:"amount" binding:"required"`
	VendorID  string  `json:"vendor_id" binding:"required"`
	ProjectID string  `json:"project_id" binding:"required"`
}

func (h *Handler) createQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	quote, err := h.catalog.CreateQuote(c.Request.Context(), principal, service.QuoteInput{
		FilePath:  req.FilePath,
		Amount:    req.Amount,
		VendorID:  vendorID,
		ProjectID: projectID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

type updateQuoteRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *Handler) updateQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.catalog.UpdateQuote(c.Request.Context(), principal, id, req.Amount)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) deleteQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteQuote(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listOperatingCompanies(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	companies, err := h.catalog.ListOperatingCompanies(c.Request.Context(), activeOnly)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *Handler) listUsers(c *gin.Context) {
	roleQuery := c.Query("role")
	if roleQuery == "" {
		users, err := h.catalog.ListUsers(c.Request.Context())
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
		return
	}

	users, err := h.catalog.ListUsersByRole(c.Request.Context(), model.Role(roleQuery))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
