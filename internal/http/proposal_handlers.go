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

func (h *Handler) registerProposalRoutes(group *gin.RouterGroup) {
	group.GET("/proposals", h.listProposals)
	group.GET("/proposals/:id", h.getProposal)
	group.POST("/proposals", h.createProposal)
	group.PATCH("/proposals/:id", h.updateProposal)
	group.DELETE("/proposals/:id", h.deleteProposal)
	group.POST("/proposals/:id/submit", middleware.RequireAction(model.ActionSubmitProposal), h.submitProposal)
	group.POST("/proposals/:id/approve", middleware.RequireAction(model.ActionApproveProposal), h.approveProposal)
	group.POST("/proposals/:id/comments", h.addProposalComment)
	group.PUT("/proposals/:id/meeting", h.updateProposalMeeting)
}

func (h *Handler) listProposals(c *gin.Context) {
	projectID, ok := parseUUIDQuery(c, "project_id")
	if !ok {
		return
	}

	proposals, err := h.proposals.List(c.Request.Context(), repository.ProposalFilter{
		Status:    model.ProposalStatus(c.Query("status")),
		ProjectID: projectID,
		Search:    c.Query("search"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (h *Handler) getProposal(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	proposal, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

type createProposalRequest struct {
	Title     string  `json:"title" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	ProjectID string  `json:"project_id" binding:"required"`
}

func (h *Handler) createProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	proposal, err := h.proposals.Create(c.Request.Context(), principal, service.CreateProposalInput{
		Title:     req.Title,
		Amount:    req.Amount,
		ProjectID: projectID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

type updateProposalRequest struct {
	Title  *string  `json:"title"`
	Amount *float64 `json:"amount"`
}

func (h *Handler) updateProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposals.Update(c.Request.Context(), principal, service.UpdateProposalInput{
		ID:     id,
		Title:  req.Title,
		Amount: req.Amount,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) deleteProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.proposals.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) submitProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	proposal, err := h.proposals.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

type approveProposalRequest struct {
	Action         string   `json:"action" binding:"required"`
	Comment        *string  `json:"comment"`
	ApprovedAmount *float64 `json:"approved_amount"`
}

func (h *Handler) approveProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req approveProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposals.Approve(c.Request.Context(), principal, service.ApproveProposalInput{
		ID:             id,
		Action:         model.ProposalStatus(req.Action),
		Comment:        req.Comment,
		ApprovedAmount: req.ApprovedAmount,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

type addCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) addProposalComment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.proposals.AddComment(c.Request.Context(), principal, id, req.Content)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type meetingNotesRequest struct {
	MeetingDate  *string `json:"meeting_date"`
	MeetingNotes *string `json:"meeting_notes"`
	PresentedBy  *string `json:"presented_by"`
}

func (h *Handler) updateProposalMeeting(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req meetingNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meetingDate, err := parseOptionalDate(req.MeetingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting_date"})
		return
	}

	proposal, err := h.proposals.UpdateMeetingNotes(c.Request.Context(), principal, service.MeetingNotesInput{
		ID:           id,
		MeetingDate:  meetingDate,
		MeetingNotes: req.MeetingNotes,
		PresentedBy:  req.PresentedBy,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}
