package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/itops-hk/itpm-service/internal/service"
)

type Handler struct {
	proposals     *service.ProposalService
	projects      *service.ProjectService
	pools         *service.BudgetPoolService
	orders        *service.PurchaseOrderService
	expenses      *service.ExpenseService
	chargeOuts    *service.ChargeOutService
	catalog       *service.CatalogService
	omExpenses    *service.OMExpenseService
	notifications *service.NotificationService
	log           zerolog.Logger
}

func NewHandler(
	proposals *service.ProposalService,
	projects *service.ProjectService,
	pools *service.BudgetPoolService,
	orders *service.PurchaseOrderService,
	expenses *service.ExpenseService,
	chargeOuts *service.ChargeOutService,
	catalog *service.CatalogService,
	omExpenses *service.OMExpenseService,
	notifications *service.NotificationService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		proposals:     proposals,
		projects:      projects,
		pools:         pools,
		orders:        orders,
		expenses:      expenses,
		chargeOuts:    chargeOuts,
		catalog:       catalog,
		omExpenses:    omExpenses,
		notifications: notifications,
		log:           log,
	}
}

// NewRouter wires the gin engine: recovery, CORS, a health probe and every
// authenticated route group.
func NewRouter(h *Handler, authMiddleware gin.HandlerFunc, environment string) *gin.Engine {
	if environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.Register(router, authMiddleware)
	return router
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	h.registerProposalRoutes(protected)
	h.registerProjectRoutes(protected)
	h.registerBudgetPoolRoutes(protected)
	h.registerPurchaseOrderRoutes(protected)
	h.registerExpenseRoutes(protected)
	h.registerChargeOutRoutes(protected)
	h.registerCatalogRoutes(protected)
	h.registerOMExpenseRoutes(protected)
	h.registerNotificationRoutes(protected)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientBudget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDQuery(c *gin.Context, key string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(c *gin.Context, raw *string, key string) (*uuid.UUID, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return nil, false
	}
	return &id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
