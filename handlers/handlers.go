package handlers

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"redforge/config"
	"redforge/middleware"
	"redforge/services"
	"redforge/store"
)

const ServiceName = "redforge-webhooks"

// Handler serves the intake endpoints. Counters live on the instance so
// several handlers (and tests) never share state.
type Handler struct {
	log      *zap.Logger
	verifier *services.Verifier
	intake   *services.Intake
	store    store.Store
	notifier services.Notifier

	maxBodyBytes     int64
	version          string
	stripeConfigured bool
	now              func() time.Time

	webhooksReceived atomic.Int64
	customersCreated atomic.Int64
}

type Options struct {
	MaxBodyBytes     int64
	Version          string
	StripeConfigured bool
}

func New(log *zap.Logger, verifier *services.Verifier, s store.Store, notifier services.Notifier, opts Options) *Handler {
	if notifier == nil {
		notifier = services.NopNotifier{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	return &Handler{
		log:              log,
		verifier:         verifier,
		intake:           services.NewIntake(log),
		store:            s,
		notifier:         notifier,
		maxBodyBytes:     opts.MaxBodyBytes,
		version:          opts.Version,
		stripeConfigured: opts.StripeConfigured,
		now:              time.Now,
	}
}

// NewRouter wires the handler onto a gin engine with request logging,
// panic recovery and the optional admin gate on /customers.
func NewRouter(log *zap.Logger, h *Handler, features config.Features, adminSecret string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	r.GET("/", h.Status)
	r.GET("/health", h.Health)
	r.POST("/webhook", h.Webhook)
	r.GET("/customers", middleware.AdminRequired(log, features, adminSecret), h.ListCustomers)

	return r
}
