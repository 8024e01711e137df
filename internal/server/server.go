package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/opsdesk/internal/alert"
	alertdomain "github.com/smallbiznis/opsdesk/internal/alert/domain"
	"github.com/smallbiznis/opsdesk/internal/audit"
	auditdomain "github.com/smallbiznis/opsdesk/internal/audit/domain"
	"github.com/smallbiznis/opsdesk/internal/authorization"
	"github.com/smallbiznis/opsdesk/internal/automation"
	"github.com/smallbiznis/opsdesk/internal/booking"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	"github.com/smallbiznis/opsdesk/internal/clock"
	"github.com/smallbiznis/opsdesk/internal/config"
	"github.com/smallbiznis/opsdesk/internal/contact"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	"github.com/smallbiznis/opsdesk/internal/conversation"
	conversationdomain "github.com/smallbiznis/opsdesk/internal/conversation/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/form"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	"github.com/smallbiznis/opsdesk/internal/identity"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	"github.com/smallbiznis/opsdesk/internal/inventory"
	inventorydomain "github.com/smallbiznis/opsdesk/internal/inventory/domain"
	"github.com/smallbiznis/opsdesk/internal/observability"
	"github.com/smallbiznis/opsdesk/internal/providers/email"
	"github.com/smallbiznis/opsdesk/internal/providers/sms"
	"github.com/smallbiznis/opsdesk/internal/ratelimit"
	"github.com/smallbiznis/opsdesk/internal/rule"
	ruledomain "github.com/smallbiznis/opsdesk/internal/rule/domain"
	"github.com/smallbiznis/opsdesk/internal/scheduler"
	"github.com/smallbiznis/opsdesk/internal/workspace"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	eventbus.Module,
	automation.Module,
	identity.Module,
	workspace.Module,
	contact.Module,
	conversation.Module,
	booking.Module,
	form.Module,
	inventory.Module,
	rule.Module,
	alert.Module,
	email.Module,
	sms.Module,
	ratelimit.Module,
	clock.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinLoggingMiddleware(log))
	r.Use(observability.GinTracingMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	genID           *snowflake.Node
	verifier        identitydomain.Verifier
	identitySvc     identitydomain.Service
	workspaceSvc    workspacedomain.Service
	contactSvc      contactdomain.Service
	conversationSvc conversationdomain.Service
	bookingSvc      bookingdomain.Service
	formSvc         formdomain.Service
	inventorySvc    inventorydomain.Service
	ruleSvc         ruledomain.Service
	alertSvc        alertdomain.Service
	auditSvc        auditdomain.Service
	authzSvc        authorization.Service
	intakeLimiter   *ratelimit.PublicIntakeLimiter
	obsMetrics      *observability.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	GenID           *snowflake.Node
	Verifier        identitydomain.Verifier
	IdentitySvc     identitydomain.Service
	WorkspaceSvc    workspacedomain.Service
	ContactSvc      contactdomain.Service
	ConversationSvc conversationdomain.Service
	BookingSvc      bookingdomain.Service
	FormSvc         formdomain.Service
	InventorySvc    inventorydomain.Service
	RuleSvc         ruledomain.Service
	AlertSvc        alertdomain.Service
	AuditSvc        auditdomain.Service
	AuthzSvc        authorization.Service
	IntakeLimiter   *ratelimit.PublicIntakeLimiter `optional:"true"`
	ObsMetrics      *observability.Metrics         `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log,
		db:              p.DB,
		genID:           p.GenID,
		verifier:        p.Verifier,
		identitySvc:     p.IdentitySvc,
		workspaceSvc:    p.WorkspaceSvc,
		contactSvc:      p.ContactSvc,
		conversationSvc: p.ConversationSvc,
		bookingSvc:      p.BookingSvc,
		formSvc:         p.FormSvc,
		inventorySvc:    p.InventorySvc,
		ruleSvc:         p.RuleSvc,
		alertSvc:        p.AlertSvc,
		auditSvc:        p.AuditSvc,
		authzSvc:        p.AuthzSvc,
		intakeLimiter:   p.IntakeLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// Signup is unauthenticated: it provisions a workspace and its owner.
	api.POST("/workspaces", s.CreateWorkspace)

	api.Use(s.AuthRequired())

	// -------- Workspace --------
	api.GET("/workspace", s.GetWorkspace)
	api.POST("/workspace/activate", s.authorizeAction(authorization.ObjectWorkspace, authorization.ActionWorkspaceActivate), s.ActivateWorkspace)
	api.PUT("/workspace/integrations", s.authorizeAction(authorization.ObjectWorkspace, authorization.ActionWorkspaceIntegrations), s.UpdateIntegrations)
	api.POST("/workspace/integrations/test", s.authorizeAction(authorization.ObjectWorkspace, authorization.ActionWorkspaceIntegrations), s.TestIntegration)
	api.GET("/workspace/integrations/logs", s.ListIntegrationLogs)

	// -------- Staff --------
	api.GET("/staff", s.authorizeAction(authorization.ObjectStaff, authorization.ActionStaffView), s.ListStaff)
	api.POST("/staff", s.authorizeAction(authorization.ObjectStaff, authorization.ActionStaffInvite), s.InviteStaff)

	// -------- Contacts & Conversations --------
	api.GET("/contacts", s.ListContacts)
	api.GET("/conversations", s.ListConversations)
	api.GET("/conversations/:id/messages", s.ListMessages)
	api.POST("/conversations/:id/reply", s.ReplyConversation)

	// -------- Offerings & Bookings --------
	api.GET("/offerings", s.ListOfferings)
	api.POST("/offerings", s.authorizeAction(authorization.ObjectOffering, authorization.ActionOfferingManage), s.CreateOffering)
	api.GET("/bookings", s.ListBookings)

	// -------- Forms --------
	api.GET("/forms", s.ListFormTemplates)
	api.POST("/forms", s.CreateFormTemplate)
	api.POST("/forms/assign", s.AssignForm)
	api.GET("/forms/submissions", s.ListFormSubmissions)

	// -------- Inventory --------
	api.GET("/inventory", s.ListInventoryItems)
	api.POST("/inventory", s.CreateInventoryItem)
	api.POST("/inventory/:id/consume", s.ConsumeInventory)

	// -------- Automation rules --------
	api.GET("/rules", s.ListRules)
	api.POST("/rules", s.authorizeAction(authorization.ObjectRule, authorization.ActionRuleManage), s.CreateRule)
	api.PATCH("/rules/:id", s.authorizeAction(authorization.ObjectRule, authorization.ActionRuleManage), s.UpdateRule)
	api.DELETE("/rules/:id", s.authorizeAction(authorization.ObjectRule, authorization.ActionRuleManage), s.DeleteRule)

	// -------- Alerts & Dashboard --------
	api.GET("/alerts", s.ListAlerts)
	api.POST("/alerts/:id/read", s.MarkAlertRead)
	api.GET("/dashboard/stats", s.GetDashboardStats)

	// -------- Audit --------
	api.GET("/audit-logs", s.authorizeAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public/:workspace_id")

	public.POST("/contact", s.PublicIntakeRateLimit("contact"), s.PublicContactIntake)
	public.POST("/bookings", s.PublicIntakeRateLimit("booking"), s.PublicCreateBooking)
	public.POST("/forms/:template_id/submissions", s.PublicIntakeRateLimit("form"), s.PublicSubmitForm)
}

func (s *Server) logWarn(msg string, fields ...zap.Field) {
	if s.log == nil {
		return
	}
	s.log.Warn(msg, fields...)
}

func (s *Server) recordIntakeAllowed(ctx context.Context, endpoint string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordIntakeAllowed(ctx, endpoint)
}

func (s *Server) recordIntakeDenied(ctx context.Context, endpoint, reason string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordIntakeDenied(ctx, endpoint, reason)
}
