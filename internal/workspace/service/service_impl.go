package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/opsdesk/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	"github.com/smallbiznis/opsdesk/internal/providers/email"
	"github.com/smallbiznis/opsdesk/internal/providers/sms"
	"github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"github.com/smallbiznis/opsdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// recognizedChannels are the settings keys the activation gate accepts as
// a configured communication channel.
var recognizedChannels = []string{"email", "sms"}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Users    identitydomain.Repository
	Bookings bookingdomain.Repository
	Email    email.Provider
	SMS      sms.Provider
	Audit    auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	users    identitydomain.Repository
	bookings bookingdomain.Repository
	email    email.Provider
	sms      sms.Provider
	audit    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("workspace.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		users:    p.Users,
		bookings: p.Bookings,
		email:    p.Email,
		sms:      p.SMS,
		audit:    p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Workspace, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Workspace{}, domain.ErrInvalidName
	}
	ownerEmail := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if !strings.Contains(ownerEmail, "@") {
		return domain.Workspace{}, domain.ErrInvalidEmail
	}
	contactEmail := strings.ToLower(strings.TrimSpace(req.ContactEmail))
	if contactEmail == "" {
		contactEmail = ownerEmail
	}
	if len(req.OwnerPassword) < 8 {
		return domain.Workspace{}, identitydomain.ErrInvalidPassword
	}

	existing, err := s.users.FindByEmail(ctx, s.db, ownerEmail)
	if err != nil {
		return domain.Workspace{}, err
	}
	if existing != nil {
		return domain.Workspace{}, identitydomain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.Workspace{}, err
	}

	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}

	now := time.Now().UTC()
	ws := domain.Workspace{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         slug.Make(name),
		Address:      strings.TrimSpace(req.Address),
		Timezone:     timezone,
		ContactEmail: contactEmail,
		Status:       domain.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	owner := identitydomain.User{
		ID:           s.genID.Generate(),
		WorkspaceID:  ws.ID,
		Email:        ownerEmail,
		PasswordHash: string(hash),
		Role:         identitydomain.RoleOwner,
		CreatedAt:    now,
	}

	provision := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.Insert(ctx, tx, &ws); err != nil {
				return err
			}
			return s.users.Insert(ctx, tx, &owner)
		})
	}

	if err := provision(); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			s.log.Error("failed to provision workspace", zap.Error(err))
			return domain.Workspace{}, err
		}
		// Slug collision with another workspace of the same name.
		ws.Slug = fmt.Sprintf("%s-%s", ws.Slug, ws.ID)
		if err := provision(); err != nil {
			s.log.Error("failed to provision workspace", zap.Error(err))
			return domain.Workspace{}, err
		}
	}

	return ws, nil
}

func (s *Service) Get(ctx context.Context) (domain.Workspace, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Workspace{}, domain.ErrInvalidWorkspace
	}

	ws, err := s.repo.FindByID(ctx, s.db, workspaceID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if ws == nil {
		return domain.Workspace{}, domain.ErrNotFound
	}
	return *ws, nil
}

func (s *Service) UpdateIntegrations(ctx context.Context, req domain.UpdateIntegrationsRequest) (domain.Workspace, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Workspace{}, domain.ErrInvalidWorkspace
	}
	if len(req.Channels) == 0 {
		return domain.Workspace{}, domain.ErrInvalidChannel
	}

	ws, err := s.repo.FindByID(ctx, s.db, workspaceID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if ws == nil {
		return domain.Workspace{}, domain.ErrNotFound
	}

	// Merge, never replace. Channels configured earlier survive a partial
	// update.
	if ws.Settings == nil {
		ws.Settings = map[string]any{}
	}
	for key, value := range req.Channels {
		ws.Settings[key] = value
	}
	ws.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSettings(ctx, s.db, ws); err != nil {
		s.log.Error("failed to update workspace settings", zap.Error(err))
		return domain.Workspace{}, err
	}

	return *ws, nil
}

func (s *Service) TestIntegration(ctx context.Context, req domain.TestIntegrationRequest) (domain.IntegrationLog, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.IntegrationLog{}, domain.ErrInvalidWorkspace
	}

	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	if channel != "email" && channel != "sms" {
		return domain.IntegrationLog{}, domain.ErrInvalidChannel
	}

	ws, err := s.repo.FindByID(ctx, s.db, workspaceID)
	if err != nil {
		return domain.IntegrationLog{}, err
	}
	if ws == nil {
		return domain.IntegrationLog{}, domain.ErrNotFound
	}
	if _, configured := ws.Settings[channel]; !configured {
		return domain.IntegrationLog{}, domain.ErrChannelNotSet
	}

	sendErr := s.testSend(ctx, ws, channel)

	entry := domain.IntegrationLog{
		ID:          s.genID.Generate(),
		WorkspaceID: ws.ID,
		Channel:     channel,
		Status:      "success",
		Details:     fmt.Sprintf("test message sent via %s", channel),
		CreatedAt:   time.Now().UTC(),
	}
	if sendErr != nil {
		entry.Status = "failure"
		entry.Details = sendErr.Error()
	}

	if err := s.repo.InsertIntegrationLog(ctx, s.db, &entry); err != nil {
		s.log.Error("failed to insert integration log", zap.Error(err))
		return domain.IntegrationLog{}, err
	}

	return entry, nil
}

func (s *Service) testSend(ctx context.Context, ws *domain.Workspace, channel string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch channel {
	case "email":
		return s.email.Send(ctx, email.Message{
			To:      ws.ContactEmail,
			Subject: fmt.Sprintf("%s channel test", ws.Name),
			Body:    "This is a test message confirming your email channel works.",
		})
	case "sms":
		to := ws.ContactEmail
		if raw, ok := ws.Settings["sms"].(map[string]any); ok {
			if phone, ok := raw["phone"].(string); ok && phone != "" {
				to = phone
			}
		}
		return s.sms.Send(ctx, sms.Message{
			To:   to,
			Body: "This is a test message confirming your SMS channel works.",
		})
	}
	return domain.ErrInvalidChannel
}

func (s *Service) ListIntegrationLogs(ctx context.Context) ([]domain.IntegrationLog, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	rows, err := s.repo.ListIntegrationLogs(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	logs := make([]domain.IntegrationLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, *row)
	}
	return logs, nil
}

func (s *Service) Activate(ctx context.Context) (domain.Workspace, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Workspace{}, domain.ErrInvalidWorkspace
	}
	role, _ := workspacectx.RoleFromContext(ctx)
	if role != string(identitydomain.RoleOwner) {
		return domain.Workspace{}, domain.ErrForbidden
	}

	ws, err := s.repo.FindByID(ctx, s.db, workspaceID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if ws == nil {
		return domain.Workspace{}, domain.ErrNotFound
	}
	if ws.Status == domain.StatusActive {
		return domain.Workspace{}, domain.ErrAlreadyActive
	}

	// Readiness predicates, fixed order, first failure wins.
	if !hasConfiguredChannel(ws.Settings) {
		return domain.Workspace{}, domain.ErrNoChannel
	}

	offerings, err := s.bookings.CountOfferings(ctx, s.db, ws.ID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if offerings == 0 {
		return domain.Workspace{}, domain.ErrNoOfferings
	}

	withAvailability, err := s.bookings.CountOfferingsWithAvailability(ctx, s.db, ws.ID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if withAvailability == 0 {
		return domain.Workspace{}, domain.ErrNoAvailability
	}

	affected, err := s.repo.ActivateIfDraft(ctx, s.db, ws.ID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if affected == 0 {
		return domain.Workspace{}, domain.ErrAlreadyActive
	}

	s.log.Info("workspace activated",
		zap.String("workspace_id", ws.ID.String()),
	)

	if err := s.audit.Record(ctx, auditdomain.RecordRequest{
		WorkspaceID: ws.ID,
		Action:      "workspace.activate",
		EntityType:  "workspace",
		EntityID:    ws.ID.String(),
	}); err != nil {
		s.log.Warn("failed to record activation audit log", zap.Error(err))
	}

	ws.Status = domain.StatusActive
	return *ws, nil
}

func hasConfiguredChannel(settings map[string]any) bool {
	for _, key := range recognizedChannels {
		if _, ok := settings[key]; ok {
			return true
		}
	}
	return false
}
