package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/opsdesk/internal/audit/domain"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	"github.com/smallbiznis/opsdesk/internal/rule/domain"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Forms formdomain.Repository
	Audit auditdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	forms formdomain.Repository
	audit auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rule.service"),
		genID: p.GenID,
		repo:  p.Repo,
		forms: p.Forms,
		audit: p.Audit,
	}
}

func (s *Service) recordChange(ctx context.Context, rule *domain.Rule, action string) {
	if err := s.audit.Record(ctx, auditdomain.RecordRequest{
		WorkspaceID: rule.WorkspaceID,
		Action:      action,
		EntityType:  "automation_rule",
		EntityID:    rule.ID.String(),
		Detail:      map[string]any{"name": rule.Name},
	}); err != nil {
		s.log.Warn("failed to record rule audit log", zap.Error(err))
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRuleRequest) (domain.Rule, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Rule{}, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Rule{}, domain.ErrInvalidName
	}
	if req.ActionType != domain.ActionSendEmail && req.ActionType != domain.ActionSendSMS {
		return domain.Rule{}, domain.ErrInvalidAction
	}

	templateID, err := snowflake.ParseString(req.FormTemplateID)
	if err != nil {
		return domain.Rule{}, domain.ErrInvalidID
	}

	tpl, err := s.forms.FindTemplateByID(ctx, s.db, workspaceID, templateID)
	if err != nil {
		return domain.Rule{}, err
	}
	if tpl == nil {
		return domain.Rule{}, domain.ErrTemplateNotFound
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := time.Now().UTC()
	rule := domain.Rule{
		ID:             s.genID.Generate(),
		WorkspaceID:    workspaceID,
		Name:           name,
		FormTemplateID: templateID,
		ActionType:     req.ActionType,
		ActionConfig:   req.ActionConfig,
		IsActive:       active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &rule); err != nil {
		s.log.Error("failed to insert automation rule", zap.Error(err))
		return domain.Rule{}, err
	}

	s.recordChange(ctx, &rule, "rule.create")
	return rule, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Rule, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	rows, err := s.repo.List(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	rules := make([]domain.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, *row)
	}
	return rules, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRuleRequest) (domain.Rule, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Rule{}, domain.ErrInvalidWorkspace
	}

	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Rule{}, domain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return domain.Rule{}, err
	}
	if rule == nil {
		return domain.Rule{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Rule{}, domain.ErrInvalidName
		}
		rule.Name = name
	}
	if req.ActionConfig != nil {
		rule.ActionConfig = req.ActionConfig
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, rule); err != nil {
		s.log.Error("failed to update automation rule", zap.Error(err))
		return domain.Rule{}, err
	}

	s.recordChange(ctx, rule, "rule.update")
	return *rule, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidWorkspace
	}

	id, err := snowflake.ParseString(rawID)
	if err != nil {
		return domain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return err
	}
	if rule == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, workspaceID, id); err != nil {
		return err
	}

	s.recordChange(ctx, rule, "rule.delete")
	return nil
}
