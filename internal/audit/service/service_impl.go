package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/audit/domain"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) error {
	if req.WorkspaceID == 0 {
		return domain.ErrInvalidWorkspace
	}
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return domain.ErrInvalidAction
	}
	entityType := strings.TrimSpace(req.EntityType)
	if entityType == "" {
		return domain.ErrInvalidEntity
	}

	actorID := req.ActorID
	if actorID == 0 {
		if userID, ok := workspacectx.UserIDFromContext(ctx); ok {
			actorID = userID
		}
	}

	entry := domain.AuditLog{
		ID:          s.genID.Generate(),
		WorkspaceID: req.WorkspaceID,
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    req.EntityID,
		Detail:      req.Detail,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Error("failed to insert audit log",
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.AuditLog, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	rows, err := s.repo.List(ctx, s.db, workspaceID, domain.ListFilter{
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row)
	}
	return entries, nil
}
