package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/alert/domain"
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
		log:   p.Log.Named("alert.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Alert, error) {
	if req.WorkspaceID == 0 {
		return domain.Alert{}, domain.ErrInvalidWorkspace
	}
	if req.Type == "" {
		return domain.Alert{}, domain.ErrInvalidType
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.Alert{}, domain.ErrInvalidMessage
	}

	alert := domain.Alert{
		ID:          s.genID.Generate(),
		WorkspaceID: req.WorkspaceID,
		Type:        req.Type,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &alert); err != nil {
		s.log.Error("failed to insert alert", zap.Error(err))
		return domain.Alert{}, err
	}

	return alert, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Alert, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	rows, err := s.repo.List(ctx, s.db, workspaceID, req.UnreadOnly)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, *row)
	}
	return alerts, nil
}

func (s *Service) MarkRead(ctx context.Context, rawID string) error {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidWorkspace
	}

	id, err := snowflake.ParseString(rawID)
	if err != nil {
		return domain.ErrInvalidID
	}

	affected, err := s.repo.MarkRead(ctx, s.db, workspaceID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
