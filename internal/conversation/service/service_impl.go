package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/conversation/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
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
	Bus   *eventbus.Bus
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	bus   *eventbus.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("conversation.service"),
		genID: p.GenID,
		repo:  p.Repo,
		bus:   p.Bus,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Conversation, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	items, err := s.repo.List(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	conversations := make([]domain.Conversation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		conversations = append(conversations, *item)
	}
	return conversations, nil
}

func (s *Service) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	id, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}

	conversation, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.repo.ListMessages(ctx, s.db, conversation.ID)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		messages = append(messages, *item)
	}
	return messages, nil
}

func (s *Service) Reply(ctx context.Context, req domain.ReplyRequest) (domain.Message, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return domain.Message{}, domain.ErrInvalidWorkspace
	}

	id, err := parseID(req.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return domain.Message{}, domain.ErrInvalidContent
	}

	msgType := domain.MessageType(strings.TrimSpace(req.Type))
	if msgType == "" {
		msgType = domain.TypeEmail
	}
	if msgType != domain.TypeEmail && msgType != domain.TypeSMS {
		return domain.Message{}, domain.ErrInvalidType
	}

	conversation, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return domain.Message{}, err
	}
	if conversation == nil {
		return domain.Message{}, domain.ErrNotFound
	}

	message := domain.Message{
		ID:             s.genID.Generate(),
		ConversationID: conversation.ID,
		Direction:      domain.DirectionOutbound,
		Type:           msgType,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.InsertMessage(ctx, s.db, &message); err != nil {
		return domain.Message{}, err
	}

	// A staff reply takes ownership of the thread: automation stands down.
	if conversation.Status != domain.StatusPaused {
		if err := s.repo.UpdateStatus(ctx, s.db, conversation.ID, domain.StatusPaused); err != nil {
			return domain.Message{}, err
		}
		s.log.Info("conversation paused after staff reply",
			zap.String("conversation_id", conversation.ID.String()),
		)
		s.bus.Emit(eventbus.StaffReply, eventbus.Payload{
			"conversation_id": conversation.ID,
		})
	}

	return message, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
