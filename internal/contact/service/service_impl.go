package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/contact/domain"
	conversationdomain "github.com/smallbiznis/opsdesk/internal/conversation/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"github.com/smallbiznis/opsdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Repo             domain.Repository
	ConversationRepo conversationdomain.Repository
	Bus              *eventbus.Bus
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	repo             domain.Repository
	conversationRepo conversationdomain.Repository
	bus              *eventbus.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("contact.service"),
		genID:            p.GenID,
		repo:             p.Repo,
		conversationRepo: p.ConversationRepo,
		bus:              p.Bus,
	}
}

func (s *Service) Intake(ctx context.Context, req domain.IntakeRequest) (domain.IntakeResult, error) {
	if req.WorkspaceID == 0 {
		return domain.IntakeResult{}, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.IntakeResult{}, domain.ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return domain.IntakeResult{}, domain.ErrMissingChannel
	}

	contact, err := s.dedupe(ctx, req.WorkspaceID, email, phone)
	if err != nil {
		return domain.IntakeResult{}, err
	}

	created := false
	if contact == nil {
		contact = &domain.Contact{
			ID:          s.genID.Generate(),
			WorkspaceID: req.WorkspaceID,
			Name:        name,
			Email:       email,
			Phone:       phone,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, s.db, contact); err != nil {
			return domain.IntakeResult{}, err
		}
		created = true

		s.bus.Emit(eventbus.NewContact, eventbus.Payload{
			"contact_id":   contact.ID,
			"workspace_id": contact.WorkspaceID,
		})
	}

	if message := strings.TrimSpace(req.Message); message != "" {
		if err := s.appendInbound(ctx, contact, message); err != nil {
			return domain.IntakeResult{}, err
		}
	}

	return domain.IntakeResult{Contact: *contact, Created: created}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListContactRequest) (domain.ListContactResponse, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return domain.ListContactResponse{}, domain.ErrInvalidWorkspace
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, workspaceID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListContactResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(contact *domain.Contact) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contact.ID.String(),
			CreatedAt: contact.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	contacts := make([]domain.Contact, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contacts = append(contacts, *item)
	}

	resp := domain.ListContactResponse{Contacts: contacts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) dedupe(ctx context.Context, workspaceID snowflake.ID, email, phone string) (*domain.Contact, error) {
	if email != "" {
		contact, err := s.repo.FindByEmail(ctx, s.db, workspaceID, email)
		if err != nil {
			return nil, err
		}
		if contact != nil {
			return contact, nil
		}
	}
	if phone != "" {
		contact, err := s.repo.FindByPhone(ctx, s.db, workspaceID, phone)
		if err != nil {
			return nil, err
		}
		if contact != nil {
			return contact, nil
		}
	}
	return nil, nil
}

func (s *Service) appendInbound(ctx context.Context, contact *domain.Contact, content string) error {
	conversation, err := s.conversationRepo.FindByContact(ctx, s.db, contact.ID)
	if err != nil {
		return err
	}
	if conversation == nil {
		now := time.Now().UTC()
		conversation = &conversationdomain.Conversation{
			ID:            s.genID.Generate(),
			WorkspaceID:   contact.WorkspaceID,
			ContactID:     contact.ID,
			Status:        conversationdomain.StatusActive,
			LastMessageAt: now,
			CreatedAt:     now,
		}
		if err := s.conversationRepo.Insert(ctx, s.db, conversation); err != nil {
			return err
		}
	}

	msgType := conversationdomain.TypeSMS
	if contact.Email != "" {
		msgType = conversationdomain.TypeEmail
	}

	return s.conversationRepo.InsertMessage(ctx, s.db, &conversationdomain.Message{
		ID:             s.genID.Generate(),
		ConversationID: conversation.ID,
		Direction:      conversationdomain.DirectionInbound,
		Type:           msgType,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	})
}
