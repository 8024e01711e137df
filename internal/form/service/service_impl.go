package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/form/domain"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Contacts    contactdomain.Service
	ContactRepo contactdomain.Repository
	Bus         *eventbus.Bus
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	contacts    contactdomain.Service
	contactRepo contactdomain.Repository
	bus         *eventbus.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("form.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		contacts:    p.Contacts,
		contactRepo: p.ContactRepo,
		bus:         p.Bus,
	}
}

func (s *Service) CreateTemplate(ctx context.Context, req domain.CreateTemplateRequest) (domain.Template, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Template{}, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Template{}, domain.ErrInvalidName
	}

	tpl := domain.Template{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		Name:        name,
		Schema:      req.Schema,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.InsertTemplate(ctx, s.db, &tpl); err != nil {
		s.log.Error("failed to insert form template", zap.Error(err))
		return domain.Template{}, err
	}

	return tpl, nil
}

func (s *Service) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	rows, err := s.repo.ListTemplates(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	tpls := make([]domain.Template, 0, len(rows))
	for _, row := range rows {
		tpls = append(tpls, *row)
	}
	return tpls, nil
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Submission, error) {
	if req.WorkspaceID == 0 {
		return domain.Submission{}, domain.ErrInvalidWorkspace
	}
	templateID, err := snowflake.ParseString(req.TemplateID)
	if err != nil {
		return domain.Submission{}, domain.ErrInvalidID
	}

	tpl, err := s.repo.FindTemplateByID(ctx, s.db, req.WorkspaceID, templateID)
	if err != nil {
		return domain.Submission{}, err
	}
	if tpl == nil {
		return domain.Submission{}, domain.ErrNotFound
	}

	intake, err := s.contacts.Intake(ctx, contactdomain.IntakeRequest{
		WorkspaceID: req.WorkspaceID,
		Name:        req.ContactName,
		Email:       req.ContactEmail,
		Phone:       req.ContactPhone,
	})
	if err != nil {
		return domain.Submission{}, err
	}

	now := time.Now().UTC()
	sub := domain.Submission{
		ID:          s.genID.Generate(),
		TemplateID:  tpl.ID,
		ContactID:   intake.Contact.ID,
		Data:        req.Data,
		Status:      domain.SubmissionCompleted,
		SubmittedAt: &now,
		CreatedAt:   now,
	}

	if err := s.repo.InsertSubmission(ctx, s.db, &sub); err != nil {
		s.log.Error("failed to insert form submission", zap.Error(err))
		return domain.Submission{}, err
	}

	s.bus.Emit(eventbus.FormSubmitted, eventbus.Payload{
		"submission_id": sub.ID,
	})

	return sub, nil
}

func (s *Service) Assign(ctx context.Context, req domain.AssignRequest) (domain.Submission, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Submission{}, domain.ErrInvalidWorkspace
	}

	templateID, err := snowflake.ParseString(req.TemplateID)
	if err != nil {
		return domain.Submission{}, domain.ErrInvalidID
	}
	contactID, err := snowflake.ParseString(req.ContactID)
	if err != nil {
		return domain.Submission{}, domain.ErrInvalidID
	}

	tpl, err := s.repo.FindTemplateByID(ctx, s.db, workspaceID, templateID)
	if err != nil {
		return domain.Submission{}, err
	}
	if tpl == nil {
		return domain.Submission{}, domain.ErrNotFound
	}

	contact, err := s.contactRepo.FindByID(ctx, s.db, workspaceID, contactID)
	if err != nil {
		return domain.Submission{}, err
	}
	if contact == nil {
		return domain.Submission{}, domain.ErrNotFound
	}

	sub := domain.Submission{
		ID:         s.genID.Generate(),
		TemplateID: tpl.ID,
		ContactID:  contact.ID,
		Status:     domain.SubmissionPending,
		DueAt:      req.DueAt,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.InsertSubmission(ctx, s.db, &sub); err != nil {
		s.log.Error("failed to insert form assignment", zap.Error(err))
		return domain.Submission{}, err
	}

	return sub, nil
}

func (s *Service) ListSubmissions(ctx context.Context, req domain.ListSubmissionsRequest) ([]domain.Submission, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	var templateID snowflake.ID
	if strings.TrimSpace(req.TemplateID) != "" {
		id, err := snowflake.ParseString(req.TemplateID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		templateID = id
	}

	rows, err := s.repo.ListSubmissions(ctx, s.db, workspaceID, templateID)
	if err != nil {
		return nil, err
	}

	subs := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, *row)
	}
	return subs, nil
}
