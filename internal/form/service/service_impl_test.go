package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	contactrepository "github.com/smallbiznis/opsdesk/internal/contact/repository"
	contactservice "github.com/smallbiznis/opsdesk/internal/contact/service"
	conversationrepository "github.com/smallbiznis/opsdesk/internal/conversation/repository"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/form/domain"
	"github.com/smallbiznis/opsdesk/internal/form/repository"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func setupFormService(t *testing.T, node *snowflake.Node) (domain.Service, *eventbus.Bus, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	stmts := []string{
		`CREATE TABLE form_templates (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			schema TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE form_submissions (
			id INTEGER PRIMARY KEY,
			template_id INTEGER NOT NULL,
			contact_id INTEGER NOT NULL,
			data TEXT,
			status TEXT NOT NULL,
			submitted_at DATETIME,
			due_at DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE contacts (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE conversations (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			contact_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			last_message_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE messages (
			id INTEGER PRIMARY KEY,
			conversation_id INTEGER NOT NULL,
			direction TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	bus := eventbus.New(zap.NewNop())

	contactRepo := contactrepository.Provide()
	contacts := contactservice.New(contactservice.Params{
		DB:               db,
		Log:              zap.NewNop(),
		GenID:            node,
		Repo:             contactRepo,
		ConversationRepo: conversationrepository.Provide(),
		Bus:              bus,
	})

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		Contacts:    contacts,
		ContactRepo: contactRepo,
		Bus:         bus,
	})

	return svc, bus, db
}

type captureHandler struct {
	events []eventbus.Payload
}

func (c *captureHandler) handle(ctx context.Context, payload eventbus.Payload) error {
	c.events = append(c.events, payload)
	return nil
}

func drainBus(bus *eventbus.Bus) {
	for {
		if !bus.DispatchNext(context.Background()) {
			return
		}
	}
}

func TestSubmitRecordsCompletedSubmissionAndEmits(t *testing.T) {
	node := mustNode(t)
	svc, bus, _ := setupFormService(t, node)

	capture := &captureHandler{}
	bus.Subscribe(eventbus.FormSubmitted, "capture", capture.handle)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	tpl, err := svc.CreateTemplate(ctx, domain.CreateTemplateRequest{
		Name:   "Intake questionnaire",
		Schema: map[string]any{"fields": []any{"allergies"}},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	sub, err := svc.Submit(context.Background(), domain.SubmitRequest{
		WorkspaceID:  workspaceID,
		TemplateID:   tpl.ID.String(),
		ContactName:  "Dina",
		ContactEmail: "dina@example.com",
		Data:         map[string]any{"allergies": "none"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != domain.SubmissionCompleted {
		t.Fatalf("status = %q, want completed", sub.Status)
	}
	if sub.SubmittedAt == nil {
		t.Fatal("expected submitted_at to be set")
	}

	drainBus(bus)
	if len(capture.events) != 1 {
		t.Fatalf("events = %d, want 1", len(capture.events))
	}
	if capture.events[0]["submission_id"] != sub.ID {
		t.Fatalf("payload submission_id = %v, want %v", capture.events[0]["submission_id"], sub.ID)
	}
}

func TestSubmitReusesExistingContact(t *testing.T) {
	node := mustNode(t)
	svc, bus, db := setupFormService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	tpl, err := svc.CreateTemplate(ctx, domain.CreateTemplateRequest{Name: "Waiver"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Submit(context.Background(), domain.SubmitRequest{
			WorkspaceID:  workspaceID,
			TemplateID:   tpl.ID.String(),
			ContactName:  "Eko",
			ContactEmail: "eko@example.com",
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	drainBus(bus)

	var contactCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM contacts WHERE workspace_id = ?`, workspaceID).Scan(&contactCount).Error; err != nil {
		t.Fatalf("count contacts: %v", err)
	}
	if contactCount != 1 {
		t.Fatalf("contacts = %d, want 1", contactCount)
	}
}

func TestSubmitUnknownTemplate(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupFormService(t, node)

	_, err := svc.Submit(context.Background(), domain.SubmitRequest{
		WorkspaceID:  node.Generate(),
		TemplateID:   node.Generate().String(),
		ContactName:  "Nobody",
		ContactEmail: "nobody@example.com",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAssignCreatesPendingSubmission(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupFormService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	tpl, err := svc.CreateTemplate(ctx, domain.CreateTemplateRequest{Name: "Pre-visit form"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	contactID := node.Generate()
	if err := db.Exec(
		`INSERT INTO contacts (id, workspace_id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		contactID, workspaceID, "Fay", "fay@example.com", "", time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	due := time.Now().UTC().Add(48 * time.Hour)
	sub, err := svc.Assign(ctx, domain.AssignRequest{
		TemplateID: tpl.ID.String(),
		ContactID:  contactID.String(),
		DueAt:      &due,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if sub.Status != domain.SubmissionPending {
		t.Fatalf("status = %q, want pending", sub.Status)
	}
	if sub.DueAt == nil || !sub.DueAt.Equal(due) {
		t.Fatalf("due_at = %v, want %v", sub.DueAt, due)
	}
	if sub.SubmittedAt != nil {
		t.Fatal("pending assignment must not have submitted_at")
	}
}

func TestAssignUnknownContact(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupFormService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	tpl, err := svc.CreateTemplate(ctx, domain.CreateTemplateRequest{Name: "Orphan"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	_, err = svc.Assign(ctx, domain.AssignRequest{
		TemplateID: tpl.ID.String(),
		ContactID:  node.Generate().String(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSubmissionsFiltersByTemplate(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupFormService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	tplA, err := svc.CreateTemplate(ctx, domain.CreateTemplateRequest{Name: "A"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	tplB, err := svc.CreateTemplate(ctx, domain.CreateTemplateRequest{Name: "B"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	for i, tpl := range []snowflake.ID{tplA.ID, tplA.ID, tplB.ID} {
		if _, err := svc.Submit(context.Background(), domain.SubmitRequest{
			WorkspaceID:  workspaceID,
			TemplateID:   tpl.String(),
			ContactName:  fmt.Sprintf("Visitor %d", i),
			ContactEmail: fmt.Sprintf("visitor%d@example.com", i),
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	all, err := svc.ListSubmissions(ctx, domain.ListSubmissionsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("submissions = %d, want 3", len(all))
	}

	onlyA, err := svc.ListSubmissions(ctx, domain.ListSubmissionsRequest{TemplateID: tplA.ID.String()})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("submissions = %d, want 2 for template A", len(onlyA))
	}
}
