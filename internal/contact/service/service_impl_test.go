package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/opsdesk/internal/contact/domain"
	"github.com/smallbiznis/opsdesk/internal/contact/repository"
	conversationrepository "github.com/smallbiznis/opsdesk/internal/conversation/repository"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
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

func setupContactService(t *testing.T, node *snowflake.Node) (domain.Service, *eventbus.Bus, *gorm.DB) {
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
	prepareContactSchema(t, db)

	bus := eventbus.New(zap.NewNop())

	svc := New(Params{
		DB:               db,
		Log:              zap.NewNop(),
		GenID:            node,
		Repo:             repository.Provide(),
		ConversationRepo: conversationrepository.Provide(),
		Bus:              bus,
	})

	return svc, bus, db
}

func prepareContactSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	stmts := []string{
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
}

type captureHandler struct {
	events []eventbus.Payload
}

func (c *captureHandler) handle(ctx context.Context, payload eventbus.Payload) error {
	c.events = append(c.events, payload)
	return nil
}

func drain(bus *eventbus.Bus) {
	for {
		if !bus.DispatchNext(context.Background()) {
			return
		}
	}
}

func TestIntakeCreatesContactAndEmitsEvent(t *testing.T) {
	node := mustNode(t)
	svc, bus, _ := setupContactService(t, node)

	capture := &captureHandler{}
	bus.Subscribe(eventbus.NewContact, "capture", capture.handle)

	workspaceID := node.Generate()
	got, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "Ana",
		Email:       "Ana@Example.com",
	})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if !got.Created {
		t.Fatal("expected contact to be created")
	}
	if got.Contact.Email != "ana@example.com" {
		t.Fatalf("email = %q, want lowercased", got.Contact.Email)
	}

	drain(bus)
	if len(capture.events) != 1 {
		t.Fatalf("events = %d, want 1", len(capture.events))
	}
	payload := capture.events[0]
	if payload["contact_id"] != got.Contact.ID {
		t.Fatalf("payload contact_id = %v, want %v", payload["contact_id"], got.Contact.ID)
	}
	if payload["workspace_id"] != workspaceID {
		t.Fatalf("payload workspace_id = %v, want %v", payload["workspace_id"], workspaceID)
	}
}

func TestIntakeDeduplicatesByEmailThenPhone(t *testing.T) {
	node := mustNode(t)
	svc, bus, _ := setupContactService(t, node)

	capture := &captureHandler{}
	bus.Subscribe(eventbus.NewContact, "capture", capture.handle)

	workspaceID := node.Generate()
	first, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "Ben",
		Email:       "ben@example.com",
		Phone:       "+15550001111",
	})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}

	// Same email, different phone: matched by email.
	byEmail, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "Ben again",
		Email:       "ben@example.com",
		Phone:       "+15559998888",
	})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if byEmail.Created || byEmail.Contact.ID != first.Contact.ID {
		t.Fatalf("expected dedupe by email onto %v, got created=%v id=%v", first.Contact.ID, byEmail.Created, byEmail.Contact.ID)
	}

	// No email, matching phone: matched by phone.
	byPhone, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "Ben by phone",
		Phone:       "+15550001111",
	})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if byPhone.Created || byPhone.Contact.ID != first.Contact.ID {
		t.Fatalf("expected dedupe by phone onto %v, got created=%v id=%v", first.Contact.ID, byPhone.Created, byPhone.Contact.ID)
	}

	drain(bus)
	if len(capture.events) != 1 {
		t.Fatalf("events = %d, want 1 (only the first intake is new)", len(capture.events))
	}
}

func TestIntakeRequiresNameAndChannel(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupContactService(t, node)

	workspaceID := node.Generate()

	_, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Email:       "x@example.com",
	})
	if !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}

	_, err = svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "No channel",
	})
	if !errors.Is(err, domain.ErrMissingChannel) {
		t.Fatalf("err = %v, want ErrMissingChannel", err)
	}
}

func TestIntakeMessageAppendsToConversation(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupContactService(t, node)

	workspaceID := node.Generate()
	got, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "Cara",
		Email:       "cara@example.com",
		Message:     "Hi, do you have openings on Friday?",
	})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}

	var conversationCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM conversations WHERE contact_id = ?`, got.Contact.ID).Scan(&conversationCount).Error; err != nil {
		t.Fatalf("count conversations: %v", err)
	}
	if conversationCount != 1 {
		t.Fatalf("conversations = %d, want 1", conversationCount)
	}

	// A second message from the same contact reuses the conversation.
	if _, err := svc.Intake(context.Background(), domain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        "Cara",
		Email:       "cara@example.com",
		Message:     "Following up.",
	}); err != nil {
		t.Fatalf("intake: %v", err)
	}

	if err := db.Raw(`SELECT COUNT(*) FROM conversations WHERE contact_id = ?`, got.Contact.ID).Scan(&conversationCount).Error; err != nil {
		t.Fatalf("count conversations: %v", err)
	}
	if conversationCount != 1 {
		t.Fatalf("conversations = %d, want 1 after second message", conversationCount)
	}

	var messageCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM messages m JOIN conversations c ON c.id = m.conversation_id WHERE c.contact_id = ?`, got.Contact.ID).Scan(&messageCount).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if messageCount != 2 {
		t.Fatalf("messages = %d, want 2", messageCount)
	}
}

func TestListScopedToWorkspace(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupContactService(t, node)

	wsA := node.Generate()
	wsB := node.Generate()

	for i, ws := range []snowflake.ID{wsA, wsA, wsB} {
		if _, err := svc.Intake(context.Background(), domain.IntakeRequest{
			WorkspaceID: ws,
			Name:        fmt.Sprintf("Contact %d", i),
			Email:       fmt.Sprintf("contact%d@example.com", i),
		}); err != nil {
			t.Fatalf("intake: %v", err)
		}
	}

	ctx := workspacectx.WithWorkspaceID(context.Background(), wsA)
	resp, err := svc.List(ctx, domain.ListContactRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(resp.Contacts))
	}
	for _, contact := range resp.Contacts {
		if contact.WorkspaceID != wsA {
			t.Fatalf("contact %v belongs to workspace %v", contact.ID, contact.WorkspaceID)
		}
	}
}
