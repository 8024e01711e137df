package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepository "github.com/smallbiznis/opsdesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/opsdesk/internal/audit/service"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	bookingrepository "github.com/smallbiznis/opsdesk/internal/booking/repository"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	identityrepository "github.com/smallbiznis/opsdesk/internal/identity/repository"
	"github.com/smallbiznis/opsdesk/internal/config"
	"github.com/smallbiznis/opsdesk/internal/providers/email"
	"github.com/smallbiznis/opsdesk/internal/providers/sms"
	"github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"github.com/smallbiznis/opsdesk/internal/workspace/repository"
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

func setupWorkspaceService(t *testing.T, node *snowflake.Node) (domain.Service, *gorm.DB) {
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
	prepareWorkspaceSchema(t, db)

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Users:    identityrepository.Provide(),
		Bookings: bookingrepository.Provide(),
		Email:    email.NewLog(zap.NewNop()),
		SMS:      sms.NewLog(config.SMSConfig{Sender: "test"}, zap.NewNop()),
		Audit: auditservice.New(auditservice.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  auditrepository.Provide(),
		}),
	})

	return svc, db
}

func prepareWorkspaceSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE workspaces (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			address TEXT,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			contact_email TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			settings JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE offerings (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			duration_min INTEGER NOT NULL,
			location TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE availabilities (
			id INTEGER PRIMARY KEY,
			offering_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL
		)`,
		`CREATE TABLE integration_logs (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			channel TEXT NOT NULL,
			status TEXT NOT NULL,
			details TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE audit_logs (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			actor_id INTEGER,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			detail JSON,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
}

func createDraftWorkspace(t *testing.T, svc domain.Service) domain.Workspace {
	t.Helper()
	ws, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:          "Glow Salon",
		ContactEmail:  "hello@glow.example",
		OwnerEmail:    fmt.Sprintf("owner+%s@glow.example", t.Name()),
		OwnerPassword: "correct-horse",
	})
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if ws.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want draft", ws.Status)
	}
	return ws
}

func ownerCtx(ws domain.Workspace) context.Context {
	ctx := workspacectx.WithWorkspaceID(context.Background(), ws.ID)
	return workspacectx.WithRole(ctx, string(identitydomain.RoleOwner))
}

func addOffering(t *testing.T, db *gorm.DB, node *snowflake.Node, ws domain.Workspace, withAvailability bool) {
	t.Helper()

	offering := bookingdomain.Offering{
		ID:          node.Generate(),
		WorkspaceID: ws.ID,
		Name:        "Haircut",
		DurationMin: 30,
		CreatedAt:   time.Now().UTC(),
	}
	if withAvailability {
		offering.Availabilities = []bookingdomain.Availability{{
			ID:         node.Generate(),
			OfferingID: offering.ID,
			DayOfWeek:  0,
			StartTime:  "09:00",
			EndTime:    "17:00",
		}}
	}
	if err := bookingrepository.Provide().InsertOffering(context.Background(), db, &offering); err != nil {
		t.Fatalf("insert offering: %v", err)
	}
}

func TestActivateGateOrderedPredicates(t *testing.T) {
	node := mustNode(t)
	svc, db := setupWorkspaceService(t, node)
	ws := createDraftWorkspace(t, svc)
	ctx := ownerCtx(ws)

	// No channel configured yet.
	if _, err := svc.Activate(ctx); !errors.Is(err, domain.ErrNoChannel) {
		t.Fatalf("err = %v, want ErrNoChannel", err)
	}

	if _, err := svc.UpdateIntegrations(ctx, domain.UpdateIntegrationsRequest{
		Channels: map[string]any{"email": map[string]any{"provider": "resend"}},
	}); err != nil {
		t.Fatalf("update integrations: %v", err)
	}

	// Channel is set but no offerings exist.
	if _, err := svc.Activate(ctx); !errors.Is(err, domain.ErrNoOfferings) {
		t.Fatalf("err = %v, want ErrNoOfferings", err)
	}

	addOffering(t, db, node, ws, false)

	// An offering exists but has no availability window.
	if _, err := svc.Activate(ctx); !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("err = %v, want ErrNoAvailability", err)
	}

	addOffering(t, db, node, ws, true)

	activated, err := svc.Activate(ctx)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.Status != domain.StatusActive {
		t.Fatalf("status = %s, want active", activated.Status)
	}

	// Terminal once active.
	if _, err := svc.Activate(ctx); !errors.Is(err, domain.ErrAlreadyActive) {
		t.Fatalf("err = %v, want ErrAlreadyActive", err)
	}
}

func TestActivateOwnerOnly(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupWorkspaceService(t, node)
	ws := createDraftWorkspace(t, svc)

	ctx := workspacectx.WithWorkspaceID(context.Background(), ws.ID)
	ctx = workspacectx.WithRole(ctx, string(identitydomain.RoleStaff))

	if _, err := svc.Activate(ctx); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	var status string
	db := mustDB(t, svc)
	if err := db.Raw(`SELECT status FROM workspaces WHERE id = ?`, ws.ID).Scan(&status).Error; err != nil {
		t.Fatalf("reload status: %v", err)
	}
	if status != string(domain.StatusDraft) {
		t.Fatalf("status = %s, want draft", status)
	}
}

func mustDB(t *testing.T, svc domain.Service) *gorm.DB {
	t.Helper()
	impl, ok := svc.(*Service)
	if !ok {
		t.Fatalf("unexpected service type %T", svc)
	}
	return impl.db
}

func TestUpdateIntegrationsMergesSettings(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupWorkspaceService(t, node)
	ws := createDraftWorkspace(t, svc)
	ctx := ownerCtx(ws)

	if _, err := svc.UpdateIntegrations(ctx, domain.UpdateIntegrationsRequest{
		Channels: map[string]any{"email": map[string]any{"provider": "resend"}},
	}); err != nil {
		t.Fatalf("update integrations: %v", err)
	}

	updated, err := svc.UpdateIntegrations(ctx, domain.UpdateIntegrationsRequest{
		Channels: map[string]any{"sms": map[string]any{"provider": "twilio"}},
	})
	if err != nil {
		t.Fatalf("update integrations: %v", err)
	}

	if _, ok := updated.Settings["email"]; !ok {
		t.Fatal("email channel lost after merging sms config")
	}
	if _, ok := updated.Settings["sms"]; !ok {
		t.Fatal("sms channel missing after update")
	}
}

func TestTestIntegrationRequiresConfiguredChannel(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupWorkspaceService(t, node)
	ws := createDraftWorkspace(t, svc)
	ctx := ownerCtx(ws)

	if _, err := svc.TestIntegration(ctx, domain.TestIntegrationRequest{Channel: "email"}); !errors.Is(err, domain.ErrChannelNotSet) {
		t.Fatalf("err = %v, want ErrChannelNotSet", err)
	}

	if _, err := svc.UpdateIntegrations(ctx, domain.UpdateIntegrationsRequest{
		Channels: map[string]any{"email": map[string]any{"provider": "resend"}},
	}); err != nil {
		t.Fatalf("update integrations: %v", err)
	}

	entry, err := svc.TestIntegration(ctx, domain.TestIntegrationRequest{Channel: "email"})
	if err != nil {
		t.Fatalf("test integration: %v", err)
	}
	if entry.Status != "success" {
		t.Fatalf("status = %s, want success", entry.Status)
	}

	logs, err := svc.ListIntegrationLogs(ctx)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
}
