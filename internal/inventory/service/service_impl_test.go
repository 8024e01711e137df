package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/inventory/domain"
	"github.com/smallbiznis/opsdesk/internal/inventory/repository"
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

func setupInventoryService(t *testing.T, node *snowflake.Node) (domain.Service, *eventbus.Bus, *gorm.DB) {
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
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	prepareInventorySchema(t, db)

	bus := eventbus.New(zap.NewNop())

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Bus:   bus,
	})

	return svc, bus, db
}

func prepareInventorySchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE inventory_items (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			low_stock_threshold INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE inventory_usage (
			id INTEGER PRIMARY KEY,
			item_id INTEGER NOT NULL,
			booking_id INTEGER,
			quantity INTEGER NOT NULL,
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
	mu     sync.Mutex
	events []eventbus.Payload
}

func (c *captureHandler) handle(ctx context.Context, payload eventbus.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, payload)
	return nil
}

func (c *captureHandler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func drain(bus *eventbus.Bus) {
	for {
		if !bus.DispatchNext(context.Background()) {
			return
		}
	}
}

func TestConsumeDecrementsAndRecordsUsage(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupInventoryService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	item, err := svc.CreateItem(ctx, domain.CreateItemRequest{
		Name:              "Shampoo",
		Quantity:          10,
		LowStockThreshold: 2,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	got, err := svc.Consume(ctx, domain.ConsumeRequest{
		ItemID:   item.ID.String(),
		Quantity: 3,
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", got.Quantity)
	}

	var usageCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM inventory_usage WHERE item_id = ?`, item.ID).Scan(&usageCount).Error; err != nil {
		t.Fatalf("count usage: %v", err)
	}
	if usageCount != 1 {
		t.Fatalf("usage rows = %d, want 1", usageCount)
	}
}

func TestConsumeInsufficientStockMutatesNothing(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupInventoryService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	item, err := svc.CreateItem(ctx, domain.CreateItemRequest{
		Name:              "Conditioner",
		Quantity:          2,
		LowStockThreshold: 1,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	_, err = svc.Consume(ctx, domain.ConsumeRequest{
		ItemID:   item.ID.String(),
		Quantity: 5,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	var quantity int
	if err := db.Raw(`SELECT quantity FROM inventory_items WHERE id = ?`, item.ID).Scan(&quantity).Error; err != nil {
		t.Fatalf("reload quantity: %v", err)
	}
	if quantity != 2 {
		t.Fatalf("quantity = %d, want 2 (unchanged)", quantity)
	}

	var usageCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM inventory_usage WHERE item_id = ?`, item.ID).Scan(&usageCount).Error; err != nil {
		t.Fatalf("count usage: %v", err)
	}
	if usageCount != 0 {
		t.Fatalf("usage rows = %d, want 0", usageCount)
	}
}

func TestConsumeUnknownItem(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupInventoryService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	_, err := svc.Consume(ctx, domain.ConsumeRequest{
		ItemID:   node.Generate().String(),
		Quantity: 1,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConsumeLevelTriggeredLowStockAlert(t *testing.T) {
	node := mustNode(t)
	svc, bus, _ := setupInventoryService(t, node)

	capture := &captureHandler{}
	bus.Subscribe(eventbus.InventoryLow, "capture", capture.handle)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	item, err := svc.CreateItem(ctx, domain.CreateItemRequest{
		Name:              "Towels",
		Quantity:          5,
		LowStockThreshold: 3,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	// 5 -> 4: still above threshold, no event.
	if _, err := svc.Consume(ctx, domain.ConsumeRequest{ItemID: item.ID.String(), Quantity: 1}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	drain(bus)
	if capture.count() != 0 {
		t.Fatalf("events = %d, want 0", capture.count())
	}

	// 4 -> 3: at threshold, one event.
	if _, err := svc.Consume(ctx, domain.ConsumeRequest{ItemID: item.ID.String(), Quantity: 1}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	drain(bus)
	if capture.count() != 1 {
		t.Fatalf("events = %d, want 1", capture.count())
	}

	// 3 -> 2: still low, emits again (level-triggered, not edge-triggered).
	if _, err := svc.Consume(ctx, domain.ConsumeRequest{ItemID: item.ID.String(), Quantity: 1}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	drain(bus)
	if capture.count() != 2 {
		t.Fatalf("events = %d, want 2", capture.count())
	}
}

func TestConsumeConcurrentNeverOversells(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupInventoryService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	item, err := svc.CreateItem(ctx, domain.CreateItemRequest{
		Name:              "Gift cards",
		Quantity:          10,
		LowStockThreshold: 0,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Consume(ctx, domain.ConsumeRequest{
				ItemID:   item.ID.String(),
				Quantity: 1,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("succeeded = %d, want 10", succeeded)
	}

	var quantity int
	if err := db.Raw(`SELECT quantity FROM inventory_items WHERE id = ?`, item.ID).Scan(&quantity).Error; err != nil {
		t.Fatalf("reload quantity: %v", err)
	}
	if quantity != 0 {
		t.Fatalf("quantity = %d, want 0", quantity)
	}
}
