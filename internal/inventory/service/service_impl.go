package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/inventory/domain"
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
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
		repo:  p.Repo,
		bus:   p.Bus,
	}
}

func (s *Service) CreateItem(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Item{}, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Item{}, domain.ErrInvalidName
	}
	if req.Quantity < 0 {
		return domain.Item{}, domain.ErrInvalidQuantity
	}
	if req.LowStockThreshold < 0 {
		return domain.Item{}, domain.ErrInvalidThreshold
	}

	now := time.Now().UTC()
	item := domain.Item{
		ID:                s.genID.Generate(),
		WorkspaceID:       workspaceID,
		Name:              name,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		s.log.Error("failed to insert inventory item", zap.Error(err))
		return domain.Item{}, err
	}

	return item, nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidWorkspace
	}

	rows, err := s.repo.List(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
	}
	return items, nil
}

func (s *Service) Consume(ctx context.Context, req domain.ConsumeRequest) (domain.Item, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		return domain.Item{}, domain.ErrInvalidWorkspace
	}

	itemID, err := snowflake.ParseString(req.ItemID)
	if err != nil {
		return domain.Item{}, domain.ErrInvalidID
	}
	if req.Quantity <= 0 {
		return domain.Item{}, domain.ErrInvalidQuantity
	}

	var bookingID *snowflake.ID
	if strings.TrimSpace(req.BookingID) != "" {
		id, err := snowflake.ParseString(req.BookingID)
		if err != nil {
			return domain.Item{}, domain.ErrInvalidID
		}
		bookingID = &id
	}

	affected, err := s.repo.DecrementIfSufficient(ctx, s.db, workspaceID, itemID, req.Quantity)
	if err != nil {
		s.log.Error("failed to decrement inventory item", zap.Error(err))
		return domain.Item{}, err
	}
	if affected == 0 {
		// Distinguish a missing item from one without enough stock.
		item, err := s.repo.FindByID(ctx, s.db, workspaceID, itemID)
		if err != nil {
			return domain.Item{}, err
		}
		if item == nil {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, domain.ErrInsufficientStock
	}

	usage := domain.Usage{
		ID:        s.genID.Generate(),
		ItemID:    itemID,
		BookingID: bookingID,
		Quantity:  req.Quantity,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertUsage(ctx, s.db, &usage); err != nil {
		s.log.Error("failed to record inventory usage", zap.Error(err))
		return domain.Item{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, workspaceID, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if item == nil {
		return domain.Item{}, domain.ErrNotFound
	}

	if item.Quantity <= item.LowStockThreshold {
		s.bus.Emit(eventbus.InventoryLow, eventbus.Payload{
			"item_id": item.ID,
		})
	}

	return *item, nil
}
