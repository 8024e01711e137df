package domain

import (
	"context"
	"errors"
)

type CreateItemRequest struct {
	Name              string
	Quantity          int
	LowStockThreshold int
}

type ConsumeRequest struct {
	ItemID    string
	BookingID string
	Quantity  int
}

type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)

	// Consume decrements stock atomically. A request that would leave the
	// quantity negative fails with ErrInsufficientStock and mutates
	// nothing. After a successful decrement, INVENTORY_LOW is emitted
	// whenever the remaining quantity is at or below the threshold, so
	// repeated low-stock consumption emits again.
	Consume(ctx context.Context, req ConsumeRequest) (Item, error)
}

var (
	ErrInvalidWorkspace  = errors.New("invalid_workspace")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidThreshold  = errors.New("invalid_threshold")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInsufficientStock = errors.New("insufficient_stock")
	ErrNotFound          = errors.New("not_found")
)
