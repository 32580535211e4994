package services

import (
	"context"
	"errors"

	"ngo_backend/internal/logger"
	"ngo_backend/internal/models"
	"ngo_backend/internal/repositories"
	"ngo_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type InventoryService interface {
	GetItem(ctx context.Context, db *gorm.DB, itemID string) (*models.EventItem, error)
	// Reserve - apperrors.ErrInsufficientInventory, если остатка не хватает
	Reserve(ctx context.Context, db *gorm.DB, itemID string, quantity int) (remaining int, err error)
	Release(ctx context.Context, db *gorm.DB, itemID string, quantity int) error
}

type inventoryService struct {
	itemRepo repositories.EventItemRepository
}

func NewInventoryService(itemRepo repositories.EventItemRepository) InventoryService {
	return &inventoryService{itemRepo: itemRepo}
}

func (s *inventoryService) GetItem(ctx context.Context, db *gorm.DB, itemID string) (*models.EventItem, error) {
	item, err := s.itemRepo.FindByID(db, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventItemNotFound) {
			return nil, apperrors.ErrEventItemNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return item, nil
}

func (s *inventoryService) Reserve(ctx context.Context, db *gorm.DB, itemID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, apperrors.NewBadRequestError("item quantity must be at least 1")
	}

	ok, remaining, err := s.itemRepo.Reserve(db, itemID, quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrEventItemNotFound) {
			return 0, apperrors.ErrEventItemNotFound
		}
		return 0, apperrors.InternalError(err)
	}
	if !ok {
		logger.CtxWarn(ctx, "item reservation refused",
			"item_id", itemID, "requested", quantity, "remaining", remaining)
		return remaining, apperrors.ErrInsufficientInventory.WithDetails(map[string]int{
			"requested": quantity,
			"remaining": remaining,
		})
	}

	logger.CtxDebug(ctx, "item reserved", "item_id", itemID, "quantity", quantity, "remaining", remaining)
	return remaining, nil
}

func (s *inventoryService) Release(ctx context.Context, db *gorm.DB, itemID string, quantity int) error {
	if err := s.itemRepo.Release(db, itemID, quantity); err != nil {
		logger.CtxWithError(ctx, "item release failed", err, "item_id", itemID, "quantity", quantity)
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "item reservation released", "item_id", itemID, "quantity", quantity)
	return nil
}
