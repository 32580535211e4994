package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ngo_backend/internal/logger"
	"ngo_backend/internal/models"
	"ngo_backend/internal/repositories"
	"ngo_backend/internal/services/dto"
	"ngo_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const maxReceiptAttempts = 3

// DonationMaterializer превращает оплаченную транзакцию ровно в одно пожертвование.
// Вызывается только после того, как TryMarkProcessed вернул alreadyProcessed=false.
type DonationMaterializer interface {
	Materialize(ctx context.Context, db *gorm.DB, txn *models.PaymentTransaction, intent *dto.DonationIntent) (*models.Donation, error)
}

type donationMaterializer struct {
	donationRepo repositories.DonationRepository
	linkRepo     repositories.DonationLinkRepository
	inventory    InventoryService
	receipts     ReceiptGenerator
	now          func() time.Time
}

func NewDonationMaterializer(
	donationRepo repositories.DonationRepository,
	linkRepo repositories.DonationLinkRepository,
	inventory InventoryService,
	receipts ReceiptGenerator,
) DonationMaterializer {
	return &donationMaterializer{
		donationRepo: donationRepo,
		linkRepo:     linkRepo,
		inventory:    inventory,
		receipts:     receipts,
		now:          time.Now,
	}
}

func (m *donationMaterializer) Materialize(ctx context.Context, db *gorm.DB, txn *models.PaymentTransaction, intent *dto.DonationIntent) (*models.Donation, error) {
	if intent == nil {
		intent = &dto.DonationIntent{}
	}

	donation, err := m.resolve(ctx, db, txn, intent)
	if err != nil {
		return nil, err
	}

	reserved := false
	if donation.DonationType == models.DonationTypeItemSpecific {
		if _, err := m.inventory.Reserve(ctx, db, *donation.EventItemID, donation.ItemQuantity); err != nil {
			return nil, err
		}
		reserved = true
	}

	if err := m.persist(ctx, db, donation); err != nil {
		if reserved {
			// компенсация: резерв не должен пережить неудачную запись
			if relErr := m.inventory.Release(ctx, db, *donation.EventItemID, donation.ItemQuantity); relErr != nil {
				logger.CtxWithError(ctx, "compensating release failed", relErr, "item_id", *donation.EventItemID)
			}
		}
		return nil, err
	}

	logger.CtxInfo(ctx, "donation materialized",
		"donation_id", donation.ID,
		"receipt", donation.ReceiptNumber,
		"amount", donation.Amount,
		"type", donation.DonationType,
	)
	return donation, nil
}

// resolve - шаг 1: назначение, мероприятие и ссылка. Сумма всегда из журнала.
func (m *donationMaterializer) resolve(ctx context.Context, db *gorm.DB, txn *models.PaymentTransaction, intent *dto.DonationIntent) (*models.Donation, error) {
	now := m.now()
	txnID := txn.ID
	d := &models.Donation{
		DonorName:     intent.DonorName,
		DonorEmail:    intent.DonorEmail,
		DonorPhone:    intent.DonorPhone,
		IsAnonymous:   intent.IsAnonymous,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Purpose:       intent.Purpose,
		PaymentMode:   models.PaymentModeGateway,
		DonationType:  models.DonationTypeGeneral,
		Status:        models.DonationStatusCompleted,
		TransactionID: &txnID,
		CompletedAt:   &now,
	}
	if intent.Amount != 0 && intent.Amount != txn.Amount {
		logger.CtxWarn(ctx, "intent amount differs from ledger, using ledger amount",
			"intent_amount", intent.Amount, "ledger_amount", txn.Amount)
	}

	if intent.EventID != "" {
		eventID := intent.EventID
		d.EventID = &eventID
	}

	if intent.LinkSlug != "" {
		link, err := m.linkRepo.FindBySlug(db, intent.LinkSlug)
		switch {
		case err == nil:
			d.DonationLinkID = &link.ID
			if d.Purpose == "" {
				d.Purpose = link.Purpose
			}
			if d.EventID == nil && link.EventID != nil {
				d.EventID = link.EventID
			}
		case errors.Is(err, repositories.ErrDonationLinkNotFound):
			// деньги уже списаны - пожертвование создаём без ссылки
			logger.CtxWarn(ctx, "donation link not found at materialization", "slug", intent.LinkSlug)
		default:
			return nil, apperrors.InternalError(err)
		}
	}

	if intent.DonationType == models.DonationTypeItemSpecific {
		if intent.EventItemID == "" || intent.ItemQuantity < 1 {
			return nil, apperrors.NewBadRequestError("item donation requires eventItemId and itemQuantity")
		}
		item, err := m.inventory.GetItem(ctx, db, intent.EventItemID)
		if err != nil {
			return nil, err
		}
		if item.UnitPrice*int64(intent.ItemQuantity) != txn.Amount {
			return nil, apperrors.ErrInvalidItemAmount
		}
		itemID := item.ID
		d.DonationType = models.DonationTypeItemSpecific
		d.EventItemID = &itemID
		d.ItemQuantity = intent.ItemQuantity
		if d.EventID == nil {
			eventID := item.EventID
			d.EventID = &eventID
		}
	}

	if !d.Purpose.IsValid() {
		d.Purpose = models.DonationPurposeGeneral
		if d.EventID != nil {
			d.Purpose = models.DonationPurposeEvent
		}
	}
	if d.IsAnonymous || d.DonorName == "" {
		d.DonorName = "Anonymous"
	}
	return d, nil
}

// persist - шаги 3-4. Каждая попытка во вложенной транзакции (savepoint),
// чтобы коллизия номера не ломала внешнюю транзакцию Postgres.
func (m *donationMaterializer) persist(ctx context.Context, db *gorm.DB, d *models.Donation) error {
	for attempt := 1; attempt <= maxReceiptAttempts; attempt++ {
		d.ReceiptNumber = m.receipts.Next()
		err := db.Transaction(func(inner *gorm.DB) error {
			return m.donationRepo.Create(inner, d)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicateReceipt) {
			return apperrors.InternalError(fmt.Errorf("persist donation: %w", err))
		}
		logger.CtxWarn(ctx, "receipt number collision, regenerating", "receipt", d.ReceiptNumber, "attempt", attempt)
	}
	return apperrors.InternalError(fmt.Errorf("receipt number collision after %d attempts", maxReceiptAttempts))
}
