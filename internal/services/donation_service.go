package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ngo_backend/internal/cache"
	"ngo_backend/internal/events"
	"ngo_backend/internal/logger"
	"ngo_backend/internal/models"
	"ngo_backend/internal/repositories"
	"ngo_backend/internal/services/dto"
	"ngo_backend/internal/services/payment"
	"ngo_backend/internal/storage"
	"ngo_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DonationService interface {
	CreateOrder(ctx context.Context, db *gorm.DB, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, db *gorm.DB, req *dto.VerifyPaymentRequest) (*dto.DonationResponse, error)
	HandleWebhook(ctx context.Context, db *gorm.DB, body []byte, signature, eventID string) (*dto.WebhookResult, error)
	ReconcilePending(ctx context.Context, db *gorm.DB) (*dto.ReconcileResult, error)

	ListTransactions(ctx context.Context, db *gorm.DB, query *dto.ListTransactionsQuery) (*dto.TransactionListResponse, error)
	GetTransaction(ctx context.Context, db *gorm.DB, id string) (*dto.TransactionDetailResponse, error)
	GetDonationLink(ctx context.Context, db *gorm.DB, slug string) (*dto.DonationLinkResponse, error)
	GetDonationLinkItems(ctx context.Context, db *gorm.DB, slug string) ([]dto.EventItemResponse, error)
	WalletSummary(ctx context.Context, db *gorm.DB) (*repositories.WalletSummary, error)
}

// DonationServiceConfig - секреты и параметры сверки
type DonationServiceConfig struct {
	KeySecret     string // подпись checkout (orderId|paymentId)
	WebhookSecret string // подпись сырого тела вебхука
	Currency      string
	StaleAfter    time.Duration
	BatchSize     int
}

type DonationServiceDeps struct {
	TxnRepo      repositories.PaymentTransactionRepository
	DonationRepo repositories.DonationRepository
	LinkRepo     repositories.DonationLinkRepository
	ItemRepo     repositories.EventItemRepository
	EventRepo    repositories.GatewayEventRepository
	WalletRepo   repositories.WalletRepository
	Inventory    InventoryService
	Materializer DonationMaterializer
	Gateway      payment.Gateway
	Publisher    events.Publisher
	LinkCache    cache.LinkCache
	Archive      storage.Archive
}

type donationService struct {
	DonationServiceDeps
	cfg DonationServiceConfig
	now func() time.Time
}

func NewDonationService(deps DonationServiceDeps, cfg DonationServiceConfig) DonationService {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.LinkCache == nil {
		deps.LinkCache = cache.NoopLinkCache{}
	}
	if deps.Archive == nil {
		deps.Archive = storage.NoopArchive{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return &donationService{DonationServiceDeps: deps, cfg: cfg, now: time.Now}
}

// ============================================
// Order creation
// ============================================

func (s *donationService) CreateOrder(ctx context.Context, db *gorm.DB, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	intent, err := dto.ParseDonationIntent(req.Notes)
	if err != nil {
		return nil, apperrors.ValidationError(map[string]string{"notes": err.Error()})
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.cfg.Currency
	}
	if currency != s.cfg.Currency {
		return nil, apperrors.NewBadRequestError("unsupported currency " + currency)
	}

	if err := s.precheck(ctx, db, req.Amount, intent); err != nil {
		return nil, err
	}
	if intent.Amount == 0 {
		intent.Amount = req.Amount
	}

	order, err := s.Gateway.CreateOrder(ctx, payment.CreateOrderParams{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  req.ReceiptNumber,
		Notes:    intent.GatewayNotes(),
	})
	if err != nil {
		logger.CtxWithError(ctx, "gateway order creation failed", err, "receipt", req.ReceiptNumber)
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			return nil, apperrors.GatewayUnavailable(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "gateway", "Payment gateway rejected the order", 502)
	}

	metadata, err := json.Marshal(intent)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	txn := &models.PaymentTransaction{
		GatewayOrderID: order.ID,
		GatewayReceipt: req.ReceiptNumber,
		Amount:         req.Amount,
		Currency:       currency,
		Status:         models.TransactionStatusCreated,
		Metadata:       datatypes.JSON(metadata),
	}
	err = withLedgerRetry(ctx, func() error {
		return s.TxnRepo.CreateTransaction(db, txn)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateOrder) {
			return nil, apperrors.ErrDuplicateOrder
		}
		return nil, toAppError(err)
	}

	logger.CtxInfo(logger.WithOrderID(ctx, order.ID), "order created",
		"receipt", req.ReceiptNumber, "amount", req.Amount)

	return &dto.CreateOrderResponse{
		OrderID:  order.ID,
		KeyID:    s.Gateway.KeyID(),
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  req.ReceiptNumber,
	}, nil
}

// precheck - ранний отказ до похода в шлюз. Окончательная проверка
// остатка - атомарный Reserve при материализации.
func (s *donationService) precheck(ctx context.Context, db *gorm.DB, amount int64, intent *dto.DonationIntent) error {
	if intent.Purpose != "" && !intent.Purpose.IsValid() {
		return apperrors.ValidationError(map[string]string{"purpose": "must be one of event, general, emergency"})
	}
	if intent.DonationType != "" && !intent.DonationType.IsValid() {
		return apperrors.ValidationError(map[string]string{"donationType": "must be general or item_specific"})
	}

	if intent.LinkSlug != "" {
		link, err := s.LinkRepo.FindBySlug(db, intent.LinkSlug)
		if err != nil {
			if errors.Is(err, repositories.ErrDonationLinkNotFound) {
				s.LinkCache.Invalidate(ctx, intent.LinkSlug)
				return apperrors.ErrDonationLinkNotFound
			}
			return apperrors.InternalError(err)
		}
		if link.IsExpired(s.now()) {
			// публичная страница могла закэшировать ссылку активной
			s.LinkCache.Invalidate(ctx, intent.LinkSlug)
			return apperrors.ErrDonationLinkExpired
		}
	}

	if intent.DonationType != models.DonationTypeItemSpecific {
		return nil
	}
	if intent.EventItemID == "" || intent.ItemQuantity < 1 {
		return apperrors.ValidationError(map[string]string{"itemQuantity": "item donation requires eventItemId and itemQuantity >= 1"})
	}
	item, err := s.Inventory.GetItem(ctx, db, intent.EventItemID)
	if err != nil {
		return err
	}
	if item.UnitPrice*int64(intent.ItemQuantity) != amount {
		return apperrors.ErrInvalidItemAmount
	}
	if item.Remaining() < intent.ItemQuantity {
		return apperrors.ErrInsufficientInventory.WithDetails(map[string]int{
			"requested": intent.ItemQuantity,
			"remaining": item.Remaining(),
		})
	}
	return nil
}

// ============================================
// Client verification path
// ============================================

func (s *donationService) VerifyPayment(ctx context.Context, db *gorm.DB, req *dto.VerifyPaymentRequest) (*dto.DonationResponse, error) {
	ctx = logger.WithOrderID(ctx, req.OrderID)

	if !payment.Verify(payment.CheckoutPayload(req.OrderID, req.PaymentID), req.Signature, s.cfg.KeySecret) {
		logger.CtxWarn(ctx, "checkout signature rejected", "payment_id", req.PaymentID)
		return nil, apperrors.ErrInvalidSignature
	}

	override, err := dto.ParseDonationIntent(req.DonationData)
	if err != nil {
		return nil, apperrors.ValidationError(map[string]string{"donationData": err.Error()})
	}

	err = withLedgerRetry(ctx, func() error {
		_, _, err := s.TxnRepo.RecordStatus(db, repositories.StatusUpdate{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Status:    models.TransactionStatusCaptured,
		})
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}

	donation, already, err := s.materialize(ctx, db, req.OrderID, override)
	if err != nil {
		return nil, err
	}
	return dto.NewDonationResponse(donation, already), nil
}

// ============================================
// Webhook path
// ============================================

func (s *donationService) HandleWebhook(ctx context.Context, db *gorm.DB, body []byte, signature, eventID string) (*dto.WebhookResult, error) {
	if !payment.Verify(body, signature, s.cfg.WebhookSecret) {
		logger.CtxWarn(ctx, "webhook signature rejected", "event_id", eventID, "body_bytes", len(body))
		return nil, apperrors.ErrInvalidWebhookSignature
	}

	archiveKey := storage.WebhookKey(eventID, s.now())
	if err := s.Archive.Save(ctx, archiveKey, body, "application/json"); err != nil {
		logger.CtxWithError(ctx, "webhook archive failed", err, "key", archiveKey)
		archiveKey = ""
	}

	signal, err := payment.ParseWebhook(body)
	if errors.Is(err, payment.ErrMalformedWebhook) {
		// подпись верна, но тело не разобрать: повтор не поможет
		logger.CtxWarn(ctx, "signed webhook could not be parsed", "error", err.Error(), "event_id", eventID)
		return &dto.WebhookResult{Status: dto.WebhookStatusIgnored}, nil
	}

	event := &models.GatewayEvent{
		EventType:   signal.EventType,
		OrderID:     signal.OrderID,
		PaymentID:   signal.PaymentID,
		PayloadHash: payloadHash(body),
		Payload:     datatypes.JSON(body),
		ArchiveKey:  archiveKey,
	}
	if eventID != "" {
		event.EventID = &eventID
	}
	if err := s.EventRepo.Create(db, event); err != nil {
		if !errors.Is(err, repositories.ErrDuplicateEvent) {
			return nil, apperrors.InternalError(err)
		}
		existing, findErr := s.EventRepo.FindByEventID(db, eventID)
		if findErr != nil {
			return nil, apperrors.InternalError(findErr)
		}

		switch {
		case existing.PayloadHash != event.PayloadHash:
			// id занят другим телом: дубликатом считается только то же самое тело
			logger.CtxWarn(ctx, "webhook event id reused with a different body",
				"event_id", eventID, "stored_event", existing.EventType, "event", signal.EventType)
			event.EventID = nil
			if err := s.EventRepo.Create(db, event); err != nil {
				return nil, apperrors.InternalError(err)
			}
		case existing.ProcessedAt != nil:
			logger.CtxInfo(ctx, "duplicate webhook delivery", "event_id", eventID)
			return &dto.WebhookResult{Status: dto.WebhookStatusDuplicate, EventType: signal.EventType, OrderID: signal.OrderID}, nil
		default:
			event = existing
		}
	}

	if errors.Is(err, payment.ErrUnsupportedEvent) {
		logger.CtxInfo(ctx, "webhook event ignored", "event", signal.EventType)
		s.markEvent(ctx, db, event.ID, nil)
		return &dto.WebhookResult{Status: dto.WebhookStatusIgnored, EventType: signal.EventType}, nil
	}

	result, procErr := s.applySignal(ctx, db, signal, body)
	s.markEvent(ctx, db, event.ID, procErr)
	if procErr != nil {
		return nil, procErr
	}
	return result, nil
}

func payloadHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func (s *donationService) markEvent(ctx context.Context, db *gorm.DB, id string, procErr error) {
	if err := s.EventRepo.MarkProcessed(db, id, procErr); err != nil {
		logger.CtxWithError(ctx, "failed to mark gateway event", err, "gateway_event_id", id)
	}
}

func (s *donationService) applySignal(ctx context.Context, db *gorm.DB, signal *payment.Signal, body []byte) (*dto.WebhookResult, error) {
	result := &dto.WebhookResult{EventType: signal.EventType, OrderID: signal.OrderID}

	if signal.OrderID == "" {
		txn, err := s.TxnRepo.FindByPaymentID(db, signal.PaymentID)
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			logger.CtxWarn(ctx, "webhook for unknown payment", "payment_id", signal.PaymentID, "event", signal.EventType)
			result.Status = dto.WebhookStatusIgnored
			return result, nil
		}
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		signal.OrderID = txn.GatewayOrderID
		result.OrderID = txn.GatewayOrderID
	}
	ctx = logger.WithOrderID(ctx, signal.OrderID)

	var (
		txn     *models.PaymentTransaction
		applied bool
	)
	err := withLedgerRetry(ctx, func() error {
		var err error
		txn, applied, err = s.TxnRepo.RecordStatus(db, repositories.StatusUpdate{
			OrderID:    signal.OrderID,
			PaymentID:  signal.PaymentID,
			Status:     signal.Status,
			Amount:     signal.Amount,
			Currency:   signal.Currency,
			RawPayload: body,
		})
		return err
	})
	switch {
	case errors.Is(err, repositories.ErrTransactionNotFound):
		logger.CtxWarn(ctx, "webhook for unknown order without amount", "event", signal.EventType)
		result.Status = dto.WebhookStatusIgnored
		return result, nil
	case errors.Is(err, repositories.ErrPaymentIDConflict):
		logger.CtxError(ctx, "payment id already bound to another order", "payment_id", signal.PaymentID)
		s.flag(ctx, db, signal.OrderID, "payment id conflict: "+signal.PaymentID)
		result.Status = dto.WebhookStatusReview
		return result, nil
	case err != nil:
		return nil, toAppError(err)
	}

	if !applied {
		logger.CtxDebug(ctx, "stale or repeated status signal", "event", signal.EventType, "stored_status", txn.Status)
	}
	if !signal.Materializes() {
		result.Status = dto.WebhookStatusProcessed
		return result, nil
	}

	// без сохранённых метаданных остаются только notes шлюза
	var override *dto.DonationIntent
	if len(txn.Metadata) == 0 {
		if notes, err := dto.ParseDonationIntent(signal.Notes); err == nil {
			override = notes
		}
	}

	donation, already, err := s.materialize(ctx, db, signal.OrderID, override)
	if err != nil {
		appErr, ok := apperrors.AsAppError(err)
		if ok && appErr.HTTPCode < 500 {
			// не временная ошибка: повтор шлюза не поможет
			if !errors.Is(err, apperrors.ErrInsufficientInventory) {
				s.flag(ctx, db, signal.OrderID, appErr.Message)
			}
			result.Status = dto.WebhookStatusReview
			return result, nil
		}
		return nil, err
	}

	result.DonationID = donation.ID
	result.Status = dto.WebhookStatusProcessed
	if already {
		result.Status = dto.WebhookStatusDuplicate
	}
	return result, nil
}

// ============================================
// Idempotent core
// ============================================

// materialize - общий путь обоих входов. Флаг processed и пожертвование
// фиксируются одной транзакцией БД: при ошибке processed остаётся false.
func (s *donationService) materialize(ctx context.Context, db *gorm.DB, orderID string, override *dto.DonationIntent) (*models.Donation, bool, error) {
	var (
		donation *models.Donation
		txn      *models.PaymentTransaction
		already  bool
	)

	err := withLedgerRetry(ctx, func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			var err error
			already, txn, err = s.TxnRepo.TryMarkProcessed(tx, orderID)
			if err != nil {
				return err
			}
			if already {
				donation, err = s.DonationRepo.FindByTransactionID(tx, txn.ID)
				return err
			}

			intent, err := intentFor(txn, override)
			if err != nil {
				return err
			}
			donation, err = s.Materializer.Materialize(ctx, tx, txn, intent)
			if err != nil {
				return err
			}
			return s.TxnRepo.AttachDonation(tx, txn.ID, donation.ID)
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotCaptured):
			return nil, false, apperrors.ErrPaymentNotCaptured
		case errors.Is(err, repositories.ErrTransactionNotFound):
			return nil, false, apperrors.ErrTransactionNotFound
		case errors.Is(err, apperrors.ErrInsufficientInventory):
			s.flag(ctx, db, orderID, "insufficient inventory at materialization")
		}
		logger.CtxWithError(ctx, "materialization failed", err)
		return nil, false, toAppError(err)
	}

	if already {
		logger.CtxInfo(ctx, "payment already materialized", "donation_id", donation.ID)
		return donation, true, nil
	}
	s.publishCreated(ctx, txn, donation)
	return donation, false, nil
}

// intentFor: сохранённое при create-order намерение - основа. Из запроса
// клиента берутся данные донора; позиция и ссылка - только если их не было.
func intentFor(txn *models.PaymentTransaction, override *dto.DonationIntent) (*dto.DonationIntent, error) {
	stored, err := dto.ParseDonationIntent(txn.Metadata)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if override == nil || override.IsEmpty() {
		return stored, nil
	}

	merged := *stored
	if override.DonorName != "" {
		merged.DonorName = override.DonorName
	}
	if override.DonorEmail != "" {
		merged.DonorEmail = override.DonorEmail
	}
	if override.DonorPhone != "" {
		merged.DonorPhone = override.DonorPhone
	}
	if override.IsAnonymous {
		merged.IsAnonymous = true
	}
	if merged.Purpose == "" {
		merged.Purpose = override.Purpose
	}
	if merged.EventID == "" {
		merged.EventID = override.EventID
	}
	if merged.LinkSlug == "" {
		merged.LinkSlug = override.LinkSlug
	}
	if merged.DonationType == "" && merged.EventItemID == "" {
		merged.DonationType = override.DonationType
		merged.EventItemID = override.EventItemID
		merged.ItemQuantity = override.ItemQuantity
	}
	return &merged, nil
}

// flag ставится вне откатившейся транзакции
func (s *donationService) flag(ctx context.Context, db *gorm.DB, orderID, reason string) {
	if err := s.TxnRepo.FlagForReview(db, orderID, reason); err != nil {
		logger.CtxWithError(ctx, "failed to flag transaction for review", err)
		return
	}
	logger.CtxWarn(ctx, "transaction flagged for manual review", "reason", reason)
}

func (s *donationService) publishCreated(ctx context.Context, txn *models.PaymentTransaction, d *models.Donation) {
	err := s.Publisher.PublishDonationCreated(ctx, events.DonationCreated{
		DonationID:    d.ID,
		ReceiptNumber: d.ReceiptNumber,
		TransactionID: txn.ID,
		OrderID:       txn.GatewayOrderID,
		Amount:        d.Amount,
		Currency:      d.Currency,
		Purpose:       string(d.Purpose),
		DonorName:     d.DonorName,
		EventID:       d.EventID,
		EventItemID:   d.EventItemID,
		ItemQuantity:  d.ItemQuantity,
	})
	if err != nil {
		logger.CtxWithError(ctx, "donation event not published", err, "donation_id", d.ID)
	}
}

// ============================================
// Reconciliation sweep
// ============================================

func (s *donationService) ReconcilePending(ctx context.Context, db *gorm.DB) (*dto.ReconcileResult, error) {
	result := &dto.ReconcileResult{}

	txns, err := s.TxnRepo.FindStaleUnprocessed(db, s.now().Add(-s.cfg.StaleAfter), s.cfg.BatchSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	for i := range txns {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Scanned++
		s.reconcileOne(logger.WithOrderID(ctx, txns[i].GatewayOrderID), db, &txns[i], result)
	}
	return result, nil
}

func (s *donationService) reconcileOne(ctx context.Context, db *gorm.DB, txn *models.PaymentTransaction, result *dto.ReconcileResult) {
	if txn.Status != models.TransactionStatusCaptured {
		payments, err := s.Gateway.FetchOrderPayments(ctx, txn.GatewayOrderID)
		if err != nil {
			logger.CtxWithError(ctx, "sweep: gateway lookup failed", err)
			result.Errors++
			return
		}

		update, ok := authoritativeStatus(payments)
		if !ok {
			result.Pending++
			return
		}
		update.OrderID = txn.GatewayOrderID
		err = withLedgerRetry(ctx, func() error {
			_, _, err := s.TxnRepo.RecordStatus(db, update)
			return err
		})
		if err != nil {
			logger.CtxWithError(ctx, "sweep: record status failed", err)
			result.Errors++
			return
		}
		switch update.Status {
		case models.TransactionStatusFailed:
			result.Failed++
			return
		case models.TransactionStatusAuthorized:
			result.Pending++
			return
		}
	}

	_, already, err := s.materialize(ctx, db, txn.GatewayOrderID, nil)
	if err != nil {
		result.Errors++
		return
	}
	if !already {
		result.Materialized++
	}
}

// authoritativeStatus: есть captured - он; иначе authorized; все попытки
// failed - failed. Без попыток заказ ещё ждёт оплаты.
func authoritativeStatus(payments []payment.Payment) (repositories.StatusUpdate, bool) {
	var authorized *payment.Payment
	failed := 0
	for i := range payments {
		p := &payments[i]
		switch models.TransactionStatus(p.Status) {
		case models.TransactionStatusCaptured, models.TransactionStatusRefunded:
			return repositories.StatusUpdate{PaymentID: p.ID, Status: models.TransactionStatusCaptured}, true
		case models.TransactionStatusAuthorized:
			authorized = p
		case models.TransactionStatusFailed:
			failed++
		}
	}
	if authorized != nil {
		return repositories.StatusUpdate{PaymentID: authorized.ID, Status: models.TransactionStatusAuthorized}, true
	}
	if failed > 0 && failed == len(payments) {
		return repositories.StatusUpdate{Status: models.TransactionStatusFailed}, true
	}
	return repositories.StatusUpdate{}, false
}

// ============================================
// Read side
// ============================================

func (s *donationService) ListTransactions(ctx context.Context, db *gorm.DB, query *dto.ListTransactionsQuery) (*dto.TransactionListResponse, error) {
	page, pageSize := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	txns, total, err := s.TxnRepo.List(db, query.Filter(), page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.TransactionListResponse{Items: txns, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *donationService) GetTransaction(ctx context.Context, db *gorm.DB, id string) (*dto.TransactionDetailResponse, error) {
	txn, err := s.TxnRepo.FindByID(db, id)
	if errors.Is(err, repositories.ErrTransactionNotFound) {
		txn, err = s.TxnRepo.FindByOrderID(db, id)
	}
	if err != nil {
		return nil, toAppError(err)
	}

	resp := &dto.TransactionDetailResponse{Transaction: txn}
	if txn.Processed {
		donation, err := s.DonationRepo.FindByTransactionID(db, txn.ID)
		if err != nil && !errors.Is(err, repositories.ErrDonationNotFound) {
			return nil, apperrors.InternalError(err)
		}
		if donation != nil {
			resp.Donation = dto.NewDonationResponse(donation, true)
		}
	}
	return resp, nil
}

func (s *donationService) GetDonationLink(ctx context.Context, db *gorm.DB, slug string) (*dto.DonationLinkResponse, error) {
	if cached, ok := s.LinkCache.Get(ctx, slug); ok {
		return cached, nil
	}

	link, err := s.LinkRepo.FindBySlug(db, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrDonationLinkNotFound) {
			return nil, apperrors.ErrDonationLinkNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	resp := dto.NewDonationLinkResponse(link, s.now())
	s.LinkCache.Set(ctx, slug, resp)
	return resp, nil
}

func (s *donationService) GetDonationLinkItems(ctx context.Context, db *gorm.DB, slug string) ([]dto.EventItemResponse, error) {
	link, err := s.LinkRepo.FindBySlug(db, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrDonationLinkNotFound) {
			return nil, apperrors.ErrDonationLinkNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	items := []dto.EventItemResponse{}
	if link.EventID == nil {
		return items, nil
	}
	rows, err := s.ItemRepo.FindByEvent(db, *link.EventID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	for i := range rows {
		items = append(items, dto.NewEventItemResponse(&rows[i]))
	}
	return items, nil
}

func (s *donationService) WalletSummary(ctx context.Context, db *gorm.DB) (*repositories.WalletSummary, error) {
	summary, err := s.WalletRepo.Summary(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return summary, nil
}

// toAppError - ошибки репозиториев в таксономию API
func toAppError(err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, repositories.ErrTransactionNotFound):
		return apperrors.ErrTransactionNotFound
	case errors.Is(err, repositories.ErrDuplicateOrder):
		return apperrors.ErrDuplicateOrder
	case errors.Is(err, repositories.ErrPaymentIDConflict):
		return apperrors.ErrConflict(err, "payment", "Payment id is already attached to another order")
	case errors.Is(err, repositories.ErrNotCaptured):
		return apperrors.ErrPaymentNotCaptured
	}
	return apperrors.InternalError(err)
}
