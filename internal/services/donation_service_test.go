package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ngo_backend/internal/events"
	"ngo_backend/internal/models"
	"ngo_backend/internal/repositories"
	"ngo_backend/internal/services"
	"ngo_backend/internal/services/dto"
	"ngo_backend/internal/services/payment"
	"ngo_backend/internal/storage"
	"ngo_backend/internal/testutil"
	"ngo_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DonationCreated
}

func (p *recordingPublisher) PublishDonationCreated(_ context.Context, evt events.DonationCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// mapLinkCache - LinkCache в памяти
type mapLinkCache struct {
	mu    sync.Mutex
	links map[string]*dto.DonationLinkResponse
}

func (c *mapLinkCache) Get(_ context.Context, slug string) (*dto.DonationLinkResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	link, ok := c.links[slug]
	return link, ok
}

func (c *mapLinkCache) Set(_ context.Context, slug string, link *dto.DonationLinkResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[slug] = link
}

func (c *mapLinkCache) Invalidate(_ context.Context, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.links, slug)
}

type fixture struct {
	db      *gorm.DB
	svc     services.DonationService
	gw      *testutil.FakeGateway
	pub     *recordingPublisher
	archive *storage.LocalArchive
	links   *mapLinkCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	gw := testutil.NewFakeGateway()
	pub := &recordingPublisher{}
	archive, err := storage.NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	receipts, err := services.NewReceiptGenerator("RCPT", 3)
	require.NoError(t, err)
	links := &mapLinkCache{links: map[string]*dto.DonationLinkResponse{}}

	container := services.NewServiceContainer(services.Infrastructure{
		Gateway:   gw,
		Publisher: pub,
		LinkCache: links,
		Archive:   archive,
		Receipts:  receipts,
	}, services.DonationServiceConfig{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
		StaleAfter:    15 * time.Minute,
		BatchSize:     10,
	})
	return &fixture{db: db, svc: container.DonationService, gw: gw, pub: pub, archive: archive, links: links}
}

func (f *fixture) createOrder(t *testing.T, amount int64, receipt, notes string) string {
	t.Helper()
	req := &dto.CreateOrderRequest{Amount: amount, ReceiptNumber: receipt}
	if notes != "" {
		req.Notes = json.RawMessage(notes)
	}
	resp, err := f.svc.CreateOrder(context.Background(), f.db, req)
	require.NoError(t, err)
	return resp.OrderID
}

func (f *fixture) verify(orderID, paymentID, donationData string) (*dto.DonationResponse, error) {
	req := &dto.VerifyPaymentRequest{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: payment.Sign(payment.CheckoutPayload(orderID, paymentID), testKeySecret),
	}
	if donationData != "" {
		req.DonationData = json.RawMessage(donationData)
	}
	return f.svc.VerifyPayment(context.Background(), f.db, req)
}

func (f *fixture) webhook(event, eventID, orderID, paymentID string, amount int64) (*dto.WebhookResult, error) {
	body := webhookBody(event, orderID, paymentID, amount, "[]")
	return f.svc.HandleWebhook(context.Background(), f.db, body, payment.Sign(body, testWebhookSecret), eventID)
}

func webhookBody(event, orderID, paymentID string, amount int64, notes string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":%d,"currency":"INR","status":"captured","notes":%s}}}}`,
		event, paymentID, orderID, amount, notes))
}

func countByReceipt(t *testing.T, db *gorm.DB, receipt string) int64 {
	t.Helper()
	n, err := repositories.NewDonationRepository().CountByGatewayReceipt(db, receipt)
	require.NoError(t, err)
	return n
}

// ============================================
// Create order
// ============================================

func TestCreateOrderStoresIntent(t *testing.T) {
	f := newFixture(t)

	orderID := f.createOrder(t, 50000, "R-100", `{"donorName":"Meera","purpose":"general"}`)

	txn := testutil.ReloadTransaction(t, f.db, orderID)
	assert.Equal(t, models.TransactionStatusCreated, txn.Status)
	assert.Equal(t, "INR", txn.Currency)
	assert.False(t, txn.Processed)

	intent, err := dto.ParseDonationIntent(txn.Metadata)
	require.NoError(t, err)
	assert.Equal(t, "Meera", intent.DonorName)
	assert.Equal(t, int64(50000), intent.Amount)

	params, ok := f.gw.Order(orderID)
	require.True(t, ok)
	assert.Equal(t, "Meera", params.Notes["donorName"])
	assert.Equal(t, "R-100", params.Receipt)
}

func TestCreateOrderRejectsUnsupportedCurrency(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), f.db, &dto.CreateOrderRequest{Amount: 100, Currency: "usd", ReceiptNumber: "R-1"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestCreateOrderItemChecks(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, "School supplies")
	item := testutil.CreateEventItem(t, f.db, event.ID, "Backpack", 80000, 1)
	ctx := context.Background()

	notes := func(qty int) json.RawMessage {
		return json.RawMessage(fmt.Sprintf(`{"donationType":"item_specific","eventItemId":%q,"itemQuantity":%d}`, item.ID, qty))
	}

	_, err := f.svc.CreateOrder(ctx, f.db, &dto.CreateOrderRequest{Amount: 70000, ReceiptNumber: "R-a", Notes: notes(1)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidItemAmount)

	_, err = f.svc.CreateOrder(ctx, f.db, &dto.CreateOrderRequest{Amount: 160000, ReceiptNumber: "R-b", Notes: notes(2)})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)

	_, err = f.svc.CreateOrder(ctx, f.db, &dto.CreateOrderRequest{Amount: 80000, ReceiptNumber: "R-c", Notes: notes(1)})
	assert.NoError(t, err)
}

func TestCreateOrderExpiredLink(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	testutil.CreateDonationLink(t, f.db, &models.DonationLink{Slug: "old-drive", ExpiresAt: &past, IsActive: true})

	_, err := f.svc.CreateOrder(context.Background(), f.db, &dto.CreateOrderRequest{
		Amount: 1000, ReceiptNumber: "R-link", Notes: json.RawMessage(`{"linkSlug":"old-drive"}`),
	})
	assert.ErrorIs(t, err, apperrors.ErrDonationLinkExpired)
}

func TestCreateOrderDropsCachedLinkOnceDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateDonationLink(t, f.db, &models.DonationLink{Slug: "food-drive", Title: "Food drive", IsActive: true})

	link, err := f.svc.GetDonationLink(ctx, f.db, "food-drive")
	require.NoError(t, err)
	assert.True(t, link.Active)

	require.NoError(t, f.db.Model(&models.DonationLink{}).Where("slug = ?", "food-drive").Update("is_active", false).Error)
	link, err = f.svc.GetDonationLink(ctx, f.db, "food-drive")
	require.NoError(t, err)
	assert.True(t, link.Active, "served from cache until invalidated")

	_, err = f.svc.CreateOrder(ctx, f.db, &dto.CreateOrderRequest{
		Amount: 1000, ReceiptNumber: "R-food", Notes: json.RawMessage(`{"linkSlug":"food-drive"}`),
	})
	assert.ErrorIs(t, err, apperrors.ErrDonationLinkExpired)

	_, cached := f.links.Get(ctx, "food-drive")
	assert.False(t, cached)
	link, err = f.svc.GetDonationLink(ctx, f.db, "food-drive")
	require.NoError(t, err)
	assert.False(t, link.Active)
}

func TestCreateOrderGatewayUnavailable(t *testing.T) {
	f := newFixture(t)
	f.gw.CreateErr = fmt.Errorf("%w: timeout", payment.ErrGatewayUnavailable)

	_, err := f.svc.CreateOrder(context.Background(), f.db, &dto.CreateOrderRequest{Amount: 1000, ReceiptNumber: "R-down"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)

	var n int64
	require.NoError(t, f.db.Model(&models.PaymentTransaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

// ============================================
// Verify / webhook
// ============================================

func TestWebhookThenVerifyReturnsSameDonation(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 50000, "R-r1", `{"donorName":"Kiran"}`)

	res, err := f.webhook(payment.EventPaymentCaptured, "evt_r1", orderID, "pay_r1", 50000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)
	require.NotEmpty(t, res.DonationID)

	donation, err := f.verify(orderID, "pay_r1", "")
	require.NoError(t, err)
	assert.True(t, donation.AlreadyProcessed)
	assert.Equal(t, res.DonationID, donation.ID)
	assert.Equal(t, "Kiran", donation.DonorName)

	assert.EqualValues(t, 1, countByReceipt(t, f.db, "R-r1"))
	assert.Equal(t, 1, f.pub.count())

	txn := testutil.ReloadTransaction(t, f.db, orderID)
	assert.True(t, txn.Processed)
	require.NotNil(t, txn.DonationID)
	assert.Equal(t, donation.ID, *txn.DonationID)
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 20000, "R-idem", "")

	first, err := f.verify(orderID, "pay_idem", `{"donorName":"Devi"}`)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, "Devi", first.DonorName)

	second, err := f.verify(orderID, "pay_idem", `{"donorName":"Someone else"}`)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReceiptNumber, second.ReceiptNumber)
	assert.EqualValues(t, 1, testutil.CountDonations(t, f.db))
}

func TestVerifyAcceptsStringifiedDonationData(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 20000, "R-str", "")

	donation, err := f.verify(orderID, "pay_str", `"{\"donorName\":\"Sam\",\"purpose\":\"emergency\"}"`)
	require.NoError(t, err)
	assert.Equal(t, "Sam", donation.DonorName)
	assert.Equal(t, models.DonationPurposeEmergency, donation.Purpose)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 20000, "R-sig", "")

	_, err := f.svc.VerifyPayment(context.Background(), f.db, &dto.VerifyPaymentRequest{
		OrderID:   orderID,
		PaymentID: "pay_sig",
		Signature: payment.Sign(payment.CheckoutPayload(orderID, "pay_other"), testKeySecret),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)

	txn := testutil.ReloadTransaction(t, f.db, orderID)
	assert.Equal(t, models.TransactionStatusCreated, txn.Status)
	assert.Nil(t, txn.GatewayPaymentID)
}

func TestVerifyUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.verify("order_missing", "pay_x", "")
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestWebhookRejectsBadSignatureWithoutMutation(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 20000, "R-wsig", "")

	body := webhookBody(payment.EventPaymentCaptured, orderID, "pay_w", 20000, "[]")
	_, err := f.svc.HandleWebhook(context.Background(), f.db, body, payment.Sign(body, "wrong"), "evt_bad")
	assert.ErrorIs(t, err, apperrors.ErrInvalidWebhookSignature)

	txn := testutil.ReloadTransaction(t, f.db, orderID)
	assert.Equal(t, models.TransactionStatusCreated, txn.Status)
	assert.False(t, txn.Processed)

	var events int64
	require.NoError(t, f.db.Model(&models.GatewayEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestWebhookArchivesPayloadAndSkipsDuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 30000, "R-dup", "")

	res, err := f.webhook(payment.EventPaymentCaptured, "evt_dup", orderID, "pay_dup", 30000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)

	res, err = f.webhook(payment.EventPaymentCaptured, "evt_dup", orderID, "pay_dup", 30000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusDuplicate, res.Status)

	event, err := repositories.NewGatewayEventRepository().FindByEventID(f.db, "evt_dup")
	require.NoError(t, err)
	assert.NotNil(t, event.ProcessedAt)
	require.NotEmpty(t, event.ArchiveKey)
	ok, err := f.archive.Exists(context.Background(), event.ArchiveKey)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.EqualValues(t, 1, testutil.CountDonations(t, f.db))
}

func TestWebhookEventIDReusedWithDifferentBodyIsProcessed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID := f.createOrder(t, 30000, "R-reuse", "")

	captured := webhookBody(payment.EventPaymentCaptured, orderID, "pay_reuse", 30000, "[]")
	capturedSig := payment.Sign(captured, testWebhookSecret)

	res, err := f.svc.HandleWebhook(ctx, f.db, captured, capturedSig, "evt_cap")
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)

	// подписанное тело повторено под чужим event id
	res, err = f.svc.HandleWebhook(ctx, f.db, captured, capturedSig, "evt_refund")
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusDuplicate, res.Status)

	refund := []byte(`{"event":"refund.processed","payload":{"refund":{"entity":{"id":"rfnd_1","payment_id":"pay_reuse","amount":30000}}}}`)
	res, err = f.svc.HandleWebhook(ctx, f.db, refund, payment.Sign(refund, testWebhookSecret), "evt_refund")
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)
	assert.Equal(t, orderID, res.OrderID)

	txn := testutil.ReloadTransaction(t, f.db, orderID)
	assert.Equal(t, models.TransactionStatusRefunded, txn.Status)
	assert.EqualValues(t, 1, testutil.CountDonations(t, f.db))

	var stored int64
	require.NoError(t, f.db.Model(&models.GatewayEvent{}).Where("event_type = ?", payment.EventRefundProcessed).Count(&stored).Error)
	assert.EqualValues(t, 1, stored)

	// то же тело под тем же id - по-прежнему дубликат
	res, err = f.svc.HandleWebhook(ctx, f.db, captured, capturedSig, "evt_cap")
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusDuplicate, res.Status)
	assert.Equal(t, models.TransactionStatusRefunded, testutil.ReloadTransaction(t, f.db, orderID).Status)
}

func TestWebhookIgnoresUnsupportedEvent(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"event":"invoice.paid","payload":{}}`)

	res, err := f.svc.HandleWebhook(context.Background(), f.db, body, payment.Sign(body, testWebhookSecret), "evt_inv")
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusIgnored, res.Status)
}

func TestFailedAfterCapturedDoesNotRegress(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000, "R-mono", "")

	_, err := f.webhook(payment.EventPaymentCaptured, "evt_cap", orderID, "pay_mono", 10000)
	require.NoError(t, err)

	res, err := f.webhook(payment.EventPaymentFailed, "evt_fail", orderID, "pay_mono", 10000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)

	txn := testutil.ReloadTransaction(t, f.db, orderID)
	assert.Equal(t, models.TransactionStatusCaptured, txn.Status)
	assert.True(t, txn.Processed)
}

func TestVerifyAfterFailedIsRejected(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000, "R-failed", "")

	_, err := f.webhook(payment.EventPaymentFailed, "evt_f1", orderID, "pay_f1", 10000)
	require.NoError(t, err)

	_, err = f.verify(orderID, "pay_f2", "")
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotCaptured)
	assert.Zero(t, testutil.CountDonations(t, f.db))
}

func TestWebhookUnknownOrderIsRecordedForReview(t *testing.T) {
	f := newFixture(t)
	body := webhookBody(payment.EventPaymentCaptured, "order_external", "pay_ext", 7500, `{"donorName":"Walk-in"}`)

	res, err := f.svc.HandleWebhook(context.Background(), f.db, body, payment.Sign(body, testWebhookSecret), "evt_ext")
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)

	txn := testutil.ReloadTransaction(t, f.db, "order_external")
	assert.True(t, txn.NeedsReview)
	assert.True(t, txn.Processed)
	assert.Equal(t, int64(7500), txn.Amount)

	donation, err := repositories.NewDonationRepository().FindByTransactionID(f.db, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk-in", donation.DonorName)
}

func TestWebhookInsufficientInventoryFlagsReview(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, "Shelter")
	item := testutil.CreateEventItem(t, f.db, event.ID, "Tent", 40000, 1)
	notes := fmt.Sprintf(`{"donationType":"item_specific","eventItemId":%q,"itemQuantity":1}`, item.ID)

	first := f.createOrder(t, 40000, "R-tent1", notes)
	second := f.createOrder(t, 40000, "R-tent2", notes)

	res, err := f.webhook(payment.EventPaymentCaptured, "evt_t1", first, "pay_t1", 40000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)

	res, err = f.webhook(payment.EventPaymentCaptured, "evt_t2", second, "pay_t2", 40000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusReview, res.Status)

	txn := testutil.ReloadTransaction(t, f.db, second)
	assert.True(t, txn.NeedsReview)
	assert.False(t, txn.Processed)
	assert.Equal(t, 1, testutil.ReloadItem(t, f.db, item.ID).DonatedQuantity)
	assert.EqualValues(t, 1, testutil.CountDonations(t, f.db))
}

// flakyDonationRepo - первые failures записей падают, дальше настоящий репозиторий
type flakyDonationRepo struct {
	repositories.DonationRepository
	failures int
}

func (r *flakyDonationRepo) Create(db *gorm.DB, d *models.Donation) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	return r.DonationRepository.Create(db, d)
}

func TestFailedDonationWriteLeavesTransactionRetryable(t *testing.T) {
	db := testutil.NewTestDB(t)
	gw := testutil.NewFakeGateway()
	receipts, err := services.NewReceiptGenerator("RCPT", 5)
	require.NoError(t, err)

	donationRepo := &flakyDonationRepo{DonationRepository: repositories.NewDonationRepository(), failures: 1}
	linkRepo := repositories.NewDonationLinkRepository()
	itemRepo := repositories.NewEventItemRepository()
	inventory := services.NewInventoryService(itemRepo)
	svc := services.NewDonationService(services.DonationServiceDeps{
		TxnRepo:      repositories.NewPaymentTransactionRepository(),
		DonationRepo: donationRepo,
		LinkRepo:     linkRepo,
		ItemRepo:     itemRepo,
		EventRepo:    repositories.NewGatewayEventRepository(),
		WalletRepo:   repositories.NewWalletRepository(),
		Inventory:    inventory,
		Materializer: services.NewDonationMaterializer(donationRepo, linkRepo, inventory, receipts),
		Gateway:      gw,
	}, services.DonationServiceConfig{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
		StaleAfter:    15 * time.Minute,
	})
	f := &fixture{db: db, svc: svc, gw: gw}

	event := testutil.CreateEvent(t, db, "Clinic")
	item := testutil.CreateEventItem(t, db, event.ID, "First aid kit", 2500, 4)
	notes := fmt.Sprintf(`{"donationType":"item_specific","eventItemId":%q,"itemQuantity":2}`, item.ID)
	orderID := f.createOrder(t, 5000, "R-flaky", notes)

	_, err = f.verify(orderID, "pay_flaky", "")
	require.Error(t, err)

	txn := testutil.ReloadTransaction(t, db, orderID)
	assert.Equal(t, models.TransactionStatusCaptured, txn.Status)
	assert.False(t, txn.Processed)
	assert.Nil(t, txn.DonationID)
	assert.Zero(t, testutil.ReloadItem(t, db, item.ID).DonatedQuantity)
	assert.Zero(t, testutil.CountDonations(t, db))

	res, err := f.webhook(payment.EventPaymentCaptured, "evt_flaky", orderID, "pay_flaky", 5000)
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookStatusProcessed, res.Status)
	assert.NotEmpty(t, res.DonationID)

	again, err := f.verify(orderID, "pay_flaky", "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyProcessed)
	assert.Equal(t, res.DonationID, again.ID)

	assert.True(t, testutil.ReloadTransaction(t, db, orderID).Processed)
	assert.Equal(t, 2, testutil.ReloadItem(t, db, item.ID).DonatedQuantity)
	assert.EqualValues(t, 1, testutil.CountDonations(t, db))
}

func TestConcurrentVerifyAndWebhookCreateOneDonation(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, "Library")
	item := testutil.CreateEventItem(t, f.db, event.ID, "Bookshelf", 15000, 5)
	orderID := f.createOrder(t, 30000, "R-race",
		fmt.Sprintf(`{"donationType":"item_specific","eventItemId":%q,"itemQuantity":2}`, item.ID))

	const workers = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ids      = map[string]bool{}
		failures []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var (
				id  string
				err error
			)
			if i%2 == 0 {
				var d *dto.DonationResponse
				if d, err = f.verify(orderID, "pay_race", ""); err == nil {
					id = d.ID
				}
			} else {
				var res *dto.WebhookResult
				if res, err = f.webhook(payment.EventPaymentCaptured, fmt.Sprintf("evt_race_%d", i), orderID, "pay_race", 30000); err == nil {
					id = res.DonationID
				}
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			ids[id] = true
		}(i)
	}
	wg.Wait()

	require.Empty(t, failures)
	assert.Len(t, ids, 1)
	assert.EqualValues(t, 1, countByReceipt(t, f.db, "R-race"))
	assert.Equal(t, 2, testutil.ReloadItem(t, f.db, item.ID).DonatedQuantity)
	assert.Equal(t, 1, f.pub.count())
}

// ============================================
// Reconciliation sweep
// ============================================

func ageTransactions(t *testing.T, db *gorm.DB, by time.Duration) {
	t.Helper()
	require.NoError(t, db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.PaymentTransaction{}).
		UpdateColumn("created_at", time.Now().Add(-by)).Error)
}

func TestReconcilePending(t *testing.T) {
	f := newFixture(t)
	paid := f.createOrder(t, 10000, "R-paid", `{"donorName":"Late webhook"}`)
	declined := f.createOrder(t, 10000, "R-declined", "")
	waiting := f.createOrder(t, 10000, "R-waiting", "")
	ageTransactions(t, f.db, time.Hour)

	f.gw.SetPayments(paid,
		payment.Payment{ID: "pay_try1", OrderID: paid, Status: "failed"},
		payment.Payment{ID: "pay_try2", OrderID: paid, Status: "captured"},
	)
	f.gw.SetPayments(declined, payment.Payment{ID: "pay_no", OrderID: declined, Status: "failed"})

	result, err := f.svc.ReconcilePending(context.Background(), f.db)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Materialized)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Pending)
	assert.Zero(t, result.Errors)

	paidTxn := testutil.ReloadTransaction(t, f.db, paid)
	assert.True(t, paidTxn.Processed)
	require.NotNil(t, paidTxn.GatewayPaymentID)
	assert.Equal(t, "pay_try2", *paidTxn.GatewayPaymentID)
	assert.Equal(t, models.TransactionStatusFailed, testutil.ReloadTransaction(t, f.db, declined).Status)
	assert.Equal(t, models.TransactionStatusCreated, testutil.ReloadTransaction(t, f.db, waiting).Status)

	// повторный проход ничего не создаёт
	result, err = f.svc.ReconcilePending(context.Background(), f.db)
	require.NoError(t, err)
	assert.Zero(t, result.Materialized)
	assert.EqualValues(t, 1, testutil.CountDonations(t, f.db))
}

func TestReconcileSkipsFreshAndCountsGatewayErrors(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t, 10000, "R-fresh", "")

	result, err := f.svc.ReconcilePending(context.Background(), f.db)
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)

	ageTransactions(t, f.db, time.Hour)
	f.gw.FetchErr = payment.ErrGatewayUnavailable

	result, err = f.svc.ReconcilePending(context.Background(), f.db)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Errors)
}

// ============================================
// Read side
// ============================================

func TestListAndGetTransactions(t *testing.T) {
	f := newFixture(t)
	paid := f.createOrder(t, 10000, "R-l1", "")
	f.createOrder(t, 20000, "R-l2", "")
	_, err := f.verify(paid, "pay_l1", "")
	require.NoError(t, err)

	processed := true
	list, err := f.svc.ListTransactions(context.Background(), f.db, &dto.ListTransactionsQuery{Processed: &processed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, paid, list.Items[0].GatewayOrderID)

	detail, err := f.svc.GetTransaction(context.Background(), f.db, paid)
	require.NoError(t, err)
	require.NotNil(t, detail.Donation)
	assert.Equal(t, int64(10000), detail.Donation.Amount)
}

func TestDonationLinkItems(t *testing.T) {
	f := newFixture(t)
	event := testutil.CreateEvent(t, f.db, "Health camp")
	testutil.CreateEventItem(t, f.db, event.ID, "Medicine pack", 30000, 20)
	testutil.CreateDonationLink(t, f.db, &models.DonationLink{Slug: "health-camp", Title: "Health camp", EventID: &event.ID, IsActive: true})

	link, err := f.svc.GetDonationLink(context.Background(), f.db, "health-camp")
	require.NoError(t, err)
	assert.True(t, link.Active)

	items, err := f.svc.GetDonationLinkItems(context.Background(), f.db, "health-camp")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Remaining)

	_, err = f.svc.GetDonationLink(context.Background(), f.db, "missing")
	assert.ErrorIs(t, err, apperrors.ErrDonationLinkNotFound)
}
