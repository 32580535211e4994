package apperrors

import (
	"net/http"
)

// ErrNotFound - фабрика для "не найдено" (404), используется при
// преобразовании ошибок репозитория.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// GatewayUnavailable оборачивает временную ошибку платёжного шлюза.
// Клиент может повторить запрос.
func GatewayUnavailable(err error) *AppError {
	return ErrGatewayUnavailable.WithError(err)
}

// =========================================================================
// Платежи и пожертвования
// =========================================================================

// ErrInvalidSignature - подпись verify-payment не совпала.
var ErrInvalidSignature = New(
	CodeInvalidSignature,
	"payment",
	"Payment signature verification failed",
	http.StatusUnauthorized,
)

// ErrInvalidWebhookSignature - тот же отказ для вебхука: 400, чтобы шлюз не ретраил.
var ErrInvalidWebhookSignature = New(
	CodeInvalidSignature,
	"webhook",
	"Webhook signature verification failed",
	http.StatusBadRequest,
)

var ErrDuplicateOrder = New(
	CodeDuplicateOrder,
	"payment",
	"Order already exists",
	http.StatusConflict,
)

var ErrInsufficientInventory = New(
	CodeInsufficientInventory,
	"inventory",
	"Requested item quantity is no longer available",
	http.StatusConflict,
)

var ErrPaymentNotCaptured = New(
	CodePaymentNotCaptured,
	"payment",
	"Payment is not captured yet",
	http.StatusConflict,
)

var ErrGatewayUnavailable = New(
	CodeGatewayUnavailable,
	"gateway",
	"Payment gateway is temporarily unavailable",
	http.StatusServiceUnavailable,
)

var ErrLedgerWriteConflict = New(
	CodeLedgerWriteConflict,
	"ledger",
	"Could not update payment ledger, please retry",
	http.StatusInternalServerError,
)

var ErrTransactionNotFound = New(
	CodeNotFound,
	"payment",
	"Payment transaction not found",
	http.StatusNotFound,
)

var ErrDonationLinkNotFound = New(
	CodeNotFound,
	"donation_link",
	"Donation link not found",
	http.StatusNotFound,
)

var ErrDonationLinkExpired = New(
	CodeInvalidOperation,
	"donation_link",
	"Donation link is expired or inactive",
	http.StatusBadRequest,
)

var ErrEventItemNotFound = New(
	CodeNotFound,
	"inventory",
	"Event item not found",
	http.StatusNotFound,
)

var ErrInvalidItemAmount = New(
	CodeInvalidOperation,
	"inventory",
	"Amount does not match item price times quantity",
	http.StatusBadRequest,
)

// ErrConflict - фабрика для конфликтов состояния (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}
