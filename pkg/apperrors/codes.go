package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

const (
	// Системные
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Общие
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Аутентификация
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired ErrorCode = "TOKEN_EXPIRED"

	// Платежи
	CodeInvalidSignature      ErrorCode = "INVALID_SIGNATURE"
	CodeDuplicateOrder        ErrorCode = "DUPLICATE_ORDER"
	CodeInsufficientInventory ErrorCode = "INSUFFICIENT_INVENTORY"
	CodePaymentNotCaptured    ErrorCode = "PAYMENT_NOT_CAPTURED"
	CodeGatewayUnavailable    ErrorCode = "GATEWAY_UNAVAILABLE"
	CodeLedgerWriteConflict   ErrorCode = "LEDGER_WRITE_CONFLICT"
)
