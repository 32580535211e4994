package models

type TransactionStatus string
type DonationStatus string
type DonationPurpose string
type PaymentMode string
type DonationType string

const (
	TransactionStatusCreated    TransactionStatus = "created"
	TransactionStatusAuthorized TransactionStatus = "authorized"
	TransactionStatusCaptured   TransactionStatus = "captured"
	TransactionStatusRefunded   TransactionStatus = "refunded"
	TransactionStatusFailed     TransactionStatus = "failed"

	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"

	DonationPurposeEvent     DonationPurpose = "event"
	DonationPurposeGeneral   DonationPurpose = "general"
	DonationPurposeEmergency DonationPurpose = "emergency"

	PaymentModeUPI     PaymentMode = "upi"
	PaymentModeCash    PaymentMode = "cash"
	PaymentModeBank    PaymentMode = "bank"
	PaymentModeGateway PaymentMode = "razorpay"

	DonationTypeGeneral      DonationType = "general"
	DonationTypeItemSpecific DonationType = "item_specific"
)

// predecessors - из каких статусов разрешён переход в данный.
// Статус двигается только вперёд: created → authorized|failed,
// authorized → captured|failed, captured → refunded.
// Клиентская верификация сообщает captured сразу из created.
var predecessors = map[TransactionStatus][]TransactionStatus{
	TransactionStatusAuthorized: {TransactionStatusCreated},
	TransactionStatusCaptured:   {TransactionStatusCreated, TransactionStatusAuthorized},
	TransactionStatusFailed:     {TransactionStatusCreated, TransactionStatusAuthorized},
	TransactionStatusRefunded:   {TransactionStatusCaptured},
}

// AllowedPredecessors returns the stored statuses from which next may be applied.
func (next TransactionStatus) AllowedPredecessors() []string {
	prev := predecessors[next]
	out := make([]string, len(prev))
	for i, s := range prev {
		out[i] = string(s)
	}
	return out
}

// CanTransitionTo reports whether moving from s to next is a forward step.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, p := range predecessors[next] {
		if p == s {
			return true
		}
	}
	return false
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusCreated, TransactionStatusAuthorized, TransactionStatusCaptured,
		TransactionStatusRefunded, TransactionStatusFailed:
		return true
	}
	return false
}

func (p DonationPurpose) IsValid() bool {
	switch p {
	case DonationPurposeEvent, DonationPurposeGeneral, DonationPurposeEmergency:
		return true
	}
	return false
}

func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeUPI, PaymentModeCash, PaymentModeBank, PaymentModeGateway:
		return true
	}
	return false
}

func (t DonationType) IsValid() bool {
	return t == DonationTypeGeneral || t == DonationTypeItemSpecific
}
