package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ngo_backend/internal/models"
)

var ErrInvalidIntent = errors.New("donation intent must be a JSON object or a string containing one")

// DonationIntent - намерение донора. Приходит в трёх формах:
// объект в create-order/verify-payment, строка с JSON от старых клиентов
// и notes шлюза, где все значения строковые.
type DonationIntent struct {
	DonorName    string                 `json:"donorName,omitempty"`
	DonorEmail   string                 `json:"donorEmail,omitempty"`
	DonorPhone   string                 `json:"donorPhone,omitempty"`
	IsAnonymous  bool                   `json:"isAnonymous,omitempty"`
	Amount       int64                  `json:"amount,omitempty"`
	Purpose      models.DonationPurpose `json:"purpose,omitempty"`
	DonationType models.DonationType    `json:"donationType,omitempty"`
	EventID      string                 `json:"eventId,omitempty"`
	EventItemID  string                 `json:"eventItemId,omitempty"`
	ItemQuantity int                    `json:"itemQuantity,omitempty"`
	LinkSlug     string                 `json:"linkSlug,omitempty"`
}

// ParseDonationIntent - единственная точка нормализации намерения.
// Пустое тело, null, "" и [] (пустые notes шлюза) дают пустое намерение.
func ParseDonationIntent(raw []byte) (*DonationIntent, error) {
	return parseIntent(raw, true)
}

func parseIntent(raw []byte, allowString bool) (*DonationIntent, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, string(raw) == "null", string(raw) == "[]", string(raw) == `""`:
		return &DonationIntent{}, nil
	case raw[0] == '"' && allowString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
		}
		return parseIntent([]byte(s), false)
	case raw[0] != '{':
		return nil, ErrInvalidIntent
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}

	var (
		in  DonationIntent
		err error
	)
	in.DonorName = str(fields["donorName"])
	in.DonorEmail = str(fields["donorEmail"])
	in.DonorPhone = str(fields["donorPhone"])
	in.Purpose = models.DonationPurpose(str(fields["purpose"]))
	in.DonationType = models.DonationType(str(fields["donationType"]))
	in.EventID = str(fields["eventId"])
	in.EventItemID = str(fields["eventItemId"])
	in.LinkSlug = str(fields["linkSlug"])

	if in.IsAnonymous, err = boolean(fields["isAnonymous"]); err != nil {
		return nil, fmt.Errorf("%w: isAnonymous: %v", ErrInvalidIntent, err)
	}
	if in.Amount, err = integer(fields["amount"]); err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidIntent, err)
	}
	qty, err := integer(fields["itemQuantity"])
	if err != nil {
		return nil, fmt.Errorf("%w: itemQuantity: %v", ErrInvalidIntent, err)
	}
	in.ItemQuantity = int(qty)

	return &in, nil
}

// GatewayNotes - плоские строковые notes для заказа шлюза; шлюз вернёт их в вебхуке.
func (in *DonationIntent) GatewayNotes() map[string]string {
	notes := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			notes[k] = v
		}
	}
	put("donorName", in.DonorName)
	put("donorEmail", in.DonorEmail)
	put("donorPhone", in.DonorPhone)
	put("purpose", string(in.Purpose))
	put("donationType", string(in.DonationType))
	put("eventId", in.EventID)
	put("eventItemId", in.EventItemID)
	put("linkSlug", in.LinkSlug)
	if in.IsAnonymous {
		notes["isAnonymous"] = "true"
	}
	if in.ItemQuantity > 0 {
		notes["itemQuantity"] = strconv.Itoa(in.ItemQuantity)
	}
	return notes
}

// IsEmpty - ни одного поля не передано
func (in *DonationIntent) IsEmpty() bool {
	return *in == DonationIntent{}
}

func str(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func boolean(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b, nil
	}
	if s := str(raw); s != "" {
		return strconv.ParseBool(s)
	}
	return false, fmt.Errorf("not a boolean: %s", raw)
}

func integer(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int64
	if json.Unmarshal(raw, &n) == nil {
		return n, nil
	}
	if s := str(raw); s != "" {
		return strconv.ParseInt(s, 10, 64)
	}
	return 0, fmt.Errorf("not an integer: %s", raw)
}
