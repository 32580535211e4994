package dto

import (
	"encoding/json"
	"testing"

	"ngo_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDonationIntentShapes(t *testing.T) {
	want := &DonationIntent{
		DonorName:    "Asha",
		IsAnonymous:  true,
		Purpose:      models.DonationPurposeEvent,
		DonationType: models.DonationTypeItemSpecific,
		EventItemID:  "item-1",
		ItemQuantity: 2,
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"object", `{"donorName":"Asha","isAnonymous":true,"purpose":"event","donationType":"item_specific","eventItemId":"item-1","itemQuantity":2}`},
		{"stringified", `"{\"donorName\":\"Asha\",\"isAnonymous\":true,\"purpose\":\"event\",\"donationType\":\"item_specific\",\"eventItemId\":\"item-1\",\"itemQuantity\":2}"`},
		{"gateway notes", `{"donorName":"Asha","isAnonymous":"true","purpose":"event","donationType":"item_specific","eventItemId":"item-1","itemQuantity":"2"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDonationIntent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDonationIntentEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "[]", `""`, "  "} {
		got, err := ParseDonationIntent([]byte(raw))
		require.NoError(t, err, raw)
		assert.True(t, got.IsEmpty(), raw)
	}
}

func TestParseDonationIntentInvalid(t *testing.T) {
	for _, raw := range []string{`42`, `["a"]`, `{"itemQuantity":"two"}`, `"\"nested\""`, `{"isAnonymous":"maybe"}`} {
		_, err := ParseDonationIntent([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidIntent, raw)
	}
}

func TestGatewayNotesRoundTrip(t *testing.T) {
	in := &DonationIntent{DonorName: "Ravi", IsAnonymous: true, ItemQuantity: 3, LinkSlug: "winter"}
	raw, err := json.Marshal(in.GatewayNotes())
	require.NoError(t, err)

	back, err := ParseDonationIntent(raw)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}
