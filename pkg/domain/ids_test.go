package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aidledger/pkg/domain-errors"
)

func TestParsePartyID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"not a uuid", "donor-42", false},
		{"nil uuid", uuid.Nil.String(), false},
		{"wallet id instead of party id", "0.0.1234567", false},
		{"sql fragment", "'; DROP TABLE ledger_entries;--", false},
		{"null byte", "550e8400\x00-e29b-41d4-a716-446655440000", false},
		{"oversized", strings.Repeat("f", 1000), false},
		{"lowercase", "550e8400-e29b-41d4-a716-446655440000", true},
		{"uppercase", "550E8400-E29B-41D4-A716-446655440000", true},
		{"urn form", "urn:uuid:550e8400-e29b-41d4-a716-446655440000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePartyID(tt.input)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				assert.True(t, got.IsNil())
				return
			}
			require.NoError(t, err)
			assert.False(t, got.IsNil())
			assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", got.String())
		})
	}
}

func TestNewPartyIDRoundTrips(t *testing.T) {
	a, b := NewPartyID(), NewPartyID()
	assert.NotEqual(t, a, b)

	parsed, err := ParsePartyID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParsePartyIDNamesTheField(t *testing.T) {
	_, err := ParsePartyID("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "party_id")
}
