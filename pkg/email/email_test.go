package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("  Alice.Smith@Example.ORG ")
	require.NoError(t, err)
	assert.Equal(t, "alice.smith@example.org", got)

	for _, bad := range []string{"", "alice", "alice@", "@example.org", "Alice <alice@example.org>", "alice@localhost"} {
		_, err := Normalize(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}
