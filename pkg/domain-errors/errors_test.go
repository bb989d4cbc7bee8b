package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errCause = errors.New("cause")

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeNotFound, "party not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches nested code through fmt wrapping", func(t *testing.T) {
		inner := Wrap(errCause, CodeAuditUnavailable, "submit failed")
		outer := fmt.Errorf("record: %w", inner)
		assert.True(t, HasCode(outer, CodeAuditUnavailable))
		assert.True(t, errors.Is(outer, errCause))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errCause, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errCause))
	})
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "submit failed: cause", Wrap(errCause, CodeInternal, "submit failed").Error())
	assert.Equal(t, "missing", New(CodeNotFound, "missing").Error())
	assert.Equal(t, "cause", Wrap(errCause, CodeInternal, "").Error())
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeAuditRejected:      http.StatusUnprocessableEntity,
		CodeAuditUnavailable:   http.StatusServiceUnavailable,
		CodeAuditMisconfigured: http.StatusServiceUnavailable,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
