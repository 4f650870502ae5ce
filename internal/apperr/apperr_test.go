package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchWrappedCopies(t *testing.T) {
	wrapped := fmt.Errorf("booking failed: %w", ErrSoldOut)
	assert.ErrorIs(t, wrapped, ErrSoldOut)
	assert.NotErrorIs(t, wrapped, ErrHoldExpired)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrSoldOut))
	assert.Equal(t, KindSignature, KindOf(ErrInvalidSignature))
	assert.Equal(t, KindNotFound, KindOf(NotFound("ticket")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(Internal("boom", errors.New("cause"))))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Gateway("gateway call failed", cause)
	assert.ErrorIs(t, err, cause)
}
