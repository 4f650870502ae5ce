package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtide/ticketcore/internal/apperr"
)

func TestAllowOwner(t *testing.T) {
	owner := uuid.New()
	for _, action := range []Action{ActionPay, ActionList, ActionCancelListing, ActionRefund, ActionShowQR} {
		assert.NoError(t, Allow(owner, owner, action))
	}
}

func TestAllowRejectsNonOwner(t *testing.T) {
	err := Allow(uuid.New(), uuid.New(), ActionRefund)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}
