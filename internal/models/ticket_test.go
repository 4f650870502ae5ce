package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalStatuses(t *testing.T) {
	terminal := []TicketStatus{TicketUsed, TicketExpired, TicketReturned}
	for _, status := range terminal {
		assert.True(t, status.Terminal(), "%s should be terminal", status)
	}

	live := []TicketStatus{TicketHeld, TicketActive, TicketForSale}
	for _, status := range live {
		assert.False(t, status.Terminal(), "%s should not be terminal", status)
	}
}
