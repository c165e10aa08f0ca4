package session

import (
	"context"
	"fmt"

	"github.com/meysamhadeli/patchpilot/storage/models"
)

// Ticket tags a backend request with the chat that was current when it was issued.
type Ticket struct {
	ChatID string
}

// BeginRequest reserves the single request slot of the current chat.
func (m *Manager) BeginRequest() (Ticket, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.inFlight[m.currentID] {
		return Ticket{}, fmt.Errorf("%w: %s", ErrRequestInFlight, m.currentID)
	}
	m.inFlight[m.currentID] = true
	return Ticket{ChatID: m.currentID}, nil
}

// CompleteRequest releases the ticket and appends reply to the ticket's chat, unless the user
// has moved to another chat or the chat is gone, in which case the reply is discarded.
// It reports whether the reply was committed.
func (m *Manager) CompleteRequest(ctx context.Context, ticket Ticket, reply models.Message) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.inFlight, ticket.ChatID)

	if ticket.ChatID != m.currentID || m.indexOf(ticket.ChatID) < 0 {
		m.logger.Info().Str("chat_id", ticket.ChatID).Str("current_chat_id", m.currentID).Msg("discarding stale reply")
		return false, nil
	}

	if err := m.appendLocked(ctx, ticket.ChatID, reply); err != nil {
		return false, err
	}
	return true, nil
}

// CancelRequest releases the ticket without appending anything.
func (m *Manager) CancelRequest(ticket Ticket) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.inFlight, ticket.ChatID)
}
