package dispatch

import (
	"encoding/json"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/registry"
	"github.com/artwall/artwall/pkg/log"
)

// Dispatcher fans a message event out to the live push channels of the
// two participants. Delivery is best effort: an offline or saturated
// party is skipped without affecting the other.
type Dispatcher struct {
	registry *registry.Registry
}

// NewDispatcher creates a dispatcher backed by the given registry.
func NewDispatcher(r *registry.Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// Dispatch serializes the event once and offers it to the recipient
// and the sender. It never fails; misses are logged at debug level.
func (d *Dispatcher) Dispatch(event *domain.MessageEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		l := log.L()
		l.Error().Err(err).
			Str(log.FieldMessageID, event.ID).
			Msg("failed to encode message event")
		return
	}

	d.offer(event.ToUser.ID, event.ID, payload)
	d.offer(event.FromUser.ID, event.ID, payload)
}

func (d *Dispatcher) offer(userID, messageID string, payload []byte) {
	l := log.L()
	ch := d.registry.Get(userID)
	if ch == nil {
		l.Debug().
			Str(log.FieldUserID, userID).
			Str(log.FieldMessageID, messageID).
			Msg("no live channel, skipping delivery")
		return
	}
	if !ch.Offer(payload) {
		l.Debug().
			Str(log.FieldUserID, userID).
			Str(log.FieldMessageID, messageID).
			Msg("channel unavailable, event dropped")
	}
}
