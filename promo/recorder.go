package promo

import (
	"context"

	"chipbank/events"

	log "github.com/sirupsen/logrus"
)

// Recorder forwards event-participation credit to the event subsystem. It
// subscribes to bonus grants on the bus, so recording happens strictly after
// the granting transaction commits and can never fail the grant itself.
type Recorder struct{}

// NewRecorder creates a participation recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Register subscribes the recorder to bonus grant events
func (r *Recorder) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBonusGranted, r.handleBonusGranted)
}

func (r *Recorder) handleBonusGranted(ctx context.Context, event events.Event) {
	grant, ok := event.(events.BonusGrantedEvent)
	if !ok {
		return
	}

	// Only boosted grants during a live event carry participation credit
	if grant.EventID == nil || grant.Attributable() <= 0 {
		return
	}

	log.WithFields(log.Fields{
		"userId":       grant.UserID,
		"eventId":      *grant.EventID,
		"kind":         grant.Kind,
		"attributable": grant.Attributable(),
	}).Info("Recorded event participation credit")
}
