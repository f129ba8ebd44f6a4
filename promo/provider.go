// Package promo adapts the external promotional-event subsystem. The ledger
// only consumes the current boost signal and reports participation credit
// back; event scheduling lives elsewhere.
package promo

import (
	"context"

	"chipbank/config"
	"chipbank/models"
)

// StaticProvider serves the boost configured at process start. It stands in
// for the live event service in deployments that run without one.
type StaticProvider struct {
	boost models.EventBoost
}

// NewStaticProvider builds a provider from the configured event values
func NewStaticProvider(cfg *config.Config) *StaticProvider {
	boost := models.EventBoost{
		Multiplier: cfg.EventMultiplier,
		FlatBonus:  cfg.EventFlatBonus,
	}
	if cfg.EventID != 0 {
		eventID := cfg.EventID
		boost.EventID = &eventID
	}
	if boost.Multiplier < 1 {
		boost.Multiplier = 1
	}
	return &StaticProvider{boost: boost}
}

// CurrentBoost returns the active boost
func (p *StaticProvider) CurrentBoost(ctx context.Context) (models.EventBoost, error) {
	return p.boost, nil
}
