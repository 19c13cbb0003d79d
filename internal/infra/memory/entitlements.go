package memory

import (
	"context"
	"sync"
)

// Entitlements is a static app.EntitlementChecker seeded from config.
type Entitlements struct {
	mu      sync.RWMutex
	premium map[string]bool
}

func NewEntitlements(premiumUsers []string) *Entitlements {
	m := make(map[string]bool, len(premiumUsers))
	for _, id := range premiumUsers {
		m[id] = true
	}
	return &Entitlements{premium: m}
}

func (e *Entitlements) IsPremium(_ context.Context, userID string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.premium[userID], nil
}

// Grant marks a user premium at runtime; used by tests and demos.
func (e *Entitlements) Grant(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.premium[userID] = true
}
