package cache

import (
	"time"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/google/uuid"
)

type decisionKey struct {
	userID    uuid.UUID
	channelID uuid.UUID
}

// DecisionCache keeps recent authorization decisions in process memory.
// Decisions are short lived: a revoked membership stays effective for at
// most one TTL.
type DecisionCache struct {
	entries *expiringMap[decisionKey, access.Decision]
	ttl     time.Duration
}

// NewDecisionCache creates a decision cache with the given TTL
func NewDecisionCache(ttl time.Duration) *DecisionCache {
	return &DecisionCache{
		entries: newExpiringMap[decisionKey, access.Decision](defaultCleanupInterval),
		ttl:     ttl,
	}
}

// Get returns a cached decision
func (c *DecisionCache) Get(userID, channelID uuid.UUID) (access.Decision, bool) {
	return c.entries.get(decisionKey{userID, channelID})
}

// Set stores a decision
func (c *DecisionCache) Set(userID, channelID uuid.UUID, d access.Decision) {
	if c.ttl <= 0 {
		return
	}
	c.entries.set(decisionKey{userID, channelID}, d, c.ttl)
}

// ForgetChannel drops every decision for the channel
func (c *DecisionCache) ForgetChannel(channelID uuid.UUID) {
	c.entries.deleteFunc(func(k decisionKey) bool { return k.channelID == channelID })
}

// Stats returns hit and miss counts
func (c *DecisionCache) Stats() Stats {
	return c.entries.stats()
}

// Stop ends the background cleanup
func (c *DecisionCache) Stop() {
	c.entries.stop()
}
