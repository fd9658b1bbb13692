package access

import (
	"context"
	"sync"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMembershipRepository is a mock implementation of MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Find(ctx context.Context, userID, channelID uuid.UUID) (*access.Membership, error) {
	args := m.Called(ctx, userID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Membership), args.Error(1)
}

func (m *MockMembershipRepository) Grant(ctx context.Context, userID, channelID uuid.UUID, role access.Role) error {
	args := m.Called(ctx, userID, channelID, role)
	return args.Error(0)
}

// MockGuard is a mock implementation of access.Guard
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Authorize(ctx context.Context, userID, channelID uuid.UUID) (access.Decision, error) {
	args := m.Called(ctx, userID, channelID)
	return args.Get(0).(access.Decision), args.Error(1)
}

// mapDecisionCache is a DecisionCache without expiry
type mapDecisionCache struct {
	mu      sync.Mutex
	entries map[[2]uuid.UUID]access.Decision
}

func newMapDecisionCache() *mapDecisionCache {
	return &mapDecisionCache{entries: make(map[[2]uuid.UUID]access.Decision)}
}

func (c *mapDecisionCache) Get(userID, channelID uuid.UUID) (access.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[[2]uuid.UUID{userID, channelID}]
	return d, ok
}

func (c *mapDecisionCache) Set(userID, channelID uuid.UUID, d access.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[[2]uuid.UUID{userID, channelID}] = d
}

func (c *mapDecisionCache) ForgetChannel(channelID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k[1] == channelID {
			delete(c.entries, k)
		}
	}
}

// recordingPublisher captures published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
