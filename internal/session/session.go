// Package session carries the authenticated principal through request
// contexts and broadcasts invalidation when tokens are refreshed or revoked.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated owner behind a request.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type EventKind string

const (
	EventLogout  EventKind = "logout"
	EventRefresh EventKind = "refresh"
)

// Event tells subscribers that a user's session changed.
type Event struct {
	Kind    EventKind
	UserID  uuid.UUID
	TokenID string
}

// Broker keeps revoked token ids until they would have expired anyway and
// fans session events out to per-user subscribers. State is process-local.
type Broker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	subs    map[uuid.UUID]map[int]chan Event
	nextID  int
	now     func() time.Time
}

func NewBroker() *Broker {
	return &Broker{
		revoked: make(map[string]time.Time),
		subs:    make(map[uuid.UUID]map[int]chan Event),
		now:     time.Now,
	}
}

// Revoke rejects tokenID until the given expiry.
func (b *Broker) Revoke(tokenID string, until time.Time) {
	if tokenID == "" {
		return
	}
	b.mu.Lock()
	b.revoked[tokenID] = until
	b.mu.Unlock()
}

func (b *Broker) IsRevoked(tokenID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.revoked[tokenID]
	if !ok {
		return false
	}
	if b.now().After(until) {
		delete(b.revoked, tokenID)
		return false
	}
	return true
}

// Prune drops revocations whose tokens have expired and returns how many.
func (b *Broker) Prune() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for id, until := range b.revoked {
		if now.After(until) {
			delete(b.revoked, id)
			n++
		}
	}
	return n
}

// Subscribe returns a channel of events for userID and a cancel func that
// must be called to release it.
func (b *Broker) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, 4)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan Event)
	}
	b.subs[userID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to the user's subscribers without blocking; a full
// subscriber misses the event.
func (b *Broker) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[e.UserID] {
		select {
		case ch <- e:
		default:
		}
	}
}
