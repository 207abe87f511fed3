package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	p := Principal{UserID: uuid.New(), Email: "owner@example.com"}
	got, ok := FromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestBroker_Revocation(t *testing.T) {
	b := NewBroker()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.Revoke("jti-1", now.Add(time.Hour))
	b.Revoke("jti-2", now.Add(-time.Minute))
	b.Revoke("", now.Add(time.Hour))

	assert.True(t, b.IsRevoked("jti-1"))
	assert.False(t, b.IsRevoked("jti-2"))
	assert.False(t, b.IsRevoked("unknown"))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, b.Prune())
	assert.False(t, b.IsRevoked("jti-1"))
}

func TestBroker_Subscriptions(t *testing.T) {
	b := NewBroker()
	u1, u2 := uuid.New(), uuid.New()

	ch1, cancel1 := b.Subscribe(u1)
	ch2, cancel2 := b.Subscribe(u2)
	defer cancel2()

	b.Publish(Event{Kind: EventLogout, UserID: u1, TokenID: "t"})

	select {
	case e := <-ch1:
		assert.Equal(t, EventLogout, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected event for u1")
	}
	select {
	case <-ch2:
		t.Fatal("u2 should not receive u1 events")
	default:
	}

	cancel1()
	cancel1()
	_, open := <-ch1
	assert.False(t, open)

	assert.NotPanics(t, func() { b.Publish(Event{UserID: u1}) })
}
