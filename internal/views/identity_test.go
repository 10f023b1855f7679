package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorKeyPriority(t *testing.T) {
	full := Identity{SessionID: "sess-1", UserID: 42, IPAddress: "203.0.113.1"}
	sessionOnly := Identity{SessionID: "sess-1"}
	userOnly := Identity{UserID: 42}
	ipOnly := Identity{IPAddress: "203.0.113.1"}

	// Session wins over user and IP, user wins over IP.
	assert.Equal(t, sessionOnly.ActorKey(), full.ActorKey())
	assert.Equal(t, userOnly.ActorKey(), Identity{UserID: 42, IPAddress: "203.0.113.1"}.ActorKey())
	assert.NotEqual(t, sessionOnly.ActorKey(), userOnly.ActorKey())
	assert.NotEqual(t, userOnly.ActorKey(), ipOnly.ActorKey())
}

func TestActorKeyNeverExposesRawSignals(t *testing.T) {
	key := Identity{IPAddress: "203.0.113.1"}.ActorKey()
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "203.0.113.1")
}

func TestActorKeyDistinguishesSignalTypes(t *testing.T) {
	// The same literal value hashed as session vs IP must not collide.
	asSession := Identity{SessionID: "10.0.0.1"}.ActorKey()
	asIP := Identity{IPAddress: "10.0.0.1"}.ActorKey()
	assert.NotEqual(t, asSession, asIP)
}

func TestActorKeyEmptyIdentity(t *testing.T) {
	assert.Empty(t, Identity{}.ActorKey())
	assert.False(t, Identity{}.HasSignal())
	assert.True(t, Identity{SessionID: "s"}.HasSignal())
	assert.True(t, Identity{UserID: 1}.HasSignal())
	assert.True(t, Identity{IPAddress: "1.1.1.1"}.HasSignal())
}
