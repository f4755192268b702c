package context

import (
	stdcontext "context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureRequestIDKeepsExisting(t *testing.T) {
	ctx := WithRequestID(stdcontext.Background(), "req-1")
	ctx, id := EnsureRequestID(ctx)
	assert.Equal(t, "req-1", id)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestEnsureRequestIDGenerates(t *testing.T) {
	ctx, id := EnsureRequestID(stdcontext.Background())
	assert.Len(t, id, 26)
	assert.Equal(t, id, RequestIDFromContext(ctx))
}

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(stdcontext.Background(), " hospital ", "u-2")
	role, id := ActorFromContext(ctx)
	assert.Equal(t, "hospital", role)
	assert.Equal(t, "u-2", id)

	role, id = ActorFromContext(stdcontext.Background())
	assert.Empty(t, role)
	assert.Empty(t, id)
}
