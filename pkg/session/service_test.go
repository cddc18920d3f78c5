package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav-agent/pranav/pkg/storage"
)

func newTestService(t *testing.T) (*Service, storage.Backend) {
	t.Helper()
	store := storage.NewMemoryBackend()
	return NewService(store), store
}

func TestServiceStartPersists(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	sess, err := svc.Start(ctx, "Pranav")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "Pranav", sess.AgentName)
	assert.Empty(t, sess.Messages)
	assert.Equal(t, sess.CreatedAt, sess.UpdatedAt)

	raw, err := store.Retrieve(ctx, sess.ID, Namespace)
	require.NoError(t, err)

	var stored Session
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, sess.ID, stored.ID)
}

func TestServiceAppendAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Start(ctx, "Pranav")
	require.NoError(t, err)

	updated, err := svc.Append(ctx, sess.ID,
		NewMessage(RoleUser, "hello"),
		NewMessage(RoleAgent, "Hello! I'm Pranav, your intelligent agent. How can I assist you today?"),
	)
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	assert.Equal(t, RoleUser, updated.Messages[0].Role)
	assert.Equal(t, RoleAgent, updated.Messages[1].Role)

	loaded, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "hello", loaded.Messages[0].Content)
}

func TestServiceAppendUnknownSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Append(ctx, "missing", NewMessage(RoleUser, "hi"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceGetMissing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		sess := &Session{
			ID:        id,
			AgentName: "Pranav",
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Store(ctx, id, sess, Namespace))
	}

	sessions, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, "third", sessions[0].ID)
	assert.Equal(t, "second", sessions[1].ID)
	assert.Equal(t, "first", sessions[2].ID)
}

func TestServiceListSkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	sess, err := svc.Start(ctx, "Pranav")
	require.NoError(t, err)

	require.NoError(t, store.Store(ctx, "garbage", json.RawMessage(`"not a session object"`), Namespace))

	sessions, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sess.ID, sessions[0].ID)
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Start(ctx, "Pranav")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sess.ID))

	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDeleteMissing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceExport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Start(ctx, "Pranav")
	require.NoError(t, err)
	_, err = svc.Append(ctx, sess.ID, NewMessage(RoleUser, "export me"))
	require.NoError(t, err)

	out, err := svc.Export(ctx, sess.ID)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, sess.ID, decoded.ID)

	// Export is pretty-printed for archiving.
	assert.Contains(t, string(out), "\n  \"id\":")
}
