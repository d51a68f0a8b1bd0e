package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixask/helixaskd/pkg/models"
)

func TestSessionStore_UpsertGetRoundTrip(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	saved, err := s.Upsert(ctx, "owner-1", models.Session{
		SessionID: "sess-1",
		Messages:  []models.Message{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ContentHash)

	got, err := s.Get(ctx, "owner-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ContentHash, got.ContentHash)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestSessionStore_ForbiddenWithoutOwner(t *testing.T) {
	s := NewSessionStore()
	_, err := s.Upsert(context.Background(), "", models.Session{SessionID: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Get(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSessionStore_NotFound(t *testing.T) {
	s := NewSessionStore()
	_, err := s.Get(context.Background(), "owner-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_ListOrderedAndPaginated(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		_, err := s.Upsert(ctx, "owner-1", models.Session{SessionID: id})
		require.NoError(t, err)
	}

	sessions, err := s.List(ctx, "owner-1", 2, 1, false)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].SessionID)
	assert.Equal(t, "c", sessions[1].SessionID)
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	_, err := s.Upsert(ctx, "owner-1", models.Session{SessionID: "sess-1"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "owner-1", "sess-1"))
	require.NoError(t, s.Delete(ctx, "owner-1", "sess-1"))

	_, err = s.Get(ctx, "owner-1", "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTraceStore_AppendAndExportSince(t *testing.T) {
	ts := NewTraceStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ts.Append(ctx, "tenant-1", models.TraceRecord{TraceID: "t", Pass: true})
		require.NoError(t, err)
	}
	_, err := ts.Append(ctx, "tenant-2", models.TraceRecord{TraceID: "other"})
	require.NoError(t, err)

	records, err := ts.ExportSince(ctx, "tenant-1", 1, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2), records[0].Seq)
	assert.Equal(t, uint64(3), records[1].Seq)
}
