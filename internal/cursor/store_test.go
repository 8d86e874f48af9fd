package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetAbsent(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Get("pts:@missing")
	require.NoError(t, err)
	assert.False(t, ok, "absent key should report not found")
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("pts:@chan", "105"))

	got, ok, err := s.Get("pts:@chan")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "105", got)
}

func TestStore_Int64Cursor(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetInt64("chat_last_max_id:@group")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetInt64("chat_last_max_id:@group", 55))

	n, ok, err := s.GetInt64("chat_last_max_id:@group")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(55), n)
}

func TestStore_Int64Garbage(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("pts:@chan", "not-a-number"))

	_, _, err := s.GetInt64("pts:@chan")
	assert.Error(t, err)
}

func TestStore_SubscribedFlag(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetBool("@chan:subscribed")
	require.NoError(t, err)
	assert.False(t, got, "absent flag reads as false")

	require.NoError(t, s.SetBool("@chan:subscribed", true))

	got, err = s.GetBool("@chan:subscribed")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("pts:@chan", "10"))
	require.NoError(t, s.Delete("pts:@chan", "pts:@never-existed"))

	_, ok, err := s.Get("pts:@chan")
	require.NoError(t, err)
	assert.False(t, ok)
}
