package gormstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Store {
	t.Helper()
	db, err := Open(Config{Driver: DriverSQLite, DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	s := New(db, "till-1")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_LoadEmpty(t *testing.T) {
	s := openTestDB(t)

	data, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []byte(`{"drafts":[]}`)))
	require.NoError(t, s.Save(ctx, []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}))

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, data)
}

func TestStore_KeysAreIsolated(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	other := New(s.db, "till-2")

	require.NoError(t, s.Save(ctx, []byte("one")))
	require.NoError(t, other.Save(ctx, []byte("two")))

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.Error(t, err)
}
