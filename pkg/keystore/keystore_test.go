package keystore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/studysync/pkg/keystore"
	badgerstore "github.com/marmos91/studysync/pkg/keystore/badger"
	"github.com/marmos91/studysync/pkg/keystore/memory"
)

// stores returns a fresh instance of every Store implementation. The same
// contract tests run against each so the strategies can treat them as
// interchangeable.
func stores(t *testing.T) map[string]keystore.Store {
	t.Helper()

	bs, err := badgerstore.Open(context.Background(), badgerstore.Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	return map[string]keystore.Store{
		"badger": bs,
		"memory": memory.New(),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing key", func(t *testing.T) {
				_, err := store.Get(ctx, "absent")
				assert.ErrorIs(t, err, keystore.ErrKeyNotFound)
			})

			t.Run("has missing key", func(t *testing.T) {
				found, err := store.Has(ctx, "absent")
				require.NoError(t, err)
				assert.False(t, found)
			})

			t.Run("set then get", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "k", []byte("v1")))

				got, err := store.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, []byte("v1"), got)

				found, err := store.Has(ctx, "k")
				require.NoError(t, err)
				assert.True(t, found)
			})

			t.Run("overwrite", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "k", []byte("v2")))

				got, err := store.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), got)
			})

			t.Run("empty value roundtrip", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "empty", nil))

				got, err := store.Get(ctx, "empty")
				require.NoError(t, err)
				assert.Empty(t, got)
			})
		})
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := badgerstore.Open(ctx, badgerstore.Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, keystore.DirectoryHandleKey("s1"), []byte(`{"path":"/tmp/x"}`)))
	require.NoError(t, store.Close())

	reopened, err := badgerstore.Open(ctx, badgerstore.Config{Path: dir})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, keystore.DirectoryHandleKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"path":"/tmp/x"}`), got)
}

func TestKeySchema(t *testing.T) {
	assert.Equal(t, "dir_handle_abc", keystore.DirectoryHandleKey("abc"))
	assert.Equal(t, "db_active_abc", keystore.StoreActiveKey("abc"))
	assert.Equal(t, "file_abc_data.csv", keystore.FileBlobKey("abc", "data.csv"))
}
