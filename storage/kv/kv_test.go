package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
)

func stores(t *testing.T, quota int64) map[string]core.KVStore {
	fs, err := NewFileStore(t.TempDir(), quota)
	require.NoError(t, err)
	return map[string]core.KVStore{
		"memory": NewMemoryStore(quota),
		"file":   fs,
	}
}

func checkLoadSaveRemove(t *testing.T, s core.KVStore) {
	ctx := context.Background()
	_, err := s.Load(ctx, core.KeyUsers)
	assert.True(t, errors.Is(err, core.ErrKeyNotFound))

	require.NoError(t, s.Save(ctx, core.KeyUsers, []byte(`[{"id":"1"}]`)))
	data, err := s.Load(ctx, core.KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(data))

	require.NoError(t, s.Save(ctx, core.KeyUsers, []byte(`[]`)))
	data, err = s.Load(ctx, core.KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, s.Remove(ctx, core.KeyUsers))
	require.NoError(t, s.Remove(ctx, core.KeyUsers))
	_, err = s.Load(ctx, core.KeyUsers)
	assert.True(t, errors.Is(err, core.ErrKeyNotFound))
}

func TestStore_LoadSaveRemove(t *testing.T) {
	for name, s := range stores(t, 0) {
		t.Run(name, func(t *testing.T) {
			checkLoadSaveRemove(t, s)
		})
	}
}

func TestStore_Quota(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		quota   int64
		writes  map[string]string
		key     string
		value   string
		wantErr bool
	}{
		{name: "unlimited", quota: 0, key: core.KeyUsers, value: "0123456789"},
		{name: "within quota", quota: 20, writes: map[string]string{core.KeyClasses: "0123456789"}, key: core.KeyUsers, value: "0123456789"},
		{name: "over quota", quota: 15, writes: map[string]string{core.KeyClasses: "0123456789"}, key: core.KeyUsers, value: "0123456789", wantErr: true},
		{name: "overwrite does not count twice", quota: 10, writes: map[string]string{core.KeyUsers: "0123456789"}, key: core.KeyUsers, value: "9876543210"},
		{name: "reject all writes", quota: core.RejectAllWrites, key: core.KeyUsers, value: "[]", wantErr: true},
	}

	for _, tt := range tests {
		for name, s := range stores(t, 0) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				for k, v := range tt.writes {
					require.NoError(t, s.Save(ctx, k, []byte(v)))
				}
				switch st := s.(type) {
				case *MemoryStore:
					st.SetQuota(tt.quota)
				case *FileStore:
					st.quota = tt.quota
				}

				err := s.Save(ctx, tt.key, []byte(tt.value))
				if tt.wantErr {
					assert.True(t, errors.Is(err, core.ErrStorageFull))
				} else {
					assert.NoError(t, err)
				}
			})
		}
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), core.KeyGrades, []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	if assert.Len(t, entries, 1) {
		assert.Equal(t, core.KeyGrades+fileExt, entries[0].Name())
	}
	_, err = os.Stat(filepath.Join(dir, core.KeyGrades+fileExt))
	assert.NoError(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := Open(ctx, core.StoreConfig{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, core.StoreConfig{Driver: DriverFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	assert.NoError(t, closeFn())

	_, _, err = Open(ctx, core.StoreConfig{Driver: "floppy"})
	assert.Error(t, err)
}
