package core

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	values    map[string][]byte
	rejectAll bool
	loadErr   error
}

func newStubStore() *stubStore {
	return &stubStore{values: make(map[string][]byte)}
}

func (s *stubStore) Load(_ context.Context, key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	v, ok := s.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (s *stubStore) Save(_ context.Context, key string, value []byte) error {
	if s.rejectAll {
		return errors.Wrap(ErrStorageFull, key)
	}
	s.values[key] = value
	return nil
}

func (s *stubStore) Remove(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) Debug(msg string, _ ...interface{}) { l.Println(msg) }
func (l stdLogger) Info(msg string, _ ...interface{})  { l.Println(msg) }
func (l stdLogger) Warn(msg string, _ ...interface{})  { l.Println(msg) }
func (l stdLogger) Error(msg string, _ ...interface{}) { l.Println(msg) }
func (l stdLogger) Fatal(msg string, _ ...interface{}) { l.Println(msg) }

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestRecords() (*Records, *stubStore) {
	kv := newStubStore()
	return NewRecords(kv, stdLogger{log.New(io.Discard, "", 0)}), kv
}

func TestGetCollection(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		stored  []byte
		loadErr error
		want    []item
	}{
		{name: "absent key", want: []item{}},
		{name: "stored", stored: []byte(`[{"id":"1","name":"a"}]`), want: []item{{ID: "1", Name: "a"}}},
		{name: "null", stored: []byte(`null`), want: []item{}},
		{name: "corrupt", stored: []byte(`[{"id":`), want: []item{}},
		{name: "wrong shape", stored: []byte(`{"id":"1"}`), want: []item{}},
		{name: "backend error", loadErr: errors.New("boom"), want: []item{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, kv := newTestRecords()
			if tt.stored != nil {
				kv.values[KeyUsers] = tt.stored
			}
			kv.loadErr = tt.loadErr

			got := GetCollection[item](ctx, rs, KeyUsers)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetCollection(t *testing.T) {
	ctx := context.Background()
	rs, kv := newTestRecords()

	assert.True(t, SetCollection(ctx, rs, KeyUsers, []item{{ID: "1"}, {ID: "2"}}))
	assert.Len(t, GetCollection[item](ctx, rs, KeyUsers), 2)

	// full replace, no merge
	assert.True(t, SetCollection(ctx, rs, KeyUsers, []item{{ID: "3"}}))
	assert.Equal(t, []item{{ID: "3"}}, GetCollection[item](ctx, rs, KeyUsers))

	assert.True(t, SetCollection[item](ctx, rs, KeyUsers, nil))
	assert.Equal(t, "[]", string(kv.values[KeyUsers]))
}

func TestRecords_StorageFull(t *testing.T) {
	ctx := context.Background()
	rs, kv := newTestRecords()
	require.True(t, SetCollection(ctx, rs, KeyUsers, []item{{ID: "1"}}))
	kv.rejectAll = true

	assert.NotPanics(t, func() {
		assert.False(t, SetCollection(ctx, rs, KeyUsers, []item{{ID: "2"}}))
		assert.False(t, rs.SetValue(ctx, KeyLogo, "data:image/png;base64,AA=="))
	})
	err := Save(ctx, rs, KeyUsers, []item{})
	assert.True(t, errors.Is(err, ErrStorageFull))

	// previous content survives the rejected writes
	assert.Equal(t, []item{{ID: "1"}}, GetCollection[item](ctx, rs, KeyUsers))
}

func TestRecords_Value(t *testing.T) {
	ctx := context.Background()
	rs, kv := newTestRecords()

	var logo string
	assert.False(t, rs.GetValue(ctx, KeyLogo, &logo))
	require.True(t, rs.SetValue(ctx, KeyLogo, "data:image/png;base64,AA=="))
	assert.True(t, rs.GetValue(ctx, KeyLogo, &logo))
	assert.Equal(t, "data:image/png;base64,AA==", logo)

	kv.values[KeyLogo] = []byte("{not json")
	assert.False(t, rs.GetValue(ctx, KeyLogo, &logo))

	assert.True(t, rs.Remove(ctx, KeyLogo))
	assert.True(t, rs.Remove(ctx, KeyLogo))
	assert.False(t, rs.GetValue(ctx, KeyLogo, &logo))
}
