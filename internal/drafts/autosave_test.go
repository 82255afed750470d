package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saves   int
	deletes int
	err     error
}

var _ Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{saved: make(map[string][]byte)}
}

func (m *mockStore) Load(ctx context.Context, visitor string, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.saved[Key(visitor, key)]
	return data, ok, nil
}

func (m *mockStore) Save(ctx context.Context, visitor string, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.saved[Key(visitor, key)] = data
	return nil
}

func (m *mockStore) Delete(ctx context.Context, visitor string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.saved, Key(visitor, key))
	return nil
}

func (m *mockStore) snapshot() (map[string]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]string)
	for k, v := range m.saved {
		saved[k] = string(v)
	}
	return saved, m.saves
}

func Test_Autosaver_debounce(t *testing.T) {
	store := newMockStore()
	a := NewAutosaver(store, 30*time.Millisecond)

	a.Schedule("v", "form", []byte("1"))
	a.Schedule("v", "form", []byte("2"))
	a.Schedule("v", "form", []byte("3"))

	saved, saves := store.snapshot()
	assert.Empty(t, saved)
	assert.Equal(t, 0, saves)

	assert.Eventually(t, func() bool {
		_, saves := store.snapshot()
		return saves > 0
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	saved, saves = store.snapshot()
	assert.Equal(t, 1, saves)
	assert.Equal(t, map[string]string{"draft:v:form": "3"}, saved)
}

func Test_Autosaver_independentDrafts(t *testing.T) {
	store := newMockStore()
	a := NewAutosaver(store, 10*time.Millisecond)

	a.Schedule("v1", "form", []byte("a"))
	a.Schedule("v2", "form", []byte("b"))

	assert.Eventually(t, func() bool {
		_, saves := store.snapshot()
		return saves == 2
	}, time.Second, 5*time.Millisecond)
	saved, _ := store.snapshot()
	assert.Equal(t, map[string]string{"draft:v1:form": "a", "draft:v2:form": "b"}, saved)
}

func Test_Autosaver_Load(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.saved["draft:v:form"] = []byte("stored")
	a := NewAutosaver(store, time.Hour)

	data, ok, err := a.Load(ctx, "v", "form")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "stored", string(data))

	a.Schedule("v", "form", []byte("pending"))
	data, ok, err = a.Load(ctx, "v", "form")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pending", string(data))
}

func Test_Autosaver_Discard(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.saved["draft:v:form"] = []byte("stored")
	a := NewAutosaver(store, 10*time.Millisecond)

	a.Schedule("v", "form", []byte("pending"))
	assert.NoError(t, a.Discard(ctx, "v", "form"))

	time.Sleep(40 * time.Millisecond)
	saved, saves := store.snapshot()
	assert.Empty(t, saved)
	assert.Equal(t, 0, saves)
}

func Test_Autosaver_Flush(t *testing.T) {
	store := newMockStore()
	a := NewAutosaver(store, time.Hour)

	a.Schedule("v1", "form", []byte("a"))
	a.Schedule("v2", "form", []byte("b"))
	assert.NoError(t, a.Flush(context.Background()))

	saved, saves := store.snapshot()
	assert.Equal(t, 2, saves)
	assert.Equal(t, map[string]string{"draft:v1:form": "a", "draft:v2:form": "b"}, saved)

	// Nothing is left to write
	assert.NoError(t, a.Flush(context.Background()))
	_, saves = store.snapshot()
	assert.Equal(t, 2, saves)
}

func Test_Autosaver_Flush_error(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis is down")
	a := NewAutosaver(store, time.Hour)

	a.Schedule("v", "form", []byte("a"))
	assert.EqualError(t, a.Flush(context.Background()), "redis is down")
}

func Test_NewAutosaver_defaultDelay(t *testing.T) {
	a := NewAutosaver(newMockStore(), 0)
	assert.Equal(t, DefaultDelay, a.delay)
}
