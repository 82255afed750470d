package drafts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioconexion/site/internal/session"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func Test_RedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, ok, err := store.Load(ctx, "visitor-1", "form")
	assert.NoError(t, err)
	assert.False(t, ok)

	err = store.Save(ctx, "visitor-1", "form", []byte(`{"titulo":"Hola"}`))
	assert.NoError(t, err)
	assert.True(t, mr.Exists("draft:visitor-1:form"))
	assert.Equal(t, time.Hour, mr.TTL("draft:visitor-1:form"))

	data, ok, err := store.Load(ctx, "visitor-1", "form")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"titulo":"Hola"}`, string(data))

	_, ok, err = store.Load(ctx, "visitor-2", "form")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, "visitor-1", "form"))
	assert.False(t, mr.Exists("draft:visitor-1:form"))

	// Deleting a draft that doesn't exist is not an error
	assert.NoError(t, store.Delete(ctx, "visitor-1", "form"))
}

func Test_RedisStore_expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, "v", "form", []byte("{}")))
	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Load(ctx, "v", "form")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func Test_RedisStore_unavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	err := store.Save(context.Background(), "v", "form", []byte("{}"))
	assert.ErrorContains(t, err, "failed to save draft")
}

func Test_NewRedisStore_defaultTTL(t *testing.T) {
	store := NewRedisStore(nil, 0)
	assert.Equal(t, DefaultTTL, store.ttl)
}

func Test_VisitorId(t *testing.T) {
	store := session.NewMemoryStore()

	id, err := VisitorId(store)
	assert.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	again, err := VisitorId(store)
	assert.NoError(t, err)
	assert.Equal(t, id, again)

	store.Set(session.KeyVisitorId, "not-a-uuid")
	replaced, err := VisitorId(store)
	assert.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", replaced)
}
