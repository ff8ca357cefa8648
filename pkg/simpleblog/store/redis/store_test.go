package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslab/simple-blog/pkg/simpleblog"
	redisstore "github.com/eslab/simple-blog/pkg/simpleblog/store/redis"
)

// setupStore connects to the Redis instance named by REDIS_ADDR and returns a
// store under a fresh key prefix. Tests are skipped when the variable is
// unset.
func setupStore(t *testing.T) simpleblog.Store[*simpleblog.Tag] {
	t.Helper()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis store tests")
	}

	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	require.NoError(t, client.Ping(ctx).Err())

	prefix := fmt.Sprintf("tag_test_%d", time.Now().UnixNano())
	store := redisstore.NewStore[simpleblog.Tag](client, prefix)
	t.Cleanup(func() {
		_ = store.DeleteAll(ctx)
		_ = client.Close()
	})

	return store
}

func TestStore_InsertAndFind(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, &simpleblog.Tag{Name: "golang"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "golang", found.Name)
}

func TestStore_FindByID_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.FindByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, simpleblog.ErrNotFound)
}

func TestStore_Replace(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, &simpleblog.Tag{Name: "old"})
	require.NoError(t, err)

	found, err := store.Replace(ctx, created.ID, &simpleblog.Tag{Name: "new"})
	require.NoError(t, err)
	require.True(t, found)

	fetched, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", fetched.Name)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestStore_Replace_Absent(t *testing.T) {
	store := setupStore(t)

	found, err := store.Replace(context.Background(), "no-such-id", &simpleblog.Tag{Name: "n"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_FindAll(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	want := map[string]bool{}
	for _, name := range []string{"go", "redis", "http"} {
		created, err := store.Insert(ctx, &simpleblog.Tag{Name: name})
		require.NoError(t, err)
		want[created.ID] = true
	}

	cursor, err := store.FindAll(ctx)
	require.NoError(t, err)
	tags, err := simpleblog.Collect(cursor)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	for _, tag := range tags {
		assert.True(t, want[tag.ID], "unexpected tag %s", tag.ID)
	}
}

func TestStore_FindAll_Sorted(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := store.Insert(ctx, &simpleblog.Tag{Name: name})
		require.NoError(t, err)
	}

	cursor, err := store.FindAll(ctx, simpleblog.WithSort("name"))
	require.NoError(t, err)
	tags, err := simpleblog.Collect(cursor)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].Name)
	assert.Equal(t, "bravo", tags[1].Name)
	assert.Equal(t, "charlie", tags[2].Name)

	cursor, err = store.FindAll(ctx, simpleblog.WithSort("name"), simpleblog.WithDescending())
	require.NoError(t, err)
	tags, err = simpleblog.Collect(cursor)
	require.NoError(t, err)
	assert.Equal(t, "charlie", tags[0].Name)
}

func TestStore_DeleteByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, &simpleblog.Tag{Name: "gone"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, created.ID))
	_, err = store.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, simpleblog.ErrNotFound)

	// deleting again is a no-op
	require.NoError(t, store.DeleteByID(ctx, created.ID))
}

func TestStore_DeleteAll(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, &simpleblog.Tag{Name: fmt.Sprintf("t%d", i)})
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteAll(ctx))

	cursor, err := store.FindAll(ctx)
	require.NoError(t, err)
	tags, err := simpleblog.Collect(cursor)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
