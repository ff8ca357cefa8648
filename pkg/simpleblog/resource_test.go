package simpleblog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslab/simple-blog/pkg/simpleblog"
	"github.com/eslab/simple-blog/pkg/simpleblog/store/memory"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	kinds    []simpleblog.NotificationKind
	entities []string
	ids      []string
}

func (n *recordingNotifier) Notify(ctx context.Context, kind simpleblog.NotificationKind, entity, id string) error {
	n.kinds = append(n.kinds, kind)
	n.entities = append(n.entities, entity)
	n.ids = append(n.ids, id)
	return nil
}

// failingNotifier always errors; deliveries must never surface to callers.
type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, kind simpleblog.NotificationKind, entity, id string) error {
	return errors.New("sink unavailable")
}

func newBlogResource(t *testing.T, opts ...simpleblog.ResourceOption[*simpleblog.Blog]) (*simpleblog.Resource[*simpleblog.Blog], simpleblog.Store[*simpleblog.Blog]) {
	t.Helper()
	store := memory.NewStore[simpleblog.Blog]()
	resource, err := simpleblog.NewResource("blog", store, opts...)
	require.NoError(t, err)
	return resource, store
}

func countAll[E simpleblog.Entity](t *testing.T, store simpleblog.Store[E]) int {
	t.Helper()
	cursor, err := store.FindAll(context.Background())
	require.NoError(t, err)
	entities, err := simpleblog.Collect(cursor)
	require.NoError(t, err)
	return len(entities)
}

func TestResource_Create_AssignsIdentity(t *testing.T) {
	resource, _ := newBlogResource(t)
	ctx := context.Background()

	created, err := resource.Create(ctx, &simpleblog.Blog{Name: "A", Handle: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := resource.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)
	assert.Equal(t, "a", found.Handle)
	assert.Equal(t, created.ID, found.ID)
}

func TestResource_Create_RejectsClientAssignedID(t *testing.T) {
	resource, store := newBlogResource(t)
	ctx := context.Background()

	_, err := resource.Create(ctx, &simpleblog.Blog{ID: "client-chosen", Name: "A", Handle: "a"})
	assert.ErrorIs(t, err, simpleblog.ErrIdentityConflict)
	assert.Equal(t, 0, countAll(t, store))
}

func TestResource_Create_RejectsMissingRequiredField(t *testing.T) {
	resource, store := newBlogResource(t)
	ctx := context.Background()

	_, err := resource.Create(ctx, &simpleblog.Blog{Name: "A"})
	require.Error(t, err)

	var validationErr *simpleblog.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Violations, 1)
	assert.Equal(t, "handle", validationErr.Violations[0].Field)
	assert.Equal(t, 0, countAll(t, store))
}

func TestResource_Create_PostWithoutDateIsRejected(t *testing.T) {
	store := memory.NewStore[simpleblog.Post]()
	resource, err := simpleblog.NewResource("post", store)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = resource.Create(ctx, &simpleblog.Post{Title: "untitled"})
	var validationErr *simpleblog.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Violations, 1)
	assert.Equal(t, "date", validationErr.Violations[0].Field)
	assert.Equal(t, 0, countAll(t, store))
}

func TestResource_Update_RequiresIdentity(t *testing.T) {
	resource, _ := newBlogResource(t)

	_, err := resource.Update(context.Background(), &simpleblog.Blog{Name: "A", Handle: "a"})
	assert.ErrorIs(t, err, simpleblog.ErrIdentityRequired)
}

func TestResource_Update_UnknownIdentityIsNotFound(t *testing.T) {
	resource, store := newBlogResource(t)
	ctx := context.Background()

	_, err := resource.Update(ctx, &simpleblog.Blog{ID: "missing", Name: "A", Handle: "a"})
	assert.ErrorIs(t, err, simpleblog.ErrNotFound)
	assert.Equal(t, 0, countAll(t, store))
}

func TestResource_Update_ReplacesEveryField(t *testing.T) {
	store := memory.NewStore[simpleblog.Post]()
	resource, err := simpleblog.NewResource("post", store)
	require.NoError(t, err)
	ctx := context.Background()

	date := time.Date(2020, 3, 14, 12, 0, 0, 0, time.UTC)
	created, err := resource.Create(ctx, &simpleblog.Post{Title: "first", Content: "long form text", Date: &date})
	require.NoError(t, err)

	// Content omitted: the replacement must not inherit it.
	later := date.Add(24 * time.Hour)
	_, err = resource.Update(ctx, &simpleblog.Post{ID: created.ID, Title: "second", Date: &later})
	require.NoError(t, err)

	found, err := resource.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", found.Title)
	assert.Empty(t, found.Content)
	assert.True(t, later.Equal(*found.Date))
}

func TestResource_Get_NotFound(t *testing.T) {
	resource, _ := newBlogResource(t)

	_, err := resource.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, simpleblog.ErrNotFound)
}

func TestResource_Delete_AbsentIdentityStillSucceeds(t *testing.T) {
	notifier := &recordingNotifier{}
	resource, _ := newBlogResource(t, simpleblog.WithNotifier[*simpleblog.Blog](notifier))

	err := resource.Delete(context.Background(), "never-existed")
	require.NoError(t, err)
	require.Len(t, notifier.kinds, 1)
	assert.Equal(t, simpleblog.NotificationDeleted, notifier.kinds[0])
}

func TestResource_Lifecycle(t *testing.T) {
	resource, _ := newBlogResource(t)
	ctx := context.Background()

	created, err := resource.Create(ctx, &simpleblog.Blog{Name: "A", Handle: "a"})
	require.NoError(t, err)

	updated, err := resource.Update(ctx, &simpleblog.Blog{ID: created.ID, Name: "B", Handle: "b"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	found, err := resource.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", found.Name)
	assert.Equal(t, "b", found.Handle)

	require.NoError(t, resource.Delete(ctx, created.ID))

	_, err = resource.Get(ctx, created.ID)
	assert.ErrorIs(t, err, simpleblog.ErrNotFound)
}

func TestResource_ListAndListAllReturnSameSet(t *testing.T) {
	resource, _ := newBlogResource(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		_, err := resource.Create(ctx, &simpleblog.Blog{Name: name, Handle: name})
		require.NoError(t, err)
	}

	buffered, err := resource.ListAll(ctx)
	require.NoError(t, err)

	cursor, err := resource.List(ctx)
	require.NoError(t, err)
	streamed, err := simpleblog.Collect(cursor)
	require.NoError(t, err)

	names := func(blogs []*simpleblog.Blog) map[string]bool {
		set := make(map[string]bool, len(blogs))
		for _, b := range blogs {
			set[b.Name] = true
		}
		return set
	}
	assert.Equal(t, names(buffered), names(streamed))
	assert.Len(t, buffered, 3)
}

func TestResource_ListAll_SortPassThrough(t *testing.T) {
	resource, _ := newBlogResource(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := resource.Create(ctx, &simpleblog.Blog{Name: name, Handle: name})
		require.NoError(t, err)
	}

	blogs, err := resource.ListAll(ctx, simpleblog.WithSort("name"))
	require.NoError(t, err)
	require.Len(t, blogs, 3)
	assert.Equal(t, "alpha", blogs[0].Name)
	assert.Equal(t, "bravo", blogs[1].Name)
	assert.Equal(t, "charlie", blogs[2].Name)

	blogs, err = resource.ListAll(ctx, simpleblog.WithSort("name"), simpleblog.WithDescending())
	require.NoError(t, err)
	assert.Equal(t, "charlie", blogs[0].Name)
}

func TestResource_Notifications(t *testing.T) {
	notifier := &recordingNotifier{}
	resource, _ := newBlogResource(t, simpleblog.WithNotifier[*simpleblog.Blog](notifier))
	ctx := context.Background()

	created, err := resource.Create(ctx, &simpleblog.Blog{Name: "A", Handle: "a"})
	require.NoError(t, err)
	_, err = resource.Update(ctx, &simpleblog.Blog{ID: created.ID, Name: "B", Handle: "b"})
	require.NoError(t, err)
	require.NoError(t, resource.Delete(ctx, created.ID))

	assert.Equal(t, []simpleblog.NotificationKind{
		simpleblog.NotificationCreated,
		simpleblog.NotificationUpdated,
		simpleblog.NotificationDeleted,
	}, notifier.kinds)
	assert.Equal(t, []string{"blog", "blog", "blog"}, notifier.entities)
	assert.Equal(t, []string{created.ID, created.ID, created.ID}, notifier.ids)
}

func TestResource_NotifierFailureIsSwallowed(t *testing.T) {
	resource, _ := newBlogResource(t, simpleblog.WithNotifier[*simpleblog.Blog](failingNotifier{}))

	created, err := resource.Create(context.Background(), &simpleblog.Blog{Name: "A", Handle: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestResource_RejectedCreateLeavesNoNotification(t *testing.T) {
	notifier := &recordingNotifier{}
	resource, _ := newBlogResource(t, simpleblog.WithNotifier[*simpleblog.Blog](notifier))

	_, err := resource.Create(context.Background(), &simpleblog.Blog{ID: "x", Name: "A", Handle: "a"})
	require.Error(t, err)
	assert.Empty(t, notifier.kinds)
}

func TestNewResource_Validation(t *testing.T) {
	_, err := simpleblog.NewResource[*simpleblog.Blog]("", memory.NewStore[simpleblog.Blog]())
	assert.Error(t, err)

	_, err = simpleblog.NewResource[*simpleblog.Blog]("blog", nil)
	assert.Error(t, err)
}
