package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkwell/auth"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "blog.db") + "?_foreign_keys=on"
	store, err := Open("sqlite", dsn, Options{FirstUserAdmin: true})
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, email string, roles ...string) *User {
	t.Helper()
	u := &User{Name: "User " + email, Email: email, PasswordDigest: "pbkdf2:sha256:1$salt$00"}
	require.NoError(t, store.CreateUser(context.Background(), u, roles...))
	return u
}

func createPost(t *testing.T, store *Store, author *User, title string) *Post {
	t.Helper()
	p := &Post{
		AuthorID: author.ID,
		Title:    title,
		Subtitle: "Subtitle of " + title,
		Date:     "October 18, 2026",
		Body:     "Body of " + title,
		ImgURL:   "https://example.com/a.png",
	}
	require.NoError(t, store.CreatePost(context.Background(), p))
	return p
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "a@x.com")
	err := store.CreateUser(ctx, &User{Name: "Other", Email: "a@x.com", PasswordDigest: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestEmailsAreCaseSensitive(t *testing.T) {
	store := newTestStore(t)

	createUser(t, store, "a@x.com")
	createUser(t, store, "A@x.com")

	_, err := store.GetUserByEmail(context.Background(), "A@X.COM")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirstUserIsAdmin(t *testing.T) {
	store := newTestStore(t)

	first := createUser(t, store, "a@x.com")
	second := createUser(t, store, "b@x.com")
	third := createUser(t, store, "c@x.com", auth.RoleAdmin, auth.RoleAdmin)

	assert.True(t, first.HasRole(auth.RoleAdmin))
	assert.False(t, second.HasRole(auth.RoleAdmin))
	assert.Equal(t, []string{auth.RoleAdmin}, third.RoleNames())

	loaded, err := store.GetUserByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, loaded.HasRole(auth.RoleAdmin))
}

func TestFirstUserAdminDisabled(t *testing.T) {
	store := newTestStore(t)
	store.FirstUserAdmin = false

	u := createUser(t, store, "a@x.com")
	assert.Empty(t, u.RoleNames())
}

func TestGetUserMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUserByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "a@x.com")
	createUser(t, store, "b@x.com")

	u, err := store.SetRole(ctx, "b@x.com", auth.RoleAdmin, true)
	require.NoError(t, err)
	assert.True(t, u.HasRole(auth.RoleAdmin))

	// granting twice keeps a single entry
	u, err = store.SetRole(ctx, "b@x.com", auth.RoleAdmin, true)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleAdmin}, u.RoleNames())

	u, err = store.SetRole(ctx, "b@x.com", auth.RoleAdmin, false)
	require.NoError(t, err)
	assert.False(t, u.HasRole(auth.RoleAdmin))

	loaded, err := store.GetUserByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, loaded.HasRole(auth.RoleAdmin))

	_, err = store.SetRole(ctx, "nobody@x.com", auth.RoleAdmin, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := createUser(t, store, "a@x.com")

	p := createPost(t, store, admin, "Hello World")
	assert.NotZero(t, p.ID)
	assert.Equal(t, "hello-world", p.Slug)

	loaded, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", loaded.Title)
	assert.Equal(t, admin.Email, loaded.Author.Email)
	assert.Equal(t, "October 18, 2026", loaded.Date)

	bySlug, err := store.GetPostBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	dup := &Post{AuthorID: admin.ID, Title: "Hello World", Subtitle: "s", Date: "d", Body: "b", ImgURL: "https://example.com"}
	assert.ErrorIs(t, store.CreatePost(ctx, dup), ErrTitleTaken)

	n, err := store.CountPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestListPostsInStoreOrder(t *testing.T) {
	store := newTestStore(t)
	admin := createUser(t, store, "a@x.com")
	for _, title := range []string{"B", "A", "C"} {
		createPost(t, store, admin, title)
	}

	posts, err := store.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "B", posts[0].Title)
	assert.Equal(t, "A", posts[1].Title)
	assert.Equal(t, "C", posts[2].Title)
	assert.Equal(t, admin.Name, posts[0].Author.Name)
}

func TestUpdatePost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := createUser(t, store, "a@x.com")
	p := createPost(t, store, admin, "Old")
	other := createPost(t, store, admin, "Other")

	require.NoError(t, store.UpdatePost(ctx, p.ID, PostChanges{
		Title: "New", Subtitle: "Sub", ImgURL: "https://example.com/b.png", Body: "Changed",
	}))

	loaded, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", loaded.Title)
	assert.Equal(t, "new", loaded.Slug)
	assert.Equal(t, "Changed", loaded.Body)
	assert.Equal(t, p.Date, loaded.Date)
	assert.Equal(t, admin.ID, loaded.AuthorID)

	// keeping its own title is fine
	require.NoError(t, store.UpdatePost(ctx, p.ID, PostChanges{Title: "New", Subtitle: "Sub", ImgURL: "https://example.com", Body: "Again"}))

	err = store.UpdatePost(ctx, p.ID, PostChanges{Title: other.Title, Subtitle: "s", ImgURL: "https://example.com", Body: "b"})
	assert.ErrorIs(t, err, ErrTitleTaken)

	err = store.UpdatePost(ctx, 999, PostChanges{Title: "Nope", Subtitle: "s", ImgURL: "https://example.com", Body: "b"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := createUser(t, store, "a@x.com")
	reader := createUser(t, store, "b@x.com")
	p := createPost(t, store, admin, "Post")

	for _, body := range []string{"first", "second"} {
		require.NoError(t, store.CreateComment(ctx, &Comment{Body: body, AuthorID: reader.ID, PostID: p.ID}))
	}

	loaded, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 2)
	assert.Equal(t, "first", loaded.Comments[0].Body)
	assert.Equal(t, "second", loaded.Comments[1].Body)
	assert.Equal(t, reader.Email, loaded.Comments[0].Author.Email)

	err = store.CreateComment(ctx, &Comment{Body: "orphan", AuthorID: reader.ID, PostID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
	err = store.CreateComment(ctx, &Comment{Body: "ghost", AuthorID: 999, PostID: p.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.CountComments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestDeletePostRemovesComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := createUser(t, store, "a@x.com")
	doomed := createPost(t, store, admin, "Doomed")
	kept := createPost(t, store, admin, "Kept")

	for _, postID := range []uint{doomed.ID, doomed.ID, kept.ID} {
		require.NoError(t, store.CreateComment(ctx, &Comment{Body: "c", AuthorID: admin.ID, PostID: postID}))
	}

	require.NoError(t, store.DeletePost(ctx, doomed.ID))

	_, err := store.GetPost(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.CountCommentsForPost(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = store.CountCommentsForPost(ctx, kept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.ErrorIs(t, store.DeletePost(ctx, doomed.ID), ErrNotFound)
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveSession(ctx, &Session{ID: "abc", Flashes: []byte(`["hi"]`)}))
	require.NoError(t, store.SaveSession(ctx, &Session{ID: "abc", UserID: 7, Flashes: []byte(`[]`)}))

	sess, err := store.LoadSession(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 7, sess.UserID)
	assert.JSONEq(t, `[]`, string(sess.Flashes))

	require.NoError(t, store.DeleteSession(ctx, "abc"))
	_, err = store.LoadSession(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newTestStore(t).Ping(context.Background()))
}

func TestIsUniqueErr(t *testing.T) {
	tcs := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated", gorm.ErrDuplicatedKey, true},
		{"translated and wrapped", errors.Wrap(gorm.ErrDuplicatedKey, "create user"), true},
		{"sqlite", errors.New("UNIQUE constraint failed: users.email"), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'users.idx_users_email'"), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "idx_posts_title" (SQLSTATE 23505)`), true},
		{"not found", gorm.ErrRecordNotFound, false},
		{"other constraint", errors.New("FOREIGN KEY constraint failed"), false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueErr(tc.err))
		})
	}
}

// slipInBefore runs insert inside the store's transaction, after its own
// duplicate check and right before the first create or update statement.
func slipInBefore(t *testing.T, store *Store, op string, insert func(tx *gorm.DB) error) {
	t.Helper()
	fired := false
	cb := func(db *gorm.DB) {
		if fired {
			return
		}
		fired = true
		require.NoError(t, insert(db.Session(&gorm.Session{NewDB: true})))
	}

	var err error
	switch op {
	case "create":
		err = store.db.Callback().Create().Before("gorm:create").Register("test:slip_in", cb)
	case "update":
		err = store.db.Callback().Update().Before("gorm:update").Register("test:slip_in", cb)
	default:
		t.Fatalf("unknown op %q", op)
	}
	require.NoError(t, err)
}

func TestConcurrentDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	slipInBefore(t, store, "create", func(tx *gorm.DB) error {
		return tx.Create(&User{Name: "Racer", Email: "a@x.com", PasswordDigest: "x", Roles: encodeRoles(nil)}).Error
	})

	err := store.CreateUser(ctx, &User{Name: "Alice", Email: "a@x.com", PasswordDigest: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.EqualValues(t, 0, mustCount(t, store.CountUsers))
}

func TestConcurrentDuplicateTitleOnCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := createUser(t, store, "a@x.com")

	slipInBefore(t, store, "create", func(tx *gorm.DB) error {
		return tx.Omit("Author", "Comments").Create(&Post{
			AuthorID: admin.ID, Title: "Hello", Subtitle: "s", Date: "d", Body: "b", ImgURL: "https://example.com",
		}).Error
	})

	err := store.CreatePost(ctx, &Post{AuthorID: admin.ID, Title: "Hello", Subtitle: "s", Date: "d", Body: "b", ImgURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrTitleTaken)
	assert.EqualValues(t, 0, mustCount(t, store.CountPosts))
}

func TestConcurrentDuplicateTitleOnUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := createUser(t, store, "a@x.com")
	p := createPost(t, store, admin, "Old")

	slipInBefore(t, store, "update", func(tx *gorm.DB) error {
		return tx.Omit("Author", "Comments").Create(&Post{
			AuthorID: admin.ID, Title: "New", Subtitle: "s", Date: "d", Body: "b", ImgURL: "https://example.com",
		}).Error
	})

	err := store.UpdatePost(ctx, p.ID, PostChanges{Title: "New", Subtitle: "s", ImgURL: "https://example.com", Body: "b"})
	assert.ErrorIs(t, err, ErrTitleTaken)

	loaded, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", loaded.Title)
	assert.EqualValues(t, 1, mustCount(t, store.CountPosts))
}

func mustCount(t *testing.T, fn func(context.Context) (int64, error)) int64 {
	t.Helper()
	n, err := fn(context.Background())
	require.NoError(t, err)
	return n
}
