package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

type note struct {
	ID        string `json:"$id,omitempty"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"$createdAt,omitempty"`
}

type noteList struct {
	Total     int    `json:"total"`
	Documents []note `json:"documents"`
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	b := New()

	user, err := b.Create(ctx, "u1", "a@x.com", "p1", "A")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.True(t, user.Status)

	_, err = b.Create(ctx, "u2", "a@x.com", "p2", "B")
	assert.Equal(t, common.KindConflict, common.KindOf(err))

	_, err = b.CreateEmailPasswordSession(ctx, "a@x.com", "wrong")
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))

	s1, err := b.CreateEmailPasswordSession(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.True(t, s1.Active(time.Now()))
	assert.Equal(t, "a@x.com", s1.ProviderUID)

	s2, err := b.CreateEmailPasswordSession(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, s1.Secret, s2.Secret)

	got, err := b.Get(ctx, s1.Secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, b.DeleteSessions(ctx, s1.Secret))

	_, err = b.Get(ctx, s2.Secret)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))

	err = b.DeleteSessions(ctx, s1.Secret)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	b := New()

	var created note
	require.NoError(t, b.CreateDocument(ctx, "db", "posts", "hello", note{Title: "Hello", Status: "active"}, &created))
	assert.Equal(t, "hello", created.ID)
	assert.NotEmpty(t, created.CreatedAt)

	err := b.CreateDocument(ctx, "db", "posts", "hello", note{Title: "Again"}, nil)
	assert.Equal(t, common.KindConflict, common.KindOf(err))

	var updated note
	require.NoError(t, b.UpdateDocument(ctx, "db", "posts", "hello", map[string]any{"title": "Hi"}, &updated))
	assert.Equal(t, "Hi", updated.Title)
	assert.Equal(t, "active", updated.Status)

	var got note
	require.NoError(t, b.GetDocument(ctx, "db", "posts", "hello", &got))
	assert.Equal(t, updated, got)

	require.NoError(t, b.DeleteDocument(ctx, "db", "posts", "hello"))

	err = b.DeleteDocument(ctx, "db", "posts", "hello")
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	err = b.GetDocument(ctx, "db", "posts", "hello", &got)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	err = b.UpdateDocument(ctx, "db", "posts", "hello", map[string]any{"title": "x"}, nil)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	b := New()

	for _, n := range []note{
		{Title: "one", Status: "active"},
		{Title: "two", Status: "inactive"},
		{Title: "three", Status: "active"},
		{Title: "four", Status: "active"},
	} {
		require.NoError(t, b.CreateDocument(ctx, "db", "posts", n.Title, n, nil))
	}

	testCases := []struct {
		name    string
		queries []backend.Query
		total   int
		titles  []string
	}{
		{name: "all", total: 4, titles: []string{"one", "two", "three", "four"}},
		{
			name:    "equal",
			queries: []backend.Query{backend.Equal("status", "active")},
			total:   3,
			titles:  []string{"one", "three", "four"},
		},
		{
			name:    "equal any of",
			queries: []backend.Query{backend.Equal("title", "two", "four")},
			total:   2,
			titles:  []string{"two", "four"},
		},
		{
			name:    "paged",
			queries: []backend.Query{backend.Equal("status", "active"), backend.Limit(1), backend.Offset(1)},
			total:   3,
			titles:  []string{"three"},
		},
		{
			name:    "newest first",
			queries: []backend.Query{backend.OrderDesc("$createdAt"), backend.Limit(2)},
			total:   4,
			titles:  []string{"four", "three"},
		},
		{
			name:    "offset past end",
			queries: []backend.Query{backend.Offset(10)},
			total:   4,
			titles:  []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var list noteList
			require.NoError(t, b.ListDocuments(ctx, "db", "posts", tc.queries, &list))

			titles := []string{}
			for _, d := range list.Documents {
				titles = append(titles, d.Title)
			}
			assert.Equal(t, tc.total, list.Total)
			assert.Equal(t, tc.titles, titles)
		})
	}

	err := b.ListDocuments(ctx, "db", "posts", []backend.Query{{Method: "search"}}, nil)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	b := New()

	f, err := b.CreateFile(ctx, "images", "f1", backend.FileUpload{
		Name:        "cover.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.SizeOriginal)

	_, data, ok := b.File("images", "f1")
	require.True(t, ok)
	assert.Equal(t, []byte("png"), data)

	_, err = b.CreateFile(ctx, "images", "f1", backend.FileUpload{Body: strings.NewReader("")})
	assert.Equal(t, common.KindConflict, common.KindOf(err))

	u, err := b.FilePreviewURL("images", "f1", backend.PreviewOptions{Width: 300})
	require.NoError(t, err)
	assert.Equal(t, "memory:///storage/buckets/images/files/f1/preview?width=300", u)

	require.NoError(t, b.DeleteFile(ctx, "images", "f1"))

	err = b.DeleteFile(ctx, "images", "f1")
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	_, _, ok = b.File("images", "f1")
	assert.False(t, ok)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Get(ctx, "secret")
	assert.Equal(t, common.KindRemoteUnavailable, common.KindOf(err))
}
