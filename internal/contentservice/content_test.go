package contentservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/backend/memory"
	"github.com/sushihentaime/quillpost/internal/common"
)

const (
	pngData = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	gifData = "GIF89a\x01\x00\x01\x00"
)

var testConfig = Config{
	DatabaseID:     "blog",
	CollectionID:   "posts",
	BucketID:       "images",
	MaxUploadBytes: 64,
}

type testEnv struct {
	service *ContentService
	backend *memory.Backend
	janitor *MockFileJanitor
}

func newTestService(t *testing.T) testEnv {
	t.Helper()

	b := memory.New()
	j := new(MockFileJanitor)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return testEnv{
		service: NewContentService(b, b, j, testConfig, logger),
		backend: b,
		janitor: j,
	}
}

func pngUpload() *backend.FileUpload {
	return &backend.FileUpload{Name: "cover.png", ContentType: "image/png", Body: strings.NewReader(pngData)}
}

func testPost() CreatePostRequest {
	return CreatePostRequest{
		Title:   "First post",
		Slug:    "first-post",
		Content: "<p>Hello</p>",
		Status:  StatusActive,
		UserID:  "user1",
	}
}

func TestCreateAndGetPost(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t).service

	created, err := s.CreatePost(ctx, testPost())
	require.NoError(t, err)
	assert.Equal(t, "first-post", created.Slug)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetPost(ctx, "first-post")
	require.NoError(t, err)
	assert.Equal(t, "First post", got.Title)
	assert.Equal(t, "<p>Hello</p>", got.Content)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, "user1", got.UserID)

	_, err = s.CreatePost(ctx, testPost())
	assert.Equal(t, common.KindConflict, common.KindOf(err))
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestService(t).service

	testCases := []struct {
		name   string
		modify func(r *CreatePostRequest)
		field  string
	}{
		{name: "empty title", modify: func(r *CreatePostRequest) { r.Title = "" }, field: "title"},
		{name: "long title", modify: func(r *CreatePostRequest) { r.Title = strings.Repeat("t", 256) }, field: "title"},
		{name: "empty slug", modify: func(r *CreatePostRequest) { r.Slug = "" }, field: "slug"},
		{name: "long slug", modify: func(r *CreatePostRequest) { r.Slug = strings.Repeat("s", 37) }, field: "slug"},
		{name: "empty content", modify: func(r *CreatePostRequest) { r.Content = "" }, field: "content"},
		{name: "script only content", modify: func(r *CreatePostRequest) { r.Content = "<script>x()</script>" }, field: "content"},
		{name: "bad status", modify: func(r *CreatePostRequest) { r.Status = "draft" }, field: "status"},
		{name: "no user", modify: func(r *CreatePostRequest) { r.UserID = "" }, field: "user_id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testPost()
			tc.modify(&req)

			_, err := s.CreatePost(context.Background(), req)

			var verr common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Errors, tc.field)
		})
	}
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t).service

	req := testPost()
	req.FeaturedImage = "img1"
	_, err := s.CreatePost(ctx, req)
	require.NoError(t, err)

	updated, err := s.UpdatePost(ctx, "first-post", UpdatePostRequest{
		Title:   "Renamed",
		Content: "<p>Changed</p>",
		Status:  StatusInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, StatusInactive, updated.Status)
	assert.Equal(t, "img1", updated.FeaturedImage)
	assert.Equal(t, "user1", updated.UserID)

	_, err = s.UpdatePost(ctx, "missing", UpdatePostRequest{Title: "x", Content: "y", Status: StatusActive})
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t).service

	_, err := s.CreatePost(ctx, testPost())
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, "first-post"))

	err = s.DeletePost(ctx, "first-post")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	_, err = s.GetPost(ctx, "first-post")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestGetPosts(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t).service

	for _, p := range []struct{ slug, status, user string }{
		{"one", StatusActive, "u1"},
		{"two", StatusInactive, "u1"},
		{"three", StatusActive, "u2"},
	} {
		req := testPost()
		req.Slug, req.Status, req.UserID = p.slug, p.status, p.user
		_, err := s.CreatePost(ctx, req)
		require.NoError(t, err)
	}

	list, err := s.GetPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	for _, p := range list.Documents {
		assert.Equal(t, StatusActive, p.Status)
	}

	list, err = s.GetPosts(ctx, backend.Equal("userId", "u1"))
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	list, err = s.GetPosts(ctx, backend.Equal("userId", "nobody"))
	require.NoError(t, err)
	assert.NotNil(t, list.Documents)
	assert.Empty(t, list.Documents)
}

func TestUploadFile(t *testing.T) {
	testCases := []struct {
		name     string
		data     string
		wantType string
		field    bool
	}{
		{name: "png", data: pngData, wantType: "image/png"},
		{name: "gif", data: gifData, wantType: "image/gif"},
		{name: "jpeg", data: "\xff\xd8\xff\xe0\x00\x10JFIF", wantType: "image/jpeg"},
		{name: "text", data: "just some text", field: true},
		{name: "empty", data: "", field: true},
		{name: "too large", data: pngData + strings.Repeat("\x00", 64), field: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestService(t)

			file, err := env.service.UploadFile(context.Background(), backend.FileUpload{
				Name:        "upload",
				ContentType: "image/png",
				Body:        strings.NewReader(tc.data),
			})

			if tc.field {
				var verr common.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Errors, "image")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantType, file.MimeType)

			_, data, ok := env.backend.File("images", file.ID)
			require.True(t, ok)
			assert.Equal(t, tc.data, string(data))
		})
	}
}

func TestDeleteFileAndPreview(t *testing.T) {
	ctx := context.Background()
	env := newTestService(t)

	file, err := env.service.UploadFile(ctx, *pngUpload())
	require.NoError(t, err)

	u, err := env.service.FilePreview(file.ID)
	require.NoError(t, err)
	assert.Contains(t, u, "/storage/buckets/images/files/"+file.ID+"/preview")

	require.NoError(t, env.service.DeleteFile(ctx, file.ID))

	err = env.service.DeleteFile(ctx, file.ID)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	_, err = env.service.FilePreview("")
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestUnavailableBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t).service.GetPosts(ctx)
	assert.Equal(t, common.KindRemoteUnavailable, common.KindOf(err))
	assert.False(t, errors.Is(err, common.ErrRecordNotFound))
}
