package contentservice

import (
	"context"
	"log/slog"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

// NewContentService creates the service. The database, collection and bucket
// ids are fixed for its lifetime.
func NewContentService(db backend.Databases, storage backend.Storage, janitor FileJanitor, cfg Config, logger *slog.Logger) *ContentService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	return &ContentService{
		db:      db,
		storage: storage,
		janitor: janitor,
		policy:  newContentPolicy(),
		cfg:     cfg,
		logger:  logger,
	}
}

type CreatePostRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Content       string `json:"content"`
	FeaturedImage string `json:"featuredImage"`
	Status        string `json:"status"`
	UserID        string `json:"userId"`
}

// UpdatePostRequest replaces the editable fields of a post. An empty
// FeaturedImage keeps the current image.
type UpdatePostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	FeaturedImage string `json:"featuredImage"`
	Status        string `json:"status"`
}

func (s *ContentService) validateCreate(req *CreatePostRequest) error {
	req.Content = s.sanitizeContent(req.Content)

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateSlug(v, req.Slug)
	validateContent(v, req.Content)
	validateStatus(v, req.Status)
	validateUserID(v, req.UserID)
	if !v.Valid() {
		return v.ValidationError()
	}

	return nil
}

func (s *ContentService) validateUpdate(slug string, req *UpdatePostRequest) error {
	req.Content = s.sanitizeContent(req.Content)

	v := common.NewValidator()
	validateSlug(v, slug)
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateStatus(v, req.Status)
	if !v.Valid() {
		return v.ValidationError()
	}

	return nil
}

// CreatePost stores a new post under its slug. A slug already in use fails with common.ErrConflict.
func (s *ContentService) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	var post Post
	err := s.db.CreateDocument(ctx, s.cfg.DatabaseID, s.cfg.CollectionID, req.Slug, postDocument{
		Title:         req.Title,
		Content:       req.Content,
		FeaturedImage: req.FeaturedImage,
		Status:        req.Status,
		UserID:        req.UserID,
	}, &post)
	if err != nil {
		s.logFailure("create-post", err, slog.String("slug", req.Slug))
		return nil, err
	}

	return &post, nil
}

func (s *ContentService) UpdatePost(ctx context.Context, slug string, req UpdatePostRequest) (*Post, error) {
	if err := s.validateUpdate(slug, &req); err != nil {
		return nil, err
	}

	var post Post
	err := s.db.UpdateDocument(ctx, s.cfg.DatabaseID, s.cfg.CollectionID, slug, postDocument{
		Title:         req.Title,
		Content:       req.Content,
		FeaturedImage: req.FeaturedImage,
		Status:        req.Status,
	}, &post)
	if err != nil {
		s.logFailure("update-post", err, slog.String("slug", slug))
		return nil, err
	}

	return &post, nil
}

// DeletePost removes the post document only. A missing slug fails with common.ErrRecordNotFound.
func (s *ContentService) DeletePost(ctx context.Context, slug string) error {
	v := common.NewValidator()
	validateSlug(v, slug)
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.db.DeleteDocument(ctx, s.cfg.DatabaseID, s.cfg.CollectionID, slug)
	if err != nil {
		s.logFailure("delete-post", err, slog.String("slug", slug))
		return err
	}

	return nil
}

func (s *ContentService) GetPost(ctx context.Context, slug string) (*Post, error) {
	v := common.NewValidator()
	validateSlug(v, slug)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var post Post
	err := s.db.GetDocument(ctx, s.cfg.DatabaseID, s.cfg.CollectionID, slug, &post)
	if err != nil {
		s.logFailure("get-post", err, slog.String("slug", slug))
		return nil, err
	}

	return &post, nil
}

// GetPosts lists posts matching queries. Without queries only active posts are returned.
func (s *ContentService) GetPosts(ctx context.Context, queries ...backend.Query) (*PostList, error) {
	if len(queries) == 0 {
		queries = []backend.Query{backend.Equal("status", StatusActive)}
	}

	var list PostList
	err := s.db.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.CollectionID, queries, &list)
	if err != nil {
		s.logFailure("get-posts", err)
		return nil, err
	}

	if list.Documents == nil {
		list.Documents = []Post{}
	}

	return &list, nil
}

// logFailure logs backend failures. Expected outcomes such as a missing post
// are logged at info level.
func (s *ContentService) logFailure(op string, err error, attrs ...any) {
	kind := common.KindOf(err)
	args := append([]any{slog.String("op", op), slog.String("kind", kind.String()), slog.String("error", err.Error())}, attrs...)

	switch kind {
	case common.KindRemoteUnavailable, common.KindInternal:
		s.logger.Error("content backend call failed", args...)
	default:
		s.logger.Info("content backend call failed", args...)
	}
}
