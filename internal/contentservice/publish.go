package contentservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

const (
	ReasonPublishFailed = "publish_failed"
	ReasonReviseFailed  = "revise_failed"
	ReasonReplaced      = "replaced"
	ReasonRetracted     = "retracted"
)

type PublishRequest struct {
	Title   string
	Slug    string
	Content string
	Status  string
	UserID  string
	Image   *backend.FileUpload
}

// ReviseRequest carries the new field values. A nil Image keeps the current one.
type ReviseRequest struct {
	Title   string
	Content string
	Status  string
	UserID  string
	Image   *backend.FileUpload
}

// Publish uploads the featured image and then creates the post referencing
// it. When the post cannot be created the uploaded image is discarded.
func (s *ContentService) Publish(ctx context.Context, req PublishRequest) (*Post, error) {
	create := CreatePostRequest{
		Title:   req.Title,
		Slug:    req.Slug,
		Content: req.Content,
		Status:  req.Status,
		UserID:  req.UserID,
	}
	if err := s.validateCreate(&create); err != nil {
		return nil, err
	}
	if req.Image == nil {
		return nil, common.ValidationError{Errors: map[string]string{"image": "must be provided"}}
	}

	file, err := s.UploadFile(ctx, *req.Image)
	if err != nil {
		return nil, err
	}

	create.FeaturedImage = file.ID
	post, err := s.CreatePost(ctx, create)
	if err != nil {
		s.discard(ctx, file.ID, ReasonPublishFailed)
		return nil, err
	}

	return post, nil
}

// Revise updates a post owned by req.UserID. A new image is uploaded before
// anything else changes. The image no longer referenced afterwards, the old
// one on success or the new one on failure, is handed to the janitor.
func (s *ContentService) Revise(ctx context.Context, slug string, req ReviseRequest) (*Post, error) {
	current, err := s.ownedPost(ctx, slug, req.UserID)
	if err != nil {
		return nil, err
	}

	update := UpdatePostRequest{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	}
	if err := s.validateUpdate(slug, &update); err != nil {
		return nil, err
	}

	if req.Image != nil {
		file, err := s.UploadFile(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		update.FeaturedImage = file.ID
	}

	post, err := s.UpdatePost(ctx, slug, update)
	if err != nil {
		if update.FeaturedImage != "" {
			s.discard(ctx, update.FeaturedImage, ReasonReviseFailed)
		}
		return nil, err
	}

	if update.FeaturedImage != "" && current.FeaturedImage != "" && current.FeaturedImage != update.FeaturedImage {
		s.discard(ctx, current.FeaturedImage, ReasonReplaced)
	}

	return post, nil
}

// Retract deletes a post owned by userID together with its featured image.
func (s *ContentService) Retract(ctx context.Context, slug, userID string) error {
	current, err := s.ownedPost(ctx, slug, userID)
	if err != nil {
		return err
	}

	if err := s.DeletePost(ctx, slug); err != nil {
		return err
	}

	if current.FeaturedImage != "" {
		s.discard(ctx, current.FeaturedImage, ReasonRetracted)
	}

	return nil
}

func (s *ContentService) ownedPost(ctx context.Context, slug, userID string) (*Post, error) {
	post, err := s.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	if userID == "" || post.UserID != userID {
		return nil, fmt.Errorf("post %q: %w", slug, common.ErrForbidden)
	}

	return post, nil
}

// discard hands fileID to the janitor. If that fails the file is deleted
// right away; a file that survives both is only logged.
func (s *ContentService) discard(ctx context.Context, fileID, reason string) {
	err := s.janitor.ScheduleDeletion(ctx, fileID, reason)
	if err == nil {
		return
	}

	s.logger.Error("could not schedule file deletion", slog.String("file_id", fileID), slog.String("reason", reason), slog.String("error", err.Error()))

	if err := s.DeleteFile(ctx, fileID); err != nil {
		s.logger.Error("file left orphaned", slog.String("file_id", fileID), slog.String("reason", reason))
	}
}
