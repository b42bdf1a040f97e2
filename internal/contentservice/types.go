package contentservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sushihentaime/quillpost/internal/backend"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Post is a blog post document. The slug doubles as the document id.
type Post struct {
	Slug  string `json:"$id"`
	Title string `json:"title"`
	// Content is sanitized HTML produced by the rich-text editor.
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featuredImage"`
	Status        string    `json:"status"`
	UserID        string    `json:"userId"`
	CreatedAt     time.Time `json:"$createdAt"`
	UpdatedAt     time.Time `json:"$updatedAt"`
}

type PostList struct {
	Total     int    `json:"total"`
	Documents []Post `json:"documents"`
}

// postDocument is the writable part of a post as sent to the backend.
type postDocument struct {
	Title         string `json:"title,omitempty"`
	Content       string `json:"content,omitempty"`
	FeaturedImage string `json:"featuredImage,omitempty"`
	Status        string `json:"status,omitempty"`
	UserID        string `json:"userId,omitempty"`
}

// FileJanitor takes ownership of files no post references any more and
// eventually removes them from storage.
type FileJanitor interface {
	ScheduleDeletion(ctx context.Context, fileID, reason string) error
}

type Config struct {
	DatabaseID     string
	CollectionID   string
	BucketID       string
	MaxUploadBytes int64
}

type ContentService struct {
	db      backend.Databases
	storage backend.Storage
	janitor FileJanitor
	policy  *bluemonday.Policy
	cfg     Config
	logger  *slog.Logger
}
