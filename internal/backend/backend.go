// Package backend describes the hosted backend the application delegates to:
// account sessions, a document collection and a file bucket. Drivers live in
// the subpackages; nothing in this package performs I/O.
package backend

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Accounts manages users and their sessions. Session-scoped calls take the
// session secret returned by CreateEmailPasswordSession.
type Accounts interface {
	Create(ctx context.Context, userID, email, password, name string) (*User, error)
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*Session, error)
	Get(ctx context.Context, secret string) (*User, error)
	DeleteSessions(ctx context.Context, secret string) error
}

// Databases stores JSON documents. out receives the decoded document (or list)
// and may be nil when the caller does not need it.
type Databases interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error
	DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string, out any) error
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries []Query, out any) error
}

// Storage stores opaque files in buckets.
type Storage interface {
	CreateFile(ctx context.Context, bucketID, fileID string, upload FileUpload) (*File, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
	// FilePreviewURL only builds a reference; it never contacts the backend.
	FilePreviewURL(bucketID, fileID string, opts PreviewOptions) (string, error)
}

type User struct {
	ID                string    `json:"$id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Status            bool      `json:"status"`
	EmailVerification bool      `json:"emailVerification"`
	CreatedAt         time.Time `json:"$createdAt"`
	UpdatedAt         time.Time `json:"$updatedAt"`
}

type Session struct {
	ID          string    `json:"$id"`
	UserID      string    `json:"userId"`
	Provider    string    `json:"provider"`
	ProviderUID string    `json:"providerUid"`
	Secret      string    `json:"secret"`
	Current     bool      `json:"current"`
	Expire      time.Time `json:"expire"`
	CreatedAt   time.Time `json:"$createdAt"`
}

// Active reports whether the session is current and not yet expired at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.Current && s.Expire.After(now)
}

type File struct {
	ID           string    `json:"$id"`
	BucketID     string    `json:"bucketId"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	SizeOriginal int64     `json:"sizeOriginal"`
	CreatedAt    time.Time `json:"$createdAt"`
}

type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type PreviewOptions struct {
	Width   int
	Height  int
	Quality int
}

// NewID returns a unique identifier usable as a user, document or file id.
// Dashes are dropped to stay within the 36 character id alphabet of the backend.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
