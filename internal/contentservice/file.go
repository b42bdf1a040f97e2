package contentservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

const DefaultMaxUploadBytes int64 = 5 << 20

var permittedImageTypes = []string{"image/png", "image/jpeg", "image/gif"}

// UploadFile stores a featured image under a fresh id. The content type is
// sniffed from the data; the one claimed by the client is ignored.
func (s *ContentService) UploadFile(ctx context.Context, upload backend.FileUpload) (*backend.File, error) {
	if upload.Body == nil {
		return nil, common.ValidationError{Errors: map[string]string{"image": "must be provided"}}
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}

	contentType := http.DetectContentType(data)

	v := common.NewValidator()
	v.Check(len(data) > 0, "image", "must be provided")
	v.Check(int64(len(data)) <= s.cfg.MaxUploadBytes, "image", fmt.Sprintf("must not be larger than %d bytes", s.cfg.MaxUploadBytes))
	v.Check(common.PermittedValue(contentType, permittedImageTypes...), "image", "must be a png, jpeg or gif image")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	file, err := s.storage.CreateFile(ctx, s.cfg.BucketID, backend.NewID(), backend.FileUpload{
		Name:        upload.Name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		s.logFailure("upload-file", err, slog.String("name", upload.Name))
		return nil, err
	}

	return file, nil
}

func (s *ContentService) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return common.ValidationError{Errors: map[string]string{"file_id": "must be provided"}}
	}

	err := s.storage.DeleteFile(ctx, s.cfg.BucketID, fileID)
	if err != nil {
		s.logFailure("delete-file", err, slog.String("file_id", fileID))
		return err
	}

	return nil
}

// FilePreview builds the preview url of a stored image without contacting the backend.
func (s *ContentService) FilePreview(fileID string) (string, error) {
	return s.storage.FilePreviewURL(s.cfg.BucketID, fileID, backend.PreviewOptions{})
}
