// Package appwrite talks to an Appwrite-compatible REST API.
package appwrite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

const (
	defaultTimeout = 15 * time.Second

	headerProject = "X-Appwrite-Project"
	headerKey     = "X-Appwrite-Key"
	headerSession = "X-Appwrite-Session"
)

type Config struct {
	// Endpoint includes the API version, e.g. https://cloud.appwrite.io/v1
	Endpoint  string
	ProjectID string
	// APIKey is optional; without it only session-scoped calls succeed.
	APIKey  string
	Timeout time.Duration
}

// Client implements backend.Accounts, backend.Databases and backend.Storage.
type Client struct {
	rc        *resty.Client
	endpoint  string
	projectID string
	apiKey    string
}

var (
	_ backend.Accounts  = (*Client)(nil)
	_ backend.Databases = (*Client)(nil)
	_ backend.Storage   = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")

	rc := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader(headerProject, cfg.ProjectID)

	return &Client{
		rc:        rc,
		endpoint:  endpoint,
		projectID: cfg.ProjectID,
		apiKey:    cfg.APIKey,
	}
}

// newRequest starts a request. Server-scoped requests carry the API key.
func (c *Client) newRequest(ctx context.Context, server bool) *resty.Request {
	req := c.rc.R().SetContext(ctx).SetError(&Error{})
	if server && c.apiKey != "" {
		req.SetHeader(headerKey, c.apiKey)
	}
	return req
}

// do executes req and turns transport and status failures into classified errors.
func (c *Client) do(req *resty.Request, method, path string, out any) error {
	if out != nil {
		req.SetResult(out)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", common.ErrRemoteUnavailable, method, path, err)
	}

	if res.IsError() {
		apiErr, _ := res.Error().(*Error)
		if apiErr == nil {
			apiErr = &Error{}
		}
		if apiErr.Code == 0 {
			apiErr.Code = res.StatusCode()
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(res.StatusCode())
		}
		return apiErr
	}

	return nil
}

func (c *Client) Create(ctx context.Context, userID, email, password, name string) (*backend.User, error) {
	var user backend.User

	req := c.newRequest(ctx, false).SetBody(map[string]string{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	})

	if err := c.do(req, http.MethodPost, "/account", &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) CreateEmailPasswordSession(ctx context.Context, email, password string) (*backend.Session, error) {
	var session backend.Session

	// the key makes the backend return the session secret
	req := c.newRequest(ctx, true).SetBody(map[string]string{
		"email":    email,
		"password": password,
	})

	if err := c.do(req, http.MethodPost, "/account/sessions/email", &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (c *Client) Get(ctx context.Context, secret string) (*backend.User, error) {
	var user backend.User

	req := c.newRequest(ctx, false).SetHeader(headerSession, secret)
	if err := c.do(req, http.MethodGet, "/account", &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) DeleteSessions(ctx context.Context, secret string) error {
	req := c.newRequest(ctx, false).SetHeader(headerSession, secret)
	return c.do(req, http.MethodDelete, "/account/sessions", nil)
}

func documentsPath(databaseID, collectionID string) string {
	return "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
}

func documentPath(databaseID, collectionID, documentID string) string {
	return documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID)
}

func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error {
	req := c.newRequest(ctx, true).SetBody(map[string]any{
		"documentId": documentID,
		"data":       data,
	})
	return c.do(req, http.MethodPost, documentsPath(databaseID, collectionID), out)
}

func (c *Client) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error {
	req := c.newRequest(ctx, true).SetBody(map[string]any{"data": data})
	return c.do(req, http.MethodPatch, documentPath(databaseID, collectionID, documentID), out)
}

func (c *Client) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	return c.do(c.newRequest(ctx, true), http.MethodDelete, documentPath(databaseID, collectionID, documentID), nil)
}

func (c *Client) GetDocument(ctx context.Context, databaseID, collectionID, documentID string, out any) error {
	return c.do(c.newRequest(ctx, true), http.MethodGet, documentPath(databaseID, collectionID, documentID), out)
}

func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []backend.Query, out any) error {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", q.String())
	}

	req := c.newRequest(ctx, true).SetQueryParamsFromValues(params)
	return c.do(req, http.MethodGet, documentsPath(databaseID, collectionID), out)
}

func filesPath(bucketID string) string {
	return "/storage/buckets/" + url.PathEscape(bucketID) + "/files"
}

func (c *Client) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (*backend.File, error) {
	var file backend.File

	req := c.newRequest(ctx, true).
		SetFormData(map[string]string{"fileId": fileID}).
		SetMultipartField("file", upload.Name, upload.ContentType, upload.Body)

	if err := c.do(req, http.MethodPost, filesPath(bucketID), &file); err != nil {
		return nil, err
	}

	return &file, nil
}

func (c *Client) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	return c.do(c.newRequest(ctx, true), http.MethodDelete, filesPath(bucketID)+"/"+url.PathEscape(fileID), nil)
}

// FilePreviewURL builds the preview reference a browser can load directly.
func (c *Client) FilePreviewURL(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	if fileID == "" {
		return "", common.ValidationError{Errors: map[string]string{"file_id": "must be provided"}}
	}

	params := url.Values{}
	params.Set("project", c.projectID)
	if opts.Width > 0 {
		params.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		params.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Quality > 0 {
		params.Set("quality", strconv.Itoa(opts.Quality))
	}

	return c.endpoint + filesPath(bucketID) + "/" + url.PathEscape(fileID) + "/preview?" + params.Encode(), nil
}
