// Package memory is an in-process stand-in for the hosted backend, used by
// tests and by local development without network access.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

const (
	timeFormat    = "2006-01-02T15:04:05.000-07:00"
	sessionLength = 365 * 24 * time.Hour
)

type account struct {
	user     backend.User
	password string
}

type document struct {
	seq  int
	data map[string]any
}

type storedFile struct {
	file backend.File
	data []byte
}

// Backend implements backend.Accounts, backend.Databases and backend.Storage.
type Backend struct {
	mu sync.Mutex

	accounts map[string]*account
	byEmail  map[string]string
	sessions map[string]*backend.Session

	documents map[string]map[string]*document
	seq       int

	files map[string]*storedFile

	now func() time.Time
}

var (
	_ backend.Accounts  = (*Backend)(nil)
	_ backend.Databases = (*Backend)(nil)
	_ backend.Storage   = (*Backend)(nil)
)

func New() *Backend {
	return &Backend{
		accounts:  make(map[string]*account),
		byEmail:   make(map[string]string),
		sessions:  make(map[string]*backend.Session),
		documents: make(map[string]map[string]*document),
		files:     make(map[string]*storedFile),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (b *Backend) Create(ctx context.Context, userID, email, password, name string) (*backend.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[userID]; ok {
		return nil, fmt.Errorf("user %q: %w", userID, common.ErrConflict)
	}
	if _, ok := b.byEmail[email]; ok {
		return nil, fmt.Errorf("email %q: %w", email, common.ErrConflict)
	}

	now := b.now()
	a := &account{
		user: backend.User{
			ID:        userID,
			Name:      name,
			Email:     email,
			Status:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: password,
	}
	b.accounts[userID] = a
	b.byEmail[email] = userID

	user := a.user
	return &user, nil
}

func (b *Backend) CreateEmailPasswordSession(ctx context.Context, email, password string) (*backend.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.byEmail[email]
	if !ok || b.accounts[id].password != password {
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	now := b.now()
	s := &backend.Session{
		ID:          backend.NewID(),
		UserID:      id,
		Provider:    "email",
		ProviderUID: email,
		Secret:      backend.NewID() + backend.NewID(),
		Current:     true,
		Expire:      now.Add(sessionLength),
		CreatedAt:   now,
	}
	b.sessions[s.Secret] = s

	session := *s
	return &session, nil
}

func (b *Backend) Get(ctx context.Context, secret string) (*backend.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[secret]
	if !ok || !s.Active(b.now()) {
		return nil, fmt.Errorf("no active session: %w", common.ErrUnauthorized)
	}

	user := b.accounts[s.UserID].user
	return &user, nil
}

func (b *Backend) DeleteSessions(ctx context.Context, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[secret]
	if !ok {
		return fmt.Errorf("no active session: %w", common.ErrUnauthorized)
	}

	for k, other := range b.sessions {
		if other.UserID == s.UserID {
			delete(b.sessions, k)
		}
	}

	return nil
}

func collectionKey(databaseID, collectionID string) string {
	return databaseID + "/" + collectionID
}

func (b *Backend) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if documentID == "" {
		return common.ValidationError{Errors: map[string]string{"documentId": "must be provided"}}
	}

	fields, err := toMap(data)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := collectionKey(databaseID, collectionID)
	coll, ok := b.documents[key]
	if !ok {
		coll = make(map[string]*document)
		b.documents[key] = coll
	}
	if _, ok := coll[documentID]; ok {
		return fmt.Errorf("document %q: %w", documentID, common.ErrConflict)
	}

	now := b.now().Format(timeFormat)
	fields["$id"] = documentID
	fields["$databaseId"] = databaseID
	fields["$collectionId"] = collectionID
	fields["$createdAt"] = now
	fields["$updatedAt"] = now

	b.seq++
	coll[documentID] = &document{seq: b.seq, data: fields}

	return decode(fields, out)
}

// UpdateDocument merges data into the stored fields, like a PATCH.
func (b *Backend) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := toMap(data)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.lookup(databaseID, collectionID, documentID)
	if err != nil {
		return err
	}

	for k, v := range fields {
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		doc.data[k] = v
	}
	doc.data["$updatedAt"] = b.now().Format(timeFormat)

	return decode(doc.data, out)
}

func (b *Backend) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.lookup(databaseID, collectionID, documentID); err != nil {
		return err
	}
	delete(b.documents[collectionKey(databaseID, collectionID)], documentID)

	return nil
}

func (b *Backend) GetDocument(ctx context.Context, databaseID, collectionID, documentID string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.lookup(databaseID, collectionID, documentID)
	if err != nil {
		return err
	}

	return decode(doc.data, out)
}

// ListDocuments answers with {"total", "documents"}. total counts the matches
// before limit and offset apply.
func (b *Backend) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []backend.Query, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		matches []*document
		limit   = 25
		offset  = 0
		orderBy string
	)

	for _, q := range queries {
		switch q.Method {
		case "limit", "offset":
			n, err := intValue(q)
			if err != nil {
				return err
			}
			if q.Method == "limit" {
				limit = n
			} else {
				offset = n
			}
		case "orderDesc":
			orderBy = q.Attribute
		case "equal":
		default:
			return common.ValidationError{Errors: map[string]string{"queries": fmt.Sprintf("unsupported method %q", q.Method)}}
		}
	}

	for _, doc := range b.documents[collectionKey(databaseID, collectionID)] {
		if matchesAll(doc.data, queries) {
			matches = append(matches, doc)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if orderBy != "" {
			x, y := fmt.Sprint(matches[i].data[orderBy]), fmt.Sprint(matches[j].data[orderBy])
			if x != y {
				return x > y
			}
			return matches[i].seq > matches[j].seq
		}
		return matches[i].seq < matches[j].seq
	})

	total := len(matches)
	if offset > len(matches) {
		offset = len(matches)
	}
	matches = matches[offset:]
	if limit < len(matches) {
		matches = matches[:limit]
	}

	docs := make([]map[string]any, 0, len(matches))
	for _, doc := range matches {
		docs = append(docs, doc.data)
	}

	return decode(map[string]any{"total": total, "documents": docs}, out)
}

func (b *Backend) lookup(databaseID, collectionID, documentID string) (*document, error) {
	doc, ok := b.documents[collectionKey(databaseID, collectionID)][documentID]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", documentID, common.ErrRecordNotFound)
	}
	return doc, nil
}

func fileKey(bucketID, fileID string) string {
	return bucketID + "/" + fileID
}

func (b *Backend) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (*backend.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := fileKey(bucketID, fileID)
	if _, ok := b.files[key]; ok {
		return nil, fmt.Errorf("file %q: %w", fileID, common.ErrConflict)
	}

	f := backend.File{
		ID:           fileID,
		BucketID:     bucketID,
		Name:         upload.Name,
		MimeType:     upload.ContentType,
		SizeOriginal: int64(len(data)),
		CreatedAt:    b.now(),
	}
	b.files[key] = &storedFile{file: f, data: data}

	return &f, nil
}

func (b *Backend) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := fileKey(bucketID, fileID)
	if _, ok := b.files[key]; !ok {
		return fmt.Errorf("file %q: %w", fileID, common.ErrRecordNotFound)
	}
	delete(b.files, key)

	return nil
}

func (b *Backend) FilePreviewURL(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	if fileID == "" {
		return "", common.ValidationError{Errors: map[string]string{"file_id": "must be provided"}}
	}

	q := url.Values{}
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}

	u := url.URL{
		Scheme:   "memory",
		Path:     "/storage/buckets/" + bucketID + "/files/" + fileID + "/preview",
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// File returns a stored file and its contents.
func (b *Backend) File(bucketID, fileID string) (backend.File, []byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.files[fileKey(bucketID, fileID)]
	if !ok {
		return backend.File{}, nil, false
	}
	return f.file, bytes.Clone(f.data), true
}

func toMap(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("could not encode document: %w", err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, common.ValidationError{Errors: map[string]string{"data": "must be a JSON object"}}
	}
	return fields, nil
}

func decode(v any, out any) error {
	if out == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// normalize puts a query value in the shape a decoded JSON field has.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var n any
	if err := json.Unmarshal(raw, &n); err != nil {
		return v
	}
	return n
}

func matchesAll(fields map[string]any, queries []backend.Query) bool {
	for _, q := range queries {
		if q.Method != "equal" {
			continue
		}

		got := fields[q.Attribute]
		found := false
		for _, want := range q.Values {
			if reflect.DeepEqual(got, normalize(want)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func intValue(q backend.Query) (int, error) {
	if len(q.Values) == 1 {
		switch n := normalize(q.Values[0]).(type) {
		case float64:
			if n >= 0 {
				return int(n), nil
			}
		}
	}
	return 0, common.ValidationError{Errors: map[string]string{"queries": fmt.Sprintf("%s expects one non-negative number", q.Method)}}
}
