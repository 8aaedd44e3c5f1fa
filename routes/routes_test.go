package routes

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/config"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/models"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory index.DocumentStore for handler tests.
type memStore struct {
	docs      map[string]*models.Document
	records   map[string]*models.ExtractedRecord
	searchHit []models.SearchResult
	searchErr error
}

func newMemStore() *memStore {
	return &memStore{
		docs:    make(map[string]*models.Document),
		records: make(map[string]*models.ExtractedRecord),
	}
}

func (s *memStore) Insert(_ context.Context, doc *models.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, index.ErrNotFound
	}
	return doc, nil
}

func (s *memStore) List(_ context.Context) ([]models.Document, error) {
	var out []models.Document
	for _, d := range s.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (s *memStore) ListStuck(_ context.Context, status string, olderThan time.Time) ([]models.Document, error) {
	var out []models.Document
	for _, d := range s.docs {
		if d.Status == status && d.UpdatedAt.Before(olderThan) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *memStore) MarkQueued(_ context.Context, id string, at time.Time) error {
	doc, ok := s.docs[id]
	if !ok {
		return index.ErrNotFound
	}
	doc.Status = models.StatusQueued
	doc.QueuedAt = &at
	return nil
}

func (s *memStore) MarkProcessing(_ context.Context, id string, attempts int) error {
	doc, ok := s.docs[id]
	if !ok {
		return index.ErrNotFound
	}
	doc.Status = models.StatusProcessing
	doc.Attempts = attempts
	return nil
}

func (s *memStore) MarkIndexed(_ context.Context, id string, rec *models.ExtractedRecord) error {
	doc, ok := s.docs[id]
	if !ok {
		return index.ErrNotFound
	}
	s.records[id] = rec
	doc.Status = models.StatusIndexed
	at := rec.ExtractedAt
	doc.IndexedAt = &at
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id, reason string) error {
	doc, ok := s.docs[id]
	if !ok {
		return index.ErrNotFound
	}
	doc.Status = models.StatusFailed
	doc.FailureReason = reason
	return nil
}

func (s *memStore) ResetForReprocess(_ context.Context, id string) error {
	doc, ok := s.docs[id]
	if !ok {
		return index.ErrNotFound
	}
	if doc.Status != models.StatusFailed {
		return index.ErrInvalidTransition
	}
	doc.Status = models.StatusQueued
	doc.FailureReason = ""
	doc.Attempts = 0
	return nil
}

func (s *memStore) GetExtracted(_ context.Context, id string) (*models.ExtractedRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, index.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) Search(_ context.Context, query string, limit, radius int) ([]models.SearchResult, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if len(s.searchHit) > limit {
		return s.searchHit[:limit], nil
	}
	return s.searchHit, nil
}

// memBlobs is an in-memory blobstore.Store.
type memBlobs struct {
	blobs  map[string][]byte
	putErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (b *memBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.blobs[key] = data
	return nil
}

func (b *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := b.blobs[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return data, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	delete(b.blobs, key)
	return nil
}

func (b *memBlobs) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range b.blobs {
		keys = append(keys, k)
	}
	return keys, nil
}

// memEnqueuer records enqueued documents and can be told to fail.
type memEnqueuer struct {
	enqueued []string
	err      error
}

func (e *memEnqueuer) EnqueueDocument(_ context.Context, documentID string, _ time.Time) error {
	if e.err != nil {
		return e.err
	}
	e.enqueued = append(e.enqueued, documentID)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	store    *memStore
	blobs    *memBlobs
	enqueuer *memEnqueuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, &config.Config{
		MaxFileSize:   10 << 20,
		SearchLimit:   50,
		SnippetRadius: 60,
	})
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    newMemStore(),
		blobs:    newMemBlobs(),
		enqueuer: &memEnqueuer{},
	}
	env.router = gin.New()
	SetupDocumentRoutes(env.router, cfg, env.store, env.blobs, env.enqueuer)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// multipartUpload builds a multipart request with one file field.
func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// minimalPDF is a tiny but structurally valid PDF header for sniffing.
var minimalPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// minimalPNG is an 8-byte PNG signature plus a fake IHDR chunk.
var minimalPNG = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00,
}
