package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smart-notes-platform/internal/config"
	"smart-notes-platform/models"
)

func TestUploadPDFHappyPath(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, multipartUpload(t, "quarterly report.pdf", minimalPDF))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp models.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("response missing document ID")
	}
	if resp.Status != models.StatusQueued {
		t.Fatalf("status = %q, want queued", resp.Status)
	}

	doc := env.store.docs[resp.ID]
	if doc == nil {
		t.Fatalf("document not recorded")
	}
	if doc.Format != "pdf" {
		t.Fatalf("format = %q, want pdf", doc.Format)
	}
	if doc.ContentHash == "" {
		t.Fatalf("content hash not recorded")
	}
	if _, ok := env.blobs.blobs[doc.BlobKey]; !ok {
		t.Fatalf("blob not stored under %q", doc.BlobKey)
	}
	if len(env.enqueuer.enqueued) != 1 || env.enqueuer.enqueued[0] != resp.ID {
		t.Fatalf("enqueued = %v, want [%s]", env.enqueuer.enqueued, resp.ID)
	}
}

func TestUploadSniffsContentNotExtension(t *testing.T) {
	env := newTestEnv(t)

	// PNG bytes behind a .pdf name must be treated as a PNG.
	w := env.do(t, multipartUpload(t, "actually-an-image.pdf", minimalPNG))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got := env.store.docs[resp.ID].Format; got != "png" {
		t.Fatalf("format = %q, want png", got)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, multipartUpload(t, "notes.txt", []byte("plain text, not a document")))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}

	// Rejection must leave no partial state behind.
	if len(env.store.docs) != 0 {
		t.Fatalf("rejected upload created a document record")
	}
	if len(env.blobs.blobs) != 0 {
		t.Fatalf("rejected upload stored a blob")
	}
	if len(env.enqueuer.enqueued) != 0 {
		t.Fatalf("rejected upload enqueued a message")
	}
}

func TestUploadHonorsConfiguredAllowList(t *testing.T) {
	env := newTestEnvWithConfig(t, &config.Config{
		MaxFileSize:  10 << 20,
		AllowedTypes: []string{"application/pdf"},
	})

	// PNG has an extractor but sits outside the configured allow-list.
	w := env.do(t, multipartUpload(t, "scan.png", minimalPNG))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415 for type outside allow-list", w.Code)
	}
	if len(env.store.docs) != 0 || len(env.blobs.blobs) != 0 || len(env.enqueuer.enqueued) != 0 {
		t.Fatalf("rejected upload left side effects behind")
	}

	// The listed type still goes through.
	w = env.do(t, multipartUpload(t, "report.pdf", minimalPDF))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "no file here")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadEnqueueFailureLeavesDocumentUploaded(t *testing.T) {
	env := newTestEnv(t)
	env.enqueuer.err = fmt.Errorf("redis: connection refused")

	w := env.do(t, multipartUpload(t, "report.pdf", minimalPDF))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	var errResp struct {
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if errResp.ErrorCode != "enqueue_failed" {
		t.Fatalf("error_code = %q, want enqueue_failed", errResp.ErrorCode)
	}

	// The blob and record survive for the reconciler to pick up.
	if len(env.store.docs) != 1 {
		t.Fatalf("document record missing after enqueue failure")
	}
	for _, doc := range env.store.docs {
		if doc.Status != models.StatusUploaded {
			t.Fatalf("status = %q, want uploaded", doc.Status)
		}
	}
	if len(env.blobs.blobs) != 1 {
		t.Fatalf("blob missing after enqueue failure")
	}
}

func TestUploadSanitizesBlobKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, multipartUpload(t, "../../etc/passwd.pdf", minimalPDF))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	for _, doc := range env.store.docs {
		if strings.Contains(doc.BlobKey, "..") {
			t.Fatalf("blob key %q carries traversal sequence", doc.BlobKey)
		}
		if !strings.HasPrefix(doc.BlobKey, "uploads/") {
			t.Fatalf("blob key %q outside uploads prefix", doc.BlobKey)
		}
	}
}
