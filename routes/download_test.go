package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smart-notes-platform/models"
)

func TestDownloadReturnsOriginalBytes(t *testing.T) {
	env := newTestEnv(t)
	doc := seedDoc(env, "doc-1", models.StatusIndexed)
	env.blobs.blobs[doc.BlobKey] = minimalPDF

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/download/doc-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), minimalPDF) {
		t.Fatalf("downloaded bytes differ from stored blob")
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got == "" {
		t.Fatalf("missing Content-Disposition header")
	}
}

func TestDownloadUnknownDocument(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/download/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDownloadMissingBlobIsIntegrityFault(t *testing.T) {
	env := newTestEnv(t)
	seedDoc(env, "doc-1", models.StatusIndexed)
	// Record exists but the blob does not.

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/download/doc-1", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp struct {
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ErrorCode != "blob_missing" {
		t.Fatalf("error_code = %q, want blob_missing", resp.ErrorCode)
	}
}
