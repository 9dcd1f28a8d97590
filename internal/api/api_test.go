package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Leocrydis/SENomexLayers/internal/automation"
	"github.com/Leocrydis/SENomexLayers/internal/batch"
	"github.com/Leocrydis/SENomexLayers/internal/models"
	"github.com/Leocrydis/SENomexLayers/internal/partfs"
	"github.com/Leocrydis/SENomexLayers/internal/sse"
)

// stubReader serves canned properties keyed by the file stem of the path.
type stubReader struct {
	props map[string][]models.Property
}

func (r *stubReader) Read(_ context.Context, path string) ([]models.Property, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.props[stem], nil
}

// testEnv sets up a temp search root, worker, service, and router for testing.
// authEnabled=false means disabled mode; authEnabled=true with non-empty
// token means token mode.
func testEnv(t *testing.T, authEnabled bool, authToken string) http.Handler {
	t.Helper()
	return NewRouter(testService(t), authEnabled, authToken, nil)
}

func testEnvWithEvents(t *testing.T) (http.Handler, *sse.Broker) {
	t.Helper()
	broker := sse.NewBroker()
	return NewRouter(testService(t), false, "", broker), broker
}

func testService(t *testing.T) *Service {
	t.Helper()

	rootDir := t.TempDir()
	for _, id := range []string{"7xxxyy01", "7xxxyy02"} {
		if err := os.WriteFile(filepath.Join(rootDir, id+".psm"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	parts, err := partfs.New(rootDir, []string{".psm"})
	if err != nil {
		t.Fatalf("partfs.New: %v", err)
	}

	reader := &stubReader{props: map[string][]models.Property{
		"7xxxyy01": {
			{Name: "NOMEX_LAYERS_TOP", Value: models.NumberValue(3)},
			{Name: "MATERIAL", Value: models.StringValue("aluminum")},
		},
		"7xxxyy02": {
			{Name: "NOMEX_LAYERS_BOTTOM", Value: models.NumberValue(2)},
		},
	}}

	worker, err := automation.NewWorker(automation.ThreadHook{})
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	t.Cleanup(worker.Close)

	resolver := batch.New(parts, reader, "NOMEX_LAYERS", nil)
	return NewService(worker, resolver, reader, parts)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResolveBatch(t *testing.T) {
	router := testEnv(t, false, "")

	w := doJSON(t, router, http.MethodPost, "/resolve",
		map[string][]string{"identifiers": {"7xxxyy01", "7xxxyy02", "7xxxyy99"}}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var resp ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(resp.Matches), resp.Matches)
	}
	if got, want := resp.Lines[0], "7xxxyy01: NOMEX_LAYERS_TOP: 3"; got != want {
		t.Fatalf("line = %q, want %q", got, want)
	}
	if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Identifier != "7xxxyy99" {
		t.Fatalf("diagnostics = %+v, want one for 7xxxyy99", resp.Diagnostics)
	}
}

func TestResolveValidation(t *testing.T) {
	router := testEnv(t, false, "")

	w := doJSON(t, router, http.MethodPost, "/resolve", map[string][]string{"identifiers": {}}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty identifiers: status %d, want 400", w.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error != "identifiers is required" {
		t.Fatalf("error = %q, want %q", body.Error, "identifiers is required")
	}

	req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status %d, want 400", rec.Code)
	}
}

func TestListParts(t *testing.T) {
	router := testEnv(t, false, "")

	w := doJSON(t, router, http.MethodGet, "/parts", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp PartListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Parts) != 2 {
		t.Fatalf("got total=%d parts=%d, want 2", resp.Total, len(resp.Parts))
	}
}

func TestPartProperties(t *testing.T) {
	router := testEnv(t, false, "")

	w := doJSON(t, router, http.MethodGet, "/parts/7xxxyy01/properties", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp PropertiesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Identifier != "7xxxyy01" || len(resp.Properties) != 2 {
		t.Fatalf("got %+v, want both properties of 7xxxyy01", resp)
	}
	if resp.Properties[1].Name != "MATERIAL" || resp.Properties[1].Value != "aluminum" {
		t.Fatalf("properties = %+v", resp.Properties)
	}
}

func TestPartPropertiesNotFound(t *testing.T) {
	router := testEnv(t, false, "")

	w := doJSON(t, router, http.MethodGet, "/parts/7xxxyy99/properties", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestResolvePublishesBatchEvent(t *testing.T) {
	router, broker := testEnvWithEvents(t)
	defer broker.Close()

	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	w := doJSON(t, router, http.MethodPost, "/resolve",
		map[string][]string{"identifiers": {"7xxxyy01"}}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: batch.resolved") {
			t.Errorf("got %q, want batch.resolved event", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for batch.resolved event")
	}
}

func TestAuthTokenMode(t *testing.T) {
	router := testEnv(t, true, "secret")

	w := doJSON(t, router, http.MethodGet, "/parts", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/parts", nil, "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/parts", nil, "secret")
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status %d, want 200", w.Code)
	}
}
