package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/dmukit/internal/config"
	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/pipeline"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/dgallion1/dmukit/internal/style"
)

const testKey = "test-key"

const sampleTSV = "DMU-Heading1\tSURFICIAL DEPOSITS\n" +
	"DMU Unit 1 (1st after heading)\tQal Alluvium (Holocene)—Sand and gravel\n" +
	"DMU Unit 1\tQt Terrace deposits (Pleistocene)—Gravel\n" +
	"DMU Paragraph\tForms benches along the river.\n"

// testServer wires a real SQLite table and a one-worker pipeline behind the
// router.
func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "dmu.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		APIKey:         testKey,
		StylePrefix:    "DMU",
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		StatsWindow:    time.Hour,
	}
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	styles := style.DefaultTable()

	orch := pipeline.NewOrchestrator(cfg, db, styles, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, db, styles, log, cfg), db
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/dmu/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth_NoAuth(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuth_RejectsMissingAndWrongKey(t *testing.T) {
	s, _ := testServer(t)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dmu", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dmu", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}
}

func TestImport_MergesIntoTable(t *testing.T) {
	s, db := testServer(t)

	w := do(t, s, uploadRequest(t, "dmu.tsv", sampleTSV))
	if w.Code != http.StatusAccepted {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PollURL != "/api/dmu/import/"+resp.JobID+"/status" {
		t.Errorf("poll_url = %q", resp.PollURL)
	}

	job := s.orchestrator.GetJob(resp.JobID)
	if job == nil {
		t.Fatal("job not registered")
	}
	select {
	case <-job.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("job did not finish")
	}

	w = do(t, s, httptest.NewRequest(http.MethodGet, resp.PollURL, nil))
	var snap pipeline.JobSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("job status = %s, body = %s", snap.Status, w.Body.String())
	}
	if snap.Progress.Inserted != 3 {
		t.Errorf("inserted = %d, want 3", snap.Progress.Inserted)
	}

	rows, err := db.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2].MapUnit != "Qt" || !strings.Contains(rows[2].Description, "benches") {
		t.Errorf("unexpected last row %+v", rows[2])
	}
}

func TestImport_TitleRecordedInHistory(t *testing.T) {
	s, _ := testServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "dmu.tsv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(sampleTSV))
	mw.WriteField("title", "Geologic map of Smith Ridge")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/dmu/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(t, s, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	select {
	case <-s.orchestrator.GetJob(resp.JobID).Done():
	case <-time.After(10 * time.Second):
		t.Fatal("job did not finish")
	}

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu/imports", nil))
	var list struct {
		Imports []store.Import `json:"imports"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Imports) != 1 || list.Imports[0].Title != "Geologic map of Smith Ridge" {
		t.Errorf("imports = %+v, want one titled import", list.Imports)
	}
}

func TestImport_RejectsUnsupportedType(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s, uploadRequest(t, "map.pdf", "%PDF-1.4"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestImportStatus_UnknownJob(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu/import/nope/status", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestKeys(t *testing.T) {
	s, _ := testServer(t)

	body := `{"paragraphs":[
		{"style":"DMU-Heading1","text":"BEDROCK"},
		{"style":"DMU Unit 1 (1st after heading)","text":"Kg Granite (Cretaceous)"},
		{"style":"DMU Unit 2","text":"Kgf Fine-grained facies"}
	]}`
	w := do(t, s, httptest.NewRequest(http.MethodPost, "/api/dmu/keys", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Records []dmu.Record `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "1-1", "1-1-1"}
	if len(resp.Records) != len(want) {
		t.Fatalf("records = %d, want %d", len(resp.Records), len(want))
	}
	for i, k := range want {
		if resp.Records[i].Key != k {
			t.Errorf("record %d key = %q, want %q", i, resp.Records[i].Key, k)
		}
	}
	// Index defaults to the position in the request.
	if resp.Records[2].Index != 3 {
		t.Errorf("index = %d, want 3", resp.Records[2].Index)
	}
}

func TestKeys_Errors(t *testing.T) {
	s, _ := testServer(t)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"paragraphs":`, http.StatusBadRequest},
		{"no paragraphs", `{"paragraphs":[]}`, http.StatusBadRequest},
		{"missing style", `{"paragraphs":[{"text":"x"}]}`, http.StatusBadRequest},
		{"unknown style", `{"paragraphs":[{"style":"Normal","text":"x"}]}`, http.StatusUnprocessableEntity},
		{"duplicate label", `{"paragraphs":[{"style":"DMU Unit 1","text":"Qal A"},{"style":"DMU Unit 1","text":"Qal B"}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		w := do(t, s, httptest.NewRequest(http.MethodPost, "/api/dmu/keys", strings.NewReader(tt.body)))
		if w.Code != tt.code {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, w.Code, tt.code, w.Body.String())
		}
	}
}

func seed(t *testing.T, db *store.DB) {
	t.Helper()
	paras := []struct{ style, text string }{
		{"DMU-Heading1", "SURFICIAL DEPOSITS"},
		{"DMU Unit 1 (1st after heading)", "Qal Alluvium (Holocene)—Sand and gravel"},
	}
	var records []dmu.Record
	for i, p := range paras {
		records = append(records, dmu.Record{Index: i + 1, Style: p.style})
	}
	records[0].Name, records[0].Key = "SURFICIAL DEPOSITS", "1"
	u := dmu.ParseUnit(paras[1].text)
	records[1].Label, records[1].Name, records[1].Age, records[1].Description = u.Label, u.Name, u.Age, u.Description
	records[1].Key = "1-1"
	if _, err := db.Merge(context.Background(), records, "seed"); err != nil {
		t.Fatalf("Merge: %v", err)
	}
}

func TestRows_ListGetDelete(t *testing.T) {
	s, db := testServer(t)
	seed(t, db)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu", nil))
	var list struct {
		Rows  []store.Row `json:"rows"`
		Count int         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 2 {
		t.Fatalf("count = %d, want 2", list.Count)
	}
	id := list.Rows[1].ID

	path := "/api/dmu/" + itoa(id)
	w = do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"map_unit":"Qal"`) {
		t.Fatalf("get: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, s, httptest.NewRequest(http.MethodDelete, path, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
	w = do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", w.Code)
	}
}

func TestTree(t *testing.T) {
	s, db := testServer(t)
	seed(t, db)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu/tree?title=Test", nil))
	var tree struct {
		Title    string
		Children []struct {
			Key      string
			Children []struct{ Key, Title string }
		}
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tree); err != nil {
		t.Fatal(err)
	}
	if tree.Title != "Test" || len(tree.Children) != 1 || len(tree.Children[0].Children) != 1 {
		t.Fatalf("unexpected tree %s", w.Body.String())
	}
	if got := tree.Children[0].Children[0].Title; got != "Qal Alluvium (Holocene)" {
		t.Errorf("child title = %q", got)
	}
}

func TestExport(t *testing.T) {
	s, db := testServer(t)
	seed(t, db)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu/export.md", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "# SURFICIAL DEPOSITS") || !strings.Contains(w.Body.String(), "Qal") {
		t.Errorf("unexpected markdown:\n%s", w.Body.String())
	}

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/api/dmu/export.pdf", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("pdf: status = %d, want 400", w.Code)
	}
}

func TestImportStats(t *testing.T) {
	s, db := testServer(t)
	seed(t, db)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats/imports", nil))
	var resp struct {
		Rows       int                    `json:"rows"`
		QueueDepth int                    `json:"queue_depth"`
		Imports    pipeline.StatsSnapshot `json:"imports"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Rows != 2 {
		t.Errorf("rows = %d, want 2", resp.Rows)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"dmu.docx":             "dmu.docx",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\dmu.docx`: "dmu.docx",
		"a..b.md":              "a_b.md",
		"":                     "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
