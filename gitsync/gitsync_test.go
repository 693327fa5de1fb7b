package gitsync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gimsops/gims-mcp/bundle"
	"github.com/gimsops/gims-mcp/gims"
)

var syncTime = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

// recorder wraps a handler and keeps the method+path of every request.
type recorder struct {
	mu    sync.Mutex
	calls []string
	next  http.Handler
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.calls = append(r.calls, req.Method+" "+req.URL.Path)
	r.mu.Unlock()
	r.next.ServeHTTP(w, req)
}

func (r *recorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) mutations() int {
	n := 0
	for _, c := range r.recorded() {
		if strings.HasPrefix(c, "POST ") || strings.HasPrefix(c, "PATCH ") || strings.HasPrefix(c, "DELETE ") {
			n++
		}
	}
	return n
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newTestSyncer(t *testing.T, h http.Handler) (*Syncer, *recorder) {
	t.Helper()
	rec := &recorder{next: h}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	client, err := gims.NewClient(gims.Config{
		URL:          srv.URL,
		AccessToken:  "access",
		RefreshToken: "refresh",
		VerifySSL:    true,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	s := NewSyncer(client)
	s.now = func() time.Time { return syncTime }
	return s, rec
}

func TestExportScriptByName(t *testing.T) {
	folderID := int64(3)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Script{{ID: 7, Name: "Poll Devices", FolderID: &folderID}})
	})
	mux.HandleFunc("GET /automation/scripts/script/7/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, gims.Script{ID: 7, Name: "Poll Devices", Code: "run()", FolderID: &folderID})
	})
	mux.HandleFunc("GET /automation/scripts/folder/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Folder{{ID: 3, Name: "Polling"}})
	})

	s, _ := newTestSyncer(t, mux)
	res, err := s.ExportScript(t.Context(), nil, "Poll Devices")
	if err != nil {
		t.Fatalf("ExportScript() error = %v", err)
	}
	if res.SuggestedFolder != "poll_devices" {
		t.Errorf("SuggestedFolder = %q, want %q", res.SuggestedFolder, "poll_devices")
	}
	if got := res.Files[bundle.CodeFile]; got != "run()" {
		t.Errorf("code.py = %q", got)
	}
	meta, err := bundle.ParseMeta(res.Files[bundle.MetaFile])
	if err != nil {
		t.Fatalf("ParseMeta() error = %v", err)
	}
	if meta.GimsFolder != "/Polling" {
		t.Errorf("GimsFolder = %q, want %q", meta.GimsFolder, "/Polling")
	}
}

func TestExportScriptNoSelector(t *testing.T) {
	s, rec := newTestSyncer(t, http.NotFoundHandler())
	if _, err := s.ExportScript(t.Context(), nil, ""); err != ErrNoSelector {
		t.Errorf("ExportScript() error = %v, want ErrNoSelector", err)
	}
	if got := len(rec.recorded()); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestExportScriptNameNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Script{})
	})
	s, _ := newTestSyncer(t, mux)
	_, err := s.ExportScript(t.Context(), nil, "Missing")
	if err == nil || !strings.Contains(err.Error(), "Missing") {
		t.Errorf("ExportScript() error = %v, want name in message", err)
	}
}

func TestImportScriptConflictMutatesNothing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Script{{ID: 12, Name: "Job"}})
	})
	s, rec := newTestSyncer(t, mux)

	out, err := s.ImportScript(t.Context(), "name: Job\n", "print(1)\n", ImportOptions{})
	if err != nil {
		t.Fatalf("ImportScript() error = %v", err)
	}
	if out.Action != ActionConflict {
		t.Errorf("Action = %q, want %q", out.Action, ActionConflict)
	}
	if out.ExistingID != 12 {
		t.Errorf("ExistingID = %d, want 12", out.ExistingID)
	}
	if out.Suggestion == "" {
		t.Error("Suggestion is empty")
	}
	if got := rec.mutations(); got != 0 {
		t.Errorf("mutating requests = %d, want 0", got)
	}
}

func TestImportScriptUpdatesExisting(t *testing.T) {
	var patched gims.UpdateScriptParams
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Script{{ID: 12, Name: "Job"}})
	})
	mux.HandleFunc("PATCH /automation/scripts/script/12/", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&patched); err != nil {
			t.Errorf("decode patch: %v", err)
		}
		writeJSON(t, w, gims.Script{ID: 12, Name: "Job"})
	})
	s, _ := newTestSyncer(t, mux)

	out, err := s.ImportScript(t.Context(), "name: Job\n", "print(2)\n", ImportOptions{UpdateExisting: true})
	if err != nil {
		t.Fatalf("ImportScript() error = %v", err)
	}
	if out.Action != ActionUpdated || out.ID != 12 {
		t.Errorf("Outcome = %+v, want updated id 12", out)
	}
	if patched.Code == nil || *patched.Code != "print(2)\n" {
		t.Errorf("patched code = %v, want the imported code", patched.Code)
	}
}

func TestImportScriptCreates(t *testing.T) {
	var created gims.CreateScriptParams
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Script{})
	})
	mux.HandleFunc("POST /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			t.Errorf("decode post: %v", err)
		}
		writeJSON(t, w, gims.Script{ID: 33, Name: created.Name})
	})
	s, _ := newTestSyncer(t, mux)

	folderID := int64(9)
	out, err := s.ImportScript(t.Context(), "name: Fresh\n", "x = 1\n", ImportOptions{TargetFolderID: &folderID})
	if err != nil {
		t.Fatalf("ImportScript() error = %v", err)
	}
	if out.Action != ActionCreated || out.ID != 33 || out.Name != "Fresh" {
		t.Errorf("Outcome = %+v", out)
	}
	if created.FolderID == nil || *created.FolderID != 9 {
		t.Errorf("FolderID = %v, want 9", created.FolderID)
	}
}

func TestImportScriptRejectsBadSyntax(t *testing.T) {
	s, rec := newTestSyncer(t, http.NotFoundHandler())
	_, err := s.ImportScript(t.Context(), "name: X\n", "def broken(\n    pass", ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "python syntax") {
		t.Fatalf("ImportScript() error = %v, want syntax error", err)
	}
	if got := len(rec.recorded()); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestImportDatasourceTypeCreatesChildren(t *testing.T) {
	var createdParams []gims.CreateParameterParams
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/datasource_types/ds_type/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.DatasourceType{})
	})
	mux.HandleFunc("POST /automation/datasource_types/ds_type/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, gims.DatasourceType{ID: 100, Name: "Modbus"})
	})
	mux.HandleFunc("GET /automation/rest/value_types/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.ValueType{{ID: 1, Name: "Строка"}, {ID: 2, Name: "Число"}})
	})
	mux.HandleFunc("GET /automation/rest/property_sections/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.PropertySection{{ID: 5, Name: bundle.DefaultSection}})
	})
	var createdProp gims.CreatePropertyParams
	mux.HandleFunc("POST /automation/datasource_types/properties/", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&createdProp); err != nil {
			t.Errorf("decode property: %v", err)
		}
		writeJSON(t, w, gims.Property{ID: 7})
	})
	mux.HandleFunc("POST /automation/datasource_types/method/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, gims.Method{ID: 8, Label: "read"})
	})
	mux.HandleFunc("POST /automation/datasource_types/method_params/", func(w http.ResponseWriter, r *http.Request) {
		var p gims.CreateParameterParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode parameter: %v", err)
		}
		createdParams = append(createdParams, p)
		writeJSON(t, w, gims.Parameter{ID: 9})
	})

	docs := bundle.DocumentSet{
		"meta.yaml":                "name: Modbus\ndescription: Polling\nversion: \"2.1\"\n",
		"properties.yaml":          "properties:\n  - name: host\n    label: Хост\n    value_type: Строка\n",
		"methods/read/meta.yaml":   "name: Чтение\nlabel: read\n",
		"methods/read/code.py":     "return 1\n",
		"methods/read/params.yaml": "parameters:\n  - label: register\n    input_type: true\n    value_type: Число\n",
	}

	s, _ := newTestSyncer(t, mux)
	out, err := s.ImportDatasourceType(t.Context(), docs, ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDatasourceType() error = %v", err)
	}
	if out.Action != ActionCreated || out.ID != 100 {
		t.Fatalf("Outcome = %+v", out)
	}
	if len(out.ChildErrors) != 0 {
		t.Errorf("ChildErrors = %v, want none", out.ChildErrors)
	}
	if createdProp.ValueTypeID != 1 || createdProp.SectionNameID != 5 {
		t.Errorf("property params = %+v, want resolved reference ids", createdProp)
	}
	if createdProp.MDSTypeID == nil || *createdProp.MDSTypeID != 100 {
		t.Errorf("property owner = %v, want 100", createdProp.MDSTypeID)
	}
	if len(createdParams) != 1 || createdParams[0].MethodID != 8 || createdParams[0].ValueTypeID != 2 {
		t.Errorf("parameters = %+v", createdParams)
	}
}

func TestImportDatasourceTypeUnknownValueType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/datasource_types/ds_type/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.DatasourceType{})
	})
	mux.HandleFunc("POST /automation/datasource_types/ds_type/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, gims.DatasourceType{ID: 100})
	})
	mux.HandleFunc("GET /automation/rest/value_types/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.ValueType{})
	})
	mux.HandleFunc("GET /automation/rest/property_sections/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.PropertySection{{ID: 5, Name: bundle.DefaultSection}})
	})

	docs := bundle.DocumentSet{
		"meta.yaml":       "name: T\n",
		"properties.yaml": "properties:\n  - name: host\n    label: Хост\n    value_type: Exotic\n",
	}
	s, _ := newTestSyncer(t, mux)
	out, err := s.ImportDatasourceType(t.Context(), docs, ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDatasourceType() error = %v", err)
	}
	if out.Action != ActionCreated {
		t.Fatalf("Action = %q", out.Action)
	}
	if len(out.ChildErrors) != 1 || !strings.Contains(out.ChildErrors[0], "Exotic") {
		t.Errorf("ChildErrors = %v, want unknown value type report", out.ChildErrors)
	}
}

func TestImportDatasourceTypeBadMethodSyntax(t *testing.T) {
	docs := bundle.DocumentSet{
		"meta.yaml":             "name: T\n",
		"methods/bad/meta.yaml": "name: Bad\nlabel: bad\n",
		"methods/bad/code.py":   "def broken(\n    pass",
	}
	s, rec := newTestSyncer(t, http.NotFoundHandler())
	_, err := s.ImportDatasourceType(t.Context(), docs, ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), `"bad"`) {
		t.Fatalf("ImportDatasourceType() error = %v, want method label in message", err)
	}
	if got := len(rec.recorded()); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestImportActivatorTypeUpdates(t *testing.T) {
	var patched gims.UpdateActivatorTypeParams
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/activator_types/activator_type/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.ActivatorType{{ID: 5, Name: "Таймер"}})
	})
	mux.HandleFunc("PATCH /automation/activator_types/activator_type/5/", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&patched); err != nil {
			t.Errorf("decode patch: %v", err)
		}
		writeJSON(t, w, gims.ActivatorType{ID: 5, Name: "Таймер"})
	})

	docs := bundle.DocumentSet{
		"meta.yaml": "name: Таймер\ndescription: каждый час\n",
		"code.py":   "fire()\n",
	}
	s, _ := newTestSyncer(t, mux)
	out, err := s.ImportActivatorType(t.Context(), docs, ImportOptions{UpdateExisting: true})
	if err != nil {
		t.Fatalf("ImportActivatorType() error = %v", err)
	}
	if out.Action != ActionUpdated || out.ID != 5 {
		t.Errorf("Outcome = %+v", out)
	}
	if patched.Code == nil || *patched.Code != "fire()\n" {
		t.Errorf("patched code = %v", patched.Code)
	}
}

func TestCompare(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []gims.Script{
			{ID: 1, Name: "Fresh", UpdatedAt: "2026-04-02T10:00:00Z"},
			{ID: 2, Name: "Stale", UpdatedAt: "2026-01-01T00:00:00Z"},
			{ID: 3, Name: "Плоский"},
		})
	})
	s, _ := newTestSyncer(t, mux)

	cases := []struct {
		name       string
		gimsName   string
		exportedAt string
		wantStatus string
	}{
		{"gims newer", "Fresh", "2026-03-01T00:00:00Z", StatusGimsNewer},
		{"git newer", "Stale", "2026-03-01T00:00:00Z", StatusGitNewer},
		{"in sync", "Fresh", "2026-04-02T10:00:00Z", StatusInSync},
		{"not found", "Ghost", "2026-03-01T00:00:00Z", StatusNotFound},
		{"no updated_at", "Плоский", "2026-03-01T00:00:00Z", StatusNoUpdatedAt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := s.Compare(t.Context(), ComponentScript, tc.gimsName, tc.exportedAt)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if res.Status != tc.wantStatus {
				t.Errorf("Status = %q, want %q", res.Status, tc.wantStatus)
			}
		})
	}
}

func TestCompareRejectsBadGitDate(t *testing.T) {
	s, _ := newTestSyncer(t, http.NotFoundHandler())
	if _, err := s.Compare(t.Context(), ComponentScript, "X", "yesterday"); err == nil {
		t.Error("Compare() = nil error for malformed date")
	}
}

func TestCompareUnknownComponentType(t *testing.T) {
	s, _ := newTestSyncer(t, http.NotFoundHandler())
	if _, err := s.Compare(t.Context(), "widget", "X", "2026-03-01T00:00:00Z"); err == nil {
		t.Error("Compare() = nil error for unknown component type")
	}
}
