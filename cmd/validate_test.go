package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marcus/ldflag/internal/editsession"
	"github.com/marcus/ldflag/internal/ldapi"
	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/reconcile"
)

// scriptedEditor applies a text transform in place of a human edit.
type scriptedEditor struct {
	fn func(text string) string
}

func (e *scriptedEditor) Edit(text string) (string, error) {
	if e.fn == nil {
		return text, nil
	}
	return e.fn(text), nil
}

// TestValidateFixEndToEnd drives the full fix pipeline against a fake
// LaunchDarkly server: a flag with one bad variation gets corrected in the
// "editor", persisted once, and reported as fixed.
func TestValidateFixEndToEnd(t *testing.T) {
	var patches []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /flags/proj", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{"key": "svc-port", "name": "Service Port"}]}`)
	})
	mux.HandleFunc("GET /flags/proj/svc-port", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"key": "svc-port", "name": "Service Port", "variations": [
			{"_id": "a", "name": "Production", "value": {"tcp_port": 443}},
			{"name": "Development", "value": {"tcp_port": 99999}}
		]}`)
	})
	mux.HandleFunc("PATCH /flags/proj/svc-port", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(data, &body)
		patches = append(patches, body)
		fmt.Fprint(w, `{"key": "svc-port"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := ldapi.New(server.URL, "key")
	summaries, err := client.ListJSONFlags("proj")
	if err != nil {
		t.Fatalf("ListJSONFlags failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	session := editsession.New(&scriptedEditor{fn: func(text string) string {
		return strings.Replace(text, "99999", "9000", 1)
	}})
	r := reconcile.New(storeAdapter{client}, session, "proj")

	var reports []models.FlagReport
	for report := range r.Run(summaries, true) {
		reports = append(reports, report)
	}

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].Status != models.FlagFixed {
		t.Fatalf("expected fixed, got %s (%+v)", reports[0].Status, reports[0])
	}
	if len(patches) != 1 {
		t.Fatalf("expected exactly one update, got %d", len(patches))
	}

	// The persisted patch must preserve the _id of the untouched variation
	// and carry the corrected port.
	patch := patches[0]["patch"].([]any)[0].(map[string]any)
	value := patch["value"].([]any)
	first := value[0].(map[string]any)
	if first["_id"] != "a" {
		t.Errorf("_id not preserved: %v", first)
	}
	second := value[1].(map[string]any)["value"].(map[string]any)
	if second["tcp_port"] != float64(9000) {
		t.Errorf("correction not persisted: %v", second)
	}
}

// TestValidateNoFixDoesNotWrite verifies fix-disabled runs never persist
func TestValidateNoFixDoesNotWrite(t *testing.T) {
	writes := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /flags/proj", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [
			{"key": "good-1"}, {"key": "bad"}, {"key": "good-2"}
		]}`)
	})
	mux.HandleFunc("GET /flags/proj/{key}", func(w http.ResponseWriter, r *http.Request) {
		port := 443
		if r.PathValue("key") == "bad" {
			port = -1
		}
		fmt.Fprintf(w, `{"key": %q, "variations": [{"value": {"tcp_port": %d}}]}`,
			r.PathValue("key"), port)
	})
	mux.HandleFunc("PATCH /", func(w http.ResponseWriter, r *http.Request) {
		writes++
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := ldapi.New(server.URL, "key")
	summaries, err := client.ListJSONFlags("proj")
	if err != nil {
		t.Fatalf("ListJSONFlags failed: %v", err)
	}

	r := reconcile.New(storeAdapter{client}, editsession.New(&scriptedEditor{}), "proj")

	var summary reconcile.Summary
	for report := range r.Run(summaries, false) {
		summary.Add(report)
		if report.Key == "bad" && len(report.Result.Errors) == 0 {
			t.Error("invalid flag should carry error detail")
		}
	}

	if summary.Total != 3 || summary.Valid != 2 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if writes != 0 {
		t.Errorf("expected zero writes, got %d", writes)
	}
}
