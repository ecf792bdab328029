package reconcile

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/marcus/ldflag/internal/models"
)

type fakeStore struct {
	updates []storeUpdate
	err     error
}

type storeUpdate struct {
	projectKey string
	flagKey    string
	variations []models.Variation
}

func (s *fakeStore) UpdateFlagVariations(projectKey, flagKey string, variations []models.Variation) error {
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, storeUpdate{projectKey, flagKey, variations})
	return nil
}

type fakeFixer struct {
	outcomes []models.EditOutcome
	err      error
	calls    int
}

func (f *fakeFixer) Run(vars []models.Variation) (models.EditOutcome, error) {
	f.calls++
	if f.err != nil {
		return models.EditOutcome{}, f.err
	}
	outcome := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return outcome, nil
}

func validSummary(key string) models.FlagSummary {
	return models.FlagSummary{
		Key:  key,
		Name: key,
		Variations: []models.Variation{
			{ID: "a", Value: json.RawMessage(`{"tcp_port": 443}`)},
		},
	}
}

func invalidSummary(key string) models.FlagSummary {
	return models.FlagSummary{
		Key:  key,
		Name: key,
		Variations: []models.Variation{
			{ID: "a", Value: json.RawMessage(`{"tcp_port": 443}`)},
			{Value: json.RawMessage(`{"tcp_port": 99999}`)},
		},
	}
}

func collect(r *Reconciler, summaries []models.FlagSummary, fix bool) []models.FlagReport {
	var reports []models.FlagReport
	for report := range r.Run(summaries, fix) {
		reports = append(reports, report)
	}
	return reports
}

// TestRunValidateOnly tests fix disabled: full report, zero writes
func TestRunValidateOnly(t *testing.T) {
	store := &fakeStore{}
	fixer := &fakeFixer{}
	r := New(store, fixer, "proj")

	summaries := []models.FlagSummary{
		validSummary("ok-1"),
		invalidSummary("bad"),
		validSummary("ok-2"),
	}
	reports := collect(r, summaries, false)

	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].Status != models.FlagValid || reports[2].Status != models.FlagValid {
		t.Errorf("expected valid flags: %+v", reports)
	}
	if reports[1].Status != models.FlagFailed {
		t.Errorf("expected failed status for invalid flag, got %s", reports[1].Status)
	}
	if len(reports[1].Result.Errors) == 0 {
		t.Error("expected error detail on invalid flag")
	}
	if len(store.updates) != 0 {
		t.Errorf("expected zero writes, got %d", len(store.updates))
	}
	if fixer.calls != 0 {
		t.Errorf("fixer should not run with fix disabled, ran %d times", fixer.calls)
	}
}

// TestRunFixAccepted tests an accepted edit is persisted once
func TestRunFixAccepted(t *testing.T) {
	corrected := []models.Variation{
		{ID: "a", Value: json.RawMessage(`{"tcp_port": 443}`)},
		{Value: json.RawMessage(`{"tcp_port": 9000}`)},
	}
	store := &fakeStore{}
	fixer := &fakeFixer{outcomes: []models.EditOutcome{
		{Kind: models.OutcomeAccepted, Variations: corrected},
	}}
	r := New(store, fixer, "proj")

	reports := collect(r, []models.FlagSummary{invalidSummary("bad")}, true)

	if reports[0].Status != models.FlagFixed {
		t.Fatalf("expected fixed, got %s", reports[0].Status)
	}
	if len(store.updates) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(store.updates))
	}
	update := store.updates[0]
	if update.projectKey != "proj" || update.flagKey != "bad" {
		t.Errorf("unexpected update target: %+v", update)
	}
	if update.variations[0].ID != "a" {
		t.Errorf("_id not preserved in persisted list: %+v", update.variations)
	}
}

// TestRunFixStillInvalid tests single-attempt policy: no persist, no retry
func TestRunFixStillInvalid(t *testing.T) {
	store := &fakeStore{}
	fixer := &fakeFixer{outcomes: []models.EditOutcome{
		{Kind: models.OutcomeStillInvalid, Result: models.ValidationResult{
			Errors: []models.FieldError{{Index: 1, Kind: models.ErrOutOfRange, Message: "still bad"}},
		}},
	}}
	r := New(store, fixer, "proj")

	reports := collect(r, []models.FlagSummary{invalidSummary("bad")}, true)

	if reports[0].Status != models.FlagFailed {
		t.Fatalf("expected failed, got %s", reports[0].Status)
	}
	if len(store.updates) != 0 {
		t.Errorf("expected no writes, got %d", len(store.updates))
	}
	if fixer.calls != 1 {
		t.Errorf("expected exactly one edit attempt, got %d", fixer.calls)
	}
	if reports[0].Outcome == nil || len(reports[0].Outcome.Result.Errors) == 0 {
		t.Error("expected latest error detail on report")
	}
}

// TestRunFixSkipped tests Unchanged and Aborted map to skipped
func TestRunFixSkipped(t *testing.T) {
	for _, kind := range []models.OutcomeKind{models.OutcomeUnchanged, models.OutcomeAborted} {
		store := &fakeStore{}
		fixer := &fakeFixer{outcomes: []models.EditOutcome{{Kind: kind}}}
		r := New(store, fixer, "proj")

		reports := collect(r, []models.FlagSummary{invalidSummary("bad")}, true)

		if reports[0].Status != models.FlagSkipped {
			t.Errorf("%s: expected skipped, got %s", kind, reports[0].Status)
		}
		if len(store.updates) != 0 {
			t.Errorf("%s: expected no writes", kind)
		}
	}
}

// TestRunRemoteErrorIsolation tests one flag's persist failure does not
// stop subsequent flags
func TestRunRemoteErrorIsolation(t *testing.T) {
	remoteErr := errors.New("HTTP 500: server unavailable")
	store := &fakeStore{err: remoteErr}
	fixer := &fakeFixer{outcomes: []models.EditOutcome{
		{Kind: models.OutcomeAccepted, Variations: validSummary("bad").Variations},
	}}
	r := New(store, fixer, "proj")

	summaries := []models.FlagSummary{invalidSummary("bad"), validSummary("ok")}
	reports := collect(r, summaries, true)

	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Status != models.FlagFailed || !errors.Is(reports[0].Err, remoteErr) {
		t.Errorf("expected remote failure on first flag: %+v", reports[0])
	}
	if reports[1].Status != models.FlagValid {
		t.Errorf("second flag should still be processed: %+v", reports[1])
	}
}

// TestRunLazy tests that an abandoned sequence stops processing
func TestRunLazy(t *testing.T) {
	store := &fakeStore{}
	fixer := &fakeFixer{outcomes: []models.EditOutcome{{Kind: models.OutcomeUnchanged}}}
	r := New(store, fixer, "proj")

	summaries := []models.FlagSummary{invalidSummary("one"), invalidSummary("two")}
	count := 0
	for range r.Run(summaries, true) {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected 1 report consumed, got %d", count)
	}
	if fixer.calls != 1 {
		t.Errorf("second flag should not have been processed, fixer ran %d times", fixer.calls)
	}
}

// TestSummary tests aggregation and the clean check
func TestSummary(t *testing.T) {
	var s Summary
	for _, status := range []models.FlagStatus{
		models.FlagValid, models.FlagValid, models.FlagFixed, models.FlagSkipped, models.FlagFailed,
	} {
		s.Add(models.FlagReport{Status: status})
	}
	if s.Total != 5 || s.Valid != 2 || s.Fixed != 1 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.Clean() {
		t.Error("summary with failures should not be clean")
	}

	clean := Summary{Valid: 2, Fixed: 1, Total: 3}
	if !clean.Clean() {
		t.Error("summary without failures should be clean")
	}
}
