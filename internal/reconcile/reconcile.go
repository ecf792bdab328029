// Package reconcile scans a project's JSON flags, validates each one's
// variations, and in fix mode drives one edit round per invalid flag,
// persisting accepted corrections. Flags are processed strictly in the
// order supplied, one at a time; the editor is a shared single-user
// resource so no parallelism is attempted.
package reconcile

import (
	"iter"

	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/schema"
)

// FlagStore persists corrected variation lists. The store is the sole
// authority for durable flag state.
type FlagStore interface {
	UpdateFlagVariations(projectKey, flagKey string, variations []models.Variation) error
}

// Fixer performs one interactive edit round over a variation list.
// *editsession.Session satisfies this.
type Fixer interface {
	Run(vars []models.Variation) (models.EditOutcome, error)
}

// Reconciler drives the bulk validate-and-fix workflow.
type Reconciler struct {
	Store      FlagStore
	Fixer      Fixer
	ProjectKey string
}

// New creates a reconciler for a project.
func New(store FlagStore, fixer Fixer, projectKey string) *Reconciler {
	return &Reconciler{Store: store, Fixer: fixer, ProjectKey: projectKey}
}

// Run validates every flag summary in input order and yields a report per
// flag as it is processed. With fix enabled, each invalid flag gets exactly
// one edit attempt; flags still invalid afterwards are reported and
// skipped, never retried. A remote failure on one flag does not stop the
// run. The sequence is lazy: nothing past the consumed prefix has been
// validated or edited, and an abandoned run leaves already-persisted fixes
// in place.
func (r *Reconciler) Run(summaries []models.FlagSummary, fix bool) iter.Seq[models.FlagReport] {
	return func(yield func(models.FlagReport) bool) {
		for _, summary := range summaries {
			if !yield(r.processFlag(summary, fix)) {
				return
			}
		}
	}
}

func (r *Reconciler) processFlag(summary models.FlagSummary, fix bool) models.FlagReport {
	report := models.FlagReport{
		Key:    summary.Key,
		Name:   summary.Name,
		Result: schema.ValidateVariations(summary.Variations),
	}

	if report.Result.Valid() {
		report.Status = models.FlagValid
		return report
	}

	if !fix {
		report.Status = models.FlagFailed
		return report
	}

	outcome, err := r.Fixer.Run(summary.Variations)
	if err != nil {
		report.Status = models.FlagFailed
		report.Err = err
		return report
	}
	report.Outcome = &outcome

	switch outcome.Kind {
	case models.OutcomeAccepted:
		if err := r.Store.UpdateFlagVariations(r.ProjectKey, summary.Key, outcome.Variations); err != nil {
			report.Status = models.FlagFailed
			report.Err = err
			return report
		}
		report.Status = models.FlagFixed
	case models.OutcomeStillInvalid:
		report.Status = models.FlagFailed
	default:
		// Unchanged or Aborted: the user declined to fix this flag.
		report.Status = models.FlagSkipped
	}
	return report
}

// Summary aggregates a bulk run's reports by outcome.
type Summary struct {
	Valid   int
	Fixed   int
	Skipped int
	Failed  int
	Total   int
}

// Add folds one report into the summary.
func (s *Summary) Add(report models.FlagReport) {
	s.Total++
	switch report.Status {
	case models.FlagValid:
		s.Valid++
	case models.FlagFixed:
		s.Fixed++
	case models.FlagSkipped:
		s.Skipped++
	case models.FlagFailed:
		s.Failed++
	}
}

// Clean reports whether every flag ended up valid or fixed.
func (s *Summary) Clean() bool {
	return s.Failed == 0 && s.Skipped == 0
}
