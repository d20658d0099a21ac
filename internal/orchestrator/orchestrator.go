// Package orchestrator runs one trash request from patterns to report.
package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"trash/internal/confirm"
	"trash/internal/console"
	"trash/internal/exitcodes"
	"trash/internal/expand"
	"trash/internal/history"
	"trash/internal/logging"
	"trash/internal/recycle"
	"trash/internal/safety"
)

// DefaultUsage is printed when no pattern is given
const DefaultUsage = `Usage: trash [options] <file or directory> [...]
Options:
  -f, --force   skip every confirmation prompt
Examples:
  trash file.txt          trash a single file (no confirmation)
  trash folder/           trash a single folder (no confirmation)
  trash *.log             trash several files (asks first)
  trash -f *              trash everything here without asking
`

// History stores completed runs
type History interface {
	RecordRun(run history.Run) (int64, error)
}

// Metrics counts confirmation decisions and completed runs
type Metrics interface {
	confirm.Recorder
	RecordRun(items int, succeeded, aborted bool, duration time.Duration)
}

// Orchestrator wires expansion, confirmation and the recycle bin together
type Orchestrator struct {
	console   *console.Console
	expander  *expand.Expander
	trasher   recycle.Trasher
	validator *safety.Validator
	history   History
	metrics   Metrics

	bulkThreshold int
	previewLimit  int
	usage         string

	now    func() time.Time
	logger zerolog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

func WithValidator(v *safety.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

func WithHistory(h History) Option {
	return func(o *Orchestrator) { o.history = h }
}

func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithBulkThreshold sets the largest count confirmed by a single prompt
func WithBulkThreshold(n int) Option {
	return func(o *Orchestrator) { o.bulkThreshold = n }
}

// WithPreviewLimit sets how many items the preview lists
func WithPreviewLimit(n int) Option {
	return func(o *Orchestrator) { o.previewLimit = n }
}

// WithUsage replaces the text printed when no pattern is given
func WithUsage(s string) Option {
	return func(o *Orchestrator) { o.usage = s }
}

// New creates an Orchestrator. A nil expander uses the OS filesystem.
func New(con *console.Console, exp *expand.Expander, trasher recycle.Trasher, opts ...Option) *Orchestrator {
	if exp == nil {
		exp = expand.New(nil)
	}
	o := &Orchestrator{
		console:       con,
		expander:      exp,
		trasher:       trasher,
		bulkThreshold: confirm.DefaultBulkThreshold,
		previewLimit:  DefaultPreviewLimit,
		usage:         DefaultUsage,
		now:           time.Now,
		logger:        logging.For("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the request and reports failures on the console.
// It returns the process exit code.
func (o *Orchestrator) Run(patterns []string, force bool) int {
	err := o.Execute(patterns, force)

	switch {
	case err == nil, errors.Is(err, ErrUsage), errors.Is(err, ErrDeclined):
		// Usage and cancellation were already printed on stdout.
	case errors.Is(err, ErrDeletionFailed):
		fmt.Fprintln(o.console.Err)
		fmt.Fprintln(o.console.Err, o.console.Error(err.Error()))
	default:
		fmt.Fprintln(o.console.Err, o.console.Error("Error: "+err.Error()))
	}
	return exitcodes.FromError(err)
}

// Execute expands patterns, previews and confirms the items, then hands the
// whole list to the recycle bin in one call
func (o *Orchestrator) Execute(patterns []string, force bool) error {
	done := logging.LogOperationStart(o.logger, "trash")
	defer done()

	if len(patterns) == 0 {
		fmt.Fprint(o.console.Out, o.usage)
		return ErrUsage
	}

	items := o.expander.ExpandAll(patterns)
	o.logger.Debug().
		Strs("patterns", patterns).
		Int("items", len(items)).
		Bool("force", force).
		Msg("Patterns expanded")
	if len(items) == 0 {
		return ErrNoMatch
	}

	if err := o.checkSafety(items); err != nil {
		o.logger.Warn().Err(err).Msg("Request refused")
		return err
	}

	Preview(o.console.Out, items, o.previewLimit)

	policy := o.policy()
	tier := policy.Tier(len(items), force)
	if !policy.Confirm(len(items), force) {
		return ErrDeclined
	}

	started := o.now()
	outcome := o.trasher.Trash(items, recycle.Options{AllowUndo: true, NoConfirmation: true})
	elapsed := o.now().Sub(started)

	o.logger.Info().
		Int("items", len(items)).
		Int("code", outcome.Code).
		Bool("aborted", outcome.AnyAborted).
		Dur("duration", elapsed).
		Msg("Recycle bin call finished")

	o.record(items, force, tier, outcome, started, elapsed)

	if !outcome.Succeeded() {
		return &DeletionFailure{Code: outcome.Code, Aborted: outcome.AnyAborted}
	}

	fmt.Fprintln(o.console.Out)
	fmt.Fprintln(o.console.Out, o.console.Success(fmt.Sprintf("Moved %d items to the trash.", len(items))))
	return nil
}

func (o *Orchestrator) policy() *confirm.Policy {
	opts := []confirm.Option{confirm.WithBulkThreshold(o.bulkThreshold)}
	if o.metrics != nil {
		opts = append(opts, confirm.WithRecorder(o.metrics))
	}
	return confirm.New(o.console.In, o.console.Out, opts...)
}

// checkSafety refuses the whole request when any item is protected
func (o *Orchestrator) checkSafety(items []string) error {
	if o.validator == nil {
		return nil
	}
	for _, item := range items {
		err := o.validator.ValidateTrashTarget(item)
		switch {
		case err == nil:
		case errors.Is(err, safety.ErrProtectedPath):
			return fmt.Errorf("%w: %s", ErrProtectedPath, item)
		default:
			return fmt.Errorf("cannot trash %q: %w", item, err)
		}
	}
	return nil
}

// record stores the finished call. Failures here never change the result.
func (o *Orchestrator) record(items []string, force bool, tier confirm.Tier, outcome recycle.Outcome, started time.Time, elapsed time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordRun(len(items), outcome.Succeeded(), outcome.AnyAborted, elapsed)
	}

	if o.history == nil {
		return
	}
	id, err := o.history.RecordRun(history.Run{
		StartedAt:  started,
		ItemCount:  len(items),
		Forced:     force,
		Tier:       string(tier),
		ResultCode: outcome.Code,
		Aborted:    outcome.AnyAborted,
		Succeeded:  outcome.Succeeded(),
		Items:      items,
	})
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to record run in history")
		return
	}
	o.logger.Debug().Int64("run_id", id).Msg("Run recorded")
}
