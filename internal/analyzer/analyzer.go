package analyzer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/prompt"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/utils"
)

const (
	workflowName          = "analyze"
	analysisFailedMessage = "Analysis failed"
	feedbackFailedMessage = "Feedback request failed"
	maxLogLength          = 120
)

var (
	// ErrModeLocked is returned when the mode or the selection is changed at a
	// point the workflow does not allow it.
	ErrModeLocked = errors.New("mode cannot be changed while an analysis is in flight")
	// ErrResultsShown is returned when the selection or the mode is changed before reset.
	ErrResultsShown = errors.New("results are shown, reset first")
	// ErrNoSingleResult is returned when feedback is requested outside the single result state.
	ErrNoSingleResult = errors.New("feedback needs a single analysis result")
)

type Mode string

const (
	ModeSingle Mode = "single"
	ModeBulk   Mode = "bulk"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeBulk:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown analysis mode %q", s)
	}
}

type State string

const (
	StateIdle          State = "idle"
	StateSubmitting    State = "submitting"
	StateResultsSingle State = "results_single"
	StateResultsBulk   State = "results_bulk"
)

// Remote is the part of the analysis service the workflow talks to.
type Remote interface {
	Evaluate(ctx context.Context, jd, resume remote.File) (*remote.Evaluation, error)
	AnalyzeBulk(ctx context.Context, jd remote.File, resumes []remote.File) ([]remote.RankedResult, error)
	Feedback(ctx context.Context, req remote.FeedbackRequest) (string, error)
}

// Snapshot is a copy of the workflow view state.
type Snapshot struct {
	State          State
	Mode           Mode
	JobDescription string
	Resumes        []string
	Single         *remote.Evaluation
	Bulk           []remote.RankedResult
	Feedback       string
}

// Workflow sequences select → submit → results for one job description and
// one or more resumes.
type Workflow struct {
	mu       sync.Mutex
	remote   Remote
	notifier prompt.Notifier
	logger   *zap.Logger

	// extract turns a document into plain text for feedback requests.
	extract func(*artifact.Artifact) (string, error)

	state    State
	mode     Mode
	jd       *artifact.Artifact
	resumes  []*artifact.Artifact
	single   *remote.Evaluation
	bulk     []remote.RankedResult
	feedback string

	// generation changes on every command that invalidates an in-flight request.
	generation uint64
}

func New(r Remote, notifier prompt.Notifier, log *zap.Logger) *Workflow {
	return &Workflow{
		remote:   r,
		notifier: notifier,
		logger:   logger.WithWorkflow(log, workflowName),
		extract:  (*artifact.Artifact).Text,
		state:    StateIdle,
		mode:     ModeSingle,
	}
}

// SetMode switches between single and bulk before submission. Switching drops
// the selection. While a submission is in flight it returns ErrModeLocked and
// while results are shown ErrResultsShown.
func (w *Workflow) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateSubmitting:
		return ErrModeLocked
	case StateResultsSingle, StateResultsBulk:
		return ErrResultsShown
	}

	w.mode = mode
	w.resetLocked()
	w.logger.Debug("mode switched", zap.String(logger.FieldMode, string(mode)))
	return nil
}

// SelectJobDescription replaces the job description artifact.
func (w *Workflow) SelectJobDescription(jd *artifact.Artifact) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.selectableLocked(); err != nil {
		return err
	}

	w.jd = jd
	return nil
}

// SelectResumes replaces the resume selection. In single mode only the first
// resume is ever submitted.
func (w *Workflow) SelectResumes(resumes []*artifact.Artifact) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.selectableLocked(); err != nil {
		return err
	}

	w.resumes = slices.Clone(resumes)
	return nil
}

func (w *Workflow) selectableLocked() error {
	switch w.state {
	case StateResultsSingle, StateResultsBulk:
		return ErrResultsShown
	case StateSubmitting:
		// The in-flight result no longer matches the selection.
		w.generation++
		w.state = StateIdle
		w.logger.Debug("selection changed during submission, pending result will be dropped")
	}
	return nil
}

// CanSubmit reports whether Submit would issue a request.
func (w *Workflow) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canSubmitLocked()
}

func (w *Workflow) canSubmitLocked() bool {
	return w.state == StateIdle && w.jd != nil && len(w.resumes) > 0
}

// Submit sends the selection for analysis. It is a no-op when the selection
// is incomplete or the workflow is not idle. On failure the workflow returns
// to idle with the selection kept and the user is notified.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if !w.canSubmitLocked() {
		state := w.state
		w.mu.Unlock()
		w.logger.Debug("submit ignored", zap.String(logger.FieldState, string(state)))
		return nil
	}

	w.state = StateSubmitting
	w.single, w.bulk, w.feedback = nil, nil, ""
	w.generation++
	gen := w.generation
	mode := w.mode
	jd := w.jd
	resumes := slices.Clone(w.resumes)
	w.mu.Unlock()

	log := w.logger.With(
		zap.String(logger.FieldMode, string(mode)),
		zap.String("job_description", jd.Name()),
		zap.Strings("resumes", artifact.Names(resumes)),
	)
	log.Info("submitting analysis")

	var (
		single *remote.Evaluation
		bulk   []remote.RankedResult
		err    error
	)
	if mode == ModeBulk {
		files := make([]remote.File, 0, len(resumes))
		for _, r := range resumes {
			files = append(files, r)
		}
		bulk, err = w.remote.AnalyzeBulk(ctx, jd, files)
	} else {
		single, err = w.remote.Evaluate(ctx, jd, resumes[0])
	}

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		log.Debug("dropping stale analysis response")
		return nil
	}

	if err != nil {
		w.state = StateIdle
		w.mu.Unlock()

		log.Warn("analysis failed", zap.Error(err))
		w.notify(fmt.Sprintf("%s: %s", analysisFailedMessage, remote.Detail(err, "check logs for details")))
		return fmt.Errorf("analysis: %w", err)
	}

	if mode == ModeBulk {
		w.state = StateResultsBulk
		w.bulk = bulk
	} else {
		w.state = StateResultsSingle
		w.single = single
	}
	state := w.state
	w.mu.Unlock()

	log.Info("analysis completed", zap.String(logger.FieldState, string(state)))
	return nil
}

// RequestFeedback asks the service for written advice on the single result.
// The text of both documents is extracted locally.
func (w *Workflow) RequestFeedback(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.state != StateResultsSingle || w.single == nil {
		w.mu.Unlock()
		return "", ErrNoSingleResult
	}
	gen := w.generation
	jd := w.jd
	resume := w.resumes[0]
	result := w.single
	w.mu.Unlock()

	jdText, err := w.extract(jd)
	if err != nil {
		return "", err
	}
	resumeText, err := w.extract(resume)
	if err != nil {
		return "", err
	}

	w.logger.Debug("requesting feedback",
		zap.String("job_description", utils.Preview(jdText, maxLogLength)),
		zap.Int("resume_length", len(resumeText)),
	)

	feedback, err := w.remote.Feedback(ctx, remote.FeedbackRequest{
		JDText:         jdText,
		ResumeText:     resumeText,
		FoundSkills:    result.FoundSkills,
		RequiredSkills: result.IdentifiedSkills,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.logger.Debug("dropping stale feedback response")
		return "", nil
	}

	if err != nil {
		w.logger.Warn("feedback failed", zap.Error(err))
		return "", fmt.Errorf("%s: %s: %w", feedbackFailedMessage, remote.Detail(err, "unknown error"), err)
	}

	w.feedback = feedback
	return feedback, nil
}

// Reset returns to idle and forgets the selection and the results.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *Workflow) resetLocked() {
	w.jd = nil
	w.resumes = nil
	w.single = nil
	w.bulk = nil
	w.feedback = ""
	w.state = StateIdle
	w.generation++
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		State:    w.state,
		Mode:     w.mode,
		Resumes:  artifact.Names(w.resumes),
		Single:   w.single,
		Bulk:     slices.Clone(w.bulk),
		Feedback: w.feedback,
	}
	if w.jd != nil {
		s.JobDescription = w.jd.Name()
	}
	return s
}

func (w *Workflow) notify(message string) {
	if w.notifier != nil {
		w.notifier.Notify(message)
	}
}
