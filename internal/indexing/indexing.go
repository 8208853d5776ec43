package indexing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/remote"
)

const workflowName = "index"

// ErrBusy is returned when Run is called while another run is active.
var ErrBusy = errors.New("an indexing run is already in progress")

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome is the per-file result of a run.
type Outcome struct {
	Status Status
	Detail string
}

// Outcomes maps a filename to its outcome. Files that were not reached yet are absent.
type Outcomes map[string]Outcome

// StatusOf reports the status of a file; files not attempted yet are pending.
func (o Outcomes) StatusOf(name string) Status {
	if outcome, ok := o[name]; ok {
		return outcome.Status
	}
	return StatusPending
}

// Summary counts the outcomes of a finished run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

func (o Outcomes) Summary() Summary {
	s := Summary{Total: len(o)}
	for _, outcome := range o {
		switch outcome.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusError:
			s.Failed++
		}
	}
	return s
}

// Remote is the part of the analysis service used for indexing.
type Remote interface {
	IndexResume(ctx context.Context, file remote.File) error
}

// Workflow uploads a batch of resumes one at a time and tracks each outcome.
type Workflow struct {
	mu     sync.Mutex
	remote Remote
	logger *zap.Logger

	batch      []*artifact.Artifact
	outcomes   Outcomes
	running    bool
	generation uint64
}

func New(r Remote, log *zap.Logger) *Workflow {
	return &Workflow{
		remote:   r,
		logger:   logger.WithWorkflow(log, workflowName),
		outcomes: Outcomes{},
	}
}

// Select replaces the batch and forgets the outcomes of any previous run.
// A run that is still in flight stops after its current upload.
func (w *Workflow) Select(batch []*artifact.Artifact) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append([]*artifact.Artifact(nil), batch...)
	w.outcomes = Outcomes{}
	w.generation++
}

// Run uploads the batch in selection order. A failing file does not stop the
// run. After every upload a copy of the outcomes is passed to progress.
func (w *Workflow) Run(ctx context.Context, progress func(Outcomes)) (Summary, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return Summary{}, ErrBusy
	}
	w.running = true
	w.outcomes = Outcomes{}
	w.generation++
	gen := w.generation
	batch := w.batch
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.logger.Info("indexing started", zap.Strings("files", artifact.Names(batch)))

	for _, file := range batch {
		if err := ctx.Err(); err != nil {
			return w.Outcomes().Summary(), fmt.Errorf("indexing interrupted: %w", err)
		}
		w.mu.Lock()
		stale := gen != w.generation
		w.mu.Unlock()
		if stale {
			return Summary{}, nil
		}

		log := w.logger.With(zap.String(logger.FieldFilename, file.Name()))
		outcome := Outcome{Status: StatusSuccess}
		if err := w.remote.IndexResume(ctx, file); err != nil {
			outcome = Outcome{Status: StatusError, Detail: remote.Detail(err, "upload failed")}
			log.Warn("indexing failed", zap.Error(err))
		} else {
			log.Debug("indexed")
		}

		w.mu.Lock()
		if gen != w.generation {
			w.mu.Unlock()
			w.logger.Debug("batch replaced during run, dropping outcome")
			return Summary{}, nil
		}
		w.outcomes[file.Name()] = outcome
		snapshot := maps.Clone(w.outcomes)
		w.mu.Unlock()

		if progress != nil {
			progress(snapshot)
		}
	}

	summary := w.Outcomes().Summary()
	w.logger.Info("indexing finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Outcomes returns a copy of the current outcomes.
func (w *Workflow) Outcomes() Outcomes {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.outcomes)
}

// Failures returns the filename and detail of every failed upload.
func (o Outcomes) Failures() map[string]string {
	failed := make(map[string]string)
	for name, outcome := range o {
		if outcome.Status == StatusError {
			failed[name] = outcome.Detail
		}
	}
	return failed
}
