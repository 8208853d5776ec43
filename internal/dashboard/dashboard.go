package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/prompt"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/session"
)

const (
	workflowName = "admin"

	LoadFailedMessage     = "Failed to load admin data. Please try logging in again."
	unknownErrorMessage   = "Unknown error"
	emptyAccountMessage   = "Username and password cannot be empty."
	registerFailedMessage = "Registration failed."
)

var (
	// ErrNotLoaded is returned by operations that need a loaded dashboard.
	ErrNotLoaded = errors.New("admin dashboard is not loaded")
	// ErrCancelled is returned when the user declines a destructive operation.
	ErrCancelled = errors.New("operation cancelled")
	// ErrEmptyAccount is returned when a new account lacks a username or password.
	ErrEmptyAccount = errors.New("username and password are required")
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Remote is the part of the analysis service the dashboard talks to.
type Remote interface {
	Analytics(ctx context.Context) (*remote.Analytics, error)
	ListUsers(ctx context.Context) ([]remote.User, error)
	ListResumes(ctx context.Context) ([]string, error)
	ListJobs(ctx context.Context) ([]string, error)
	ResultsForJob(ctx context.Context, job string) ([]remote.HistoricalResult, error)
	DeleteUser(ctx context.Context, username string) error
	DeleteResume(ctx context.Context, filename string) error
	ClearJobHistory(ctx context.Context, job string) error
	ClearHistory(ctx context.Context) error
	Register(ctx context.Context, username, password string) (string, error)
}

// Snapshot is a copy of the dashboard view state.
type Snapshot struct {
	State       State
	Message     string
	Analytics   remote.Analytics
	Users       []remote.User
	Resumes     []string
	Jobs        []string
	SelectedJob string
	Results     []remote.HistoricalResult
}

// Dashboard holds the admin view: four collections loaded together plus an
// optional drill-down into one job's history.
type Dashboard struct {
	mu          sync.Mutex
	remote      Remote
	credentials remote.CredentialSource
	notifier    prompt.Notifier
	confirmer   prompt.Confirmer
	logger      *zap.Logger

	state     State
	message   string
	analytics remote.Analytics
	users     []remote.User
	resumes   []string
	jobs      []string

	selectedJob string
	results     []remote.HistoricalResult

	loadGeneration   uint64
	selectGeneration uint64
}

func New(r Remote, credentials remote.CredentialSource, notifier prompt.Notifier, confirmer prompt.Confirmer, log *zap.Logger) *Dashboard {
	return &Dashboard{
		remote:      r,
		credentials: credentials,
		notifier:    notifier,
		confirmer:   confirmer,
		logger:      logger.WithWorkflow(log, workflowName),
		state:       StateIdle,
	}
}

// Load fetches analytics, users, resumes and jobs concurrently. Either all
// four are shown or none: the first failure puts the dashboard in the error
// state with a generic message.
func (d *Dashboard) Load(ctx context.Context) error {
	if d.credentials == nil || d.credentials.Credential() == "" {
		d.mu.Lock()
		d.state = StateError
		d.message = LoadFailedMessage
		d.mu.Unlock()
		return session.ErrNoSession
	}

	d.mu.Lock()
	d.loadGeneration++
	gen := d.loadGeneration
	d.state = StateLoading
	d.message = ""
	d.mu.Unlock()

	var (
		analytics *remote.Analytics
		users     []remote.User
		resumes   []string
		jobs      []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		analytics, err = d.remote.Analytics(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = d.remote.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		resumes, err = d.remote.ListResumes(gctx)
		return err
	})
	g.Go(func() (err error) {
		jobs, err = d.remote.ListJobs(gctx)
		return err
	})
	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.loadGeneration {
		d.logger.Debug("dropping stale dashboard load")
		return nil
	}

	if err != nil {
		d.state = StateError
		d.message = LoadFailedMessage
		d.analytics = remote.Analytics{}
		d.users, d.resumes, d.jobs = nil, nil, nil
		d.clearSelectionLocked()
		d.logger.Warn("loading admin data failed", zap.Error(err))
		return fmt.Errorf("loading admin data: %w", err)
	}

	d.state = StateReady
	if analytics != nil {
		d.analytics = *analytics
	}
	d.users = users
	d.resumes = resumes
	d.jobs = jobs

	if d.selectedJob != "" && !slices.Contains(jobs, d.selectedJob) {
		d.logger.Debug("selected job is gone, clearing drill-down", zap.String(logger.FieldJob, d.selectedJob))
		d.clearSelectionLocked()
	}

	d.logger.Info("admin data loaded",
		zap.Int("users", len(users)),
		zap.Int("resumes", len(resumes)),
		zap.Int("jobs", len(jobs)),
	)
	return nil
}

// SelectJob replaces the drill-down with the historical results of job.
// If the fetch fails the result set is left empty.
func (d *Dashboard) SelectJob(ctx context.Context, job string) error {
	d.mu.Lock()
	if d.state != StateReady {
		d.mu.Unlock()
		return ErrNotLoaded
	}
	d.selectGeneration++
	gen := d.selectGeneration
	d.selectedJob = job
	d.results = nil
	d.mu.Unlock()

	log := d.logger.With(zap.String(logger.FieldJob, job))
	results, err := d.remote.ResultsForJob(ctx, job)

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.selectGeneration {
		log.Debug("dropping stale job results")
		return nil
	}

	if err != nil {
		d.results = []remote.HistoricalResult{}
		log.Warn("fetching job results failed", zap.Error(err))
		return fmt.Errorf("fetching results for %q: %w", job, err)
	}

	d.results = results
	log.Debug("job results loaded", zap.Int("results", len(results)))
	return nil
}

// ClearSelection drops the drill-down without a request.
func (d *Dashboard) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSelectionLocked()
}

func (d *Dashboard) clearSelectionLocked() {
	d.selectGeneration++
	d.selectedJob = ""
	d.results = nil
}

func (d *Dashboard) DeleteUser(ctx context.Context, username string) error {
	return d.mutate(ctx, mutation{
		confirm: fmt.Sprintf("Are you sure you want to delete user: %s?", username),
		failure: "Failed to delete user: %s",
		fields:  []zap.Field{zap.String(logger.FieldIdentity, username)},
		run:     func(ctx context.Context) error { return d.remote.DeleteUser(ctx, username) },
	})
}

func (d *Dashboard) DeleteResume(ctx context.Context, filename string) error {
	return d.mutate(ctx, mutation{
		confirm: fmt.Sprintf("Are you sure you want to delete resume: %s?", filename),
		failure: "Failed to delete resume: %s",
		fields:  []zap.Field{zap.String(logger.FieldFilename, filename)},
		run:     func(ctx context.Context) error { return d.remote.DeleteResume(ctx, filename) },
	})
}

// ClearJobHistory removes every stored result for job.
func (d *Dashboard) ClearJobHistory(ctx context.Context, job string) error {
	return d.mutate(ctx, mutation{
		confirm: fmt.Sprintf("Are you sure you want to delete all history for '%s'? This action cannot be undone.", job),
		failure: "Failed to clear history: %s",
		success: fmt.Sprintf("History for '%s' has been deleted.", job),
		fields:  []zap.Field{zap.String(logger.FieldJob, job)},
		run:     func(ctx context.Context) error { return d.remote.ClearJobHistory(ctx, job) },
	})
}

// ClearAllHistory removes the stored results of every job.
func (d *Dashboard) ClearAllHistory(ctx context.Context) error {
	return d.mutate(ctx, mutation{
		confirm: "Are you sure you want to delete the history of every job? This action cannot be undone.",
		failure: "Failed to clear history: %s",
		success: "All analysis history has been deleted.",
		run:     d.remote.ClearHistory,
	})
}

type mutation struct {
	confirm string
	// failure is a format with one verb for the remote detail.
	failure string
	success string
	fields  []zap.Field
	run     func(ctx context.Context) error
}

// mutate runs one confirmed destructive request and reloads the whole
// dashboard after it. A failed request leaves the shown state as it was.
func (d *Dashboard) mutate(ctx context.Context, m mutation) error {
	if d.State() != StateReady {
		return ErrNotLoaded
	}

	if d.confirmer == nil || !d.confirmer.Confirm(m.confirm) {
		return ErrCancelled
	}

	log := d.logger.With(m.fields...)
	if err := m.run(ctx); err != nil {
		log.Warn("admin operation failed", zap.Error(err))
		d.notify(fmt.Sprintf(m.failure, remote.Detail(err, unknownErrorMessage)))
		return err
	}
	log.Info("admin operation completed")

	if m.success != "" {
		d.notify(m.success)
	}

	return d.Load(ctx)
}

// Register creates a new account and reloads the dashboard.
func (d *Dashboard) Register(ctx context.Context, username, password string) (string, error) {
	if d.State() != StateReady {
		return "", ErrNotLoaded
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		d.notify(emptyAccountMessage)
		return "", ErrEmptyAccount
	}

	log := d.logger.With(zap.String(logger.FieldIdentity, username))
	message, err := d.remote.Register(ctx, username, password)
	if err != nil {
		log.Warn("registration failed", zap.Error(err))
		d.notify(remote.Detail(err, registerFailedMessage))
		return "", err
	}
	log.Info("user registered")
	d.notify(message)

	return message, d.Load(ctx)
}

func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		State:       d.state,
		Message:     d.message,
		Analytics:   d.analytics,
		Users:       slices.Clone(d.users),
		Resumes:     slices.Clone(d.resumes),
		Jobs:        slices.Clone(d.jobs),
		SelectedJob: d.selectedJob,
		Results:     slices.Clone(d.results),
	}
}

func (d *Dashboard) notify(message string) {
	if d.notifier != nil && message != "" {
		d.notifier.Notify(message)
	}
}
