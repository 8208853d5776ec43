package search

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/remote"
)

const (
	workflowName = "search"

	NoKeywordsMessage = "Please enter at least one keyword."
	FailedMessage     = "An error occurred during the search."
)

// ErrNoKeywords is returned before any request when the input has no keywords.
var ErrNoKeywords = errors.New("no keywords given")

type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateError     State = "error"
)

// Normalize splits raw input on commas and drops blank segments. Order and
// duplicates are kept.
func Normalize(raw string) []string {
	keywords := []string{}
	for _, segment := range strings.Split(raw, ",") {
		if keyword := strings.TrimSpace(segment); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

type Remote interface {
	KeywordSearch(ctx context.Context, keywords []string) ([]remote.Match, error)
}

type Snapshot struct {
	State    State
	Keywords []string
	Matches  []remote.Match
	Message  string
}

// Workflow runs keyword searches against the indexed resumes.
type Workflow struct {
	mu     sync.Mutex
	remote Remote
	logger *zap.Logger

	state      State
	keywords   []string
	matches    []remote.Match
	message    string
	generation uint64
}

func New(r Remote, log *zap.Logger) *Workflow {
	return &Workflow{
		remote: r,
		logger: logger.WithWorkflow(log, workflowName),
		state:  StateIdle,
	}
}

// Search normalizes raw and, when any keyword is left, replaces the shown
// matches with the service ranking. On failure the matches are cleared and
// the message carries the service detail.
func (w *Workflow) Search(ctx context.Context, raw string) ([]remote.Match, error) {
	keywords := Normalize(raw)

	w.mu.Lock()
	if len(keywords) == 0 {
		w.state = StateError
		w.message = NoKeywordsMessage
		w.mu.Unlock()
		return nil, ErrNoKeywords
	}

	w.generation++
	gen := w.generation
	w.state = StateSearching
	w.keywords = keywords
	w.message = ""
	w.mu.Unlock()

	log := w.logger.With(zap.Strings("keywords", keywords))
	log.Debug("searching")

	matches, err := w.remote.KeywordSearch(ctx, keywords)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		log.Debug("dropping stale search response")
		return nil, nil
	}

	if err != nil {
		w.state = StateError
		w.matches = nil
		w.message = remote.Detail(err, FailedMessage)
		log.Warn("search failed", zap.Error(err))
		return nil, err
	}

	w.state = StateResults
	w.matches = matches
	log.Info("search completed", zap.Int("matches", len(matches)))
	return slices.Clone(matches), nil
}

// Reset clears the query and results. A search still in flight is ignored when it returns.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.generation++
	w.state = StateIdle
	w.keywords = nil
	w.matches = nil
	w.message = ""
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Snapshot{
		State:    w.state,
		Keywords: slices.Clone(w.keywords),
		Matches:  slices.Clone(w.matches),
		Message:  w.message,
	}
}
