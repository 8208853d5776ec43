package analyzer

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/prompt"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/remote/remotetest"
)

func newWorkflow(t *testing.T, srv *remotetest.Server) (*Workflow, *[]string) {
	t.Helper()

	client := remote.New(nil, zap.NewNop())
	client.BaseURL = srv.URL

	var notices []string
	notifier := prompt.NotifyFunc(func(message string) { notices = append(notices, message) })

	return New(client, notifier, zap.NewNop()), &notices
}

func mustArtifacts(t *testing.T, names ...string) []*artifact.Artifact {
	t.Helper()
	out := make([]*artifact.Artifact, 0, len(names))
	for _, name := range names {
		a, err := artifact.FromBytes(name, []byte("content of "+name))
		if err != nil {
			t.Fatalf("artifact %s: %v", name, err)
		}
		out = append(out, a)
	}
	return out
}

func selectAll(t *testing.T, w *Workflow, jd string, resumes ...string) {
	t.Helper()
	if err := w.SelectJobDescription(mustArtifacts(t, jd)[0]); err != nil {
		t.Fatalf("select jd: %v", err)
	}
	if err := w.SelectResumes(mustArtifacts(t, resumes...)); err != nil {
		t.Fatalf("select resumes: %v", err)
	}
}

func TestSingleModeSendsFirstResumeOnly(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()

	w, _ := newWorkflow(t, srv)
	selectAll(t, w, "jd.pdf", "a.pdf", "b.pdf")

	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	requests := srv.RequestsTo(http.MethodPost, "/evaluate/")
	if len(requests) != 1 {
		t.Fatalf("expected one evaluate request, got %d", len(requests))
	}
	if got := requests[0].Files["resume_file"]; !slices.Equal(got, []string{"a.pdf"}) {
		t.Fatalf("expected only a.pdf, got %v", got)
	}
	if got := requests[0].Files["jd_file"]; !slices.Equal(got, []string{"jd.pdf"}) {
		t.Fatalf("expected jd.pdf, got %v", got)
	}

	snap := w.Snapshot()
	if snap.State != StateResultsSingle {
		t.Fatalf("expected %s, got %s", StateResultsSingle, snap.State)
	}
	if snap.Single == nil || snap.Single.Scores.FinalRelevanceScore != 75.25 {
		t.Fatalf("unexpected single result: %+v", snap.Single)
	}
	if snap.Single.Scores.Verdict != "Medium" {
		t.Fatalf("unexpected verdict %q", snap.Single.Scores.Verdict)
	}
}

func TestBulkModeSendsEveryResume(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()

	w, _ := newWorkflow(t, srv)
	if err := w.SetMode(ModeBulk); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	selectAll(t, w, "jd.docx", "a.pdf", "b.pdf")

	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	requests := srv.RequestsTo(http.MethodPost, "/analyze-bulk/")
	if len(requests) != 1 {
		t.Fatalf("expected one bulk request, got %d", len(requests))
	}
	if got := requests[0].Files["resume_files"]; !slices.Equal(got, []string{"a.pdf", "b.pdf"}) {
		t.Fatalf("expected both resumes, got %v", got)
	}

	snap := w.Snapshot()
	if snap.State != StateResultsBulk {
		t.Fatalf("expected %s, got %s", StateResultsBulk, snap.State)
	}
	if len(snap.Bulk) != 2 || snap.Bulk[0].ResumeFilename != "b.pdf" {
		t.Fatalf("expected server order to be kept, got %+v", snap.Bulk)
	}
}

func TestSubmitWithoutJobDescriptionDoesNothing(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()

	w, _ := newWorkflow(t, srv)
	if err := w.SelectResumes(mustArtifacts(t, "a.pdf")); err != nil {
		t.Fatalf("select resumes: %v", err)
	}

	if w.CanSubmit() {
		t.Fatal("submit must not be possible without a job description")
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
	if got := w.State(); got != StateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestFailedSubmitKeepsSelection(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()
	srv.Fail(http.MethodPost, "/evaluate/", http.StatusInternalServerError, "model offline")

	w, notices := newWorkflow(t, srv)
	selectAll(t, w, "jd.pdf", "a.pdf")

	err := w.Submit(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected wrapped api error, got %v", err)
	}

	snap := w.Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}
	if snap.JobDescription != "jd.pdf" || !slices.Equal(snap.Resumes, []string{"a.pdf"}) {
		t.Fatalf("selection lost: %+v", snap)
	}
	if !w.CanSubmit() {
		t.Fatal("retry should be possible")
	}
	if len(*notices) != 1 || (*notices)[0] != "Analysis failed: model offline" {
		t.Fatalf("unexpected notices: %v", *notices)
	}
}

func TestResetDropsLateResponse(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()
	gate := srv.Hold(http.MethodPost, "/evaluate/")

	w, _ := newWorkflow(t, srv)
	selectAll(t, w, "jd.pdf", "a.pdf")

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()

	<-gate.Arrived()
	if got := w.State(); got != StateSubmitting {
		t.Fatalf("expected submitting, got %s", got)
	}

	w.Reset()
	gate.Release()

	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := w.Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected idle after reset, got %s", snap.State)
	}
	if snap.Single != nil || snap.JobDescription != "" || len(snap.Resumes) != 0 {
		t.Fatalf("late response leaked into state: %+v", snap)
	}
}

func TestModeSwitchRules(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()
	gate := srv.Hold(http.MethodPost, "/evaluate/")

	w, _ := newWorkflow(t, srv)
	selectAll(t, w, "jd.pdf", "a.pdf")

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()
	<-gate.Arrived()

	if err := w.SetMode(ModeBulk); !errors.Is(err, ErrModeLocked) {
		t.Fatalf("expected ErrModeLocked, got %v", err)
	}

	gate.Release()
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := w.SelectResumes(mustArtifacts(t, "b.pdf")); !errors.Is(err, ErrResultsShown) {
		t.Fatalf("expected ErrResultsShown, got %v", err)
	}

	if err := w.SetMode(ModeBulk); !errors.Is(err, ErrResultsShown) {
		t.Fatalf("expected ErrResultsShown from results, got %v", err)
	}
	if got := w.State(); got != StateResultsSingle {
		t.Fatalf("refused switch must keep results, got %s", got)
	}

	w.Reset()
	selectAll(t, w, "jd.pdf", "a.pdf")
	if err := w.SetMode(ModeBulk); err != nil {
		t.Fatalf("set mode from idle: %v", err)
	}
	snap := w.Snapshot()
	if snap.State != StateIdle || snap.Mode != ModeBulk || snap.JobDescription != "" {
		t.Fatalf("mode switch should reset the workflow: %+v", snap)
	}

	if err := w.SetMode(Mode("triple")); err == nil {
		t.Fatal("expected unknown mode error")
	}
}

func TestRequestFeedback(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()

	w, _ := newWorkflow(t, srv)
	w.extract = func(a *artifact.Artifact) (string, error) { return "text of " + a.Name(), nil }

	if _, err := w.RequestFeedback(context.Background()); !errors.Is(err, ErrNoSingleResult) {
		t.Fatalf("expected ErrNoSingleResult, got %v", err)
	}

	selectAll(t, w, "jd.pdf", "a.pdf")
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	feedback, err := w.RequestFeedback(context.Background())
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if feedback != "Add measurable outcomes." {
		t.Fatalf("unexpected feedback %q", feedback)
	}

	requests := srv.RequestsTo(http.MethodPost, "/feedback/")
	if len(requests) != 1 {
		t.Fatalf("expected one feedback request, got %d", len(requests))
	}
	body := requests[0].JSON
	if body["jd_text"] != "text of jd.pdf" || body["resume_text"] != "text of a.pdf" {
		t.Fatalf("unexpected feedback payload: %v", body)
	}
	if got := w.Snapshot().Feedback; got != feedback {
		t.Fatalf("feedback not kept in snapshot: %q", got)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "single", want: ModeSingle},
		{in: "bulk", want: ModeBulk},
		{in: "", wantErr: true},
		{in: "Bulk", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
