package remote_test

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/remote/remotetest"
	"github.com/spigell/resume-analyzer/internal/session"
)

type staticCredential string

func (s staticCredential) Credential() string { return string(s) }

func newClient(t *testing.T, srv *remotetest.Server, credentials remote.CredentialSource) *remote.Client {
	t.Helper()
	c := remote.New(credentials, zap.NewNop())
	c.BaseURL = srv.URL
	return c
}

func mustArtifact(t *testing.T, name string) *artifact.Artifact {
	t.Helper()
	a, err := artifact.FromBytes(name, []byte("content of "+name))
	if err != nil {
		t.Fatalf("artifact %s: %v", name, err)
	}
	return a
}

func TestAuthorizationHeader(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	ctx := context.Background()

	if _, err := newClient(t, srv, staticCredential("T1")).ListJobs(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := newClient(t, srv, staticCredential("")).ListJobs(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := newClient(t, srv, nil).ListJobs(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requests := srv.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(requests))
	}

	if got := requests[0].Header.Get("Authorization"); got != "Bearer T1" {
		t.Fatalf("expected bearer header, got %q", got)
	}
	for _, r := range requests[1:] {
		if _, ok := r.Header["Authorization"]; ok {
			t.Fatalf("expected no authorization header, got %q", r.Header.Get("Authorization"))
		}
	}
	if requests[0].Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id")
	}
}

func TestLogoutDropsAuthorizationOnNextCall(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	store, err := session.New(session.NewMemoryBackend(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := newClient(t, srv, store)
	ctx := context.Background()

	if err := store.Establish("T1", "alice"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if _, err := client.ListUsers(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := client.ListJobs(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requests := srv.Requests()
	if got := requests[0].Header.Get("Authorization"); got != "Bearer T1" {
		t.Fatalf("expected bearer header before logout, got %q", got)
	}
	if _, ok := requests[1].Header["Authorization"]; ok {
		t.Fatalf("expected no authorization header after logout")
	}
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	srv.Fail(http.MethodDelete, "/users/bob", http.StatusBadRequest, "Cannot delete bob")
	srv.Fail(http.MethodGet, "/users/", http.StatusInternalServerError, "")

	client := newClient(t, srv, staticCredential("T1"))
	ctx := context.Background()

	err := client.DeleteUser(ctx, "bob")
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if got := remote.Detail(err, "fallback"); got != "Cannot delete bob" {
		t.Fatalf("unexpected detail %q", got)
	}

	_, err = client.ListUsers(ctx)
	if got := remote.Detail(err, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback detail, got %q", got)
	}

	if got := remote.Detail(errors.New("dial tcp: refused"), "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for transport error, got %q", got)
	}
}

func TestUnauthorized(t *testing.T) {
	srv := remotetest.New()
	srv.RequireAuth()
	defer srv.Close()

	_, err := newClient(t, srv, staticCredential("")).Analytics(context.Background())
	if !remote.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if got := remote.Detail(err, ""); got != "Not authenticated" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestAuthenticate(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	client := newClient(t, srv, nil)
	ctx := context.Background()

	token, err := client.Authenticate(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != remotetest.DefaultToken || token.Username != "alice" {
		t.Fatalf("unexpected token %+v", token)
	}

	login := srv.RequestsTo(http.MethodPost, "/token")[0]
	if login.Form.Get("username") != "alice" || login.Form.Get("password") != "secret" {
		t.Fatalf("expected form-encoded credentials, got %v", login.Form)
	}

	_, err = client.Authenticate(ctx, "alice", "wrong")
	if got := remote.Detail(err, ""); got != "Incorrect username or password" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestEvaluateDecodesStringScores(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	client := newClient(t, srv, staticCredential("T1"))
	evaluation, err := client.Evaluate(context.Background(), mustArtifact(t, "jd.pdf"), mustArtifact(t, "a.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evaluation.Scores.HardMatchPercent != 80 || evaluation.Scores.SemanticFitPercent != 70.5 {
		t.Fatalf("unexpected scores %+v", evaluation.Scores)
	}
	if evaluation.Scores.FinalRelevanceScore != 75.25 || evaluation.Scores.Verdict != "Medium" {
		t.Fatalf("unexpected final score %+v", evaluation.Scores)
	}
	if !slices.Equal(evaluation.FoundSkills, []string{"Go", "Docker"}) {
		t.Fatalf("unexpected found skills %v", evaluation.FoundSkills)
	}

	req := srv.RequestsTo(http.MethodPost, "/evaluate/")[0]
	if !slices.Equal(req.Files["jd_file"], []string{"jd.pdf"}) || !slices.Equal(req.Files["resume_file"], []string{"a.pdf"}) {
		t.Fatalf("unexpected multipart files %v", req.Files)
	}
}

func TestAnalyzeBulkSendsRepeatedField(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	client := newClient(t, srv, staticCredential("T1"))
	results, err := client.AnalyzeBulk(context.Background(), mustArtifact(t, "jd.pdf"),
		[]remote.File{mustArtifact(t, "a.pdf"), mustArtifact(t, "b.pdf")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 || results[0].ResumeFilename != "b.pdf" || results[1].FinalScore != 42 {
		t.Fatalf("unexpected results %+v", results)
	}

	req := srv.RequestsTo(http.MethodPost, "/analyze-bulk/")[0]
	if !slices.Equal(req.Files["resume_files"], []string{"a.pdf", "b.pdf"}) {
		t.Fatalf("unexpected resume files %v", req.Files["resume_files"])
	}
}

func TestJobPathsAreEscaped(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	client := newClient(t, srv, staticCredential("T1"))
	ctx := context.Background()

	results, err := client.ResultsForJob(ctx, "Backend Engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].ResumeFilename != "a.pdf" || results[0].FinalScore != 91.5 {
		t.Fatalf("unexpected results %+v", results)
	}

	if err := client.ClearJobHistory(ctx, "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(srv.RequestsTo(http.MethodDelete, "/history/clear/Backend Engineer")) != 1 {
		t.Fatalf("expected a clear request for the job, got %+v", srv.Requests())
	}

	jobs, err := client.ListJobs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(jobs, []string{"Data Scientist"}) {
		t.Fatalf("unexpected jobs %v", jobs)
	}
}

func TestKeywordSearch(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()

	matches, err := newClient(t, srv, nil).KeywordSearch(context.Background(), []string{"Python", "React"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 || matches[0].Score != 61.2 {
		t.Fatalf("unexpected matches %+v", matches)
	}

	req := srv.RequestsTo(http.MethodPost, "/keyword-search/")[0]
	keywords, _ := req.JSON["keywords"].([]any)
	if len(keywords) != 2 || keywords[0] != "Python" || keywords[1] != "React" {
		t.Fatalf("unexpected keywords payload %v", req.JSON)
	}
}
