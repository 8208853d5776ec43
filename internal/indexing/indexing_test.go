package indexing

import (
	"context"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/remote/remotetest"
)

func newWorkflow(t *testing.T, srv *remotetest.Server) *Workflow {
	t.Helper()
	client := remote.New(nil, zap.NewNop())
	client.BaseURL = srv.URL
	return New(client, zap.NewNop())
}

func batch(t *testing.T, names ...string) []*artifact.Artifact {
	t.Helper()
	out := make([]*artifact.Artifact, 0, len(names))
	for _, name := range names {
		a, err := artifact.FromBytes(name, []byte(name))
		if err != nil {
			t.Fatalf("artifact %s: %v", name, err)
		}
		out = append(out, a)
	}
	return out
}

func TestRunReportsProgressPerFile(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()
	srv.FailUpload("two.pdf", http.StatusBadRequest, "Could not extract text")

	w := newWorkflow(t, srv)
	w.Select(batch(t, "one.pdf", "two.pdf", "three.docx"))

	var seen []Outcomes
	summary, err := w.Run(context.Background(), func(o Outcomes) { seen = append(seen, o) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("expected 3 progress updates, got %d", len(seen))
	}
	for i, o := range seen {
		if len(o) != i+1 {
			t.Fatalf("update %d: expected %d entries, got %d", i, i+1, len(o))
		}
	}
	if got := seen[0].StatusOf("two.pdf"); got != StatusPending {
		t.Fatalf("expected two.pdf pending after first update, got %s", got)
	}

	if summary != (Summary{Total: 3, Succeeded: 2, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	final := w.Outcomes()
	if final["two.pdf"].Status != StatusError || final["two.pdf"].Detail != "Could not extract text" {
		t.Fatalf("unexpected outcome for two.pdf: %+v", final["two.pdf"])
	}
	failures := final.Failures()
	if len(failures) != 1 || failures["two.pdf"] == "" {
		t.Fatalf("unexpected failures %v", failures)
	}

	if n := len(srv.RequestsTo(http.MethodPost, "/index/")); n != 3 {
		t.Fatalf("expected each file attempted once, got %d requests", n)
	}
}

func TestSelectDiscardsOutcomes(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()

	w := newWorkflow(t, srv)
	w.Select(batch(t, "one.pdf"))
	if _, err := w.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(w.Outcomes()) != 1 {
		t.Fatal("expected one outcome")
	}

	w.Select(batch(t, "two.pdf"))
	if n := len(w.Outcomes()); n != 0 {
		t.Fatalf("expected outcomes to be discarded, got %d", n)
	}
}

func TestReselectDuringRunDropsLateOutcome(t *testing.T) {
	t.Parallel()

	srv := remotetest.New()
	defer srv.Close()
	gate := srv.Hold(http.MethodPost, "/index/")

	w := newWorkflow(t, srv)
	w.Select(batch(t, "one.pdf", "two.pdf"))

	done := make(chan error, 1)
	go func() {
		_, err := w.Run(context.Background(), nil)
		done <- err
	}()

	<-gate.Arrived()
	w.Select(batch(t, "other.pdf"))
	gate.Release()

	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(w.Outcomes()); n != 0 {
		t.Fatalf("late outcome leaked into the new batch: %v", w.Outcomes())
	}
	if n := len(srv.RequestsTo(http.MethodPost, "/index/")); n != 1 {
		t.Fatalf("expected the abandoned run to stop, got %d uploads", n)
	}
}
