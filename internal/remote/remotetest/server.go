// Package remotetest runs an in-process stand-in for the analysis service.
// It keeps a small mutable state (users, resumes, jobs, results), records every
// request and lets tests inject failures or hold a request open.
package remotetest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultToken    = "T1"
	DefaultUsername = "alice"
	DefaultPassword = "secret"
)

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Header http.Header
	// Form holds url-encoded form fields.
	Form url.Values
	// Files maps a multipart field to the uploaded filenames in order.
	Files map[string][]string
	// JSON is the decoded JSON body, if any.
	JSON map[string]any
}

// Gate holds a matching request open until Release is called.
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed once the gated request reached the server.
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// Release lets the gated request complete.
func (g *Gate) Release() { close(g.release) }

type failure struct {
	status int
	detail string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	failures map[string]failure
	uploads  map[string]failure
	gates    map[string]*Gate

	requireAuth bool

	Token    string
	Username string
	Password string

	Users      []map[string]any
	Resumes    []string
	Jobs       []string
	Results    map[string][]map[string]any
	Analytics  map[string]any
	Evaluation map[string]any
	Bulk       []map[string]any
	Matches    []map[string]any
	Feedback   string
}

// New starts a server seeded with a small, consistent data set.
func New() *Server {
	s := &Server{
		failures: make(map[string]failure),
		uploads:  make(map[string]failure),
		gates:    make(map[string]*Gate),
		Token:    DefaultToken,
		Username: DefaultUsername,
		Password: DefaultPassword,
		Users: []map[string]any{
			{"id": 1, "username": "alice"},
			{"id": 2, "username": "bob"},
		},
		Resumes: []string{"a.pdf", "b.pdf"},
		Jobs:    []string{"Backend Engineer", "Data Scientist"},
		Results: map[string][]map[string]any{
			"Backend Engineer": {
				{"id": 1, "job_description": "Backend Engineer", "resume_filename": "a.pdf", "final_score": 91.5, "verdict": "High"},
				{"id": 2, "job_description": "Backend Engineer", "resume_filename": "b.pdf", "final_score": 55.0, "verdict": "Low"},
			},
			"Data Scientist": {
				{"id": 3, "job_description": "Data Scientist", "resume_filename": "a.pdf", "final_score": 70.25, "verdict": "Medium"},
			},
		},
		Evaluation: map[string]any{
			"scores": map[string]any{
				"hard_match_percent":    "80.00",
				"semantic_fit_percent":  "70.50",
				"final_relevance_score": "75.25",
				"verdict":               "Medium",
			},
			"identified_skills":      []string{"Go", "SQL"},
			"found_skills_in_resume": []string{"Go", "Docker"},
		},
		Bulk: []map[string]any{
			{"resume_filename": "b.pdf", "final_score": 88.1, "verdict": "High"},
			{"resume_filename": "a.pdf", "final_score": 42, "verdict": "Low"},
		},
		Matches: []map[string]any{
			{"resume_filename": "a.pdf", "score": "61.20"},
			{"resume_filename": "b.pdf", "score": "40.00"},
		},
		Feedback: "Add measurable outcomes.",
	}

	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.intercept)

	r.Post("/token", s.token)
	r.Post("/register/", s.register)

	r.Group(func(p chi.Router) {
		p.Use(s.auth)
		p.Get("/analytics/", s.analytics)
		p.Get("/users/", s.listUsers)
		p.Delete("/users/{username}", s.deleteUser)
		p.Get("/resumes/", s.listResumes)
		p.Delete("/resumes/*", s.deleteResume)
		p.Delete("/history/clear", s.clearAll)
		p.Delete("/history/clear/*", s.clearJob)
		p.Post("/index/", s.index)
		p.Post("/evaluate/", s.evaluate)
		p.Post("/analyze-bulk/", s.analyzeBulk)
		p.Post("/feedback/", s.feedback)
	})

	r.Get("/jobs/", s.listJobs)
	r.Get("/results/*", s.results)
	r.Post("/keyword-search/", s.keywordSearch)

	return r
}

// Fail makes every request with the method and decoded path answer with the status.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
}

// FailUpload makes indexing of the named file fail.
func (s *Server) FailUpload(filename string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[filename] = failure{status: status, detail: detail}
}

// Hold returns a gate for the next requests with the method and decoded path.
func (s *Server) Hold(method, path string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates[method+" "+path] = g
	return g
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsTo returns the recorded requests with the method and decoded path.
func (s *Server) RequestsTo(method, path string) []Request {
	var matched []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

// Reset drops the recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Files:  map[string][]string{},
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		switch mediaType {
		case "multipart/form-data":
			if err := r.ParseMultipartForm(32 << 20); err == nil {
				for field, headers := range r.MultipartForm.File {
					for _, h := range headers {
						rec.Files[field] = append(rec.Files[field], h.Filename)
					}
				}
			}
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err == nil {
				rec.Form = r.PostForm
			}
		case "application/json":
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &rec.JSON)
			r.Body = io.NopCloser(bytes.NewReader(data))
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		gate := s.gates[key]
		fail, failed := s.failures[key]
		s.mu.Unlock()

		if gate != nil {
			gate.once.Do(func() { close(gate.arrived) })
			<-gate.release
		}

		if failed {
			writeDetail(w, fail.status, fail.detail)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth makes privileged routes reject requests without "Bearer <Token>".
func (s *Server) RequireAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireAuth = true
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		required, token := s.requireAuth, s.Token
		s.mu.Unlock()

		if required && r.Header.Get("Authorization") != "Bearer "+token {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if r.PostForm.Get("username") != s.Username || r.PostForm.Get("password") != s.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.Token,
		"token_type":   "bearer",
		"username":     s.Username,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u["username"] == body.Username {
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
	}
	s.Users = append(s.Users, map[string]any{"id": len(s.Users) + 1, "username": body.Username})
	writeJSON(w, http.StatusOK, map[string]any{"message": "User created successfully"})
}

func (s *Server) analytics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Analytics != nil {
		writeJSON(w, http.StatusOK, s.Analytics)
		return
	}

	total := 0
	for _, rows := range s.Results {
		total += len(rows)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_analyses":        total,
		"total_indexed_resumes": len(s.Resumes),
		"total_users":           len(s.Users),
	})
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Users)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := param(r, "username")

	s.mu.Lock()
	defer s.mu.Unlock()
	if username == s.Username {
		writeDetail(w, http.StatusBadRequest, "Cannot delete your own user account.")
		return
	}
	s.Users = slices.DeleteFunc(s.Users, func(u map[string]any) bool { return u["username"] == username })
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) listResumes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"resumes": s.Resumes})
}

func (s *Server) deleteResume(w http.ResponseWriter, r *http.Request) {
	filename := param(r, "*")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resumes = slices.DeleteFunc(slices.Clone(s.Resumes), func(f string) bool { return f == filename })
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) listJobs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Jobs)
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	job := param(r, "*")

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.Results[job]
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) clearJob(w http.ResponseWriter, r *http.Request) {
	job := param(r, "*")

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Results, job)
	s.Jobs = slices.DeleteFunc(slices.Clone(s.Jobs), func(j string) bool { return j == job })
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) clearAll(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results = map[string][]map[string]any{}
	s.Jobs = nil
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["resume_file"]) != 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "resume_file is required")
		return
	}
	filename := r.MultipartForm.File["resume_file"][0].Filename

	s.mu.Lock()
	defer s.mu.Unlock()
	if fail, ok := s.uploads[filename]; ok {
		writeDetail(w, fail.status, fail.detail)
		return
	}
	if !slices.Contains(s.Resumes, filename) {
		s.Resumes = append(s.Resumes, filename)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "filename": filename})
}

func (s *Server) evaluate(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Evaluation)
}

func (s *Server) analyzeBulk(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "results": s.Bulk})
}

func (s *Server) feedback(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"feedback": s.Feedback})
}

func (s *Server) keywordSearch(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "top_matches": s.Matches})
}

func param(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return strings.TrimSpace(value)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if detail == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]any{"detail": detail})
}
