// Package specstorytest provides an in-process fake of the SpecStory Cloud
// API for tests. It implements the project, session and GraphQL search
// endpoints with bearer-key auth, ETag revalidation and idempotent writes,
// and counts requests per route so tests can assert on cache behavior.
package specstorytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	specstory "github.com/specstoryai/specstory-go"
)

// APIKey is the bearer key the fake server accepts.
const APIKey = "test-api-key"

// Server is a fake SpecStory Cloud API bound to a local listener.
type Server struct {
	// URL is the base URL to point the client at.
	URL string

	hs *httptest.Server

	mu         sync.Mutex
	projects   []specstory.Project
	sessions   map[string][]specstory.Session // by project ID
	idempotent map[string]specstory.Session   // by Idempotency-Key
	hits       map[string]int                 // by "METHOD path"
}

// New starts a fake server and shuts it down with the test.
func New(t testing.TB) *Server {
	s := &Server{
		sessions:   make(map[string][]specstory.Session),
		idempotent: make(map[string]specstory.Session),
		hits:       make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.count, s.auth)
	r.Get("/api/v1/projects", s.listProjects)
	r.Route("/api/v1/projects/{projectID}/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Put("/", s.writeSession)
		r.Get("/{sessionID}", s.readSession)
	})
	r.Post("/api/v1/graphql", s.graphQL)

	s.hs = httptest.NewServer(r)
	s.URL = s.hs.URL
	if t != nil {
		t.Cleanup(s.hs.Close)
	}
	return s
}

// Close stops the server. New already registers this as a test cleanup.
func (s *Server) Close() { s.hs.Close() }

// Hits reports how many requests the given route has served.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// AddProject seeds a project and returns it.
func (s *Server) AddProject(name string) specstory.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	p := specstory.Project{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   "owner-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.projects = append(s.projects, p)
	return p
}

// AddSession seeds a session under a project and returns it with its
// server-assigned ID and etag.
func (s *Server) AddSession(projectID, name, markdown string) specstory.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeSession(projectID, name, markdown, "", nil)
}

// storeSession must be called with the lock held.
func (s *Server) storeSession(projectID, name, markdown, rawData string, meta *specstory.SessionMetadata) specstory.Session {
	now := time.Now().UTC().Truncate(time.Second)
	sess := specstory.Session{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Name:            name,
		MarkdownContent: markdown,
		MarkdownSize:    int64(len(markdown)),
		RawDataSize:     int64(len(rawData)),
		Metadata:        meta,
		CreatedAt:       now,
		UpdatedAt:       now,
		Etag:            `"` + uuid.NewString()[:8] + `"`,
	}
	s.sessions[projectID] = append(s.sessions[projectID], sess)
	return sess
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+APIKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listProjects(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	projects := append([]specstory.Project(nil), s.projects...)
	s.mu.Unlock()

	respond(w, http.StatusOK, map[string]any{
		"data": map[string]any{"projects": projects},
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	s.mu.Lock()
	sessions, ok := s.sessions[projectID]
	sessions = append([]specstory.Session(nil), sessions...)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"data": map[string]any{"sessions": sessions},
	})
}

func (s *Server) readSession(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	var found *specstory.Session
	for i := range s.sessions[projectID] {
		if s.sessions[projectID][i].ID == sessionID {
			found = &s.sessions[projectID][i]
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if r.Header.Get("If-None-Match") == found.Etag {
		w.Header().Set("x-request-id", uuid.NewString())
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", found.Etag)
	respond(w, http.StatusOK, map[string]any{
		"data": map[string]any{"session": found},
	})
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var body struct {
		Name        string                     `json:"name"`
		Markdown    string                     `json:"markdown"`
		RawData     string                     `json:"rawData"`
		Metadata    *specstory.SessionMetadata `json:"metadata"`
		ProjectName string                     `json:"projectName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid session payload")
		return
	}

	s.mu.Lock()
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		if prev, ok := s.idempotent[key]; ok {
			s.mu.Unlock()
			respond(w, http.StatusOK, map[string]any{
				"data": map[string]any{"session": prev},
			})
			return
		}
	}
	// First write may create the project.
	if _, ok := s.sessions[projectID]; !ok {
		name := body.ProjectName
		if name == "" {
			name = projectID
		}
		now := time.Now().UTC().Truncate(time.Second)
		s.projects = append(s.projects, specstory.Project{
			ID:        projectID,
			Name:      name,
			OwnerID:   "owner-1",
			CreatedAt: now,
			UpdatedAt: now,
		})
		s.sessions[projectID] = nil
	}
	sess := s.storeSession(projectID, body.Name, body.Markdown, body.RawData, body.Metadata)
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		s.idempotent[key] = sess
	}
	s.mu.Unlock()

	respond(w, http.StatusOK, map[string]any{
		"data": map[string]any{"session": sess},
	})
}

func (s *Server) graphQL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid GraphQL payload")
		return
	}
	if !strings.Contains(body.Query, "searchSessions") {
		respond(w, http.StatusOK, map[string]any{
			"errors": []map[string]any{{"message": "Cannot query field"}},
		})
		return
	}

	term, _ := body.Variables["query"].(string)
	limit := 200
	if f, ok := body.Variables["limit"].(float64); ok && f > 0 {
		limit = int(f)
	}

	s.mu.Lock()
	var results []specstory.SearchResult
	for projectID, sessions := range s.sessions {
		for _, sess := range sessions {
			if len(results) >= limit {
				break
			}
			if term == "" || strings.Contains(strings.ToLower(sess.Name), strings.ToLower(term)) ||
				strings.Contains(strings.ToLower(sess.MarkdownContent), strings.ToLower(term)) {
				results = append(results, specstory.SearchResult{
					ID:        sess.ID,
					Name:      sess.Name,
					ProjectID: projectID,
					Rank:      1.0 / float64(len(results)+1),
					Metadata:  sess.Metadata,
				})
			}
		}
	}
	s.mu.Unlock()

	respond(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"searchSessions": map[string]any{
				"total":   len(results),
				"results": results,
			},
		},
	})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-request-id", uuid.NewString())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-request-id", uuid.NewString())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
