// Package prismatest provides an in-process fake of the Prisma Cloud API for tests.
package prismatest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
)

// Call is a request received by the fake server.
type Call struct {
	Path      string
	Auth      string
	RequestID string
	Body      map[string]interface{}
}

// Server is a fake API. Handlers follow prisma.DefaultEndpoints.
type Server struct {
	*httptest.Server
	Router *mux.Router

	// Token is returned by the login endpoint.
	Token string

	mu             sync.Mutex
	calls          []Call
	nextSearch     int
	loginStatus    int
	searchFailures map[string]int
	saveFailures   map[string]int
	policies       map[string]string
	legacyErrors   bool
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		Router:         mux.NewRouter(),
		Token:          "test-session-token",
		searchFailures: map[string]int{},
		saveFailures:   map[string]int{},
		policies:       map[string]string{},
	}

	endpoints := prisma.DefaultEndpoints()
	s.Router.HandleFunc(endpoints.Login, s.login).Methods(http.MethodPost)
	s.Router.HandleFunc(endpoints.ConfigSearch, s.search("searchId")).Methods(http.MethodPost)
	s.Router.HandleFunc(endpoints.PermissionSearch, s.search("id")).Methods(http.MethodPost)
	s.Router.HandleFunc(endpoints.SearchHistory+"/{id}", s.saveSearch).Methods(http.MethodPost)
	s.Router.HandleFunc(endpoints.Policy, s.createPolicy).Methods(http.MethodPost)

	s.Server = httptest.NewServer(handlers.LoggingHandler(testWriter{t}, s.Router))
	t.Cleanup(s.Close)
	return s
}

// FailLogin makes the login endpoint answer with status.
func (s *Server) FailLogin(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginStatus = status
}

// FailSearch makes searches for query answer with status.
func (s *Server) FailSearch(query string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchFailures[query] = status
}

// FailSave makes saving a search named name answer with status.
func (s *Server) FailSave(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveFailures[name] = status
}

// AddPolicy registers an existing policy so that creating another one with
// the same name is rejected as a duplicate.
func (s *Server) AddPolicy(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[name] = fmt.Sprintf("policy-%d", len(s.policies)+1)
}

// UseLegacyErrors drops the x-redlock-status header from error responses,
// leaving only a free-text body.
func (s *Server) UseLegacyErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacyErrors = true
}

// Calls returns every request received so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests whose path starts with prefix.
func (s *Server) CallsTo(prefix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Policies returns the names of the policies the server holds.
func (s *Server) Policies() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.policies))
	for k, v := range s.policies {
		out[k] = v
	}
	return out
}

func (s *Server) record(r *http.Request) map[string]interface{} {
	body := map[string]interface{}{}
	data, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(data, &body)
	s.calls = append(s.calls, Call{
		Path:      r.URL.Path,
		Auth:      r.Header.Get(prisma.AuthHeader),
		RequestID: r.Header.Get(prisma.RequestIDHeader),
		Body:      body,
	})
	return body
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(prisma.AuthHeader) != s.Token {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.loginStatus != 0 {
		w.WriteHeader(s.loginStatus)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Token})
}

func (s *Server) search(idField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		body := s.record(r)
		if !s.authorized(w, r) {
			return
		}

		query, _ := body["query"].(string)
		if status, ok := s.searchFailures[query]; ok {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("search failed"))
			return
		}
		s.nextSearch++
		writeJSON(w, http.StatusOK, map[string]string{idField: fmt.Sprintf("search-%d", s.nextSearch)})
	}
}

func (s *Server) saveSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := s.record(r)
	if !s.authorized(w, r) {
		return
	}

	name, _ := body["name"].(string)
	if status, ok := s.saveFailures[name]; ok {
		w.WriteHeader(status)
		return
	}
	if body["id"] != mux.Vars(r)["id"] {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) createPolicy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := s.record(r)
	if !s.authorized(w, r) {
		return
	}

	name, _ := body["name"].(string)
	if _, exists := s.policies[name]; exists {
		if !s.legacyErrors {
			w.Header().Set(prisma.StatusHeader, `[{"i18nKey":"duplicate_policy_name","severity":"error","subject":"`+name+`"}]`)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Policy with name " + name + " already exists"))
		return
	}

	id := fmt.Sprintf("policy-%d", len(s.policies)+1)
	s.policies[name] = id
	writeJSON(w, http.StatusOK, map[string]string{"policyId": id, "name": name})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}
