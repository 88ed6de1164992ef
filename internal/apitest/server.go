// Package apitest runs an in-process fake of the REST API. It speaks the
// same envelope as the real server, issues signed tokens and records every
// request, which is enough to drive the client, the session store and the
// commands end to end.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/vulnark/internal/authz"
)

// BasePath is where the fake mounts the API.
const BasePath = "/api"

// Recorded is one request the server received.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// HandlerFunc serves a stubbed endpoint. It returns the envelope data, or
// an error status with a message.
type HandlerFunc func(r *http.Request, user authz.UserProfile) (data any, status int, message string)

type account struct {
	password string
	profile  authz.UserProfile
}

type override struct {
	status  int
	code    int
	message string
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	secret    []byte
	ttl       time.Duration
	accounts  map[string]*account
	revoked   map[string]bool
	assets    []map[string]any
	nextID    int64
	requests  []Recorded
	overrides map[string][]override
	delay     map[string]chan struct{}
}

// New starts a server with no users. Call Close when done.
func New() *Server {
	s := &Server{
		secret:    []byte("apitest-secret"),
		ttl:       time.Hour,
		accounts:  map[string]*account{},
		revoked:   map[string]bool{},
		overrides: map[string][]override{},
		delay:     map[string]chan struct{}{},
		nextID:    1,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// BaseURL is the API root to hand to the client.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// AddUser registers an account and returns its profile with an ID assigned.
func (s *Server) AddUser(profile authz.UserProfile, password string) authz.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == 0 {
		profile.ID = int64(len(s.accounts) + 1)
	}
	if profile.Status == "" {
		profile.Status = authz.StatusActive
	}
	s.accounts[profile.Username] = &account{password: password, profile: profile}
	return profile
}

// SetRole changes an existing user's role.
func (s *Server) SetRole(username string, role authz.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[username]; ok {
		a.profile.Role = role
	}
}

// IssueToken signs a token for username without a login request.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(username)
}

// Revoke makes token fail authentication from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Fail makes the next request to method and path answer with status and a
// message body. Path is relative to BasePath.
func (s *Server) Fail(method, path string, status int, message string) {
	s.push(method, path, override{status: status, message: message})
}

// Reject makes the next request to method and path answer HTTP 200 with a
// non-success envelope code.
func (s *Server) Reject(method, path string, code int, message string) {
	s.push(method, path, override{status: http.StatusOK, code: code, message: message})
}

// Hold blocks requests to method and path until the returned function is
// called.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.delay[key(method, path)] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.delay, key(method, path))
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns everything received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// LastRequest returns the most recent request to path, if any.
func (s *Server) LastRequest(path string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return Recorded{}, false
}

func (s *Server) push(method, path string, o override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(method, path)
	s.overrides[k] = append(s.overrides[k], o)
}

func key(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) issueLocked(username string) string {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			// Tokens issued in the same second must still differ.
			ID: strconv.FormatInt(now.UnixNano(), 36),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

// authenticate resolves the bearer token to a profile.
func (s *Server) authenticate(r *http.Request) (authz.UserProfile, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return authz.UserProfile{}, false
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return authz.UserProfile{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[raw] {
		return authz.UserProfile{}, false
	}
	a, ok := s.accounts[c.Username]
	if !ok {
		return authz.UserProfile{}, false
	}
	return a.profile, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		path := strings.TrimPrefix(r.URL.Path, BasePath)
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method: r.Method,
			Path:   path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		k := key(r.Method, path)
		gate := s.delay[k]
		var o *override
		if queue := s.overrides[k]; len(queue) > 0 {
			o = &queue[0]
			s.overrides[k] = queue[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if o != nil {
			if o.status != http.StatusOK {
				writeError(w, o.status, o.message)
			} else {
				writeEnvelope(w, o.code, o.message, nil)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if message == "" {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "message": message})
}

func ok(data any) (any, int, string) { return data, http.StatusOK, "" }
