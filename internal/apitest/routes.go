package apitest

import (
	"cmp"
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felixgeelhaar/vulnark/internal/authz"
)

type ctxKey struct{}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(BasePath, func(r chi.Router) {
		r.Use(s.record)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/auth/me", s.serve(func(_ *http.Request, u authz.UserProfile) (any, int, string) { return ok(u) }))
			r.Post("/auth/logout", s.serve(func(*http.Request, authz.UserProfile) (any, int, string) { return ok(nil) }))

			r.Get("/assets", s.serve(s.listAssets))
			r.Post("/assets", s.serve(s.createAsset))
			r.Post("/assets/import", s.serve(s.importAssets))
			r.Get("/assets/stats", s.serve(s.assetStats))
			r.Get("/assets/recent", s.serve(s.recentAssets))
			r.Get("/assets/{id}", s.serve(s.getAsset))
			r.Delete("/assets/{id}", s.serve(s.deleteAsset))

			r.Get("/dashboard/stats", s.serve(constant(map[string]any{})))
			r.Get("/dashboard/vulnerability-trends", s.serve(constant([]any{})))
			r.Get("/dashboard/vulnerability-severity-distribution", s.serve(constant([]any{})))
			r.Get("/dashboard/asset-status-distribution", s.serve(constant([]any{})))
			r.Get("/dashboard/recent-activities", s.serve(constant([]any{})))
			r.Get("/dashboard/asset-distribution", s.serve(constant(map[string]any{})))

			r.Get("/baseline-scans", s.serve(constant(page([]any{}, 0, 10))))
			r.Get("/scan-tools", s.serve(constant([]any{})))
			r.Get("/scan-logs/{taskId}", s.serve(constant([]any{})))

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/users", s.serve(s.listUsers))
				r.Get("/admin/agents", s.serve(constant(page([]any{}, 0, 10))))
				r.Get("/admin/baseline/tasks", s.serve(constant(page([]any{}, 0, 10))))
				r.Get("/admin/baseline/rules", s.serve(constant(page([]any{}, 0, 10))))
				r.Get("/admin/scan-tools", s.serve(constant([]any{})))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(ctxKey{}).(authz.UserProfile)
		if !authz.DefaultPolicy().IsAdminTier(user.Role) {
			writeError(w, http.StatusForbidden, "Access Denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serve(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := r.Context().Value(ctxKey{}).(authz.UserProfile)
		data, status, message := h(r, user)
		if status != http.StatusOK {
			writeError(w, status, message)
			return
		}
		writeEnvelope(w, http.StatusOK, message, data)
	}
}

func constant(data any) HandlerFunc {
	return func(*http.Request, authz.UserProfile) (any, int, string) { return ok(data) }
}

func page[T any](items []T, number, size int) map[string]any {
	total := len(items)
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	start := min(number*size, total)
	end := min(start+size, total)
	return map[string]any{
		"content":       items[start:end],
		"totalElements": total,
		"totalPages":    pages,
		"size":          size,
		"number":        number,
	}
}

func paging(r *http.Request) (number, size int) {
	number, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	return max(number, 0), size
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	a, found := s.accounts[req.Username]
	if !found || a.password != req.Password {
		s.mu.Unlock()
		writeEnvelope(w, http.StatusUnauthorized, "用户名或密码错误", nil)
		return
	}
	token := s.issueLocked(req.Username)
	profile := a.profile
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, "登录成功", map[string]any{"token": token, "user": profile})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	_, taken := s.accounts[req.Username]
	s.mu.Unlock()
	if taken {
		writeEnvelope(w, http.StatusBadRequest, "用户名已存在", nil)
		return
	}
	s.AddUser(authz.UserProfile{Username: req.Username, Email: req.Email, FullName: req.FullName, Role: authz.RoleUser}, req.Password)
	writeEnvelope(w, http.StatusOK, "注册成功", nil)
}

func (s *Server) listAssets(r *http.Request, _ authz.UserProfile) (any, int, string) {
	number, size := paging(r)
	s.mu.Lock()
	items := append([]map[string]any(nil), s.assets...)
	s.mu.Unlock()
	return ok(page(items, number, size))
}

func (s *Server) recentAssets(r *http.Request, _ authz.UserProfile) (any, int, string) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := make([]map[string]any, 0, limit)
	for i := len(s.assets) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, s.assets[i])
	}
	return ok(recent)
}

func (s *Server) createAsset(r *http.Request, _ authz.UserProfile) (any, int, string) {
	var asset map[string]any
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		return nil, http.StatusBadRequest, "invalid asset"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	asset["id"] = s.nextID
	s.nextID++
	s.assets = append(s.assets, asset)
	return ok(asset)
}

func (s *Server) importAssets(r *http.Request, _ authz.UserProfile) (any, int, string) {
	var assets []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&assets); err != nil {
		return nil, http.StatusBadRequest, "invalid asset list"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, asset := range assets {
		asset["id"] = s.nextID
		s.nextID++
		s.assets = append(s.assets, asset)
	}
	return ok(assets)
}

// AddAsset seeds an asset and returns its ID.
func (s *Server) AddAsset(asset map[string]any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	stored := map[string]any{"id": id}
	for k, v := range asset {
		if k != "id" {
			stored[k] = v
		}
	}
	s.assets = append(s.assets, stored)
	return id
}

func (s *Server) findAsset(r *http.Request) (int, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return -1, false
	}
	for i, a := range s.assets {
		if assetID(a) == id {
			return i, true
		}
	}
	return -1, false
}

func assetID(a map[string]any) int64 {
	switch v := a["id"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func (s *Server) getAsset(r *http.Request, _ authz.UserProfile) (any, int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.findAsset(r)
	if !found {
		return nil, http.StatusNotFound, "资产不存在"
	}
	return ok(s.assets[i])
}

func (s *Server) deleteAsset(r *http.Request, _ authz.UserProfile) (any, int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.findAsset(r)
	if !found {
		return nil, http.StatusNotFound, "资产不存在"
	}
	s.assets = append(s.assets[:i], s.assets[i+1:]...)
	return ok(nil)
}

func (s *Server) assetStats(*http.Request, authz.UserProfile) (any, int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(map[string]any{"totalAssets": len(s.assets)})
}

func (s *Server) listUsers(r *http.Request, _ authz.UserProfile) (any, int, string) {
	number, size := paging(r)
	s.mu.Lock()
	users := make([]authz.UserProfile, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.profile)
	}
	s.mu.Unlock()
	slices.SortFunc(users, func(a, b authz.UserProfile) int { return cmp.Compare(a.ID, b.ID) })
	return ok(page(users, number, size))
}
