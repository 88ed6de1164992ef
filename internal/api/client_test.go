package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vulnark/internal/log"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/session"
)

type harness struct {
	srv     *httptest.Server
	client  *Client
	notices *notify.Recorder
	hits    atomic.Int32
	expired []string

	mu       sync.Mutex
	last     *http.Request
	lastBody []byte
}

func (h *harness) request() *http.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *harness) body() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastBody
}

// newHarness serves every request with handler and records the last one.
func newHarness(t *testing.T, handler http.HandlerFunc, opts ...Option) *harness {
	t.Helper()
	h := &harness{notices: &notify.Recorder{}}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		h.mu.Lock()
		h.last = r.Clone(context.Background())
		h.lastBody = body
		h.mu.Unlock()
		h.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(h.srv.Close)

	base := []Option{
		WithLogger(log.Discard()),
		WithNotifier(h.notices, "zh-CN"),
		WithUnauthorized(func(_ context.Context, token string) { h.expired = append(h.expired, token) }),
	}
	c, err := New(h.srv.URL+"/api", append(base, opts...)...)
	require.NoError(t, err)
	h.client = c
	return h
}

func envelope(code int, message, data string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":%d,"message":%q,"data":%s}`, code, message, data)
	}
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		io.WriteString(w, body)
	}
}

func staticToken(tok string) Option {
	return WithTokenSource(TokenFunc(func() string { return tok }))
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)

	c, err := New("http://localhost:8080/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", c.BaseURL())
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "with token", token: "abc.def.ghi", want: "Bearer abc.def.ghi"},
		{name: "without token", token: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, envelope(200, "", "null"), staticToken(tt.token))
			require.NoError(t, h.client.Post(context.Background(), "/assets", map[string]string{"name": "x"}, nil))
			assert.Equal(t, tt.want, h.request().Header.Get("Authorization"))
			assert.Equal(t, "application/json", h.request().Header.Get("Content-Type"))
			assert.NotEmpty(t, h.request().Header.Get("X-Request-ID"))
			assert.Contains(t, h.request().Header.Get("User-Agent"), "vulnark/")
		})
	}
}

func TestRequestTokenOverridesSource(t *testing.T) {
	h := newHarness(t, envelope(200, "", "null"), staticToken("current"))
	err := h.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/auth/me", Token: "explicit"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer explicit", h.request().Header.Get("Authorization"))
}

func TestGetDefeatsCaches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, envelope(200, "", "[]"), WithClock(func() time.Time { return now }))

	var out []int
	q := url.Values{"page": {"2"}}
	require.NoError(t, h.client.Get(context.Background(), "/assets", q, &out))

	assert.Equal(t, "/api/assets", h.request().URL.Path)
	assert.Equal(t, "2", h.request().URL.Query().Get("page"))
	assert.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), h.request().URL.Query().Get(CacheBustParam))
	assert.Equal(t, "no-cache, no-store, must-revalidate", h.request().Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", h.request().Header.Get("Pragma"))
	assert.Equal(t, "0", h.request().Header.Get("Expires"))
	assert.Empty(t, q.Get(CacheBustParam), "caller's query must not be modified")
}

func TestWritesDoNotBustCaches(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			h := newHarness(t, envelope(200, "", "null"))
			require.NoError(t, h.client.Do(context.Background(), Request{Method: method, Path: "/assets/1"}, nil))
			assert.False(t, h.request().URL.Query().Has(CacheBustParam))
			assert.Empty(t, h.request().Header.Get("Cache-Control"))
			assert.Empty(t, h.request().Header.Get("Pragma"))
		})
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	h := newHarness(t, envelope(200, "ok", `{"id":7,"name":"db"}`))
	var got Asset
	require.NoError(t, h.client.Post(context.Background(), "/assets", Asset{Name: "db", Type: "DATABASE"}, &got))
	assert.JSONEq(t, `{"name":"db","type":"DATABASE","status":"","importance":""}`, string(h.body()))
	assert.Equal(t, int64(7), got.ID)
}

func TestFailureNotices(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantKind    Kind
		wantStatus  int
		wantKey     notify.Key
		wantMessage string
	}{
		{
			name:        "401",
			handler:     status(http.StatusUnauthorized, `{"message":"token expired"}`),
			wantKind:    KindAuthentication,
			wantStatus:  401,
			wantKey:     notify.KeyUnauthorized,
			wantMessage: "认证失败，请重新登录",
		},
		{
			name:        "403",
			handler:     status(http.StatusForbidden, `{"message":"Access Denied"}`),
			wantKind:    KindAuthorization,
			wantStatus:  403,
			wantKey:     notify.KeyForbidden,
			wantMessage: "权限不足",
		},
		{
			name:        "404",
			handler:     status(http.StatusNotFound, ""),
			wantKind:    KindNotFound,
			wantStatus:  404,
			wantKey:     notify.KeyNotFound,
			wantMessage: "请求的资源不存在",
		},
		{
			name:        "500",
			handler:     status(http.StatusInternalServerError, `{"message":"NullPointerException"}`),
			wantKind:    KindServer,
			wantStatus:  500,
			wantKey:     notify.KeyServerError,
			wantMessage: "服务器内部错误",
		},
		{
			name:        "other status with message",
			handler:     status(http.StatusBadRequest, `{"message":"名称不能为空"}`),
			wantKind:    KindHTTP,
			wantStatus:  400,
			wantKey:     notify.KeyRequestFailed,
			wantMessage: "名称不能为空",
		},
		{
			name:        "other status with error field",
			handler:     status(http.StatusConflict, `{"error":"duplicate"}`),
			wantKind:    KindHTTP,
			wantStatus:  409,
			wantKey:     notify.KeyRequestFailed,
			wantMessage: "duplicate",
		},
		{
			name:        "other status without message",
			handler:     status(http.StatusBadGateway, "<html>bad gateway</html>"),
			wantKind:    KindHTTP,
			wantStatus:  502,
			wantKey:     notify.KeyRequestFailed,
			wantMessage: "网络错误",
		},
		{
			name:        "rejected envelope",
			handler:     envelope(4001, "资产名称已存在", "null"),
			wantKind:    KindRejected,
			wantStatus:  200,
			wantKey:     notify.KeyRejected,
			wantMessage: "资产名称已存在",
		},
		{
			name:        "rejected envelope without message",
			handler:     envelope(500, "", "null"),
			wantKind:    KindRejected,
			wantStatus:  200,
			wantKey:     notify.KeyRejected,
			wantMessage: "操作失败",
		},
		{
			name:        "undecodable data",
			handler:     envelope(200, "", `"not a list"`),
			wantKind:    KindDecode,
			wantStatus:  200,
			wantKey:     notify.KeyRequestFailed,
			wantMessage: "网络错误",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.handler, staticToken("tok"))

			var out []int
			err := h.client.Get(context.Background(), "/assets", nil, &out)
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, http.MethodGet, apiErr.Method)
			assert.Equal(t, "/assets", apiErr.Path)

			notices := h.notices.Notices()
			require.Len(t, notices, 1, "exactly one notice per failure")
			assert.Equal(t, notify.LevelError, notices[0].Level)
			assert.Equal(t, tt.wantKey, notices[0].Key)
			assert.Equal(t, tt.wantMessage, notices[0].Message)

			if tt.wantKind == KindAuthentication {
				assert.Equal(t, []string{"tok"}, h.expired)
			} else {
				assert.Empty(t, h.expired)
			}
		})
	}
}

func TestRejectedEnvelopeKeepsCode(t *testing.T) {
	h := newHarness(t, envelope(4001, "quota", "null"))
	err := h.client.Post(context.Background(), "/assets", nil, nil)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 4001, apiErr.Code)
	assert.True(t, IsKind(err, KindRejected))
	assert.Equal(t, 200, StatusOf(err))
}

func TestNetworkFailure(t *testing.T) {
	h := newHarness(t, envelope(200, "", "null"))
	h.srv.Close()

	err := h.client.Get(context.Background(), "/assets", nil, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
	assert.Equal(t, 0, StatusOf(err))

	notices := h.notices.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.KeyUnreachable, notices[0].Key)
	assert.Equal(t, "网络连接失败", notices[0].Message)
}

func TestCanceledRequestsAreSilent(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for h.hits.Load() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	err := h.client.Get(ctx, "/assets", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, h.notices.Notices())
}

func TestQuietRequests(t *testing.T) {
	h := newHarness(t, status(http.StatusUnauthorized, ""), staticToken("tok"))
	err := h.client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/logout", Quiet: true}, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAuthentication))
	assert.Empty(t, h.notices.Notices())
	assert.Empty(t, h.expired)
}

type refuseAll struct{ called int }

func (r *refuseAll) ValidateRequest(context.Context, string, string, url.Values, []byte) error {
	r.called++
	return errors.New("body is missing name")
}

func TestValidatorStopsRequest(t *testing.T) {
	v := &refuseAll{}
	h := newHarness(t, envelope(200, "", "null"), WithValidator(v))

	err := h.client.Post(context.Background(), "/assets", map[string]string{}, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Contains(t, err.Error(), "body is missing name")
	assert.Equal(t, 1, v.called)
	assert.Zero(t, h.hits.Load())
	assert.Empty(t, h.notices.Notices())
}

func TestResponseDecoding(t *testing.T) {
	t.Run("bare json without envelope", func(t *testing.T) {
		h := newHarness(t, status(http.StatusOK, `{"totalAssets":3}`))
		var stats AssetStats
		require.NoError(t, h.client.Get(context.Background(), "/assets/stats", nil, &stats))
		assert.Equal(t, int64(3), stats.TotalAssets)
	})

	t.Run("null data leaves out untouched", func(t *testing.T) {
		h := newHarness(t, envelope(200, "ok", "null"))
		out := []int{1}
		require.NoError(t, h.client.Get(context.Background(), "/x", nil, &out))
		assert.Equal(t, []int{1}, out)
	})

	t.Run("raw body", func(t *testing.T) {
		h := newHarness(t, status(http.StatusOK, "line one\nline two"))
		var raw []byte
		require.NoError(t, h.client.Get(context.Background(), "/scan-logs/1/export", nil, &raw))
		assert.Equal(t, "line one\nline two", string(raw))
	})

	t.Run("empty body", func(t *testing.T) {
		h := newHarness(t, status(http.StatusOK, ""))
		require.NoError(t, h.client.Delete(context.Background(), "/assets/1", nil))
	})
}

func TestEnglishNotices(t *testing.T) {
	rec := &notify.Recorder{}
	h := newHarness(t, status(http.StatusForbidden, ""), WithNotifier(rec, "en-US"))

	_ = h.client.Get(context.Background(), "/users", nil, nil)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, "Permission denied", rec.Notices()[0].Message)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond))
	defer close(release)

	err := h.client.Get(context.Background(), "/assets", nil, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindNotFound, Status: 404, Method: "GET", Path: "/assets/9"}
	assert.Equal(t, "GET /assets/9: 404 not_found: Not Found", err.Error())

	err = &Error{Kind: KindNetwork, Method: "GET", Path: "/assets", Err: errors.New("connection refused")}
	assert.Equal(t, "GET /assets: network: connection refused", err.Error())
}

func TestLoginWithoutTokenIsNotified(t *testing.T) {
	h := newHarness(t, envelope(200, "ok", `{"user":{"username":"alice","role":"ADMIN"}}`))

	_, err := h.client.Auth().Login(context.Background(), session.Credentials{Username: "alice", Password: "pw"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDecode))
	assert.Equal(t, []notify.Key{notify.KeyRequestFailed}, h.notices.Keys())
}
