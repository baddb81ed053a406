package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/session"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(session.NewMemoryStore(nil), session.ManagerConfig{
		Secret: strings.Repeat("m", session.MinSecretLength),
	})
	require.NoError(t, err)
	return mgr
}

func TestSessions(t *testing.T) {
	mgr := newManager(t)

	var got *session.Session
	h := Sessions(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
		got.Credentials.User = "alice"
		require.NoError(t, mgr.Save(r.Context(), w, got))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	firstID := got.ID

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, firstID, got.ID)
	assert.Equal(t, "alice", got.Credentials.User)
}

func TestSessions_BadCookieGetsFreshSession(t *testing.T) {
	mgr := newManager(t)

	var got *session.Session
	h := Sessions(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "garbage"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.True(t, got.Credentials.IsAnonymous())
}

func TestCredentialsFromContext(t *testing.T) {
	var got remotefs.Credentials
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CredentialsFromContext(r.Context())
	})

	t.Run("Anonymous", func(t *testing.T) {
		BasicCredentials(capture).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, remotefs.Credentials{}, got)
	})

	t.Run("BasicWithDomain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth(`CORP\alice`, "pw")
		BasicCredentials(capture).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, remotefs.Credentials{Domain: "CORP", User: "alice", Password: "pw"}, got)
	})

	t.Run("BasicOverridesSession", func(t *testing.T) {
		s := session.New(time.Hour)
		s.Credentials = remotefs.Credentials{User: "bob", Password: "old"}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("carol", "new")
		req = req.WithContext(session.WithSession(req.Context(), s))
		BasicCredentials(capture).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "carol", got.User)
	})

	t.Run("SessionFallback", func(t *testing.T) {
		s := session.New(time.Hour)
		s.Credentials = remotefs.Credentials{User: "bob", Password: "old"}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(session.WithSession(req.Context(), s))
		BasicCredentials(capture).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "bob", got.User)
	})
}

type fakeHTTPMetrics struct {
	mu       sync.Mutex
	routes   []string
	statuses []int
	inFlight int
	peak     int
}

func (m *fakeHTTPMetrics) ObserveRequest(route, method string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, method+" "+route)
	m.statuses = append(m.statuses, status)
}

func (m *fakeHTTPMetrics) InFlight(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight += delta
	m.peak = max(m.peak, m.inFlight)
}

func TestMetrics(t *testing.T) {
	m := &fakeHTTPMetrics{}

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/get/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/get/smb%3A//host/a", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"GET /get/*", "GET /"}, m.routes)
	assert.Equal(t, []int{http.StatusPartialContent, http.StatusOK}, m.statuses)
	assert.Zero(t, m.inFlight)
	assert.Equal(t, 1, m.peak)
}

func TestMetrics_NilIsPassthrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Metrics(nil)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrace_AttachesLogContext(t *testing.T) {
	var lc *logger.LogContext
	h := chimiddleware.RequestID(Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc = logger.FromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/get/x", nil)
	req.Header.Set("Range", "bytes=0-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, lc)
	assert.NotEmpty(t, lc.RequestID)
	assert.Equal(t, http.MethodGet, lc.Method)
	assert.Equal(t, "bytes=0-9", lc.Range)
}
