package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/animanga/backend/internal/models"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewManager(rdb, time.Hour, true), mr
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

var ana = &models.User{ID: 1, Name: "Ana", Email: "ana@x.com"}

func TestManager_EstablishAndLoad(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	s, err := m.Establish(ctx, rec, httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, int64(1), s.UserID)
	assert.Equal(t, "Ana", s.UserName)
	assert.Equal(t, "ana@x.com", s.UserEmail)

	c := cookieFrom(t, rec, CookieName)
	assert.Equal(t, s.ID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)

	assert.True(t, mr.Exists("session:"+s.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	loaded, err := m.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestManager_Load_NoCookie(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.False(t, s.IsAuthenticated())
}

func TestManager_Load_Expired(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	_, err := m.Establish(ctx, rec, httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFrom(t, rec, CookieName))
	s, err := m.Load(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestManager_EstablishReplacesPreviousSession(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	first := httptest.NewRecorder()
	old, err := m.Establish(ctx, first, httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(cookieFrom(t, first, CookieName))
	fresh, err := m.Establish(ctx, httptest.NewRecorder(), req, ana)
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, fresh.ID)
	assert.False(t, mr.Exists("session:"+old.ID))
	assert.True(t, mr.Exists("session:"+fresh.ID))
}

func TestManager_EstablishDropsContextSession(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	stale := httptest.NewRecorder()
	_, err := m.Establish(ctx, stale, httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	require.NoError(t, err)
	staleCookie := cookieFrom(t, stale, CookieName)
	mr.Del("session:" + staleCookie.Value)

	// The cookie names a dead session; the context carries one started
	// earlier in the same request.
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(staleCookie)
	restored, err := m.Establish(ctx, httptest.NewRecorder(), req, ana)
	require.NoError(t, err)
	req = req.WithContext(WithSession(req.Context(), restored))

	fresh, err := m.Establish(ctx, httptest.NewRecorder(), req, ana)
	require.NoError(t, err)

	assert.False(t, mr.Exists("session:"+restored.ID))
	assert.Equal(t, []string{"session:" + fresh.ID}, mr.Keys())
}

func TestManager_DestroyDropsContextSession(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	s, err := m.Establish(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "gone"})
	req = req.WithContext(WithSession(req.Context(), s))
	require.NoError(t, m.Destroy(ctx, httptest.NewRecorder(), req))

	assert.Empty(t, mr.Keys())
}

func TestManager_Destroy(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	s, err := m.Establish(ctx, rec, httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookieFrom(t, rec, CookieName))
	out := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, out, req))

	assert.False(t, mr.Exists("session:"+s.ID))
	c := cookieFrom(t, out, CookieName)
	assert.Equal(t, "", c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestManager_RedisDown(t *testing.T) {
	m, mr := newTestManager(t)
	mr.Close()

	_, err := m.Establish(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), ana)
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	_, ok := Current(ctx)
	assert.False(t, ok)

	anon := &Session{}
	_, ok = Current(WithSession(ctx, anon))
	assert.False(t, ok)

	s := &Session{ID: "x", UserID: 1, UserName: "Ana", UserEmail: "ana@x.com", LoggedIn: true}
	got, ok := Current(WithSession(ctx, s))
	assert.True(t, ok)
	assert.Same(t, s, got)
}
