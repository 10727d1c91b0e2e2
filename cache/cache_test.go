package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelblog/config"
	"travelblog/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupFileStore(t *testing.T) (*FileStore, *time.Time) {
	t.Helper()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	s := NewFileStore(t.TempDir())
	s.now = func() time.Time { return now }
	return s, &now
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, DefaultPrefix), mr
}

func TestKeyHash(t *testing.T) {
	a := Key{Scope: "post-1", Variant: "anon"}
	b := Key{Scope: "post-1", Variant: "user-1"}

	assert.Len(t, a.hash(), 16)
	assert.Equal(t, a.hash(), Key{Scope: "post-1", Variant: "anon"}.hash())
	assert.NotEqual(t, a.hash(), b.hash())
}

func TestFileStore_SetGet(t *testing.T) {
	s, _ := setupFileStore(t)
	ctx := context.Background()
	key := Key{Scope: "post-7", Variant: "anon"}

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, key, []byte("<h1>Lisbon</h1>"), time.Minute))

	page, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "<h1>Lisbon</h1>", string(page))
	assert.FileExists(t, s.Path(key))
	assert.Equal(t, "post-7", filepath.Base(filepath.Dir(s.Path(key))))
}

func TestFileStore_Expiry(t *testing.T) {
	s, now := setupFileStore(t)
	ctx := context.Background()
	key := Key{Scope: "post-7", Variant: "anon"}

	require.NoError(t, s.Set(ctx, key, []byte("page"), 2*time.Minute))

	*now = now.Add(119 * time.Second)
	_, found, _ := s.Get(ctx, key)
	assert.True(t, found)

	*now = now.Add(2 * time.Second)
	_, found, _ = s.Get(ctx, key)
	assert.False(t, found)
}

func TestFileStore_PurgeExpired(t *testing.T) {
	s, now := setupFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, Key{Scope: "post-1", Variant: "anon"}, []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, Key{Scope: "post-2", Variant: "anon"}, []byte("b"), time.Hour))

	*now = now.Add(10 * time.Minute)

	removed, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, found, _ := s.Get(ctx, Key{Scope: "post-2", Variant: "anon"})
	assert.True(t, found)
}

func TestFileStore_Clear(t *testing.T) {
	s, _ := setupFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, Key{Scope: "post-1", Variant: "anon"}, []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, Key{Scope: "post-1", Variant: "user-3"}, []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, Key{Scope: "post-2", Variant: "anon"}, []byte("b"), time.Minute))

	removed, err := s.Clear(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoDirExists(t, filepath.Join(s.dir, "post-1"))

	removed, err = s.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestFileStore_ClearMissingDir(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "never-created"))

	removed, err := s.Clear(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	s, _ := setupFileStore(t)
	key := Key{Scope: "post-1", Variant: "anon"}
	require.NoError(t, s.Set(context.Background(), key, []byte("a"), time.Minute))

	entries, err := os.ReadDir(filepath.Dir(s.Path(key)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRedisStore_SetGetExpire(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()
	key := Key{Scope: "post-9", Variant: "anon"}

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, key, []byte("<p>Oslo</p>"), 2*time.Minute))

	page, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "<p>Oslo</p>", string(page))
	assert.True(t, mr.Exists(s.key(key)))

	mr.FastForward(2*time.Minute + time.Second)

	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Clear(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("unrelated", "x"))

	require.NoError(t, s.Set(ctx, Key{Scope: "post-1", Variant: "anon"}, []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, Key{Scope: "post-1", Variant: "user-2"}, []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, Key{Scope: "post-2", Variant: "anon"}, []byte("b"), time.Minute))

	removed, err := s.Clear(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = s.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, mr.Exists("unrelated"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(mr.Addr())
	require.NoError(t, err)
	client.Close()

	client, err = NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient("redis://%zz")
	assert.Error(t, err)

	_, err = NewRedisClient("127.0.0.1:1")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	logger := logging.New(io.Discard, "info", "text")

	store, err := New(&config.Config{CacheBackend: "none"}, logger)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = New(&config.Config{CacheBackend: "file", CacheDir: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	mr := miniredis.RunT(t)
	store, err = New(&config.Config{CacheBackend: "redis", RedisURL: mr.Addr()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
}

func setupRouter(store Store, status *int) (*gin.Engine, *int) {
	calls := 0
	router := gin.New()
	keyFunc := func(c *gin.Context) (Key, bool) {
		if c.Query("nocache") != "" {
			return Key{}, false
		}
		return Key{Scope: "post-" + c.Param("id"), Variant: c.GetHeader("X-User") + "?" + c.Request.URL.RawQuery}, true
	}
	page := Page(store, 2*time.Minute, keyFunc, logging.New(io.Discard, "info", "text"))

	handler := func(c *gin.Context) {
		calls++
		c.Data(*status, "text/html; charset=utf-8", []byte("rendered "+c.GetHeader("X-User")))
	}
	router.GET("/post/:id/", page, handler)
	router.POST("/post/:id/", page, handler)
	return router, &calls
}

func get(router *gin.Engine, path, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestPage_MissThenHit(t *testing.T) {
	s, _ := setupFileStore(t)
	status := http.StatusOK
	router, calls := setupRouter(s, &status)

	w := get(router, "/post/1/", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "private, max-age=120", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Cookie", w.Header().Get("Vary"))

	w = get(router, "/post/1/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, "private, max-age=120", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Cookie", w.Header().Get("Vary"))
	assert.Equal(t, "rendered ", w.Body.String())
	assert.Equal(t, 1, *calls)
}

func TestPage_SignedInResponseIsPrivate(t *testing.T) {
	s, _ := setupFileStore(t)
	status := http.StatusOK
	router, _ := setupRouter(s, &status)

	for i := 0; i < 2; i++ {
		w := get(router, "/post/3/", "anna")
		assert.Equal(t, "rendered anna", w.Body.String())
		assert.True(t, strings.HasPrefix(w.Header().Get("Cache-Control"), "private,"))
		assert.Equal(t, "Cookie", w.Header().Get("Vary"))
	}
}

func TestPage_VariesByKey(t *testing.T) {
	s, _ := setupRedisStore(t)
	status := http.StatusOK
	router, calls := setupRouter(s, &status)

	get(router, "/post/1/", "")
	w := get(router, "/post/1/", "anna")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "rendered anna", w.Body.String())

	w = get(router, "/post/1/?page=2", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = get(router, "/post/2/", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 4, *calls)
}

func TestPage_SkipsErrorsAndOtherMethods(t *testing.T) {
	s, _ := setupFileStore(t)
	status := http.StatusNotFound
	router, calls := setupRouter(s, &status)

	get(router, "/post/5/", "")
	w := get(router, "/post/5/", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Vary"))

	status = http.StatusOK
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/post/5/", nil))
	assert.Empty(t, w.Header().Get("X-Cache"))

	w = get(router, "/post/5/?nocache=1", "")
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Equal(t, 4, *calls)
}

func TestPage_NilStorePassesThrough(t *testing.T) {
	status := http.StatusOK
	router, calls := setupRouter(nil, &status)

	get(router, "/post/1/", "")
	w := get(router, "/post/1/", "")
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Equal(t, 2, *calls)
}

func TestNever(t *testing.T) {
	router := gin.New()
	router.GET("/", Never(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "no-cache, no-store, must-revalidate, max-age=0", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Expires"))
}
