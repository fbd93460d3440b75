package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/lib/storage"
	"github.com/joshnies/survol/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	preloginBody = `{"kdf":0,"kdfIterations":600000,"kdfMemory":null,"kdfParallelism":null}`
	tokenBody    = `{"access_token":"tok-123","expires_in":3600,"token_type":"Bearer","scope":"api"}`
	profileBody  = `{"id":"u1","email":"user@example.com","organizations":[]}`
	syncBody     = `{"profile":{"id":"u1"},"folders":[],"ciphers":[{"id":"c1","data":"2.x|y|z"}],"object":"sync"}`
)

// Mock identity and API services.
type mockServices struct {
	identity *httptest.Server
	api      *httptest.Server

	mu        sync.Mutex
	requests  []string
	tokenForm string
	authz     []string

	tokenResponse string
	tokenStatus   int
	syncStatus    int
}

func newMockServices(t *testing.T) *mockServices {
	t.Helper()
	m := &mockServices{tokenResponse: tokenBody, tokenStatus: http.StatusOK, syncStatus: http.StatusOK}

	identity := http.NewServeMux()
	identity.HandleFunc("/accounts/prelogin", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		w.Write([]byte(preloginBody))
	})
	identity.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.record(r)
		m.mu.Lock()
		m.tokenForm = string(body)
		resp, status := m.tokenResponse, m.tokenStatus
		m.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(resp))
	})

	api := http.NewServeMux()
	api.HandleFunc("/accounts/profile", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		w.Write([]byte(profileBody))
	})
	api.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		m.mu.Lock()
		status := m.syncStatus
		m.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(syncBody))
	})

	m.identity = httptest.NewServer(identity)
	m.api = httptest.NewServer(api)
	t.Cleanup(m.identity.Close)
	t.Cleanup(m.api.Close)

	return m
}

func (m *mockServices) record(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r.Method+" "+r.URL.Path)
	if a := r.Header.Get("Authorization"); a != "" {
		m.authz = append(m.authz, a)
	}
}

func (m *mockServices) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *mockServices) config(email string) config.Config {
	return config.Config{
		Email:            email,
		APIURL:           m.api.URL,
		IdentityURL:      m.identity.URL,
		ClientID:         "user.1b6f3f0a",
		ClientSecret:     "s3cr3t",
		Scope:            "api",
		DeviceType:       "8",
		DeviceIdentifier: "6d2f4b8e-4f7a-4b8e-9c1d-2a3b4c5d6e7f",
		DeviceName:       "survol",
		GrantType:        "client_credentials",
	}
}

func options(dir string) config.Options {
	return config.Options{OutputDir: dir, Timeout: 5 * time.Second}
}

func readJSON(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRun_Success(t *testing.T) {
	m := newMockServices(t)
	dir := t.TempDir()

	res, err := Run(context.Background(), m.config("user@example.com"), options(dir))
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Mirrored)

	assert.Equal(t, []string{
		"POST /accounts/prelogin",
		"POST /connect/token",
		"GET /accounts/profile",
		"GET /sync",
	}, m.recorded())

	want := map[string]string{
		"bitwarden.user@example.com.prelogin.json": preloginBody,
		"bitwarden.user@example.com.token.json":    tokenBody,
		"bitwarden.user@example.com.profile.json":  profileBody,
		"bitwarden.user@example.com.sync.json":     syncBody,
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	for name, body := range want {
		content := readJSON(t, filepath.Join(dir, name))
		assert.JSONEq(t, body, content, name)
		assert.Contains(t, content, "\n  \"", "%s is not pretty-printed", name)
	}

	require.Len(t, res.Artifacts, 4)
	for i, stage := range models.Stages {
		assert.Equal(t, stage, res.Artifacts[i].Stage)
		assert.Equal(t, filepath.Join(dir, stage.FileName("user@example.com")), res.Artifacts[i].Path)
		assert.NotEmpty(t, res.Artifacts[i].Digest)
	}

	assert.Equal(t, []string{"Bearer tok-123", "Bearer tok-123"}, m.authz)
}

func TestRun_TokenFormFields(t *testing.T) {
	m := newMockServices(t)
	cfg := m.config("user@example.com")

	_, err := Run(context.Background(), cfg, options(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, "scope=api&client_id=user.1b6f3f0a&client_secret=s3cr3t&deviceType=8"+
		"&deviceIdentifier=6d2f4b8e-4f7a-4b8e-9c1d-2a3b4c5d6e7f&deviceName=survol&grant_type=client_credentials", m.tokenForm)

	values, err := url.ParseQuery(m.tokenForm)
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"scope":            {cfg.Scope},
		"client_id":        {cfg.ClientID},
		"client_secret":    {cfg.ClientSecret},
		"deviceType":       {cfg.DeviceType},
		"deviceIdentifier": {cfg.DeviceIdentifier},
		"deviceName":       {cfg.DeviceName},
		"grant_type":       {cfg.GrantType},
	}, values)
}

func TestRun_MissingAccessToken(t *testing.T) {
	m := newMockServices(t)
	m.tokenResponse = `{"error":"none","token_type":"Bearer"}`
	dir := t.TempDir()

	_, err := Run(context.Background(), m.config("user@example.com"), options(dir))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindMissingField))
	assert.Contains(t, err.Error(), "token")
	assert.Contains(t, err.Error(), "access_token")

	assert.Equal(t, []string{"POST /accounts/prelogin", "POST /connect/token"}, m.recorded())

	assert.FileExists(t, filepath.Join(dir, "bitwarden.user@example.com.token.json"))
	assert.NoFileExists(t, filepath.Join(dir, "bitwarden.user@example.com.profile.json"))
	assert.NoFileExists(t, filepath.Join(dir, "bitwarden.user@example.com.sync.json"))
}

func TestRun_MissingOutputDirectory(t *testing.T) {
	m := newMockServices(t)
	dir := filepath.Join(t.TempDir(), "missing")

	_, err := Run(context.Background(), m.config("user@example.com"), options(dir))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindFileWrite))

	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "prelogin", e.Stage)

	// Fails after the first response, before any further request
	assert.Equal(t, []string{"POST /accounts/prelogin"}, m.recorded())
}

func TestRun_SyncFailureKeepsProfile(t *testing.T) {
	m := newMockServices(t)
	m.syncStatus = http.StatusInternalServerError
	dir := t.TempDir()

	_, err := Run(context.Background(), m.config("user@example.com"), options(dir))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindStatus))
	assert.Contains(t, err.Error(), "sync")

	assert.FileExists(t, filepath.Join(dir, "bitwarden.user@example.com.profile.json"))
	// The JSON error body is kept for inspection
	assert.FileExists(t, filepath.Join(dir, "bitwarden.user@example.com.sync.json"))
}

func TestRun_TokenErrorResponseIsWritten(t *testing.T) {
	m := newMockServices(t)
	m.tokenStatus = http.StatusBadRequest
	m.tokenResponse = `{"error":"invalid_client"}`
	dir := t.TempDir()

	res, err := Run(context.Background(), m.config("user@example.com"), options(dir))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindStatus))
	assert.Equal(t, "token: bad response status: bad request: invalid_client", err.Error())

	assert.Equal(t, []string{"POST /accounts/prelogin", "POST /connect/token"}, m.recorded())
	require.Len(t, res.Artifacts, 2)
	assert.JSONEq(t, m.tokenResponse, readJSON(t, filepath.Join(dir, "bitwarden.user@example.com.token.json")))
	assert.NoFileExists(t, filepath.Join(dir, "bitwarden.user@example.com.profile.json"))
}

func TestRun_TwoAccountsSameDirectory(t *testing.T) {
	m := newMockServices(t)
	dir := t.TempDir()

	_, err := Run(context.Background(), m.config("alice@example.com"), options(dir))
	require.NoError(t, err)
	_, err = Run(context.Background(), m.config("bob@example.com"), options(dir))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 8)

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		for _, stage := range models.Stages {
			assert.FileExists(t, filepath.Join(dir, stage.FileName(email)))
		}
	}
}

func TestRun_Timeout(t *testing.T) {
	m := newMockServices(t)
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only notices the client going away once the body is drained
		io.ReadAll(r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	cfg := m.config("user@example.com")
	cfg.IdentityURL = slow.URL
	opts := options(t.TempDir())
	opts.Timeout = 50 * time.Millisecond

	_, err := Run(context.Background(), cfg, opts)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindTimeout), "got %v", err)
}

func TestRun_Cancelled(t *testing.T) {
	m := newMockServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, m.config("user@example.com"), options(t.TempDir()))
	require.Error(t, err)
	assert.Empty(t, m.recorded())
}

type memMirror struct {
	keys   []string
	closed bool
}

func (m *memMirror) Upload(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	if !json.Valid(body) {
		return errors.New("not json")
	}
	m.keys = append(m.keys, key)
	return nil
}

func (m *memMirror) Close() error {
	m.closed = true
	return nil
}

func TestRun_Mirror(t *testing.T) {
	m := newMockServices(t)
	cfg := m.config("user@example.com")
	cfg.Storage = &config.StorageConfig{Provider: "s3", Bucket: "b", Prefix: "snapshots"}

	mirror := &memMirror{}
	e := New(cfg, options(t.TempDir()))
	e.NewMirror = func(ctx context.Context, sc config.StorageConfig) (storage.Mirror, error) {
		assert.Equal(t, "b", sc.Bucket)
		return mirror, nil
	}

	var stages []string
	e.OnStage = func(s string) { stages = append(stages, s) }

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Mirrored)
	assert.True(t, mirror.closed)
	assert.Equal(t, e.Stages(), stages)
	assert.Equal(t, []string{"prelogin", "token", "profile", "sync", "mirror"}, stages)

	require.Len(t, mirror.keys, 4)
	for i, a := range res.Artifacts {
		assert.Equal(t, "snapshots/user@example.com/"+res.RunID+"/"+filepath.Base(a.Path), a.RemoteKey)
		assert.Equal(t, a.RemoteKey, mirror.keys[i])
	}
}

func TestRun_NoMirrorOption(t *testing.T) {
	m := newMockServices(t)
	cfg := m.config("user@example.com")
	cfg.Storage = &config.StorageConfig{Provider: "s3", Bucket: "b"}

	opts := options(t.TempDir())
	opts.NoMirror = true
	e := New(cfg, opts)
	e.NewMirror = func(ctx context.Context, sc config.StorageConfig) (storage.Mirror, error) {
		t.Fatal("mirror must not be opened")
		return nil, nil
	}

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Mirrored)
	assert.Len(t, e.Stages(), 4)
}

func TestRun_MirrorOpenFailure(t *testing.T) {
	m := newMockServices(t)
	cfg := m.config("user@example.com")
	cfg.Storage = &config.StorageConfig{Provider: "s3", Bucket: "b"}
	dir := t.TempDir()

	e := New(cfg, options(dir))
	e.NewMirror = func(ctx context.Context, sc config.StorageConfig) (storage.Mirror, error) {
		return nil, errors.New("no credentials")
	}

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindMirror))
	assert.Contains(t, err.Error(), "mirror")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
