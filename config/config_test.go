package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jonwraymond/objcache/auth"
	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/health"
	"github.com/jonwraymond/objcache/resilience"
	"github.com/jonwraymond/objcache/secret"
)

const fullDoc = `
cache:
  name: images
  entry_lifetime: 10s
  max_entries: 2
observe:
  service_name: objcache-test
  tracing: { enabled: true, exporter: stdout }
  logging: { enabled: true, level: debug }
resilience:
  timeout: 2s
  retry: { max_attempts: 4, initial_delay: 10ms, strategy: linear }
  breaker: { max_failures: 3, reset_timeout: 1m }
  rate_limit: { rate: 50, burst: 5 }
  bulkhead: { max_concurrent: 8, max_wait: 100ms }
health:
  timeout: 1s
  min_hit_ratio: 0.25
auth:
  issuer: https://issuer.example
  signing_key: key
  cache_lifetime: 5m
`

func TestParse_Full(t *testing.T) {
	cfg, err := Parse(context.Background(), []byte(fullDoc), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Cache.Name != "images" || cfg.Cache.EntryLifetime != 10*time.Second || cfg.Cache.MaxEntries != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Observe.ServiceName != "objcache-test" || !cfg.Observe.Tracing.Enabled || cfg.Observe.Tracing.SamplePct != 1.0 {
		t.Errorf("Observe = %+v", cfg.Observe)
	}
	if r := cfg.Resilience.Retry; r == nil || r.MaxAttempts != 4 || r.Strategy != "linear" {
		t.Errorf("Retry = %+v", r)
	}
	if cfg.Health.MinHitRatio != 0.25 || cfg.Health.Timeout != time.Second {
		t.Errorf("Health = %+v", cfg.Health)
	}
	if cfg.Auth == nil || cfg.Auth.MaxCached != 1024 {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
}

func TestParse_Defaults(t *testing.T) {
	for _, doc := range []string{"", "cache: {}\n"} {
		cfg, err := Parse(context.Background(), []byte(doc), nil)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", doc, err)
		}
		if cfg.Cache.Name != "default" {
			t.Errorf("Name = %q", cfg.Cache.Name)
		}
		if p := cfg.Cache.Policy(); p != cache.DefaultPolicy() {
			t.Errorf("Policy() = %+v, want defaults", p)
		}
		if cfg.Observe.ServiceName != "objcache" || cfg.Observe.Logging.Level != "info" {
			t.Errorf("Observe = %+v", cfg.Observe)
		}
		if cfg.Auth != nil {
			t.Error("Auth set without an auth section")
		}
	}

	if !reflect.DeepEqual(Default(), mustParse(t, "")) {
		t.Error("Default() differs from an empty document")
	}
}

func mustParse(t *testing.T, doc string) *Config {
	t.Helper()
	cfg, err := Parse(context.Background(), []byte(doc), nil)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestParse_EnvAndSecrets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "jwt-key"), []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OBJCACHE_TEST_DIR", dir)
	t.Setenv("OBJCACHE_TEST_MAX", "7")
	t.Setenv("OBJCACHE_TEST_ISSUER", "https://issuer.example")

	doc := `
cache:
  max_entries: ${OBJCACHE_TEST_MAX}
auth:
  issuer: secretref:env:OBJCACHE_TEST_ISSUER
  signing_key: secretref:file:jwt-key
secrets:
  file: { dir: "${OBJCACHE_TEST_DIR}" }
`
	cfg := mustParse(t, doc)
	if cfg.Cache.MaxEntries != 7 {
		t.Errorf("MaxEntries = %d, want 7", cfg.Cache.MaxEntries)
	}
	if cfg.Auth.SigningKey != "from-file" {
		t.Errorf("SigningKey = %q", cfg.Auth.SigningKey)
	}
	if cfg.Auth.Issuer != "https://issuer.example" {
		t.Errorf("Issuer = %q", cfg.Auth.Issuer)
	}
	if cfg.Secrets["file"]["dir"] != dir {
		t.Errorf("secrets not env-expanded: %v", cfg.Secrets)
	}
}

func TestParse_CallerResolver(t *testing.T) {
	r := secret.NewResolver(true, secret.EnvProvider{})
	t.Setenv("OBJCACHE_TEST_NAME", "thumbs")

	cfg, err := Parse(context.Background(), []byte("cache: { name: 'secretref:env:OBJCACHE_TEST_NAME' }\n"), r)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Name != "thumbs" {
		t.Errorf("Name = %q", cfg.Cache.Name)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"unknown key", "cache: { size: 3 }\n", nil},
		{"not a mapping", "- a\n- b\n", ErrInvalidConfig},
		{"negative lifetime", "cache: { entry_lifetime: -1s }\n", cache.ErrInvalidLifetime},
		{"negative max", "cache: { max_entries: -1 }\n", cache.ErrInvalidMaxEntries},
		{"bad exporter", "observe: { metrics: { enabled: true, exporter: carrier-pigeon } }\n", ErrInvalidConfig},
		{"bad strategy", "resilience: { retry: { strategy: fibonacci } }\n", ErrUnknownStrategy},
		{"hit ratio", "health: { min_hit_ratio: 2 }\n", ErrInvalidConfig},
		{"auth without key", "auth: { issuer: x }\n", ErrInvalidConfig},
		{"missing env", "cache: { name: '${OBJCACHE_SURELY_UNSET_CFG}' }\n", secret.ErrMissingEnv},
		{"unknown provider", "cache: { name: 'secretref:vault:x' }\n", secret.ErrProviderNotRegistered},
		{"bad duration", "cache: { entry_lifetime: soon }\n", nil},
		{"bad yaml", "cache: [\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.doc), nil)
			if err == nil {
				t.Fatal("Parse() succeeded")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objcache.yaml")
	if err := os.WriteFile(path, []byte(fullDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Name != "images" {
		t.Errorf("Name = %q", cfg.Cache.Name)
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestCacheOptions(t *testing.T) {
	cfg := mustParse(t, fullDoc)
	clock := cache.NewManualClock(time.Unix(0, 0))

	c := cache.New[string, int](cfg.Cache.CacheOptions(clock, nil))
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	if c.Len() != 2 || c.Name() != "images" {
		t.Errorf("Len() = %d, Name() = %q", c.Len(), c.Name())
	}

	clock.Advance(10 * time.Second)
	if _, ok := c.Value("c"); ok {
		t.Error("entry outlived the configured lifetime")
	}
}

func TestResilienceExecutor(t *testing.T) {
	none, err := ResilienceConfig{}.Executor(ExecutorOptions{})
	if err != nil || none != nil {
		t.Errorf("empty section: Executor() = %v, %v; want nil, nil", none, err)
	}

	cfg := mustParse(t, fullDoc)
	var retries int
	exec, err := cfg.Resilience.Executor(ExecutorOptions{
		Name:    "images",
		OnRetry: func(int, error, time.Duration) { retries++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if exec.CircuitBreaker() == nil {
		t.Fatal("breaker not configured")
	}

	calls := 0
	err = exec.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky origin")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Errorf("calls = %d, retries = %d; want 3, 2", calls, retries)
	}
	if exec.CircuitBreaker().State() != resilience.StateClosed {
		t.Errorf("State() = %v", exec.CircuitBreaker().State())
	}
}

func TestAuthAuthenticator(t *testing.T) {
	cfg := mustParse(t, fullDoc)
	a, err := cfg.Auth.Authenticator(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*auth.CachingAuthenticator); !ok {
		t.Errorf("Authenticator() = %T, want *auth.CachingAuthenticator", a)
	}

	cfg.Auth.CacheLifetime = 0
	a, err = cfg.Auth.Authenticator(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*auth.JWTAuthenticator); !ok {
		t.Errorf("Authenticator() = %T, want *auth.JWTAuthenticator", a)
	}
}

func TestHealthConfig(t *testing.T) {
	cfg := mustParse(t, fullDoc)
	c := cache.New[string, int](cfg.Cache.CacheOptions(nil, nil))
	c.Insert("a", 1)

	agg := cfg.Health.Aggregator()
	agg.RegisterChecker(cfg.Health.CacheChecker(c))

	results := agg.CheckAll(context.Background())
	r, ok := results["cache:images"]
	if !ok {
		t.Fatalf("CheckAll() = %v, want cache:images", results)
	}
	if r.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want healthy", r.Status)
	}
}

func TestParse_SubstitutedScalars(t *testing.T) {
	tests := []struct {
		name  string
		value string
		doc   string
		want  string
	}{
		{"plain word", "s3cr3t", "auth: { signing_key: ${OBJCACHE_TEST_KEY} }\n", "s3cr3t"},
		{"plain number", "12345", "auth: { signing_key: ${OBJCACHE_TEST_KEY} }\n", "12345"},
		{"plain bool", "true", "auth: { signing_key: ${OBJCACHE_TEST_KEY} }\n", "true"},
		{"plain hex", "0x1F", "auth: { signing_key: ${OBJCACHE_TEST_KEY} }\n", "0x1F"},
		{"plain null", "null", "auth: { signing_key: ${OBJCACHE_TEST_KEY} }\n", "null"},
		{"plain tilde", "~", "auth: { signing_key: ${OBJCACHE_TEST_KEY} }\n", "~"},
		{"quoted null", "null", "auth: { signing_key: \"${OBJCACHE_TEST_KEY}\" }\n", "null"},
		{"single quoted tilde", "~", "auth: { signing_key: '${OBJCACHE_TEST_KEY}' }\n", "~"},
		{"secretref to null", "NULL", "auth: { signing_key: secretref:env:OBJCACHE_TEST_KEY }\n", "NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OBJCACHE_TEST_KEY", tt.value)
			cfg, err := Parse(context.Background(), []byte(tt.doc), nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Auth.SigningKey != tt.want {
				t.Errorf("SigningKey = %q, want %q", cfg.Auth.SigningKey, tt.want)
			}
		})
	}
}

func TestParse_QuotedNumberStaysString(t *testing.T) {
	t.Setenv("OBJCACHE_TEST_MAX", "7")
	if _, err := Parse(context.Background(), []byte("cache: { max_entries: \"${OBJCACHE_TEST_MAX}\" }\n"), nil); err == nil {
		t.Error("quoted substitution decoded into an int")
	}
}

func TestParse_MissingEnvPaths(t *testing.T) {
	doc := `
cache:
  name: ${OBJCACHE_TEST_UNSET_NAME}
auth:
  issuer: https://${OBJCACHE_TEST_UNSET_HOST}/
  signing_key: ${OBJCACHE_TEST_UNSET_NAME}
`
	_, err := Parse(context.Background(), []byte(doc), nil)
	var missing *secret.MissingEnvError
	if !errors.As(err, &missing) {
		t.Fatalf("Parse() error = %v, want *secret.MissingEnvError", err)
	}
	want := []secret.EnvRef{
		{Path: "cache.name", Name: "OBJCACHE_TEST_UNSET_NAME"},
		{Path: "auth.issuer", Name: "OBJCACHE_TEST_UNSET_HOST"},
		{Path: "auth.signing_key", Name: "OBJCACHE_TEST_UNSET_NAME"},
	}
	if !reflect.DeepEqual(missing.Refs, want) {
		t.Errorf("Refs = %v, want %v", missing.Refs, want)
	}
}

func TestParse_MissingEnvInSecrets(t *testing.T) {
	_, err := Parse(context.Background(), []byte("secrets:\n  file: { dir: '${OBJCACHE_TEST_UNSET_DIR}' }\n"), nil)
	var missing *secret.MissingEnvError
	if !errors.As(err, &missing) {
		t.Fatalf("Parse() error = %v, want *secret.MissingEnvError", err)
	}
	if len(missing.Refs) != 1 || missing.Refs[0].Path != "secrets.file.dir" {
		t.Errorf("Refs = %v", missing.Refs)
	}
}
