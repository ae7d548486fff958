package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/objcache/cache"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("OBJCACHE_TEST_KEY", "value")
	t.Setenv("OBJCACHE_TEST_EMPTY", "")
	ctx := context.Background()
	p := EnvProvider{}

	if v, err := p.Resolve(ctx, "OBJCACHE_TEST_KEY"); err != nil || v != "value" {
		t.Errorf("Resolve() = %q, %v", v, err)
	}
	if v, err := p.Resolve(ctx, "OBJCACHE_TEST_EMPTY"); err != nil || v != "" {
		t.Errorf("Resolve(empty) = %q, %v", v, err)
	}
	if _, err := p.Resolve(ctx, "OBJCACHE_TEST_UNSET_KEY"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(unset) error = %v, want ErrNotFound", err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "jwt-key"), []byte("hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "crlf"), []byte("abc\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := FileProvider{Dir: dir}
	ctx := context.Background()

	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{"jwt-key", "hunter2", nil},
		{"crlf", "abc", nil},
		{"missing", "", ErrNotFound},
		{"../etc/passwd", "", ErrInvalidRef},
		{"/etc/passwd", "", ErrInvalidRef},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := p.Resolve(ctx, tt.ref)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCachingProvider(t *testing.T) {
	stub := &stubProvider{name: "slow", values: map[string]string{"k": "v"}}
	clock := cache.NewManualClock(time.Unix(0, 0))
	p := NewCachingProvider(stub, cache.Policy{EntryLifetime: time.Minute, MaxEntries: 4}, clock)
	ctx := context.Background()

	if p.Name() != "slow" {
		t.Errorf("Name() = %q", p.Name())
	}

	for range 3 {
		if v, err := p.Resolve(ctx, "k"); err != nil || v != "v" {
			t.Fatalf("Resolve() = %q, %v", v, err)
		}
	}
	if stub.calls != 1 {
		t.Errorf("provider called %d times, want 1", stub.calls)
	}

	clock.Advance(time.Minute)
	_, _ = p.Resolve(ctx, "k")
	if stub.calls != 2 {
		t.Errorf("after expiry provider called %d times, want 2", stub.calls)
	}

	p.Forget("k")
	_, _ = p.Resolve(ctx, "k")
	if stub.calls != 3 {
		t.Errorf("after Forget provider called %d times, want 3", stub.calls)
	}
}

func TestCachingProvider_ErrorsNotCached(t *testing.T) {
	stub := &stubProvider{name: "s", values: map[string]string{}}
	p := NewCachingProvider(stub, cache.Policy{}, nil)
	ctx := context.Background()

	for range 2 {
		if _, err := p.Resolve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	if stub.calls != 2 {
		t.Errorf("provider called %d times, want 2", stub.calls)
	}

	if err := p.Close(); err != nil || !stub.closed {
		t.Errorf("Close() = %v, closed = %v", err, stub.closed)
	}
}
