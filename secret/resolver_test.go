package secret

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name   string
	values map[string]string
	calls  int
	closed bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	s.calls++
	v, ok := s.values[ref]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in           string
		wantProvider string
		wantRef      string
		wantOK       bool
	}{
		{"secretref:env:KEY", "env", "KEY", true},
		{"secretref:file:a/b:c", "file", "a/b:c", true},
		{"secretref:env:", "", "", false},
		{"secretref::KEY", "", "", false},
		{"secretref:env", "", "", false},
		{"plain", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, ref, ok := ParseSecretRef(tt.in)
			if p != tt.wantProvider || ref != tt.wantRef || ok != tt.wantOK {
				t.Errorf("ParseSecretRef(%q) = %q, %q, %v", tt.in, p, ref, ok)
			}
		})
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("ORIGIN_HOST", "img.example.com")
	stub := &stubProvider{name: "stub", values: map[string]string{"token": "s3cr3t", "blank": ""}}
	r := NewResolver(false, stub)
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "images", "images"},
		{"env only", "https://${ORIGIN_HOST}/", "https://img.example.com/"},
		{"full ref", "secretref:stub:token", "s3cr3t"},
		{"inline ref", "Bearer secretref:stub:token", "Bearer s3cr3t"},
		{"two inline refs", "secretref:stub:token secretref:stub:token", "s3cr3t s3cr3t"},
		{"empty allowed when lenient", "secretref:stub:blank", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveValue(ctx, tt.in)
			if err != nil {
				t.Fatalf("ResolveValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_Errors(t *testing.T) {
	stub := &stubProvider{name: "stub", values: map[string]string{"blank": ""}}
	r := NewResolver(true, stub)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"unknown provider", "secretref:vault:x", ErrProviderNotRegistered},
		{"unknown inline provider", "Bearer secretref:vault:x", ErrProviderNotRegistered},
		{"missing ref", "secretref:stub:nope", ErrNotFound},
		{"strict empty", "secretref:stub:blank", ErrEmptyValue},
		{"malformed", "secretref:stub", ErrInvalidRef},
		{"missing env", "${OBJCACHE_SURELY_UNSET}", ErrMissingEnv},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveValue(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveValue(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestResolver_Nil(t *testing.T) {
	t.Setenv("CACHE_NAME", "thumbs")
	var r *Resolver

	got, err := r.ResolveValue(context.Background(), "${CACHE_NAME} secretref:env:X")
	if err != nil {
		t.Fatal(err)
	}
	if got != "thumbs secretref:env:X" {
		t.Errorf("ResolveValue() = %q", got)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestResolver_ResolveMap(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"k": "v"}})

	got, err := r.ResolveMap(context.Background(), map[string]string{"a": "secretref:stub:k", "b": "plain"})
	if err != nil {
		t.Fatal(err)
	}
	if got["a"] != "v" || got["b"] != "plain" {
		t.Errorf("ResolveMap() = %v", got)
	}

	if _, err := r.ResolveMap(context.Background(), map[string]string{"bad": "secretref:stub:missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveMap() error = %v, want ErrNotFound", err)
	}

	if got, err := r.ResolveMap(context.Background(), nil); got != nil || err != nil {
		t.Errorf("ResolveMap(nil) = %v, %v", got, err)
	}
}

func TestResolver_Close(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	r := NewResolver(false, a, b, nil)

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() did not close every provider")
	}
}
