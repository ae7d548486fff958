package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/objcache/secret"
)

// Load reads the YAML file at path. See Parse.
func Load(ctx context.Context, path string, resolver *secret.Resolver) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(ctx, data, resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document.
//
// Every scalar value is expanded against the environment (see
// secret.Expander) and then resolved for secretref references. Every unset
// ${VAR} in the document is reported at once in a *secret.MissingEnvError
// naming the path of each value. When resolver is nil, one is built from the
// document's secrets section using secret.DefaultRegistry, with the env
// provider always available; the secrets section itself only gets
// environment expansion.
//
// A substituted plain scalar is typed afresh, so "${MAX_ENTRIES}" decodes
// into an int. Quoted or tagged scalars stay strings, and a substituted
// value that reads as YAML null is kept as a string.
//
// Unknown keys are rejected. Defaults are applied before validation.
func Parse(ctx context.Context, data []byte, resolver *secret.Resolver) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg := &Config{}
	if doc := documentRoot(&root); doc != nil {
		if doc.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalidConfig)
		}

		w := &walker{ctx: ctx}
		secrets := mappingValue(doc, "secrets")
		if secrets != nil {
			if err := w.walk(secrets, "secrets"); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
			if err := w.missing.Err(); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
		if resolver == nil {
			built, err := resolverFor(secrets)
			if err != nil {
				return nil, err
			}
			defer built.Close()
			resolver = built
		}

		w.resolver = resolver
		for i := 0; i+1 < len(doc.Content); i += 2 {
			if doc.Content[i+1] == secrets {
				continue
			}
			if err := w.walk(doc.Content[i+1], doc.Content[i].Value); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
		if err := w.missing.Err(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}

		if err := decodeStrict(doc, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func documentRoot(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return n.Content[0]
	}
	if n.Kind == 0 {
		return nil
	}
	return n
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func resolverFor(secrets *yaml.Node) (*secret.Resolver, error) {
	if secrets == nil {
		return secret.NewResolver(true, secret.EnvProvider{}), nil
	}
	var providers map[string]map[string]any
	if err := secrets.Decode(&providers); err != nil {
		return nil, fmt.Errorf("config: secrets: %w", err)
	}
	if providers == nil {
		providers = make(map[string]map[string]any)
	}
	if _, ok := providers["env"]; !ok {
		providers["env"] = nil
	}
	r, err := secret.DefaultRegistry.NewResolver(true, providers)
	if err != nil {
		return nil, fmt.Errorf("config: secrets: %w", err)
	}
	return r, nil
}

// walker rewrites every scalar value below a node in place. Mapping keys
// are left alone. Missing variables are collected rather than returned so
// one pass reports all of them.
type walker struct {
	ctx      context.Context
	expander secret.Expander
	resolver *secret.Resolver // nil: environment only
	missing  secret.MissingEnvError
}

func (w *walker) walk(n *yaml.Node, path string) error {
	switch n.Kind {
	case yaml.ScalarNode:
		v, missing := w.expander.Expand(n.Value)
		if len(missing) > 0 {
			w.missing.Add(path, missing...)
			return nil
		}
		v, err := w.resolver.ResolveRefs(w.ctx, v)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if v != n.Value {
			setScalar(n, v)
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			if err := w.walk(n.Content[i], path+"."+n.Content[i-1].Value); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			if err := w.walk(c, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// setScalar stores a substituted value. Only a plain scalar is re-typed.
func setScalar(n *yaml.Node, v string) {
	n.Value = v
	if n.Style != 0 {
		return
	}
	n.Tag = ""
	if isNullLiteral(v) {
		n.Tag = "!!str"
	}
}

func isNullLiteral(v string) bool {
	switch v {
	case "~", "null", "Null", "NULL":
		return true
	}
	return false
}

func decodeStrict(doc *yaml.Node, cfg *Config) error {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(out))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}
