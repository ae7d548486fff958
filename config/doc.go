// Package config loads the YAML document that wires a cache together.
//
//	cache:
//	  name: images
//	  entry_lifetime: 12h
//	  max_entries: 50
//	observe:
//	  service_name: objcache
//	  metrics: { enabled: true, exporter: prometheus }
//	resilience:
//	  timeout: 10s
//	  retry: { max_attempts: 3, initial_delay: 100ms }
//	  breaker: { max_failures: 5, reset_timeout: 30s }
//	auth:
//	  signing_key: secretref:file:jwt-key
//	  cache_lifetime: 5m
//	secrets:
//	  file: { dir: /run/secrets }
//
// String values may reference the environment as ${VAR} and secrets as
// secretref:<provider>:<ref>. Absent resilience sections disable their
// pattern.
package config
