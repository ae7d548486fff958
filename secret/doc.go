// Package secret resolves secrets referenced from configuration values.
//
// Values are first expanded against the environment (see Expander),
// then any "secretref:<provider>:<ref>" reference is replaced by the
// provider's value:
//   - Full value:  secretref:env:JWT_SIGNING_KEY
//   - Inline use:  Bearer secretref:file:origin-token
//
// EnvProvider and FileProvider are built in. CachingProvider keeps resolved
// values in a bounded TTL cache so slow providers are consulted at most once
// per lifetime.
package secret
