// Package auth authenticates requests that reach a cache over HTTP.
//
// JWTAuthenticator validates HMAC-signed bearer tokens. CachingAuthenticator
// memoises successful validations in a bounded TTL cache keyed by a digest of
// the credential, so repeated requests with the same token skip signature
// checks until the entry or the identity itself expires. Middleware attaches
// the resulting Identity to the request context.
package auth
