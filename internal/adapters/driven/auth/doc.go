// Package auth provides token provider implementations for authenticated
// API access.
//
// Adapters:
//   - OAuthProvider: OAuth2 access tokens with automatic refresh, backed by
//     credentials stored in the config file
//   - StaticProvider: a fixed token, useful for tests and manual setups
package auth
