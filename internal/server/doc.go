// Package server exposes the checking engine over a small JSON HTTP API.
//
// The API is a thin wrapper: request decoding, error-to-status mapping, and
// response encoding. All checking logic lives in the agent and password
// packages. Handlers never log request bodies, since the password endpoint
// receives plaintext passwords that must not leave the handler.
package server
