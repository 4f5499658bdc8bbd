// Package auth is the remote auth gateway.
//
// Login policy is an explicit table keyed by (credentials valid locally, provider outcome):
//
//	valid  outcome   decision
//	no     skipped   reject (INVALID_CREDENTIALS, provider never called)
//	yes    success   return the provider token verbatim
//	yes    denied    mock token after the fallback delay
//	yes    network   mock token after the fallback delay
//	yes    failure   UPSTREAM_AUTH_FAILURE with the provider message
//
// Mock tokens are "mock_" + base64(email + ":" + unix millis).
package auth
