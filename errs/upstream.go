package errs

import (
	"encoding/json"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// upstreamBody is the error envelope returned by the remote APIs. The catalog API uses
// "message", the identity provider uses "error".
type upstreamBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ExtractMessage picks the human readable message for a failed upstream response, in
// priority order: body "message", body "error", then the status line.
func ExtractMessage(status int, body []byte) string {
	var b upstreamBody
	if len(body) > 0 && json.Unmarshal(body, &b) == nil {
		if msg := strings.TrimSpace(b.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(b.Error); msg != "" {
			return msg
		}
	}
	return StatusMessage(status)
}

// FromResponse normalizes a non-2xx upstream response into a typed failure.
func FromResponse(status int, body []byte) *goerrors.Error {
	return New(FromStatus(status), ExtractMessage(status, body)).
		WithCode(status).
		WithMetadata(map[string]any{"status": status})
}

// FromTransport normalizes a transport level failure (no response received).
func FromTransport(err error) *goerrors.Error {
	return Wrap(err, KindNetwork, MsgNetwork)
}

// Status returns the upstream HTTP status recorded on err, or 0.
func Status(err error) int {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.Code
	}
	return 0
}
