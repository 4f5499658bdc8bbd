package auth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/errs"
)

const (
	// DefaultBaseURL is the public identity provider.
	DefaultBaseURL = "https://reqres.in/api"

	// DefaultFallbackDelay is the pause before a locally synthesized token is handed out.
	DefaultFallbackDelay = 300 * time.Millisecond

	// MockPrefix marks tokens synthesized locally.
	MockPrefix = "mock_"
)

// DefaultReference is the single accepted credential pair.
var DefaultReference = Credentials{Email: "eve.holt@reqres.in", Password: "cityslicka"}

// Credentials is a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result is a successful login.
type Result struct {
	Token string
	// Mock is set when the token was synthesized because the provider was unreachable or denied access.
	Mock bool
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Result, error)
}

// IsMockToken reports whether token was synthesized locally.
func IsMockToken(token string) bool {
	return strings.HasPrefix(token, "mock_") || strings.HasPrefix(token, "mock-")
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.http = c
		}
	}
}

// WithAPIKey sends key as the x-api-key header.
func WithAPIKey(key string) Option {
	return func(g *Gateway) { g.apiKey = key }
}

// WithReference replaces the accepted credential pair.
func WithReference(c Credentials) Option {
	return func(g *Gateway) { g.reference = c }
}

// WithFallbackDelay sets the pause before a mock token is returned. Negative values are ignored.
func WithFallbackDelay(d time.Duration) Option {
	return func(g *Gateway) {
		if d >= 0 {
			g.fallbackDelay = d
		}
	}
}

// WithClock overrides the time source used to stamp mock tokens.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// Gateway is the remote auth gateway.
type Gateway struct {
	baseURL       string
	http          *http.Client
	apiKey        string
	reference     Credentials
	fallbackDelay time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

var _ Authenticator = (*Gateway)(nil)

// NewGateway creates a gateway for the identity provider at baseURL.
func NewGateway(baseURL string, opts ...Option) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	g := &Gateway{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: 30 * time.Second},
		reference:     DefaultReference,
		fallbackDelay: DefaultFallbackDelay,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate checks the credentials locally, then asks the identity provider for a token.
//
// Credentials other than the reference pair fail with INVALID_CREDENTIALS and the provider is
// never called. For the reference pair, a 403 or a transport failure yields a mock token after
// the fallback delay; any other provider failure is returned as UPSTREAM_AUTH_FAILURE.
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (Result, error) {
	creds := Credentials{Email: email, Password: password}
	valid := g.matches(creds)

	outcome, token, upstreamErr := OutcomeSkipped, "", error(nil)
	if valid {
		outcome, token, upstreamErr = g.login(ctx, creds)
	}

	switch d := Decide(valid, outcome); d {
	case DecisionUseUpstream:
		return Result{Token: token}, nil
	case DecisionFallback:
		g.logger.Warn("identity provider unavailable, using local token",
			zap.Stringer("outcome", outcome),
			zap.Error(upstreamErr),
		)
		return g.fallback(ctx, creds.Email)
	case DecisionFail:
		return Result{}, upstreamErr
	default:
		return Result{}, errs.New(errs.KindInvalidCredentials, errs.MsgInvalidCredentials)
	}
}

func (g *Gateway) matches(c Credentials) bool {
	email := subtle.ConstantTimeCompare([]byte(c.Email), []byte(g.reference.Email))
	pass := subtle.ConstantTimeCompare([]byte(c.Password), []byte(g.reference.Password))
	return email&pass == 1
}

// login performs POST /login and classifies the outcome.
func (g *Gateway) login(ctx context.Context, c Credentials) (Outcome, string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return OutcomeFailure, "", errs.Wrap(err, errs.KindUnknown, "could not encode credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return OutcomeFailure, "", errs.Wrap(err, errs.KindUnknown, "could not build login request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return OutcomeNetwork, "", errs.FromTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return OutcomeNetwork, "", errs.FromTransport(err)
	}

	g.logger.Debug("identity provider login", zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return OutcomeDenied, "", upstreamError(errs.KindUpstreamAuthDenied, resp.StatusCode, body)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return OutcomeFailure, "", upstreamError(errs.KindUpstreamAuthFailure, resp.StatusCode, body)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return OutcomeFailure, "", errs.Wrap(err, errs.KindUpstreamAuthFailure, "unexpected response from identity provider")
	}
	if out.Token == "" {
		return OutcomeFailure, "", errs.New(errs.KindUpstreamAuthFailure, "identity provider returned no token")
	}
	return OutcomeSuccess, out.Token, nil
}

func upstreamError(kind errs.Kind, status int, body []byte) *goerrors.Error {
	return errs.New(kind, errs.ExtractMessage(status, body)).
		WithCode(status).
		WithMetadata(map[string]any{"status": status})
}

func (g *Gateway) fallback(ctx context.Context, email string) (Result, error) {
	if g.fallbackDelay > 0 {
		timer := time.NewTimer(g.fallbackDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, errs.Wrap(ctx.Err(), errs.KindNetwork, errs.MsgNetwork)
		case <-timer.C:
		}
	}
	return Result{Token: MockToken(email, g.now()), Mock: true}, nil
}

// MockToken builds the locally synthesized token for email at t.
func MockToken(email string, t time.Time) string {
	raw := email + ":" + strconv.FormatInt(t.UnixMilli(), 10)
	return MockPrefix + base64.StdEncoding.EncodeToString([]byte(raw))
}
