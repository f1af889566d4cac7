package ytstudio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
)

const (
	studioBaseURL   = "https://studio.youtube.com"
	studioAPIPath   = "/youtubei/v1/"
	uploadStudioURL = "https://upload.youtube.com/upload/studio"

	// Innertube client identity sent in every request context.
	innertubeClientName    = 62
	innertubeClientVersion = "1.20230621.01.01"

	// SessionTokenCookie is the out-of-band cookie the session token may be
	// supplied through instead of an explicit constructor parameter.
	SessionTokenCookie = "SESSION_TOKEN"
)

// sessionContext holds the fields every endpoint call must carry. Populated
// exactly once (by Login or SetSession) and read-only afterwards, so
// concurrent reads from in-flight requests are safe.
type sessionContext struct {
	token          string
	channelID      string
	onBehalfOfUser string
	populated      bool
}

// Studio is a session against the private YouTube Studio API. It
// authenticates with browser-derived cookies and a session token, and signs
// every request with a time-bound SAPISIDHASH.
type Studio struct {
	client  tls_client.HttpClient
	logger  Logger
	profile *BrowserProfile

	sapisid string
	session sessionContext

	// Endpoint bases, overridable in tests.
	baseURL   string
	uploadURL string

	// sleep waits between rate-limited retries. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Studio session from a browser cookie set and a session token.
// The cookie set must contain SAPISID; the token may instead be carried by a
// SESSION_TOKEN cookie. Returns ErrMissingCredential when either is absent.
func New(client tls_client.HttpClient, logger Logger, cookies map[string]string, token string) (*Studio, error) {
	return NewWithProfile(client, logger, cookies, token, DefaultProfile)
}

// NewWithProfile creates a Studio session with a specific browser profile.
func NewWithProfile(client tls_client.HttpClient, logger Logger, cookies map[string]string, token string, profile *BrowserProfile) (*Studio, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	sapisid := cookies["SAPISID"]
	if sapisid == "" {
		return nil, ErrMissingCredential
	}
	if token == "" {
		token = cookies[SessionTokenCookie]
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no session token parameter and no %s cookie", ErrMissingCredential, SessionTokenCookie)
	}

	s := &Studio{
		client:    client,
		logger:    logger,
		profile:   profile,
		sapisid:   sapisid,
		baseURL:   studioBaseURL,
		uploadURL: uploadStudioURL,
		sleep:     sleepContext,
	}
	s.session.token = token
	s.setCookies(cookies)
	return s, nil
}

// NewFromEnv creates a client and session from build-time/env configuration
// (YT_SAPISID, YT_SESSION_TOKEN, YT_COOKIES). proxyURL may be empty.
func NewFromEnv(logger Logger, proxyURL string) (*Studio, error) {
	client, err := NewClient(nil, proxyURL)
	if err != nil {
		return nil, err
	}

	cookies := GetExtraCookies()
	if v := GetSAPISID(); v != "" {
		cookies["SAPISID"] = v
	}
	return New(client, logger, cookies, GetSessionToken())
}

// setCookies loads the browser cookie set into the jar for the whole
// .youtube.com scope, covering both the Studio and the upload hosts.
func (s *Studio) setCookies(cookies map[string]string) {
	jarCookies := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: ".youtube.com",
			Path:   "/",
		})
	}

	for _, base := range []string{s.baseURL, s.uploadURL} {
		if u, err := url.Parse(base); err == nil {
			s.client.SetCookies(u, jarCookies)
		}
	}
}

// Login fetches the Studio landing page, extracts the channel and delegated
// session identifiers from its config script, and populates the session
// context. Safe to call once; later calls are no-ops.
func (s *Studio) Login(ctx context.Context) error {
	if s.session.populated {
		s.logger.Log("session context already initialized, skipping login")
		return nil
	}

	page, statusCode, err := s.fetchMainPage(ctx)
	if err != nil {
		return fmt.Errorf("fetching studio page: %w", err)
	}
	if statusCode != 200 {
		return fmt.Errorf("studio page returned status %d, check your cookies", statusCode)
	}

	channelID, onBehalfOfUser, err := extractSessionIdentifiers(page)
	if err != nil {
		return err
	}

	s.session.channelID = channelID
	s.session.onBehalfOfUser = onBehalfOfUser
	s.session.populated = true
	s.logger.Log("logged in, channel %s", channelID)
	return nil
}

// SetSession populates the session context directly, skipping Login for
// callers that already know their identifiers. The token from construction is
// kept.
func (s *Studio) SetSession(channelID, onBehalfOfUser string) {
	s.session.channelID = channelID
	s.session.onBehalfOfUser = onBehalfOfUser
	s.session.populated = true
}

// ChannelID returns the channel identifier recovered at login, or "" before
// the session is initialized.
func (s *Studio) ChannelID() string {
	return s.session.channelID
}

// baseEnvelope builds a fresh request context for one endpoint call. Every
// call gets its own copy; nothing is shared or mutated across calls.
func (s *Studio) baseEnvelope() map[string]any {
	return map[string]any{
		"context": map[string]any{
			"request": map[string]any{
				"sessionInfo": map[string]any{"token": s.session.token},
			},
			"user": map[string]any{"onBehalfOfUser": s.session.onBehalfOfUser},
			"client": map[string]any{
				"clientName":    innertubeClientName,
				"clientVersion": innertubeClientVersion,
			},
		},
	}
}

// fetchMainPage makes a browser-like navigation request to the Studio landing page.
func (s *Studio) fetchMainPage(ctx context.Context) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return "", 0, err
	}

	req.Header = http.Header{
		"upgrade-insecure-requests": {"1"},
		"user-agent":                {s.profile.UserAgent},
		"accept":                    {"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"},
		"sec-fetch-site":            {"none"},
		"sec-fetch-mode":            {"navigate"},
		"sec-fetch-user":            {"?1"},
		"sec-fetch-dest":            {"document"},
		"sec-ch-ua":                 {s.profile.SecChUa},
		"sec-ch-ua-mobile":          {s.profile.Mobile},
		"sec-ch-ua-platform":        {s.profile.Platform},
		"accept-encoding":           {"gzip, deflate, br, zstd"},
		"accept-language":           {"en-US,en;q=0.9"},
		http.HeaderOrderKey: {
			"upgrade-insecure-requests",
			"user-agent",
			"accept",
			"sec-fetch-site",
			"sec-fetch-mode",
			"sec-fetch-user",
			"sec-fetch-dest",
			"sec-ch-ua",
			"sec-ch-ua-mobile",
			"sec-ch-ua-platform",
			"accept-encoding",
			"accept-language",
			"Cookie",
		},
		http.PHeaderOrderKey: PseudoHeaderOrder,
	}

	resp, err := s.doRequest(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := readResponseBody(resp)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// doRequest executes an HTTP request and logs the request URL and response
// status code.
func (s *Studio) doRequest(req *http.Request) (*http.Response, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Log("%s %s -> error: %v", req.Method, req.URL.Path, err)
		return nil, err
	}
	s.logger.Log("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	return resp, nil
}

// sleepContext waits for d, aborting early if ctx expires.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
