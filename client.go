package ytstudio

import (
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// BrowserProfile bundles a TLS client profile with its corresponding browser headers.
// Studio rejects requests whose TLS fingerprint does not match a real browser, so
// the transport and the header set must agree on the Chrome version.
type BrowserProfile struct {
	TLSProfile profiles.ClientProfile
	UserAgent  string
	SecChUa    string
	Platform   string
	Mobile     string
}

// Chrome133Profile impersonates Chrome 133 on Windows.
var Chrome133Profile = &BrowserProfile{
	TLSProfile: profiles.Chrome_133,
	UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	SecChUa:    `"Not(A:Brand";v="99", "Google Chrome";v="133", "Chromium";v="133"`,
	Platform:   `"Windows"`,
	Mobile:     "?0",
}

// DefaultProfile is the default browser profile used for new clients.
var DefaultProfile = Chrome133Profile

// clientTimeoutSeconds bounds a single request/response exchange. Uploads of
// large files go through the same client, so this is generous.
const clientTimeoutSeconds = 300

// NewClient creates an HTTP client with the default browser profile and an
// empty cookie jar. proxyURL may be empty for a direct connection.
func NewClient(logger tls_client.Logger, proxyURL string) (tls_client.HttpClient, error) {
	return NewClientWithProfile(logger, proxyURL, DefaultProfile.TLSProfile)
}

func NewClientWithProfile(logger tls_client.Logger, proxyURL string, profile profiles.ClientProfile) (tls_client.HttpClient, error) {
	if logger == nil {
		logger = tls_client.NewNoopLogger()
	}

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(clientTimeoutSeconds),
		tls_client.WithClientProfile(profile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithCookieJar(jar),
	}

	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	return tls_client.NewHttpClient(logger, options...)
}
