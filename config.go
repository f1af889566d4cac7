package ytstudio

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Build-time variables - inject via ldflags
// Example: go build -ldflags "-X ytstudio.sapisid=YOUR_VALUE"
var (
	sapisid      string // -X ytstudio.sapisid=...
	sessionToken string // -X ytstudio.sessionToken=...
)

var loadEnvOnce sync.Once

func loadEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// GetSAPISID returns the SAPISID cookie value (build-time or env fallback).
func GetSAPISID() string {
	if sapisid != "" {
		return sapisid
	}
	loadEnv()
	return os.Getenv("YT_SAPISID")
}

// GetSessionToken returns the Studio session token (build-time or env fallback).
func GetSessionToken() string {
	if sessionToken != "" {
		return sessionToken
	}
	loadEnv()
	return os.Getenv("YT_SESSION_TOKEN")
}

// GetExtraCookies returns additional browser session cookies from the
// YT_COOKIES env var, formatted as a Cookie header ("a=1; b=2").
func GetExtraCookies() map[string]string {
	loadEnv()
	return parseCookieHeader(os.Getenv("YT_COOKIES"))
}

// parseCookieHeader parses a "name=value; name2=value2" cookie header string.
// Malformed pairs are skipped.
func parseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}
