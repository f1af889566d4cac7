package ytstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

// postEndpoint sends payload as JSON to {base}/youtubei/v1/{endpoint}, then
// runs the verify-then-extract contract: every key/value pair in expected must
// be present and matching in the response, and the keys named in present are
// extracted and returned (the full response when none are named). Any
// violation yields a ResponseShapeError carrying the raw body.
//
// This single primitive is the uniform success/failure contract for every
// operation; the API returns 200 with embedded result codes, so HTTP status
// semantics cannot be relied on.
func (s *Studio) postEndpoint(ctx context.Context, endpoint string, payload map[string]any, present []string, expected map[string]any) (map[string]any, error) {
	if !s.session.populated {
		return nil, ErrLoginRequired
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", endpoint, err)
	}

	endpointURL := s.baseURL + studioAPIPath + endpoint
	_, respBody, err := s.sendWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header = s.apiHeaders()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	return checkResponse(endpoint, respBody, present, expected)
}

// apiHeaders builds the signed header set for one API call. The SAPISIDHASH
// signature is recomputed here on every call so it is always bound to a fresh
// timestamp.
func (s *Studio) apiHeaders() http.Header {
	return http.Header{
		"authorization":      {"SAPISIDHASH " + authSignature(s.sapisid, studioBaseURL, time.Now())},
		"content-type":       {"application/json"},
		"x-origin":           {studioBaseURL},
		"sec-ch-ua":          {s.profile.SecChUa},
		"sec-ch-ua-mobile":   {s.profile.Mobile},
		"sec-ch-ua-platform": {s.profile.Platform},
		"user-agent":         {s.profile.UserAgent},
		"accept":             {"*/*"},
		"origin":             {studioBaseURL},
		"sec-fetch-site":     {"same-origin"},
		"sec-fetch-mode":     {"cors"},
		"sec-fetch-dest":     {"empty"},
		"referer":            {studioBaseURL + "/"},
		"accept-encoding":    {"gzip, deflate, br, zstd"},
		"accept-language":    {"en-US,en;q=0.9"},
		http.HeaderOrderKey: {
			"authorization",
			"content-type",
			"x-origin",
			"sec-ch-ua",
			"sec-ch-ua-mobile",
			"sec-ch-ua-platform",
			"user-agent",
			"accept",
			"origin",
			"sec-fetch-site",
			"sec-fetch-mode",
			"sec-fetch-dest",
			"referer",
			"accept-encoding",
			"accept-language",
			"Cookie",
		},
		http.PHeaderOrderKey: PseudoHeaderOrder,
	}
}

// sendWithRetry executes a request, retrying it whenever the response carries
// a Retry-After header. The wait honors the advertised delay; the loop is
// unbounded and only abandoned when ctx expires. Rate limiting is invisible to
// the caller on eventual success. build must produce a replayable request.
func (s *Studio) sendWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, []byte, error) {
	for {
		req, err := build()
		if err != nil {
			return nil, nil, err
		}

		resp, err := s.doRequest(req)
		if err != nil {
			return nil, nil, err
		}
		body, err := readResponseBody(resp)
		resp.Body.Close()
		if err != nil {
			return nil, nil, err
		}

		if delay, ok := retryAfter(resp); ok {
			s.logger.Log("rate limited on %s, retrying in %v", req.URL.Path, delay)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, nil, fmt.Errorf("rate limit wait abandoned: %w", err)
			}
			continue
		}

		return resp, body, nil
	}
}

// retryAfter parses the Retry-After header as delay seconds.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// checkResponse decodes body and applies the verify-then-extract contract.
func checkResponse(endpoint string, body []byte, present []string, expected map[string]any) (map[string]any, error) {
	var response map[string]any
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ResponseShapeError{Endpoint: endpoint, Missing: []string{"(valid json)"}, Body: body}
	}
	return checkFields(endpoint, response, body, present, expected)
}

// checkFields verifies the expected subset and extracts the present keys from
// an already-decoded object. raw is attached to failures for diagnostics.
func checkFields(endpoint string, response map[string]any, raw []byte, present []string, expected map[string]any) (map[string]any, error) {
	var missing []string
	for key, want := range expected {
		got, ok := response[key]
		if !ok || !matchesExpected(got, want) {
			missing = append(missing, key)
		}
	}
	for _, key := range present {
		if _, ok := response[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		if raw == nil {
			raw, _ = json.Marshal(response)
		}
		return nil, &ResponseShapeError{Endpoint: endpoint, Missing: missing, Body: raw}
	}

	if len(present) == 0 {
		return response, nil
	}
	extracted := make(map[string]any, len(present))
	for _, key := range present {
		extracted[key] = response[key]
	}
	return extracted, nil
}

// matchesExpected reports whether got satisfies want. Object values are
// matched as subsets so extra response fields do not fail the check; scalars
// compare by deep equality.
func matchesExpected(got, want any) bool {
	wantMap, ok := want.(map[string]any)
	if !ok {
		return reflect.DeepEqual(got, want)
	}
	gotMap, ok := got.(map[string]any)
	if !ok {
		return false
	}
	for key, w := range wantMap {
		g, ok := gotMap[key]
		if !ok || !matchesExpected(g, w) {
			return false
		}
	}
	return true
}

// stringField pulls a non-empty string value out of extracted endpoint results.
func stringField(values map[string]any, endpoint, key string) (string, error) {
	v, _ := values[key].(string)
	if v == "" {
		raw, _ := json.Marshal(values)
		return "", &ResponseShapeError{Endpoint: endpoint, Missing: []string{key}, Body: raw}
	}
	return v, nil
}
