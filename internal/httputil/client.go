// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the JSON POST helper shared by the outbound
// API clients. There are no retries anywhere: a rate limit or transient
// failure surfaces to the caller, which degrades instead of waiting.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// PostJSON sends payload as a JSON POST with the given headers and
// decodes the response body into out. Non-2xx responses return a
// *StatusError without reading the body; out may be nil when the
// response body is irrelevant.
func PostJSON(ctx context.Context, client *http.Client, url string, headers http.Header, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response body: %w", err)
	}
	return nil
}
