package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

const (
	// maxRateLimitRetries bounds how many 429 responses a single request
	// may absorb before failing with RateLimitError.
	maxRateLimitRetries = 6
	// maxNetworkRetries bounds retries of network-level failures, a
	// separate budget from the 429 path.
	maxNetworkRetries = 2
	// networkRetryDelay is the fixed pause between network retries.
	networkRetryDelay = 500 * time.Millisecond
	// maxErrorBodyBytes truncates error response bodies carried in
	// TransportError.
	maxErrorBodyBytes = 512
)

// Transport issues HTTP requests against the platform with 429 compliance
// and bounded retry. One instance owns its http.Client and credential; no
// package-level state.
type Transport struct {
	client     *http.Client
	credential string
	log        *logger.Logger

	// sleep is swappable in tests to observe requested delays without
	// waiting them out.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTransport builds a Transport with the given per-call timeout.
func NewTransport(credential string, timeout time.Duration, log *logger.Logger) *Transport {
	return &Transport{
		client:     &http.Client{Timeout: timeout},
		credential: credential,
		log:        log.WithComponent("transport"),
		sleep:      sleepCtx,
	}
}

// Do sends one request, retrying on 429 for exactly the signaled delay and
// on network failure with a short fixed backoff. Any 2xx response is
// returned with its body read; any other status is a typed error.
func (t *Transport) Do(ctx context.Context, method, url string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = encoded
	}

	networkAttempts := 0
	rateLimitWaits := 0

	for {
		respBody, status, retryAfter, err := t.once(ctx, method, url, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			networkAttempts++
			if networkAttempts > maxNetworkRetries {
				return nil, cmdsyncerrors.NewNetworkError(method, url, err)
			}
			t.log.WithFields(map[string]any{"attempt": networkAttempts, "url": url}).Warn("network failure, retrying")
			if err := t.sleep(ctx, networkRetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return respBody, nil
		case status == http.StatusTooManyRequests:
			rateLimitWaits++
			if rateLimitWaits > maxRateLimitRetries {
				return nil, cmdsyncerrors.NewRateLimitError(method, url, rateLimitWaits)
			}
			delay := retryDelay(retryAfter, respBody)
			t.log.WithFields(map[string]any{
				"delay_seconds": delay.Seconds(),
				"attempt":       rateLimitWaits,
				"url":           url,
			}).Warn("rate limited, honoring retry delay")
			if err := t.sleep(ctx, delay); err != nil {
				return nil, err
			}
		default:
			// Structural failure; retrying would repeat it.
			return nil, cmdsyncerrors.NewTransportError(method, url, status, truncate(respBody, maxErrorBodyBytes))
		}
	}
}

func (t *Transport) once(ctx context.Context, method, url string, payload []byte) (body []byte, status int, retryAfter string, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.credential)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", err
	}
	return data, resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// rateLimitBody is the JSON shape platforms attach to 429 responses when
// the delay is not in the Retry-After header.
type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"`
}

// retryDelay extracts the platform's requested wait from a 429 response,
// rounded up to whole seconds. The Retry-After header takes precedence over
// the body field; falls back to one second when neither carries a usable
// delay.
func retryDelay(retryAfter string, body []byte) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil && seconds > 0 {
			return time.Duration(math.Ceil(seconds)) * time.Second
		}
	}

	var parsed rateLimitBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(math.Ceil(parsed.RetryAfter)) * time.Second
	}
	return time.Second
}

// sleepCtx waits for d or until the context is cancelled. Every retry path
// goes through here so the run's deadline also bounds time spent sleeping.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
