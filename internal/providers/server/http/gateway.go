// Package http implements the remote tracker boundary against a
// Jira-style agile REST API: issue search over JQL, per-card worklogs,
// agile board and sprint endpoints, and cookie-based session renewal.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crmarques/boardprompt/config"
	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/internal/providers/shared/tlsconfig"
	"github.com/crmarques/boardprompt/server"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMediaType   = "application/json"

	maxRetryAttempts = 3
	retryBaseDelay   = 500 * time.Millisecond

	maxResponseBytes = 4 << 20
	searchPageSize   = 50
)

var _ server.RemoteClient = (*TrackerGateway)(nil)
var _ server.BoardResolver = (*TrackerGateway)(nil)

// TrackerGateway talks to one tracker instance. It is safe for
// concurrent use; the only mutable state is the renewed session cookie
// and the worklog-to-card index built during fetches.
type TrackerGateway struct {
	baseURL        *url.URL
	defaultHeaders map[string]string
	auth           authConfig
	client         *http.Client
	boardName      string
	projectRef     string

	boardMu sync.Mutex
	board   server.BoardInfo

	sessionMu    sync.Mutex
	sessionToken string

	worklogMu    sync.Mutex
	worklogCards map[string]string
}

func NewTrackerGateway(tracker config.Tracker, board config.Board) (*TrackerGateway, error) {
	baseURL, err := parseBaseURL(tracker.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := buildAuthConfig(tracker.Auth)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := tlsconfig.BuildTLSConfig(tracker.TLS, "tracker")
	if err != nil {
		return nil, err
	}

	timeout := defaultHTTPTimeout
	if strings.TrimSpace(tracker.Timeout) != "" {
		parsed, err := time.ParseDuration(tracker.Timeout)
		if err != nil || parsed <= 0 {
			return nil, validationError("tracker.timeout is invalid", err)
		}
		timeout = parsed
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &TrackerGateway{
		baseURL:        baseURL,
		defaultHeaders: cloneStringMap(tracker.DefaultHeaders),
		auth:           auth,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		boardName:    strings.TrimSpace(board.Board),
		projectRef:   strings.TrimSpace(board.Project),
		worklogCards: map[string]string{},
	}, nil
}

type requestSpec struct {
	method string
	path   string
	query  map[string]string
	body   any
}

// execute runs one request against the tracker. Transport failures and
// 5xx responses are retried with bounded exponential backoff; typed
// errors from 4xx classification are returned as-is.
func (g *TrackerGateway) execute(ctx context.Context, spec requestSpec) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, remoteError("request canceled while retrying", ctx.Err())
			case <-time.After(delay):
			}
		}

		body, err := g.executeOnce(ctx, spec)
		if err == nil {
			return body, nil
		}
		if !faults.IsCategory(err, faults.RemoteError) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (g *TrackerGateway) executeOnce(ctx context.Context, spec requestSpec) ([]byte, error) {
	request, err := g.newRequest(ctx, spec)
	if err != nil {
		return nil, err
	}

	response, err := g.client.Do(request)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, internalError("request canceled", err)
		}
		return nil, remoteError("tracker request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, remoteError("failed to read tracker response", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return nil, classifyStatusError(response.StatusCode, body)
	}
	return body, nil
}

func (g *TrackerGateway) newRequest(ctx context.Context, spec requestSpec) (*http.Request, error) {
	target := *g.baseURL
	target.Path = joinBaseAndRequestPath(g.baseURL.Path, spec.path)

	values := target.Query()
	if len(spec.query) > 0 {
		keys := make([]string, 0, len(spec.query))
		for key := range spec.query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			values.Set(key, spec.query[key])
		}
	}
	target.RawQuery = values.Encode()

	var bodyReader io.Reader
	if spec.body != nil {
		encoded, err := json.Marshal(spec.body)
		if err != nil {
			return nil, internalError("failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, spec.method, target.String(), bodyReader)
	if err != nil {
		return nil, internalError("failed to create tracker request", err)
	}

	request.Header.Set("Accept", defaultMediaType)
	if spec.body != nil {
		request.Header.Set("Content-Type", defaultMediaType)
	}
	for key, value := range g.defaultHeaders {
		request.Header.Set(key, value)
	}

	g.applyAuth(request)
	return request, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, validationError("tracker.base-url is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil, validationError("tracker.base-url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("tracker.base-url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("tracker.base-url host is required", nil)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed, nil
}

func joinBaseAndRequestPath(basePath, requestPath string) string {
	base := strings.TrimSuffix(basePath, "/")
	request := strings.TrimPrefix(requestPath, "/")
	return base + "/" + request
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}

func (g *TrackerGateway) rememberWorklogCard(worklogID, cardID string) {
	g.worklogMu.Lock()
	defer g.worklogMu.Unlock()
	g.worklogCards[worklogID] = cardID
}

func (g *TrackerGateway) worklogCard(worklogID string) (string, bool) {
	g.worklogMu.Lock()
	defer g.worklogMu.Unlock()
	cardID, ok := g.worklogCards[worklogID]
	return cardID, ok
}
