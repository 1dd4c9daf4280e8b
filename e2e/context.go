package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext drives a running carewatch server over HTTP and keeps the last
// response for assertions. One TestContext lives for one scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	role       string
	clientIP   string
	lastStatus int
	lastBody   []byte
	lastHeader http.Header
	vars       map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		vars:    make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.role = ""
	tc.clientIP = fmt.Sprintf("198.51.100.%d", time.Now().UnixNano()%250+1)
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeader = nil
	tc.vars = make(map[string]string)
}

func (tc *TestContext) SetRole(role string) {
	tc.role = role
}

func (tc *TestContext) Set(name, value string) {
	tc.vars[name] = value
}

func (tc *TestContext) Get(name string) string {
	return tc.vars[name]
}

// Expand replaces {name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func (tc *TestContext) GET(ctx context.Context, path string) error {
	return tc.do(ctx, http.MethodGet, path, nil)
}

func (tc *TestContext) POST(ctx context.Context, path string, body any) error {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	return tc.do(ctx, http.MethodPost, path, r)
}

func (tc *TestContext) do(ctx context.Context, method, path string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+tc.Expand(path), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.role != "" {
		req.Header.Set("X-Role", tc.role)
	}
	// spread scenarios across rate limit buckets
	req.Header.Set("X-Forwarded-For", tc.clientIP)

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	return tc.lastHeader.Get(name)
}

// GetResponseField reads a dotted path such as "slots.0" from the last JSON body.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := doc
	for _, part := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			cur = v
		case []any:
			var idx int
			if _, err := fmt.Sscanf(part, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, field)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return cur, nil
}
