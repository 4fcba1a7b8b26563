package local

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"originfunc/pkg/lambda"
	"originfunc/pkg/validator"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, fn lambda.Function, opts ...func(*Server)) *httptest.Server {
	t.Helper()
	v, err := validator.New(validator.Config{Subdomain: "appname"})
	require.NoError(t, err)

	s := NewServer("0", lambda.NewHandler(v, fn, nil), nil)
	for _, opt := range opts {
		opt(s)
	}
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func echo(ctx context.Context) (interface{}, error) {
	return map[string]string{"hello": "world"}, nil
}

func get(t *testing.T, url, origin string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestInvokeAllowed(t *testing.T) {
	ts := newTestServer(t, echo)

	resp, body := get(t, ts.URL+"/status", "https://appname.rll-dev.byu.edu")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://appname.rll-dev.byu.edu", resp.Header.Get(validator.AllowOriginHeader))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"hello":"world"}`, body)
}

func TestInvokeRejected(t *testing.T) {
	ts := newTestServer(t, echo)

	tests := []struct {
		name   string
		origin string
	}{
		{"missing", ""},
		{"wrong domain", "https://appname.evil.com"},
		{"wrong subdomain", "https://other.rll.byu.edu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/", tt.origin)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Empty(t, resp.Header.Get(validator.AllowOriginHeader))
			assert.Contains(t, body, "request does not come from an allowed")
		})
	}
}

func TestInvokeFunctionError(t *testing.T) {
	ts := newTestServer(t, func(ctx context.Context) (interface{}, error) {
		return nil, io.ErrUnexpectedEOF
	})

	resp, _ := get(t, ts.URL+"/", "https://appname.rll.byu.edu")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestInvokeBodyTooLarge(t *testing.T) {
	var called atomic.Bool
	ts := newTestServer(t, func(ctx context.Context) (interface{}, error) {
		called.Store(true)
		return nil, nil
	}, func(s *Server) { s.maxBody = 16 })

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/", strings.NewReader(strings.Repeat("x", 17)))
	require.NoError(t, err)
	req.Header.Set("Origin", "https://appname.rll.byu.edu")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.False(t, called.Load())

	req, err = http.NewRequest(http.MethodPost, ts.URL+"/", strings.NewReader(strings.Repeat("x", 16)))
	require.NoError(t, err)
	req.Header.Set("Origin", "https://appname.rll.byu.edu")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, called.Load())
}

func TestToProxyRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/items?id=1&id=2&q=x", strings.NewReader(`{"a":1}`))
	r.Header.Set("Origin", "https://appname.rll.byu.edu")
	r.Header.Add("X-Tag", "one")
	r.Header.Add("X-Tag", "two")

	req, err := toProxyRequest(r)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.HTTPMethod)
	assert.Equal(t, "/items", req.Path)
	assert.Equal(t, `{"a":1}`, req.Body)
	assert.Equal(t, "https://appname.rll.byu.edu", req.Headers["Origin"])
	assert.Equal(t, "one", req.Headers["X-Tag"])
	assert.Equal(t, []string{"one", "two"}, req.MultiValueHeaders["X-Tag"])
	assert.Equal(t, "1", req.QueryStringParameters["id"])
	assert.Equal(t, []string{"1", "2"}, req.MultiValueQueryStringParameters["id"])
}

func TestWriteProxyResponse(t *testing.T) {
	w := httptest.NewRecorder()
	writeProxyResponse(w, &events.APIGatewayProxyResponse{
		StatusCode:        http.StatusAccepted,
		Headers:           map[string]string{"Content-Type": "text/plain"},
		MultiValueHeaders: map[string][]string{"Set-Cookie": {"a=1", "b=2"}},
		Body:              "ok",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, []string{"a=1", "b=2"}, w.Header().Values("Set-Cookie"))
	assert.Equal(t, "ok", w.Body.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	v, err := validator.New(validator.Config{Subdomain: "appname"})
	require.NoError(t, err)
	s := NewServer("0", lambda.NewHandler(v, echo, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
