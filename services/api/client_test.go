package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token   string
	expired int
}

func (f *fakeTokens) GetToken(context.Context) string { return f.token }

func (f *fakeTokens) Expire(context.Context) error {
	f.token = ""
	f.expired++
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", tokens, 5*time.Second, nil, nil)
}

func TestDoSendsHeadersAndDecodesData(t *testing.T) {
	var got *http.Request
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"id": "b1"}})
	}, &fakeTokens{token: "tok"})

	var out struct {
		ID string `json:"id"`
	}
	err := c.Post(context.Background(), "/bookings", map[string]string{"a": "b"}, &out,
		WithHeader("X-Trace", "1"),
		WithHeader("Authorization", "Basic nope"),
	)
	require.NoError(t, err)

	assert.Equal(t, "b1", out.ID)
	assert.Equal(t, "/bookings", got.URL.Path)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"), "caller headers never override the bearer")
	assert.Equal(t, "1", got.Header.Get("X-Trace"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Equal(t, map[string]string{"a": "b"}, body)
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, &fakeTokens{})

	require.NoError(t, c.Get(context.Background(), "/ping", nil))
	assert.Empty(t, auth)
}

func TestDoMultipartKeepsCallerContentType(t *testing.T) {
	var ct, payload string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		payload = string(b)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, nil)

	err := c.Do(context.Background(), http.MethodPost, "/drivers/documents",
		strings.NewReader("--x\r\n"), nil, WithMultipart("multipart/form-data; boundary=x"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary=x", ct)
	assert.Equal(t, "--x\r\n", payload)
}

func TestDoUnauthorizedExpiresToken(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		tokens := &fakeTokens{token: "tok"}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]any{"success": false, "message": "Token expired"})
		}, tokens)

		err := c.Get(context.Background(), "/drivers/profile", nil)
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.Status)
		assert.Equal(t, "Token expired", apiErr.Message)
		assert.True(t, IsUnauthorized(err))
		assert.Equal(t, 1, tokens.expired)
		assert.Empty(t, tokens.token)
	}
}

func TestDoUnauthorizedMalformedBodyStillExpires(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		tokens := &fakeTokens{token: "tok"}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"success": false, "message": `))
		}, tokens)

		err := c.Get(context.Background(), "/admin/dashboard", nil)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.Status)
		assert.Equal(t, "Session expired. Please log in again.", apiErr.Message)
		assert.NotErrorIs(t, err, ErrInvalidResponse)
		assert.Equal(t, 1, tokens.expired)
		assert.Empty(t, tokens.token)
	}
}

func TestDoMalformedJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": tru`))
	}, nil)

	err := c.Get(context.Background(), "/x", nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDoServerFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload map[string]any
		message string
	}{
		{"server message", http.StatusBadRequest, map[string]any{"success": false, "message": "Booking already taken"}, "Booking already taken"},
		{"no message", http.StatusInternalServerError, map[string]any{"success": false}, "Request failed with status 500"},
		{"success false on 200", http.StatusOK, map[string]any{"success": false, "message": "Nope"}, "Nope"},
		{"success false no message", http.StatusOK, map[string]any{"success": false}, "Request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.payload)
			}, nil)
			err := c.Get(context.Background(), "/x", nil)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestDoNonJSONResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}, nil)

	err := c.Get(context.Background(), "/x", nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, "fallback", Message(errors.New("x"), "fallback"))
	assert.Contains(t, Message(err, "fallback"), "invalid server response")
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, time.Second, nil, nil)
	err := c.Get(context.Background(), "/x", nil)
	assert.ErrorIs(t, err, ErrBackendUnreachable)

	normalized := Normalize(err, "fallback")
	assert.ErrorIs(t, normalized, ErrBackendUnreachable)
}

func TestNotFoundDetection(t *testing.T) {
	assert.True(t, IsNotFound(&Error{Status: http.StatusNotFound, Message: "x"}))
	assert.True(t, IsNotFound(&Error{Status: http.StatusBadRequest, Message: "Driver profile Not Found"}))
	assert.False(t, IsNotFound(&Error{Status: http.StatusInternalServerError, Message: "boom"}))
	assert.False(t, IsNotFound(nil))
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil, "x"))

	apiErr := &Error{Status: 409, Message: "conflict"}
	assert.Same(t, apiErr, Normalize(apiErr, "x"))

	var out *Error
	require.ErrorAs(t, Normalize(errors.New("weird"), "Failed to accept booking"), &out)
	assert.Equal(t, "Failed to accept booking", out.Message)
}

func TestDecodePage(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}

	page, err := DecodePage[item](json.RawMessage(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total())

	page, err = DecodePage[item](json.RawMessage(`{"bookings":[{"id":"a"}],"pagination":{"page":1,"limit":1,"total":42}}`))
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "a"}}, page.Items)
	assert.Equal(t, 42, page.Total())

	page, err = DecodePage[item](json.RawMessage(`{"users":[{"id":"a"}],"total":7}`))
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total())

	page, err = DecodePage[item](nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total())
}
