package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabagent/cli/pkg/auth"
)

type staticCredential struct {
	token  string
	err    error
	scopes []string
}

func (c *staticCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newTestClient(token string) *Client {
	cred := &staticCredential{token: token}
	return New(auth.NewWithCredential(cred), []string{auth.FabricScope})
}

func TestDoJSONSendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	var out struct {
		Id string `json:"id"`
	}
	err := newTestClient("test-token").DoJSON(context.Background(), http.MethodGet, srv.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.Id)
}

func TestDoMergesQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-05-01-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		assert.NotEmpty(t, r.Header.Get("Activityid"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	query := url.Values{"api-version": {"2024-05-01-preview"}}
	header := http.Header{"Activityid": {"corr-1"}}
	err := newTestClient("t").Do(context.Background(), http.MethodGet, srv.URL+"?order=asc", query, header, nil, nil)
	require.NoError(t, err)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, IsUnauthorized},
		{http.StatusForbidden, IsForbidden},
		{http.StatusNotFound, IsNotFound},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"error":{"code":"SomeCode","message":"nope"}}`))
		}))
		err := newTestClient("t").DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
		srv.Close()

		require.Error(t, err)
		assert.True(t, tc.check(err), "status %d not classified", tc.status)
		assert.Equal(t, "SomeCode", ErrorCode(err))

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, tc.status, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "nope")
	}
}

func TestErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	err := newTestClient("t").DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.Empty(t, ErrorCode(err))
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "500")
}

func TestTokenFailureAborts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	cred := &staticCredential{err: errors.New("invalid client secret")}
	c := New(auth.NewWithCredential(cred), []string{auth.FabricScope})
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get auth token")
	assert.False(t, called, "no request should be sent without a token")
}
