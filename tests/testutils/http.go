package testutils

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	*httptest.Server
	t *testing.T
}

// NewTestServer starts handler on a loopback listener. Redirects are not
// followed so tests can assert on them.
func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	server := httptest.NewServer(handler)
	server.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	t.Cleanup(server.Close)
	return &TestServer{
		Server: server,
		t:      t,
	}
}

func (ts *TestServer) GET(path string) *http.Response {
	resp, err := ts.Client().Get(ts.URL + path)
	require.NoError(ts.t, err)
	return resp
}

func (ts *TestServer) POST(path string, body interface{}) *http.Response {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(ts.t, err)
		bodyReader = bytes.NewReader(jsonBody)
	}

	resp, err := ts.Client().Post(ts.URL+path, "application/json", bodyReader)
	require.NoError(ts.t, err)
	return resp
}

func (ts *TestServer) POSTForm(path string, form url.Values) *http.Response {
	resp, err := ts.Client().Post(ts.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(ts.t, err)
	return resp
}

// Do sends req with the server's client.
func (ts *TestServer) Do(req *http.Request) *http.Response {
	resp, err := ts.Client().Do(req)
	require.NoError(ts.t, err)
	return resp
}

func AssertJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, target interface{}) {
	require.Equal(t, expectedStatus, resp.StatusCode)

	if target != nil {
		defer resp.Body.Close()
		err := json.NewDecoder(resp.Body).Decode(target)
		require.NoError(t, err)
	}
}

func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	require.Equal(t, expectedStatus, resp.StatusCode)

	defer resp.Body.Close()
	var errorResp map[string]interface{}
	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	require.NoError(t, err)

	require.Equal(t, false, errorResp["success"])
	if expectedMessage != "" {
		require.Contains(t, errorResp["error"], expectedMessage)
	}
}

func ReadBody(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
