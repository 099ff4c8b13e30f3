package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/recomp/recomp/api"
	"github.com/recomp/recomp/pkg/compare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *api.Server {
	return api.NewServer(api.ServerOptions{Port: "3000", Prefork: false})
}

func TestNewServer(t *testing.T) {
	require.NotNil(t, newTestServer())
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	resp, err := s.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var v struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "recomp API", v.Service)
	assert.NotEmpty(t, v.Version)
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompareEndpoint(t *testing.T) {
	leftPath := writeCSV(t, "left.csv", "id,val\n1,1.0\n2,2.0\n3,3.0\n")
	rightPath := writeCSV(t, "right.csv", "id,val\n1,1.0\n2,2.5\n4,4.0\n")

	body, err := json.Marshal(api.CompareRequest{
		Left:        api.SourceRequest{Type: "csv", Path: leftPath},
		Right:       api.SourceRequest{Type: "csv", Path: rightPath},
		JoinColumns: []string{"id"},
	})
	require.NoError(t, err)

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/compare", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary compare.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 2, summary.MatchedRows)
	assert.Equal(t, 1, summary.MatchingRows)
	assert.Equal(t, 1, summary.LeftOnlyRows)
	assert.Equal(t, 1, summary.RightOnlyRows)
	assert.False(t, summary.Matches)
}

func TestCompareEndpointBadRequest(t *testing.T) {
	leftPath := writeCSV(t, "left.csv", "id,val\n1,1.0\n")
	rightPath := writeCSV(t, "right.csv", "id,val\n1,1.0\n")

	// No join columns and no positional matching.
	body, err := json.Marshal(api.CompareRequest{
		Left:  api.SourceRequest{Type: "csv", Path: leftPath},
		Right: api.SourceRequest{Type: "csv", Path: rightPath},
	})
	require.NoError(t, err)

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/compare", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompareEndpointMissingFile(t *testing.T) {
	body, err := json.Marshal(api.CompareRequest{
		Left:        api.SourceRequest{Type: "csv", Path: "/nonexistent/left.csv"},
		Right:       api.SourceRequest{Type: "csv", Path: "/nonexistent/right.csv"},
		JoinColumns: []string{"id"},
	})
	require.NoError(t, err)

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/compare", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShutdown(t *testing.T) {
	s := newTestServer()
	assert.NoError(t, s.Shutdown(context.Background()))
}
