package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/backend/memory"
	"github.com/mjansen/strata/lib/facade"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	bk := memory.New()
	store := facade.NewStore(bk, nil)
	srv := New(Config{}, bk, store, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = bk.Close()
	})
	return ts
}

func doRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// --------------------------------------------------------------------------
// Scalar Endpoints
// --------------------------------------------------------------------------

func TestKVRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodPut, ts.URL+"/kv/greeting", []byte("hello"))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/kv/greeting", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	resp = doRequest(t, http.MethodDelete, ts.URL+"/kv/greeting", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/kv/greeting", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKeysPattern(t *testing.T) {
	ts := newTestServer(t)

	for _, key := range []string{"item1", "item2", "other"} {
		resp := doRequest(t, http.MethodPut, ts.URL+"/kv/"+key, []byte("v"))
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	resp := doRequest(t, http.MethodGet, ts.URL+"/keys?pattern=item*", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var keys []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&keys))
	assert.ElementsMatch(t, []string{"item1", "item2"}, keys)
}

// --------------------------------------------------------------------------
// Collection Endpoints
// --------------------------------------------------------------------------

func TestCollectionCRUD(t *testing.T) {
	ts := newTestServer(t)

	doc := []byte(`{"name":"Test Item","value":42}`)
	resp := doRequest(t, http.MethodPut, ts.URL+"/collections/items/1", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/collections/items/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res facade.Result[facade.Document]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.True(t, res.Success)
	assert.Equal(t, "Test Item", res.Data["name"])
	assert.Equal(t, 42.0, res.Data["value"])

	resp = doRequest(t, http.MethodDelete, ts.URL+"/collections/items/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/collections/items/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollectionGetMissShape(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/collections/items/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var wire map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wire))
	assert.Equal(t, false, wire["success"])
	assert.Equal(t, "Key not found", wire["error"])
	assert.NotContains(t, wire, "data")
}

// A stored payload another producer corrupted must surface as a server-side
// failure with the Result failure shape, not a decode panic.
func TestCollectionGetCorruptPayload(t *testing.T) {
	ts := newTestServer(t)

	// write malformed bytes straight into the composite key via the raw endpoint
	resp := doRequest(t, http.MethodPut, ts.URL+"/kv/items:1", []byte("{not json"))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/collections/items/1", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var wire map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wire))
	assert.Equal(t, false, wire["success"])
	assert.Contains(t, wire["error"], "malformed")
}

func TestCollectionSetRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodPut, ts.URL+"/collections/items/1", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCollectionListAndPrefix(t *testing.T) {
	ts := newTestServer(t)

	for id, name := range map[string]string{"user_1": "a", "user_2": "b", "admin_1": "c"} {
		doc := []byte(`{"name":"` + name + `"}`)
		resp := doRequest(t, http.MethodPut, ts.URL+"/collections/accounts/"+id, doc)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doRequest(t, http.MethodGet, ts.URL+"/collections/accounts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all facade.Result[[]facade.Document]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	require.True(t, all.Success)
	assert.Len(t, all.Data, 3)

	resp = doRequest(t, http.MethodGet, ts.URL+"/collections/accounts?prefix=user_", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prefixed facade.Result[[]facade.Document]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prefixed))
	require.True(t, prefixed.Success)
	assert.Len(t, prefixed.Data, 2)
}

func TestCollectionQuery(t *testing.T) {
	ts := newTestServer(t)

	for id, doc := range map[string]string{
		"1": `{"name":"nut","price":2}`,
		"2": `{"name":"bolt","price":3.5}`,
	} {
		resp := doRequest(t, http.MethodPut, ts.URL+"/collections/products/"+id, []byte(doc))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	query := []byte(`{"filters":[{"field":"price","op":"gt","value":3}]}`)
	resp := doRequest(t, http.MethodPost, ts.URL+"/collections/products/query", query)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res facade.Result[facade.QueryResult]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.True(t, res.Success)
	require.Len(t, res.Data.Items, 1)
	assert.Equal(t, "bolt", res.Data.Items[0]["name"])
	assert.Equal(t, 1, res.Data.Total)
}

func TestCollectionQueryValidation(t *testing.T) {
	ts := newTestServer(t)

	query := []byte(`{"filters":[{"field":"price","op":"matches","value":3}]}`)
	resp := doRequest(t, http.MethodPost, ts.URL+"/collections/products/query", query)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --------------------------------------------------------------------------
// Liveness and Metrics
// --------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status facade.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Healthy)
	assert.Equal(t, "memory", status.Backend)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// generate at least one counted request first
	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `strata_http_requests_total{route="healthz"}`)
}

func TestStatsEndpoint(t *testing.T) {
	bk := backend.NewInstrumented(memory.New())
	store := facade.NewStore(bk, nil)
	srv := New(Config{}, bk, store, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = bk.Close()
	})

	resp := doRequest(t, http.MethodPut, ts.URL+"/kv/stat-key", []byte("v"))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]backend.OpStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Contains(t, stats, "set")
	assert.Equal(t, uint64(1), stats["set"].Count)
}

// an uninstrumented backend must not expose the stats route
func TestStatsEndpointAbsentWithoutInstrumentation(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/stats", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
