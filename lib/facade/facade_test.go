package facade_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/backend/memory"
	"github.com/mjansen/strata/lib/facade"
	"github.com/mjansen/strata/lib/serializer"
)

func newStore(t *testing.T) *facade.Store {
	t.Helper()
	bk := memory.New()
	t.Cleanup(func() { _ = bk.Close() })
	return facade.NewStore(bk, nil)
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newStore(t)

	doc := facade.Document{"id": "1", "name": "Test Item", "value": 42.0}
	res := store.Set("items", "1", doc)
	require.True(t, res.Success, "set failed: %s", res.Error)

	got := store.Get("items", "1")
	require.True(t, got.Success, "get failed: %s", got.Error)
	assert.Equal(t, doc, got.Data)
}

func TestGetMissing(t *testing.T) {
	store := newStore(t)

	res := store.Get("items", "does-not-exist")
	require.False(t, res.Success)
	assert.Equal(t, "Key not found", res.Error)
	assert.Equal(t, facade.RetCNotFound, res.Code)
}

func TestDeleteThenGet(t *testing.T) {
	store := newStore(t)

	require.True(t, store.Set("items", "1", facade.Document{"name": "x"}).Success)
	require.True(t, store.Delete("items", "1").Success)

	res := store.Get("items", "1")
	require.False(t, res.Success)
	assert.Equal(t, "Key not found", res.Error)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newStore(t)

	assert.True(t, store.Delete("items", "never-existed").Success)
	assert.True(t, store.Delete("items", "never-existed").Success)
}

func TestSetOverwrites(t *testing.T) {
	store := newStore(t)

	require.True(t, store.Set("items", "1", facade.Document{"v": "old"}).Success)
	require.True(t, store.Set("items", "1", facade.Document{"v": "new"}).Success)

	got := store.Get("items", "1")
	require.True(t, got.Success)
	assert.Equal(t, "new", got.Data["v"])
}

func TestGetAllScopesByCollection(t *testing.T) {
	store := newStore(t)

	require.True(t, store.Set("users", "1", facade.Document{"name": "a"}).Success)
	require.True(t, store.Set("users", "2", facade.Document{"name": "b"}).Success)
	require.True(t, store.Set("orders", "1", facade.Document{"name": "c"}).Success)

	res := store.GetAll("users")
	require.True(t, res.Success)
	assert.Len(t, res.Data, 2)

	empty := store.GetAll("missing")
	require.True(t, empty.Success)
	assert.Empty(t, empty.Data)
}

func TestGetByPrefix(t *testing.T) {
	store := newStore(t)

	require.True(t, store.Set("accounts", "user_1", facade.Document{"name": "u1"}).Success)
	require.True(t, store.Set("accounts", "user_2", facade.Document{"name": "u2"}).Success)
	require.True(t, store.Set("accounts", "admin_1", facade.Document{"name": "a1"}).Success)

	res := store.GetByPrefix("accounts", "user_")
	require.True(t, res.Success)
	require.Len(t, res.Data, 2)
	for _, doc := range res.Data {
		assert.Contains(t, []any{"u1", "u2"}, doc["name"])
	}
}

// Composite keys with glob metacharacters must be treated literally.
func TestPrefixEscapesGlobCharacters(t *testing.T) {
	store := newStore(t)

	require.True(t, store.Set("files", "*.txt", facade.Document{"name": "star"}).Success)
	require.True(t, store.Set("files", "a.txt", facade.Document{"name": "plain"}).Success)

	res := store.GetByPrefix("files", "*")
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "star", res.Data[0]["name"])
}

func TestQueryFilters(t *testing.T) {
	store := newStore(t)

	require.True(t, store.Set("products", "1", facade.Document{"name": "nut", "price": 2.0, "stock": 10.0}).Success)
	require.True(t, store.Set("products", "2", facade.Document{"name": "bolt", "price": 3.5, "stock": 0.0}).Success)
	require.True(t, store.Set("products", "3", facade.Document{"name": "washer", "price": 1.0, "stock": 4.0}).Success)

	t.Run("Eq", func(t *testing.T) {
		res := store.Query("products", facade.Query{Filters: []facade.Filter{
			{Field: "name", Op: facade.OpEq, Value: "bolt"},
		}})
		require.True(t, res.Success)
		require.Len(t, res.Data.Items, 1)
		assert.Equal(t, "bolt", res.Data.Items[0]["name"])
	})

	t.Run("NumericNormalization", func(t *testing.T) {
		// filter value is an int, stored value decodes as float64
		res := store.Query("products", facade.Query{Filters: []facade.Filter{
			{Field: "stock", Op: facade.OpEq, Value: 10},
		}})
		require.True(t, res.Success)
		require.Len(t, res.Data.Items, 1)
		assert.Equal(t, "nut", res.Data.Items[0]["name"])
	})

	t.Run("Conjunction", func(t *testing.T) {
		res := store.Query("products", facade.Query{Filters: []facade.Filter{
			{Field: "price", Op: facade.OpGte, Value: 1.5},
			{Field: "stock", Op: facade.OpGt, Value: 0},
		}})
		require.True(t, res.Success)
		require.Len(t, res.Data.Items, 1)
		assert.Equal(t, "nut", res.Data.Items[0]["name"])
	})

	t.Run("NeqMatchesMissingField", func(t *testing.T) {
		require.True(t, store.Set("products", "4", facade.Document{"name": "misc"}).Success)
		defer store.Delete("products", "4")

		res := store.Query("products", facade.Query{Filters: []facade.Filter{
			{Field: "price", Op: facade.OpNeq, Value: 2.0},
		}})
		require.True(t, res.Success)
		names := make([]any, 0, len(res.Data.Items))
		for _, doc := range res.Data.Items {
			names = append(names, doc["name"])
		}
		assert.ElementsMatch(t, []any{"bolt", "washer", "misc"}, names)
	})

	t.Run("LimitKeepsTotal", func(t *testing.T) {
		res := store.Query("products", facade.Query{Limit: 2})
		require.True(t, res.Success)
		assert.Len(t, res.Data.Items, 2)
		assert.Equal(t, 3, res.Data.Total)
	})

	t.Run("StringOrdering", func(t *testing.T) {
		res := store.Query("products", facade.Query{Filters: []facade.Filter{
			{Field: "name", Op: facade.OpLt, Value: "nut"},
		}})
		require.True(t, res.Success)
		require.Len(t, res.Data.Items, 1)
		assert.Equal(t, "bolt", res.Data.Items[0]["name"])
	})
}

func TestQueryValidation(t *testing.T) {
	store := newStore(t)

	res := store.Query("products", facade.Query{Filters: []facade.Filter{
		{Field: "name", Op: "matches", Value: "x"},
	}})
	require.False(t, res.Success)
	assert.Equal(t, facade.RetCValidation, res.Code)

	res = store.Query("products", facade.Query{Limit: -1})
	require.False(t, res.Success)
	assert.Equal(t, facade.RetCValidation, res.Code)

	res = store.Query("products", facade.Query{Filters: []facade.Filter{
		{Field: "", Op: facade.OpEq, Value: "x"},
	}})
	require.False(t, res.Success)
	assert.Equal(t, facade.RetCValidation, res.Code)
}

func TestHealthCheck(t *testing.T) {
	store := newStore(t)

	status := store.HealthCheck()
	assert.True(t, status.Healthy)
	assert.Equal(t, "memory", status.Backend)
}

func TestHealthCheckUnavailableBackend(t *testing.T) {
	bk := memory.New()
	store := facade.NewStore(bk, nil)
	require.NoError(t, bk.Close())

	status := store.HealthCheck()
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Details, "error")
}

func TestBackendFailureClassification(t *testing.T) {
	bk := memory.New()
	store := facade.NewStore(bk, nil)
	require.NoError(t, bk.Close())

	res := store.Get("items", "1")
	require.False(t, res.Success)
	assert.Equal(t, facade.RetCBackendUnavailable, res.Code)
	assert.NotEqual(t, "Key not found", res.Error)
	require.NotNil(t, res.Err())
	assert.Equal(t, facade.RetCBackendUnavailable, res.Err().Code)
}

func TestSerializerInjection(t *testing.T) {
	store := facade.NewStore(memory.New(), serializer.NewYAMLSerializer())

	doc := facade.Document{"name": "yaml-backed", "value": 1.5}
	require.True(t, store.Set("items", "1", doc).Success)

	got := store.Get("items", "1")
	require.True(t, got.Success)
	assert.Equal(t, doc, got.Data)
}

// A payload written by another producer in a different encoding must surface
// as a serialization failure, not a panic or silent empty document.
func TestCorruptPayload(t *testing.T) {
	bk := memory.New()
	store := facade.NewStore(bk, nil)
	require.NoError(t, bk.Set("items:1", []byte("{not json")))

	res := store.Get("items", "1")
	require.False(t, res.Success)
	assert.Equal(t, facade.RetCSerialization, res.Code)
}

func TestEndToEnd(t *testing.T) {
	store := newStore(t)

	doc := facade.Document{"id": "1", "name": "Test Item", "value": 42.0}
	require.True(t, store.Set("items", "1", doc).Success)

	got := store.Get("items", "1")
	require.True(t, got.Success)
	assert.Equal(t, "Test Item", got.Data["name"])
	assert.Equal(t, 42.0, got.Data["value"])

	status := store.HealthCheck()
	assert.True(t, status.Healthy)
	assert.Equal(t, "memory", status.Backend)
}

// --------------------------------------------------------------------------
// Result Wire Shape
// --------------------------------------------------------------------------

func TestResultJSONSuccessArm(t *testing.T) {
	res := facade.Ok(facade.Document{"name": "x"})
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, true, wire["success"])
	assert.Contains(t, wire, "data")
	assert.NotContains(t, wire, "error")
}

func TestResultJSONFailureArm(t *testing.T) {
	res := facade.Fail[facade.Document](facade.NewError(facade.RetCNotFound, "Key not found"))
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, false, wire["success"])
	assert.Equal(t, "Key not found", wire["error"])
	assert.NotContains(t, wire, "data")
}

func TestResultJSONRoundTrip(t *testing.T) {
	original := facade.Ok(facade.Document{"name": "x", "n": 1.5})
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded facade.Result[facade.Document]
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, original.Data, decoded.Data)
}

// compile-time check that memory satisfies the facade's backend dependency
var _ backend.Backend = memory.New()
