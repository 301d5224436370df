package facade

import (
	"fmt"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/glob"
	"github.com/mjansen/strata/lib/serializer"
)

// keyNotFoundMsg is the exact miss message of the Get operation. It is part
// of the façade's contract: callers distinguish a typed miss from a backend
// outage by this message together with RetCNotFound.
const keyNotFoundMsg = "Key not found"

// Document is the structured record type flowing through the façade.
type Document = map[string]any

// Store translates collection-oriented CRUD into backend primitive calls,
// owns (de)serialization and normalizes every outcome into a Result. The
// backend is injected at construction and shared; a Store holds no state of
// its own beyond its collaborators.
type Store struct {
	backend    backend.Backend
	serializer serializer.Serializer
}

// NewStore creates a façade over the given backend. A nil serializer
// selects the JSON default.
func NewStore(bk backend.Backend, s serializer.Serializer) *Store {
	if s == nil {
		s = serializer.NewJSONSerializer()
	}
	return &Store{backend: bk, serializer: s}
}

// compositeKey scopes an id into its collection's key namespace.
func compositeKey(collection, id string) string {
	return collection + ":" + id
}

// --------------------------------------------------------------------------
// CRUD Operations
// --------------------------------------------------------------------------

// Set serializes data and upserts it under (collection, id). On success the
// original document is returned unchanged.
func (s *Store) Set(collection, id string, data Document) Result[Document] {
	payload, err := s.serializer.Marshal(data)
	if err != nil {
		return Fail[Document](NewError(RetCSerialization,
			fmt.Sprintf("cannot serialize document: %v", err)))
	}
	if err := s.backend.Set(compositeKey(collection, id), payload); err != nil {
		return Fail[Document](unavailable(err))
	}
	return Ok(data)
}

// Get retrieves the document stored under (collection, id). A missing key
// is a typed miss, not a backend failure.
func (s *Store) Get(collection, id string) Result[Document] {
	payload, found, err := s.backend.Get(compositeKey(collection, id))
	if err != nil {
		return Fail[Document](unavailable(err))
	}
	if !found {
		return Fail[Document](NewError(RetCNotFound, keyNotFoundMsg))
	}
	return s.decode(payload)
}

// Delete removes the record under (collection, id). Deleting a non-existent
// record succeeds.
func (s *Store) Delete(collection, id string) Result[struct{}] {
	if err := s.backend.Delete(compositeKey(collection, id)); err != nil {
		return Fail[struct{}](unavailable(err))
	}
	return Ok(struct{}{})
}

// GetAll returns every document in a collection, in no particular order.
func (s *Store) GetAll(collection string) Result[[]Document] {
	return s.scan(glob.Escape(collection+":") + "*")
}

// GetByPrefix returns the documents whose id starts with prefix.
func (s *Store) GetByPrefix(collection, prefix string) Result[[]Document] {
	return s.scan(glob.Escape(compositeKey(collection, prefix)) + "*")
}

// scan fetches and decodes every document whose composite key matches the
// pattern.
func (s *Store) scan(pattern string) Result[[]Document] {
	keys, err := s.backend.Keys(pattern)
	if err != nil {
		return Fail[[]Document](unavailable(err))
	}

	documents := make([]Document, 0, len(keys))
	for _, key := range keys {
		payload, found, err := s.backend.Get(key)
		if err != nil {
			return Fail[[]Document](unavailable(err))
		}
		if !found {
			// key vanished between scan and read; skip, absence is not an error
			continue
		}
		decoded := s.decode(payload)
		if !decoded.Success {
			return Fail[[]Document](decoded.Err())
		}
		documents = append(documents, decoded.Data)
	}
	return Ok(documents)
}

// Query runs conjunctive filters over a full collection scan. There is no
// index pushdown; this is only suitable for small collections.
func (s *Store) Query(collection string, q Query) Result[QueryResult] {
	if err := q.validate(); err != nil {
		return Fail[QueryResult](err)
	}

	all := s.GetAll(collection)
	if !all.Success {
		return Fail[QueryResult](all.Err())
	}

	matched := make([]Document, 0)
	for _, doc := range all.Data {
		if q.matches(doc) {
			matched = append(matched, doc)
		}
	}

	total := len(matched)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return Ok(QueryResult{Items: matched, Total: total})
}

// --------------------------------------------------------------------------
// Health
// --------------------------------------------------------------------------

// HealthStatus reports the outcome of a backend liveness probe together
// with the backend's static metadata.
type HealthStatus struct {
	Healthy bool           `json:"healthy"`
	Backend string         `json:"backend"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthCheck probes the backend and reports its identity. It never returns
// an error; an unreachable backend yields Healthy=false with the failure in
// the details.
func (s *Store) HealthCheck() HealthStatus {
	info := s.backend.Info()
	status := HealthStatus{Backend: info.Name, Details: map[string]any{
		"version":    info.Version,
		"size_bytes": info.SizeBytes,
	}}

	ack, err := s.backend.Ping()
	if err != nil {
		status.Details["error"] = err.Error()
		return status
	}
	if ack != backend.Pong {
		status.Details["error"] = fmt.Sprintf("unexpected ping response %q", ack)
		return status
	}
	status.Healthy = true
	return status
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// decode turns a stored payload back into a document.
func (s *Store) decode(payload []byte) Result[Document] {
	var doc Document
	if err := s.serializer.Unmarshal(payload, &doc); err != nil {
		return Fail[Document](NewError(RetCSerialization,
			fmt.Sprintf("stored payload is malformed: %v", err)))
	}
	return Ok(doc)
}

// unavailable wraps a backend error into the retryable failure class.
func unavailable(err error) *Error {
	return NewError(RetCBackendUnavailable, err.Error())
}
