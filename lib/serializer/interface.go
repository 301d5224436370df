package serializer

// Serializer is the interface for all document serializers used by the
// storage façade. The backend only ever sees the opaque bytes produced by
// Marshal; inputs that cannot be represented by the chosen encoding (cyclic
// references, functions, channels) are a caller error and surface as a
// Marshal failure.
type Serializer interface {
	// Marshal serializes a value into a byte slice.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes a byte slice into the value pointed to by v.
	Unmarshal(data []byte, v any) error
	// Name returns the identifier of the encoding (e.g. "json").
	Name() string
}
