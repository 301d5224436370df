package serializer

import "encoding/json"

// NewJSONSerializer creates a new serializer using json encoding. This is
// the default encoding of the storage façade.
func NewJSONSerializer() Serializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the Serializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.Serializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonSerializerImpl) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (j jsonSerializerImpl) Name() string {
	return "json"
}
