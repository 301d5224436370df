package serializer

import "gopkg.in/yaml.v3"

// NewYAMLSerializer creates a new serializer using yaml encoding. Stored
// payloads become human-readable at the cost of size; mostly useful for
// debugging and fixtures.
func NewYAMLSerializer() Serializer {
	return &yamlSerializerImpl{}
}

// yamlSerializerImpl implements the Serializer interface using yaml encoding
type yamlSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.Serializer)
// --------------------------------------------------------------------------

func (y yamlSerializerImpl) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (y yamlSerializerImpl) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (y yamlSerializerImpl) Name() string {
	return "yaml"
}
