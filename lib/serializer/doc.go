// Package serializer provides the pluggable document encodings used by the
// storage façade. The façade stores opaque byte payloads; a Serializer owns
// the mapping between structured documents and those payloads.
//
// Two implementations are provided: JSON (the default) and YAML. Both are
// selected by name through the CLI/configuration layer. A value that the
// chosen encoding cannot represent is rejected at Marshal time and never
// reaches a backend.
package serializer
