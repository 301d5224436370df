// Package facade provides the collection-oriented storage layer of strata.
//
// A Store pairs an injected backend with a pluggable serializer and exposes
// document CRUD scoped by (collection, id). Every operation returns a
// Result: a success arm carrying typed data or a failure arm carrying an
// error code and message, never both. The JSON form of a Result is the wire
// contract shared by the HTTP routes and the CLI.
//
// Documents live in the backend under composite keys of the form
// "<collection>:<id>". Collection names containing ":" therefore alias into
// each other's namespaces; callers choosing collection names own that risk.
// Collection scans escape glob metacharacters in the prefix, so literal
// "*", "?" and "\" in collection names or id prefixes are handled correctly.
//
// Concurrency: a Store is safe for concurrent use as long as its backend
// is. Concurrent writers to the same (collection, id) follow last-writer-wins
// semantics; there is no compare-and-swap primitive.
//
// Example:
//
//	store := facade.NewStore(memory.New(), nil) // nil selects JSON
//	store.Set("users", "1", facade.Document{"name": "Ada"})
//	res := store.Get("users", "1")
//	if res.Success {
//		fmt.Println(res.Data["name"])
//	}
package facade
