// Package server exposes a strata backend and its storage façade over HTTP.
//
// Two endpoint families are served:
//
//   - /kv/{key} speaks raw bytes against the backend's scalar operations
//     (PUT stores the request body, GET returns it, DELETE removes it).
//     /keys?pattern= scans the keyspace with a glob pattern.
//   - /collections/{collection}/{id} speaks JSON documents through the
//     façade; every response body is the façade's Result shape. A
//     collection can be listed (optionally by id prefix) and queried with
//     conjunctive filters via POST .../query.
//
// GET /healthz probes the backend and reports 200 or 503, GET /metrics
// serves Prometheus text format including a per-route request counter. When
// the injected backend records per-operation statistics (backend.Instrumented
// does), GET /stats serves a JSON snapshot of them.
//
// The server holds no state of its own; everything is delegated to the
// injected backend and façade.
package server
