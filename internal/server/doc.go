// Package server serves poll progress over HTTP.
//
// The JSON endpoints return snapshots from a [store.Store]; the SSE endpoint
// replays the current records and then streams every update until the
// client disconnects or the server shuts down.
package server
