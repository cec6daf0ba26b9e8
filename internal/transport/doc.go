// Package transport provides the HTTP client shared by the status sources.
//
// The main components are:
//
//   - [Client]: pooled HTTP client with per-request timeouts and a 1MB
//     body limit
//   - [Response]: result of a raw request, with errors captured in-value
//   - [StatusError]: non-2xx API response, carrying the status code so the
//     poller can recognise rate limiting
package transport
