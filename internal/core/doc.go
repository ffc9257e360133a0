// Package core manages the connection to the remote core process that
// owns document truth.
//
// The core speaks a line protocol: one JSON object per newline-terminated
// message over the child process's stdin/stdout. Traffic comes in three
// shapes:
//
//   - Request: {"method": ..., "params": ..., "id": n}
//   - Notification: {"method": ..., "params": ...}
//   - Response: {"id": n, "result": ...}
//
// Peer is the correlator: it allocates request ids, matches responses to
// their completion callbacks, and dispatches notifications to a Handler
// from one dedicated receive goroutine, in arrival order. Process
// launches and supervises the core executable and hands its stdio to a
// Peer.
//
// There is no timeout or cancellation for outstanding requests: the core
// is a local child process on a low-volume protocol, and a request whose
// response never arrives simply leaves its callback unfired. Callers that
// need a bounded wait layer their own timeout over the callback and can
// observe disconnection through Peer.Done.
package core
