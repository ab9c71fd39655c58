// Package coordinator drives periodic polling of a single router.
//
// A Coordinator owns the poll loop, the last-known-good snapshot and the
// mutex that serializes every network operation for its router. Each cycle
// logs in when needed, fetches once, and on a rejected session logs in again
// and fetches exactly one more time. Failures mark the router unavailable
// but never stop the loop.
package coordinator
