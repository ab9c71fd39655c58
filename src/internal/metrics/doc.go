// Package metrics exports poller activity and the latest router snapshots
// in the Prometheus exposition format.
package metrics
