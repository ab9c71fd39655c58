// Package actions executes one-shot write operations against a router:
// reboot, interface reconnect, script execution and LuCI form submission.
//
// Actions are resolved from configuration into a closed set of types and run
// through a Dispatcher inside the router coordinator's exclusive section.
// Execution is best effort: failures are logged and counted, never retried.
package actions
