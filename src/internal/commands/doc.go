// Package commands implements the CLI subcommands of openwrt-monitor.
//
// Each command implements Runner: Init parses flags and loads the
// configuration, Run does the work and Name routes the subcommand.
//
// Available commands:
//   - service: poll every router and serve the HTTP API until stopped
//   - status: poll routers once and print their snapshots
//   - probe: log in and report the data protocol of each router
//   - action: run a configured or ad-hoc action against one router
//   - check-config: validate the configuration file
package commands
