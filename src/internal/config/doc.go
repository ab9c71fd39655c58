// Package config handles configuration file parsing and validation for openwrt-monitor.
//
// The configuration is TOML by default; files ending in .yaml or .yml are read
// as YAML with the same field names. After decoding, defaults are applied and
// ValidateConfig reports every problem at once as ValidationErrors.
//
// # Configuration Structure
//
//	[general]
//	api_listen = "0.0.0.0:12121"
//
//	[[router]]
//	name = "home"
//	host = "http://192.168.1.1"
//	username = "root"
//	password = "secret"
//	update_interval_seconds = 10
//
//	[[router.action]]
//	name = "reconnect_wan"
//	kind = "reconnect_interface"
//	target = "wan"
//
// Credentials are immutable for the lifetime of a router instance; changing
// them means reloading the configuration, which builds fresh instances.
package config
