// Package hashing computes content checksums while data is read.
//
// The service uses it to tell whether the configuration file changed
// between reloads.
package hashing
