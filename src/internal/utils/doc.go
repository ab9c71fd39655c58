// Package utils holds small helpers shared by the CLI and the API.
package utils
