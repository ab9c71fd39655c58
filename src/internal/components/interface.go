package components

// Component is a long-running part of the service next to the pollers.
// The service starts components in order and stops them in reverse.
type Component interface {
	Start() error
	Stop() error
	IsRunning() bool
	Name() string
}
