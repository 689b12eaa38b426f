// Package trigger adapts file system events, key presses and timers into
// rebuild requests.
package trigger

// Requester receives rebuild requests. rebuild.Coordinator implements it.
type Requester interface {
	RequestBuild()
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func()

func (f RequesterFunc) RequestBuild() { f() }
