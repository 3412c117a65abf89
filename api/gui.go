package api

// Dispatcher marshals a closure onto the UI thread. Implementations
// must tolerate being called after the UI is gone and drop the closure
// in that case.
type Dispatcher interface {
	Dispatch(fn func())
}
