// Package workers runs the application's background workers (the sync job,
// the idle auto-lock) behind one small interface.
package workers

// Worker is a long-running background task. Run must not block the caller:
// implementations spawn their own goroutines and expose their own Stop.
type Worker interface {
	Run()
}
