// Package engine runs stubd rule sets behind an HTTP listener.
//
// A Server serves one ExecutionContext (a decision, its fallback and its
// statistics) for its whole life. A SharedServer keeps running across tests
// and can be borrowed: a borrow installs a fresh ExecutionContext for the
// duration of a closure and then restores the original, whose statistics
// resume exactly where they stopped.
//
// Borrowing never waits. It fails immediately with a *StateError if another
// borrow is active, a request is being served, or the server is stopped.
//
//	shared, _ := engine.NewSharedServer(cfg, base, decision.RejectNonMatching())
//	_ = shared.Start(ctx)
//	defer shared.Dispose()
//
//	scope, err := shared.Borrow(rules, nil)
//	if err != nil {
//	    return err
//	}
//	err = scope.Run(func(s *engine.BorrowScope) error {
//	    _, err := http.Get(s.URL() + "/users/1")
//	    return err
//	})
package engine
