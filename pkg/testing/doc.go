// Package testing provides a testing SDK for using stubd in Go tests.
//
// It starts real stubd servers on random ports, stops them when the test
// ends, and offers a fluent builder for rules.
//
// # Basic Usage
//
// Import the package under a name that does not shadow the standard
// library's testing package:
//
//	import stubtest "github.com/getmockd/stubd/pkg/testing"
//
//	func TestClient(t *testing.T) {
//	    srv := stubtest.New(t, stubtest.Decision(t,
//	        stubtest.Rule("get-user", 0).
//	            Matching("GET", "/users/{id}").
//	            WithJSON(map[string]string{"name": "ada"}),
//	    ))
//
//	    // Test your code against srv.URL()
//
//	    stubtest.AssertStats(t, srv, 1, 0)
//	}
//
// A request no rule matches gets a 418 whose body lists every rule's
// evaluation trace, so a failing client test shows why nothing matched.
//
// # Shared Servers
//
// A Shared server is started once and borrowed by each test in turn. A
// borrow installs its own rules and counters for the length of a closure
// and fails immediately, instead of waiting, when another borrow is active
// or a request is still in flight:
//
//	shared := stubtest.NewShared(t, nil)
//	t.Run("a", func(t *testing.T) {
//	    shared.Borrow(t, rulesA, func(s *engine.BorrowScope) {
//	        // requests to s.URL() use rulesA
//	    })
//	})
//
// # Fluent Builder API
//
// Matching conditions accumulate and must all hold:
//
//	stubtest.Rule("create", 1).
//	    Matching("POST", "/items").
//	    WithRequestHeader("Content-Type", "application/json").
//	    WithJSONPath("$.name", "widget").
//	    WithStatus(201).
//	    WithEcho()
//
// The first error met while building is kept and reported by Build.
package testing
