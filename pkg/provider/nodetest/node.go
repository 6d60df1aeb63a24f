// Package nodetest runs a minimal in-process JSON-RPC node for tests.
package nodetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Failure is a JSON-RPC error object.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler answers one method.
type Handler func(params []json.RawMessage) (interface{}, *Failure)

// Node is a JSON-RPC node answering the methods registered on it. Other
// methods fail with code -32601.
type Node struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
}

func New(t *testing.T, handlers map[string]Handler) *Node {
	t.Helper()
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	n := &Node{handlers: handlers, calls: make(map[string]int)}
	n.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		n.mu.Lock()
		n.calls[req.Method]++
		h, ok := n.handlers[req.Method]
		n.mu.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = Failure{Code: -32601, Message: "method not found"}
		} else if result, failure := h(req.Params); failure != nil {
			resp["error"] = failure
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(n.Close)
	return n
}

// Handle registers or replaces the handler for method.
func (n *Node) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *Node) CallCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// Constant answers every call with v.
func Constant(v interface{}) Handler {
	return func([]json.RawMessage) (interface{}, *Failure) { return v, nil }
}
