package chrome

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeEvent is an event the fake endpoint sends after a response.
type fakeEvent struct {
	Method    string      `json:"method"`
	SessionID string      `json:"sessionId,omitempty"`
	Params    interface{} `json:"params,omitempty"`
}

// fakeReply is what a fakeHandler returns for one command. A nil reply
// leaves the command unanswered.
type fakeReply struct {
	Result interface{}
	Error  *ProtocolError
	Events []fakeEvent
	Hangup bool // drop the connection instead of answering
}

type fakeHandler func(method string, params json.RawMessage) *fakeReply

// fakeCDP is a minimal DevTools endpoint: /json/version plus a websocket
// that answers commands through a handler.
type fakeCDP struct {
	*httptest.Server
	handler fakeHandler

	mu      sync.Mutex
	methods []string
}

func newFakeCDP(t *testing.T, handler fakeHandler) *fakeCDP {
	t.Helper()

	f := &fakeCDP{handler: handler}
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"Browser":              "FakeChrome/1.0",
			"webSocketDebuggerUrl": "ws://" + r.Host + "/devtools/browser/fake",
		})
	})
	mux.HandleFunc("/devtools/browser/fake", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		f.serve(conn)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeCDP) serve(conn *websocket.Conn) {
	for {
		var req struct {
			ID        int64           `json:"id"`
			SessionID string          `json:"sessionId"`
			Method    string          `json:"method"`
			Params    json.RawMessage `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		f.mu.Lock()
		f.methods = append(f.methods, req.Method)
		f.mu.Unlock()

		reply := f.handler(req.Method, req.Params)
		if reply == nil {
			continue
		}
		if reply.Hangup {
			return
		}

		resp := map[string]interface{}{"id": req.ID}
		if reply.Error != nil {
			resp["error"] = reply.Error
		} else {
			result := reply.Result
			if result == nil {
				result = struct{}{}
			}
			resp["result"] = result
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
		for _, ev := range reply.Events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// Methods returns the commands received so far.
func (f *fakeCDP) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func (f *fakeCDP) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(f.URL, "http://"))
	if err != nil {
		t.Fatalf("splitting %s: %v", f.URL, err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// connect dials the fake endpoint and closes the client at test end.
func (f *fakeCDP) connect(t *testing.T) *Client {
	t.Helper()
	host, port := f.hostPort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Connect(ctx, host, port)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// evaluated wraps v as a Runtime.evaluate result.
func evaluated(v interface{}) *fakeReply {
	return &fakeReply{Result: map[string]interface{}{
		"result": map[string]interface{}{"type": jsType(v), "value": v},
	}}
}

func jsType(v interface{}) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, int:
		return "number"
	case nil:
		return "undefined"
	default:
		return "object"
	}
}

// pageHandler answers the session plumbing every page operation needs and
// delegates Runtime.evaluate to eval.
func pageHandler(eval func(expression string) *fakeReply) fakeHandler {
	return func(method string, params json.RawMessage) *fakeReply {
		switch method {
		case "Target.attachToTarget":
			return &fakeReply{Result: map[string]string{"sessionId": "S1"}}
		case "Runtime.enable", "Page.enable", "Target.detachFromTarget":
			return &fakeReply{}
		case "Runtime.evaluate":
			var p struct {
				Expression string `json:"expression"`
			}
			json.Unmarshal(params, &p)
			return eval(p.Expression)
		}
		return &fakeReply{Error: &ProtocolError{Code: -32601, Message: "'" + method + "' wasn't found"}}
	}
}
