package monitor

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestServerBroadcast(t *testing.T) {
	srv := NewServer()
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close()

	url := "ws://" + srv.Addr() + "/monitor"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	defer conn.Close()

	// The subscriber registers during the upgrade handler; give it a
	// moment before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for {
		srv.mu.Lock()
		n := len(srv.subscribers)
		srv.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	srv.Broadcast("<iDCC-EX V-5.0.7>")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if kind != websocket.TextMessage || string(payload) != "<iDCC-EX V-5.0.7>" {
		t.Errorf("got message (%d, %q)", kind, payload)
	}
}
