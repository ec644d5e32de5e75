package endpoint

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// openLoopback binds a socket to an ephemeral loopback port.
func openLoopback(t *testing.T) *Socket {
	t.Helper()

	local, err := Parse("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s, err := Open(local)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// receiveRetry polls ReceiveInto until a datagram arrives or the deadline
// passes. Loopback delivery is fast but not instantaneous.
func receiveRetry(t *testing.T, s *Socket, buf []byte) (int, Endpoint) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, sender, err := s.ReceiveInto(buf)
		if errors.Is(err, ErrWouldBlock) {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatalf("ReceiveInto failed: %v", err)
		}
		return n, sender
	}
	t.Fatal("timed out waiting for datagram")
	return 0, Endpoint{}
}

func TestOpen_EphemeralPortReported(t *testing.T) {
	s := openLoopback(t)

	local := s.LocalEndpoint()
	if local.Port == 0 {
		t.Error("LocalEndpoint().Port = 0, want kernel-chosen port")
	}
	if local.Addr != [4]byte{127, 0, 0, 1} {
		t.Errorf("LocalEndpoint().Addr = %v, want 127.0.0.1", local.Addr)
	}
}

func TestOpen_BindFailure(t *testing.T) {
	// Binding a non-local address fails with EADDRNOTAVAIL.
	remote, err := Parse("192.0.2.1:319")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s, err := Open(remote); err == nil {
		s.Close()
		t.Fatal("Open on non-local address succeeded, want error")
	}
}

func TestReceiveInto_WouldBlock(t *testing.T) {
	s := openLoopback(t)

	buf := make([]byte, 64)
	_, _, err := s.ReceiveInto(buf)
	if !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("ReceiveInto on empty queue = %v, want ErrWouldBlock", err)
	}
}

func TestSendReceive_RoundTrip(t *testing.T) {
	sender := openLoopback(t)
	receiver := openLoopback(t)

	payload := []byte("time sync payload")
	if err := sender.Send(payload, receiver.LocalEndpoint()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	buf := make([]byte, 64)
	n, from := receiveRetry(t, receiver, buf)

	if !bytes.Equal(buf[:n], payload) {
		t.Errorf("received %q, want %q", buf[:n], payload)
	}
	if from != sender.LocalEndpoint() {
		t.Errorf("sender address = %v, want %v", from, sender.LocalEndpoint())
	}
}

func TestSend_ClosedSocket(t *testing.T) {
	s := openLoopback(t)
	dst := openLoopback(t).LocalEndpoint()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Send([]byte("x"), dst); err == nil {
		t.Fatal("Send on closed socket succeeded, want error")
	}
}
