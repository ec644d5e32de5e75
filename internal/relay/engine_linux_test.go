package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netfold/udp-relay/internal/endpoint"
)

func TestRun_EndToEndReadiness(t *testing.T) {
	a := openTestSocket(t)
	b := openTestSocket(t)
	client := openTestSocket(t)

	cfg := Config{
		Strategy:   StrategyReadiness,
		PolicyAToB: PreserveSender(),
		PolicyBToA: PreserveSender(),
	}
	e := newTestEngine(t, cfg, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	// Traffic in both directions through the blocking dispatcher.
	if err := client.Send([]byte("ping-a"), a.LocalEndpoint()); err != nil {
		t.Fatalf("Send to a failed: %v", err)
	}
	buf := make([]byte, 64)
	n, from := receiveRetry(t, client, buf)
	if string(buf[:n]) != "ping-a" {
		t.Errorf("client received %q, want %q", buf[:n], "ping-a")
	}
	if from != b.LocalEndpoint() {
		t.Errorf("echo arrived from %v, want %v", from, b.LocalEndpoint())
	}

	if err := client.Send([]byte("ping-b"), b.LocalEndpoint()); err != nil {
		t.Fatalf("Send to b failed: %v", err)
	}
	n, from = receiveRetry(t, client, buf)
	if string(buf[:n]) != "ping-b" {
		t.Errorf("client received %q, want %q", buf[:n], "ping-b")
	}
	if from != a.LocalEndpoint() {
		t.Errorf("echo arrived from %v, want %v", from, a.LocalEndpoint())
	}

	if _, _, err := client.ReceiveInto(buf); !errors.Is(err, endpoint.ErrWouldBlock) {
		t.Errorf("extra ReceiveInto = %v, want ErrWouldBlock", err)
	}

	// Cancellation wakes the blocked dispatcher.
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancellation, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
