package relay

import (
	"testing"

	"github.com/netfold/udp-relay/internal/endpoint"
)

func TestFixedDestination_IgnoresSender(t *testing.T) {
	dst, err := endpoint.Parse("192.0.2.10:319")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sender, err := endpoint.Parse("203.0.113.5:40000")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p := FixedDestination(dst)
	if got := p.Target(sender); got != dst {
		t.Errorf("Target(%v) = %v, want %v", sender, got, dst)
	}
	if got := p.Target(endpoint.Endpoint{}); got != dst {
		t.Errorf("Target(zero) = %v, want %v", got, dst)
	}
}

func TestPreserveSender_ReturnsSender(t *testing.T) {
	sender, err := endpoint.Parse("203.0.113.5:40000")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p := PreserveSender()
	if got := p.Target(sender); got != sender {
		t.Errorf("Target(%v) = %v, want the sender itself", sender, got)
	}
}
