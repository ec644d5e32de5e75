package endpoint

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Endpoint
		wantErr bool
	}{
		{
			name:  "valid endpoint",
			input: "127.0.0.1:319",
			want:  Endpoint{Addr: [4]byte{127, 0, 0, 1}, Port: 319},
		},
		{
			name:  "valid high port",
			input: "192.0.2.10:65535",
			want:  Endpoint{Addr: [4]byte{192, 0, 2, 10}, Port: 65535},
		},
		{
			name:  "port zero",
			input: "10.0.0.1:0",
			want:  Endpoint{Addr: [4]byte{10, 0, 0, 1}, Port: 0},
		},
		{
			name:    "missing port",
			input:   "127.0.0.1",
			wantErr: true,
		},
		{
			name:    "hostname rejected",
			input:   "localhost:319",
			wantErr: true,
		},
		{
			name:    "ipv6 rejected",
			input:   "[::1]:319",
			wantErr: true,
		},
		{
			name:    "octet out of range",
			input:   "256.0.0.1:319",
			wantErr: true,
		},
		{
			name:    "port out of range",
			input:   "127.0.0.1:65536",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestString_RoundTrip(t *testing.T) {
	inputs := []string{"127.0.0.1:319", "0.0.0.0:0", "203.0.113.7:12345"}

	for _, s := range inputs {
		ep, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if ep.String() != s {
			t.Errorf("String() = %q, want %q", ep.String(), s)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(Endpoint{}).IsZero() {
		t.Error("zero Endpoint: IsZero() = false, want true")
	}

	ep, err := Parse("127.0.0.1:1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ep.IsZero() {
		t.Error("parsed Endpoint: IsZero() = true, want false")
	}
}
