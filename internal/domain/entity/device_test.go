package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aa:bb:cc:dd:ee:01", "AA:BB:CC:DD:EE:01"},
		{"AA-BB-CC-DD-EE-01", "AA:BB:CC:DD:EE:01"},
		{"aabb.ccdd.ee01", "AA:BB:CC:DD:EE:01"},
		{"  aa:bb:cc:dd:ee:01 ", "AA:BB:CC:DD:EE:01"},
		{"not-a-mac", "NOT:A:MAC"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMAC(tt.in))
		})
	}
}
