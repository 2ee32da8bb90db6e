package ecpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDotNetURLEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a b", want: "a+b"},
		{in: "~", want: "%7E"},
		{in: "!*()", want: "!*()"},
		{in: "-_.", want: "-_."},
		{in: "a=b&c", want: "a%3Db%26c"},
		{in: "https://x.tw/p?q=1", want: "https%3A%2F%2Fx.tw%2Fp%3Fq%3D1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, dotNetURLEncode(tt.in))
		})
	}
}

func TestMemberID(t *testing.T) {
	assert.Equal(t, "550e8400e29b41d4a716446655440000"[:30], memberID("550e8400-e29b-41d4-a716-446655440000"))
	assert.Equal(t, "short", memberID("short"))
}
