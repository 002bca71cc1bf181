package emulator

import "testing"

func TestIsAssignment(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"a+1", false},
		{"a=1", true},
		{"a==1", false},
		{"a!=1", false},
		{"a<=1", false},
		{"a>=1", false},
		{"[$ff00] = $12", true},
		{`a\=1`, false},
		{`a\\=1`, false},
		{"a==1 && b=2", true},
		{"=1", true},
		{"", false},
		{"a>=b==c", false},
	}
	for _, test := range tests {
		if got := IsAssignment(test.expr); got != test.want {
			t.Errorf("IsAssignment(%q) = %v, want %v", test.expr, got, test.want)
		}
	}
}
