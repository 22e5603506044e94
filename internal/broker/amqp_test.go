package broker

import "testing"

func TestNormalizePrefetch(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"pool size passes through", 5, 5},
		{"single consumer", 1, 1},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePrefetch(tt.in); got != tt.want {
				t.Fatalf("normalizePrefetch(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
