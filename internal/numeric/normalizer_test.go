package numeric

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"plain integer", "1500", 1500, true},
		{"dot thousands", "1.500", 1500, true},
		{"dot thousands with decimal", "1.500,50", 1500.50, true},
		{"comma decimal only", "1500,50", 1500.50, true},
		{"comma thousands", "1,500", 1500, true},
		{"both separators, multi-group thousands with decimal", "12.345,6", 12345.6, true},
		{"ocr zero between digits", "1o500", 10500, true},
		{"ocr capital O between digits", "15O0", 1500, true},
		{"triple zero like", "1.000", 1000, true},
		{"triple zero like ocr o", "1.00o", 1000, true},
		{"trailing thousands group exactly three", "12.345", 12345, true},
		{"bare small value with zero run multiplies", "1.0000", 1000, true},
		{"leading trailing separators stripped", ",1500.", 1500, true},
		{"empty after stripping", ".,.", 0, false},
		{"non numeric", "abc", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.in)
			if ok != tc.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("Normalize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
