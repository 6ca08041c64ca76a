package attendance

import "testing"

func TestNormalizeSessionID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already clean", raw: "S001", want: "S001"},
		{name: "lowercase", raw: "s001", want: "S001"},
		{name: "surrounding spaces", raw: "  s012  ", want: "S012"},
		{name: "angle brackets", raw: "<S003>", want: "S003"},
		{name: "embedded in text", raw: "session s042 please", want: "S042"},
		{name: "mixed case prefix", raw: "s10", want: "S10"},
		{name: "no match falls back to upper", raw: "xyz", want: "XYZ"},
		{name: "empty", raw: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSessionID(tt.raw); got != tt.want {
				t.Errorf("NormalizeSessionID(%q) = %q; want %q", tt.raw, got, tt.want)
			}
		})
	}
}
