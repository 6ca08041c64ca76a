package ids

import "testing"

func TestIncrement(t *testing.T) {
	tests := []struct {
		name   string
		last   string
		prefix string
		width  int
		want   string
	}{
		{name: "first id", last: "", prefix: "S", width: 3, want: "S001"},
		{name: "increments", last: "S001", prefix: "S", width: 3, want: "S002"},
		{name: "keeps padding", last: "S009", prefix: "S", width: 3, want: "S010"},
		{name: "overflows width", last: "S999", prefix: "S", width: 3, want: "S1000"},
		{name: "garbage suffix counts as 0", last: "Sabc", prefix: "S", width: 3, want: "S001"},
		{name: "other prefixes", last: "W041", prefix: "W", width: 3, want: "W042"},
		{name: "wider space", last: "R00007", prefix: "R", width: 5, want: "R00008"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Increment(tt.last, tt.prefix, tt.width); got != tt.want {
				t.Errorf("Increment() = %v, want %v", got, tt.want)
			}
		})
	}
}

type stubAlloc struct {
	last string
	err  error
}

func (s stubAlloc) LastID(string) (string, error) { return s.last, s.err }

func TestNext(t *testing.T) {
	got, err := Next(stubAlloc{last: "S041"}, "S", 3)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "S042" {
		t.Errorf("Next() = %v, want S042", got)
	}
}
