package repository

import "testing"

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"bag":     "bag",
		"100%":    `100\%`,
		"T4_BAG":  `T4\_BAG`,
		`back\sl`: `back\\sl`,
		"":        "",
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}
