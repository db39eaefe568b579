package cache

import "testing"

func TestKey(t *testing.T) {
	cases := map[string][]string{
		"autoclaim:":                              nil,
		"autoclaim:trains":                        {"trains"},
		"autoclaim:claims:deadline-notice:abc-12": {"claims", "deadline-notice", "abc-12"},
	}
	for want, parts := range cases {
		if got := Key(parts...); got != want {
			t.Errorf("Key(%q) = %q, want %q", parts, got, want)
		}
	}
}
