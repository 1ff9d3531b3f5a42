package utils

import "testing"

func TestCollapseToken(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tom Hanks", "tomhanks"},
		{"Tom Cruise", "tomcruise"},
		{"  Science Fiction ", "sciencefiction"},
		{"action", "action"},
		{"", ""},
	}
	for _, c := range cases {
		if got := CollapseToken(c.in); got != c.want {
			t.Errorf("CollapseToken(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("hi", 5); got != "hi" {
		t.Errorf("got %q", got)
	}
}
