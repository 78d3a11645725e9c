package timeutil

import "testing"

func TestSanitizeWorklog(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"2h30m", "2h 30m"},
		{"2h 30m", "2h 30m"},
		{"1d2h3m4s", "1d 2h 3m 4s"},
		{"30m", "30m"},
		{"90", "90"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeWorklog(tc.input); got != tc.want {
			t.Fatalf("SanitizeWorklog(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseWorklogSeconds(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"2h30m", 9000},
		{"2h 30m", 9000},
		{"45s", 45},
		{"1d", 28800},
		{"90", 5400}, // bare numbers are minutes
	}
	for _, tc := range cases {
		got, err := ParseWorklogSeconds(tc.input)
		if err != nil {
			t.Fatalf("ParseWorklogSeconds(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseWorklogSeconds(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestParseWorklogSecondsRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "soon", "h30"} {
		if _, err := ParseWorklogSeconds(input); err == nil {
			t.Fatalf("ParseWorklogSeconds(%q): expected error", input)
		}
	}
}

func TestFriendlySeconds(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0m"},
		{45, "45s"},
		{60, "1m"},
		{5400, "1h30m"},
		{3661, "1h1m1s"},
	}
	for _, tc := range cases {
		if got := FriendlySeconds(tc.seconds); got != tc.want {
			t.Fatalf("FriendlySeconds(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
