package convert

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Invalid/File:Name?.org", "Invalid-File-Name-.org"},
		{"plain title", "plain title"},
		{`a<b>c"d\e|f*g`, "a-b-c-d-e-f-g"},
		{"tab\there", "tab-here"},
		{"it's quoted", "it-s quoted"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
