package recommend

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "tomato", "tomato"},
		{"uppercase", "TOMATO", "tomato"},
		{"diacritics stripped", "Cà chua", "ca chua"},
		{"mixed diacritics", "cà-chua", "ca chua"},
		{"punctuation to space", "bell.pepper,red", "bell pepper red"},
		{"whitespace collapsed", "  spring   onion  ", "spring onion"},
		{"digits kept", "7up", "7up"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Cà chua", "Bell Pepper!", "  ớt   chuông  ", "tofu"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
