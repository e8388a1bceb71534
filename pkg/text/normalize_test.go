package text

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	res := DefaultResources()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"no letters", "12345 !!! $$$ ...", ""},
		{"punctuation and case", "FREE! Win cash NOW", "free win cash"},
		{"stopwords only", "the and of it is", ""},
		{"stemming", "running meetings", "run meet"},
		{"digits split words", "win2000prizes", "win prize"},
		{"non-latin letters become spaces", "café naïve", "caf na"},
		{"collapses whitespace", "  hello \t\n world  ", "hello world"},
		{"stopword removed before stemming", "Congratulations you won $1000 cash, claim now", "congratul cash claim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(res, tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeCharacterClass(t *testing.T) {
	inputs := []string{
		"WIN a FREE prize now, click this link!!!",
		"Ünïcödé ßtraße — “quotes” and emoji 🎉🎉",
		"tab\tseparated\nlines\r\nand\x00nul",
		string([]byte{0xff, 0xfe, 'o', 'k', 'a', 'y'}),
		"ALL CAPS MESSAGE WITH NUMBERS 123 AND SYMBOLS #@!",
	}

	for _, in := range inputs {
		out := Normalize(nil, in)
		for _, r := range out {
			if (r < 'a' || r > 'z') && r != ' ' {
				t.Errorf("Normalize(%q) produced %q containing %q", in, out, r)
			}
		}
		if strings.Contains(out, "  ") || strings.HasPrefix(out, " ") || strings.HasSuffix(out, " ") {
			t.Errorf("Normalize(%q) = %q has irregular spacing", in, out)
		}
		for _, tok := range strings.Fields(out) {
			if tok == "" {
				t.Errorf("empty token in %q", out)
			}
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	in := "URGENT! You have WON a 2-week holiday. Call 0906 now!!"
	first := Normalize(nil, in)
	for i := 0; i < 10; i++ {
		if got := Normalize(nil, in); got != first {
			t.Fatalf("run %d: %q != %q", i, got, first)
		}
	}
}

func TestDefaultResources(t *testing.T) {
	res := DefaultResources()
	if res != DefaultResources() {
		t.Error("DefaultResources should return a shared instance")
	}
	if res.Version() != DefaultVersion {
		t.Errorf("Version = %q, want %q", res.Version(), DefaultVersion)
	}
	if n := len(res.Stopwords()); n != 179 {
		t.Errorf("expected 179 stopwords, got %d", n)
	}
	for _, w := range []string{"the", "now", "won", "you", "this"} {
		if !res.IsStopword(w) {
			t.Errorf("%q should be a stopword", w)
		}
	}
	for _, w := range []string{"free", "cash", "prize", "lunch"} {
		if res.IsStopword(w) {
			t.Errorf("%q should not be a stopword", w)
		}
	}
}

func TestCustomResources(t *testing.T) {
	res := NewResources("test-v1", []string{"foo"}, strings.ToUpper)
	if got := res.Normalize("foo bar baz"); got != "BAR BAZ" {
		t.Errorf("Normalize = %q", got)
	}

	identity := NewResources("identity", nil, nil)
	if got := identity.Normalize("Running Dogs"); got != "running dogs" {
		t.Errorf("nil stemmer should keep tokens, got %q", got)
	}
}
