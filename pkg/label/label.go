package label

import (
	"fmt"
	"strings"
)

// Label is the numeric class of a message. The encoding is alphabetical
// (ham < spam) and is baked into every trained classifier.
type Label int

const (
	Ham  Label = 0
	Spam Label = 1
)

// Count is the number of classes.
const Count = 2

// All lists the classes in index order.
var All = [Count]Label{Ham, Spam}

func (l Label) String() string {
	switch l {
	case Ham:
		return "HAM"
	case Spam:
		return "SPAM"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Valid reports whether l is Ham or Spam.
func (l Label) Valid() bool {
	return l == Ham || l == Spam
}

// Parse maps dataset label text to a Label. Matching is case-insensitive and
// ignores surrounding whitespace; "0"/"1" are accepted as well.
func Parse(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ham", "0":
		return Ham, nil
	case "spam", "1":
		return Spam, nil
	default:
		return 0, fmt.Errorf("unknown label %q", s)
	}
}

// MarshalText encodes the label as "HAM" or "SPAM"
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid label %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText accepts anything Parse does
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
