package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same kind", E(KindDataLoad, "load", errors.New("boom")), ErrDataLoad, true},
		{"other kind", E(KindDataLoad, "load", nil), ErrModelLoad, false},
		{"wrapped", fmt.Errorf("train: %w", E(KindEmptyCorpus, "train", nil)), ErrEmptyCorpus, true},
		{"invalid input is a prediction error", E(KindInvalidInput, "predict", nil), ErrPrediction, true},
		{"prediction is not invalid input", E(KindPrediction, "predict", nil), ErrInvalidInput, false},
		{"plain error", errors.New("x"), ErrPrediction, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapAndMessage(t *testing.T) {
	cause := errors.New("no such file")
	err := E(KindModelLoad, "load vectorizer", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	want := "load vectorizer: model load error: no such file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOf(t *testing.T) {
	if k := KindOf(fmt.Errorf("wrap: %w", Errorf(KindPrediction, "predict", "bad %d", 1))); k != KindPrediction {
		t.Errorf("KindOf = %v, want %v", k, KindPrediction)
	}
	if k := KindOf(errors.New("plain")); k != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want %v", k, KindUnknown)
	}
	if k := KindOf(nil); k != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want %v", k, KindUnknown)
	}
}
