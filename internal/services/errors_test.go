package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrValidation, "generating-plan", "parse payload", "missing elements", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	want := "validation error: generating-plan: parse payload: missing elements"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "transcribing", "request", "", errors.New("connection reset"))
	if !IsTransient(err) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", Wrap(ErrTransient, "uploading", "put", "", errors.New("503")), true},
		{"validation", Wrap(ErrValidation, "rendering", "inputs", "no artifact", nil), false},
		{"fatal", Wrap(ErrFatal, "rendering", "compose", "", errors.New("bad codec")), false},
		{"configuration", Wrap(ErrConfiguration, "", "", "missing api key", nil), false},
		{"plain", errors.New("unclassified"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
