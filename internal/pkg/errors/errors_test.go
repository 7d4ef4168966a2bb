package errors

import (
	"strings"
	"testing"
)

func TestWarnHook(t *testing.T) {
	// Without a handler warnings are discarded, not fatal.
	SetWarningHandler(nil)
	Warn(NewUnexpectedValueWarning("hasBalcony", "maybe", 0))

	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewUnexpectedValueWarning("hasBalcony", "maybe", 0))
	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	var uw *UnexpectedValueWarning
	if !As(got[0], &uw) {
		t.Fatalf("warning type = %T", got[0])
	}
	if uw.Column != "hasBalcony" || uw.Value != "maybe" || uw.Default != 0 {
		t.Errorf("warning = %+v", uw)
	}
}

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	err := Wrap(NewNotFittedError("Pipeline", "Transform"), "transforming request")
	var nf *NotFittedError
	if !As(err, &nf) {
		t.Fatal("NotFittedError lost in chain")
	}
	if nf.Component != "Pipeline" {
		t.Errorf("component = %q", nf.Component)
	}

	inner := New("disk full")
	ae := NewArtifactError("save", "/tmp/model.json", inner)
	if !Is(ae, inner) {
		t.Error("ArtifactError does not unwrap to its cause")
	}

	te := NewTrainingError("target", New("target is constant"))
	if !strings.Contains(te.Error(), "target is constant") {
		t.Errorf("message = %q", te.Error())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("city is required", "squareMeters must be a positive number")
	msg := err.Error()
	if !strings.Contains(msg, "city is required") || !strings.Contains(msg, "squareMeters") {
		t.Errorf("message = %q", msg)
	}
}
