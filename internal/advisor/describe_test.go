package advisor

import (
	"errors"
	"strings"
	"testing"
)

func TestDescribeLayout(t *testing.T) {
	got := Describe(&Result{Layout: &LayoutSuggestion{
		Reasoning:  "Keep the walkway clear.",
		Placements: []Placement{{FurnitureName: "Sofa", X: 1.5, Y: 0.5, Rotation: 90}},
	}})
	want := "Keep the walkway clear.\n\nSofa: x 1.50 m, y 50.0 cm, 90°"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestDescribeEvaluationSkipsEmptySections(t *testing.T) {
	got := Describe(&Result{Evaluation: &Evaluation{
		OverallAssessment: "Good",
		FlowFeedback:      " ",
		Suggestions:       []string{"Add a rug"},
	}})
	if strings.Contains(got, "Flow") {
		t.Fatalf("empty section rendered: %q", got)
	}
	if !strings.HasPrefix(got, "Overall\nGood") || !strings.HasSuffix(got, "- Add a rug") {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestDescribeError(t *testing.T) {
	if got := Describe(&Result{Err: errors.New("boom")}); got != "boom" {
		t.Fatalf("got %q", got)
	}
	if Describe(nil) != "" {
		t.Fatalf("nil result should be empty")
	}
}
