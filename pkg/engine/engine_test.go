package engine

import (
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/strata/pkg/kernel"
)

// boxKernel models every solid by its bounding box.
type boxKernel struct{}

type boxSolid struct {
	min, max [3]float64
	op       string
}

func (s *boxSolid) BoundingBox() (min, max [3]float64) { return s.min, s.max }

func (boxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	return &boxSolid{max: [3]float64{x, y, z}, op: "box"}, nil
}

func (boxKernel) Cylinder(h, r float64, _ int) (kernel.Solid, error) {
	return &boxSolid{min: [3]float64{-r, -r, 0}, max: [3]float64{r, r, h}, op: "cylinder"}, nil
}

func (boxKernel) Sphere(r float64) (kernel.Solid, error) {
	return &boxSolid{min: [3]float64{-r, -r, -r}, max: [3]float64{r, r, r}, op: "sphere"}, nil
}

func (boxKernel) Union(a, b kernel.Solid) kernel.Solid {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	s := &boxSolid{op: "union"}
	for i := 0; i < 3; i++ {
		s.min[i] = math.Min(amin[i], bmin[i])
		s.max[i] = math.Max(amax[i], bmax[i])
	}
	return s
}

func (boxKernel) Difference(a, _ kernel.Solid) kernel.Solid {
	min, max := a.BoundingBox()
	return &boxSolid{min: min, max: max, op: "difference"}
}

func (boxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	s := &boxSolid{op: "intersection"}
	for i := 0; i < 3; i++ {
		s.min[i] = math.Max(amin[i], bmin[i])
		s.max[i] = math.Min(amax[i], bmax[i])
	}
	return s
}

func (boxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	min, max := s.BoundingBox()
	d := [3]float64{x, y, z}
	out := &boxSolid{op: "translate"}
	for i := 0; i < 3; i++ {
		out.min[i] = min[i] + d[i]
		out.max[i] = max[i] + d[i]
	}
	return out
}

func (boxKernel) Rotate(s kernel.Solid, _, _, _ float64) kernel.Solid {
	min, max := s.BoundingBox()
	return &boxSolid{min: min, max: max, op: "rotate"}
}

func (boxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	min, max := s.BoundingBox()
	return kernel.NewBoxMesh(min[0], min[1], min[2], max[0], max[1], max[2]), nil
}

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine(boxKernel{})

	d, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if d == nil {
		t.Fatal("expected non-nil design")
	}
	if d.Len() != 0 || d.Root() != nil {
		t.Errorf("expected empty design, got %d solids", d.Len())
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine(boxKernel{})

	d, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if d == nil || d.Len() != 0 {
		t.Fatal("expected empty design")
	}
}

func TestEvaluateWithoutKernel(t *testing.T) {
	if _, _, err := NewEngine(nil).Evaluate("(+ 1 2)"); err == nil {
		t.Fatal("expected fatal error without a kernel")
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	eng := NewEngine(boxKernel{})

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	d, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if d == nil {
		t.Fatal("expected non-nil design")
	}
	if d.Len() != 0 {
		t.Errorf("arithmetic defined %d solids", d.Len())
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine(boxKernel{})

	d, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if d != nil {
		t.Fatal("expected nil design on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine(boxKernel{})

	d, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if d != nil {
		t.Fatal("expected nil design on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateSyntaxErrorHasMessage(t *testing.T) {
	eng := NewEngine(boxKernel{})

	_, evalErrs, err := eng.Evaluate("(+ 1 2)\n(+ 3")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	if e.Line < 0 {
		t.Errorf("negative line %d", e.Line)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine(boxKernel{})
	source := `(defsolid "plate" (translate (box 10 20 2) (vec3 5 0 0)))`

	var first [3]float64
	for i := 0; i < 5; i++ {
		d, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		_, max := d.Root().BoundingBox()
		if i == 0 {
			first = max
		} else if max != first {
			t.Errorf("iteration %d: max = %v, want %v", i, max, first)
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// A channel that never sends exercises the timeout path of
	// waitWithTimeout without running an endless script.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: box: dimensions must be positive",
			wantLine: 3,
			wantMsg:  "dimensions must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
