package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/strata/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites design source into something zygomys accepts:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot collide with user variables.
//  2. Kebab-case identifiers become snake_case (cut-hole -> cut_hole);
//     zygomys reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i)
			result = append(result, b[i:j]...)
			i = j
			continue

		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			result = append(result, b[i:j]...)
			i = j
			continue

		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue

		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, ':', '=')
			i += 2
			continue

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue

		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// skipQuoted returns the index just past the double-quoted literal at i.
func skipQuoted(b []byte, i int) int {
	j := i + 1
	for j < len(b) && b[j] != '"' {
		if b[j] == '\\' && j+1 < len(b) {
			j += 2
			continue
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Values passed between builtins
// ---------------------------------------------------------------------------

// sexpSolid carries a kernel solid through the interpreter.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
	named bool // desc is a name registered with defsolid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max := s.solid.BoundingBox()
	return fmt.Sprintf("(%s [%.2f %.2f %.2f]..[%.2f %.2f %.2f])",
		s.desc, min[0], min[1], min[2], max[0], max[1], max[2])
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

type vec3 struct{ X, Y, Z float64 }

type sexpVec3 struct {
	vec vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword arguments from positional ones. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number returns keyword key, else positional argument pos, else def.
// pos < 0 disables the positional fallback.
func (a kwArgs) number(key string, pos int, def float64) (float64, error) {
	if v, ok := a.kw[key]; ok {
		return toFloat64(v)
	}
	if pos >= 0 && pos < len(a.positional) {
		return toFloat64(a.positional[pos])
	}
	return def, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// solidArgs flattens arguments into solids; lists and arrays are expanded.
func solidArgs(args []zygo.Sexp) ([]kernel.Solid, error) {
	var out []kernel.Solid
	for i, a := range args {
		if _, ok := a.(*sexpSolid); !ok {
			if items, err := sexpListToSlice(a); err == nil {
				nested, err := solidArgs(items)
				if err != nil {
					return nil, err
				}
				out = append(out, nested...)
				continue
			}
		}
		s, err := toSolid(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the design builtins. Solids are built with k
// and named solids are recorded in d.
//
// Source must be preprocessed with preprocessSource so that :keyword tokens
// reach the builtins as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, d *Design) {
	for name, fn := range map[string]builtin{
		"box":          boxBuiltin(k),
		"cylinder":     cylinderBuiltin(k),
		"sphere":       sphereBuiltin(k),
		"vec3":         vec3Builtin,
		"translate":    transformBuiltin("translate", k.Translate),
		"rotate":       transformBuiltin("rotate", k.Rotate),
		"union":        booleanBuiltin("union", k.Union),
		"difference":   booleanBuiltin("difference", k.Difference),
		"intersection": booleanBuiltin("intersection", k.Intersection),
		"defsolid":     defsolidBuiltin(d),
		"solid":        solidBuiltin(d),
		"build":        buildBuiltin(d),
	} {
		env.AddFunction(name, fn)
	}
}

// (box 10 20 5) or (box :x 10 :y 20 :z 5) or (box :size (vec3 10 20 5))
// The minimum corner sits at the origin.
func boxBuiltin(k kernel.Kernel) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var size vec3
		if v, ok := pa.kw["size"]; ok {
			s, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			size = s
		} else {
			var err error
			for i, p := range []struct {
				key string
				dst *float64
			}{{"x", &size.X}, {"y", &size.Y}, {"z", &size.Z}} {
				if *p.dst, err = pa.number(p.key, i, 0); err != nil {
					return zygo.SexpNull, fmt.Errorf("box: %s: %w", p.key, err)
				}
			}
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: dimensions must be positive, got %g x %g x %g", size.X, size.Y, size.Z)
		}
		s, err := k.Box(size.X, size.Y, size.Z)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{solid: s, desc: "box"}, nil
	}
}

// (cylinder :height 10 :radius 3 :segments 48)
func cylinderBuiltin(k kernel.Kernel) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := pa.number("height", 0, 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		r, err := pa.number("radius", 1, 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		seg, err := pa.number("segments", 2, 32)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
		}
		if h <= 0 || r <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: height and radius must be positive")
		}
		s, err := k.Cylinder(h, r, int(seg))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpSolid{solid: s, desc: "cylinder"}, nil
	}
}

// (sphere :radius 5)
func sphereBuiltin(k kernel.Kernel) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r, err := parseArgs(args).number("radius", 0, 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		if r <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive")
		}
		s, err := k.Sphere(r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return &sexpSolid{solid: s, desc: "sphere"}, nil
	}
}

// (vec3 1 2 3)
func vec3Builtin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var v [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
		}
		v[i] = f
	}
	return &sexpVec3{vec: vec3{v[0], v[1], v[2]}}, nil
}

// (translate s (vec3 1 2 3)) or (translate s :by (vec3 ...)); rotate takes
// Euler angles in degrees the same way.
func transformBuiltin(op string, fn func(kernel.Solid, float64, float64, float64) kernel.Solid) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires a solid", op)
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		vs, ok := pa.kw["by"]
		if !ok {
			if len(pa.positional) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a vec3", op)
			}
			vs = pa.positional[1]
		}
		v, err := toVec3(vs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		return &sexpSolid{solid: fn(s, v.X, v.Y, v.Z), desc: op}, nil
	}
}

// (union a b ...), (difference a b ...), (intersection a b ...)
// The operation folds left over its arguments.
func booleanBuiltin(op string, fn func(a, b kernel.Solid) kernel.Solid) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		solids, err := solidArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		if len(solids) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(solids))
		}
		acc := solids[0]
		for _, s := range solids[1:] {
			acc = fn(acc, s)
		}
		return &sexpSolid{solid: acc, desc: op}, nil
	}
}

// (defsolid "name" expr)
func defsolidBuiltin(d *Design) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a solid expression")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		s, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid %q: %w", solidName, err)
		}
		d.define(solidName, s)
		return &sexpSolid{solid: s, desc: solidName, named: true}, nil
	}
}

// (solid "name")
func solidBuiltin(d *Design) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}
		s, ok := d.Solid(solidName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("solid: no solid named %q", solidName)
		}
		return &sexpSolid{solid: s, desc: solidName, named: true}, nil
	}
}

// (build expr) selects the solid to slice. The last call wins.
func buildBuiltin(d *Design) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("build requires exactly one solid")
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("build: %w", err)
		}
		d.root = s
		d.rootName = ""
		if sx := args[0].(*sexpSolid); sx.named {
			d.rootName = sx.desc
		}
		return args[0], nil
	}
}
