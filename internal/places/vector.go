package places

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector3 is a point in map space.
type Vector3 struct {
	X, Y, Z float64
}

// ParseError reports an origin string that does not hold three numbers.
type ParseError struct {
	Origin string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse vector components %q: %v", e.Origin, e.Err)
	}
	return fmt.Sprintf("parse vector components %q", e.Origin)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errNonFinite  = errors.New("component is not a finite number")
	errNotDecimal = errors.New("component is not a decimal number")
)

// ParseVector3 parses the first three single-space separated tokens of origin.
// Tokens past the third are ignored.
func ParseVector3(origin string) (Vector3, error) {
	parts := strings.Split(origin, " ")
	if len(parts) < 3 {
		return Vector3{}, &ParseError{Origin: origin, Err: fmt.Errorf("expected 3 components, got %d", len(parts))}
	}
	var out [3]float64
	for i := range out {
		if !isDecimal(parts[i]) {
			return Vector3{}, &ParseError{Origin: origin, Err: fmt.Errorf("%w: %q", errNotDecimal, parts[i])}
		}
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return Vector3{}, &ParseError{Origin: origin, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Vector3{}, &ParseError{Origin: origin, Err: errNonFinite}
		}
		out[i] = v
	}
	return Vector3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// isDecimal restricts tokens to plain decimal notation with an optional
// exponent. strconv also takes hex floats and digit separators.
func isDecimal(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '+', r == '-', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return true
}

// Array returns the components in x, y, z order.
func (v Vector3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func (v Vector3) String() string {
	return fmt.Sprintf("%s %s %s", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
