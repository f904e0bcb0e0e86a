package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// numericKind orders the xsd numeric tower used for arithmetic
// promotion and comparison, per spec.md §4.A/§4.D: double > float >
// decimal > integer.
type numericKind int

const (
	numInteger numericKind = iota
	numDecimal
	numFloat
	numDouble
)

// decimalContext is shared by all decimal arithmetic. 34 digits of
// precision matches IEEE 754-2008 decimal128, comfortably beyond what
// any xsd:decimal/xsd:integer literal in a rule set is likely to need.
var decimalContext = apd.BaseContext.WithPrecision(34)

// numericValue is the parsed form of a numeric literal: an exact
// apd.Decimal for xsd:integer/xsd:decimal, or a float64 for
// xsd:float/xsd:double (so IEEE754 NaN/Inf fall out for free in EBV
// and ordering).
type numericValue struct {
	kind    numericKind
	dec     *apd.Decimal // valid when kind in {numInteger, numDecimal}
	float   float64      // valid when kind in {numFloat, numDouble}
}

// asNumeric parses a literal's lexical form as a number if its
// datatype is one of the xsd numeric types, returning ok=false
// otherwise.
func (t Term) asNumeric() (numericValue, bool) {
	if t.kind != KindLiteral {
		return numericValue{}, false
	}
	switch t.Datatype() {
	case xsdInteger:
		d, _, err := apd.NewFromString(strings.TrimSpace(t.lexical))
		if err != nil {
			return numericValue{}, false
		}
		return numericValue{kind: numInteger, dec: d}, true
	case xsdDecimal:
		d, _, err := apd.NewFromString(strings.TrimSpace(t.lexical))
		if err != nil {
			return numericValue{}, false
		}
		return numericValue{kind: numDecimal, dec: d}, true
	case xsdFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(t.lexical), 32)
		if err != nil {
			return numericValue{}, false
		}
		return numericValue{kind: numFloat, float: f}, true
	case xsdDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(t.lexical), 64)
		if err != nil {
			return numericValue{}, false
		}
		return numericValue{kind: numDouble, float: f}, true
	default:
		return numericValue{}, false
	}
}

// isNumeric reports whether a term carries one of the four xsd
// numeric datatypes and parses successfully.
func (t Term) isNumeric() bool {
	_, ok := t.asNumeric()
	return ok
}

// asFloat64 returns the numeric value widened to float64, used for
// comparisons and for EBV's "false iff zero or NaN" rule.
func (n numericValue) asFloat64() float64 {
	switch n.kind {
	case numInteger, numDecimal:
		f, _ := n.dec.Float64()
		return f
	default:
		return n.float
	}
}

// datatypeIRI returns the xsd datatype IRI this value should be
// re-wrapped as.
func (n numericValue) datatypeIRI() string {
	switch n.kind {
	case numInteger:
		return xsdInteger
	case numDecimal:
		return xsdDecimal
	case numFloat:
		return xsdFloat
	default:
		return xsdDouble
	}
}

// toTerm re-wraps a numeric value as a typed literal term, using a
// canonical lexical form.
func (n numericValue) toTerm() Term {
	var lex string
	switch n.kind {
	case numInteger, numDecimal:
		lex = n.dec.Text('f')
	default:
		lex = strconv.FormatFloat(n.float, 'g', -1, 64)
	}
	return TypedLiteral(lex, n.datatypeIRI())
}

// promote returns the wider numericKind of the two operands' kinds,
// per the integer < decimal < float < double tower.
func promote(a, b numericKind) numericKind {
	if a > b {
		return a
	}
	return b
}

// toDecimal widens an exact (integer/decimal) value to *apd.Decimal,
// or converts a float value via its string form (never called on
// float/double operands directly since arithmetic there uses
// asFloat64 instead).
func (n numericValue) toDecimal() *apd.Decimal {
	if n.dec != nil {
		return n.dec
	}
	d, _, _ := apd.NewFromString(strconv.FormatFloat(n.float, 'g', -1, 64))
	return d
}

// numericArith implements +, -, *, / with the datatype promotion
// rules of spec.md §4.D: double/float operands force float64
// arithmetic; otherwise exact apd.Decimal arithmetic is used, with
// division always producing a decimal result (integer/integer still
// yields decimal, matching SPARQL's '/' operator). Division by zero
// is reported via ok=false.
func numericArith(op string, a, b numericValue) (numericValue, bool) {
	kind := promote(a.kind, b.kind)

	if kind == numFloat || kind == numDouble {
		x, y := a.asFloat64(), b.asFloat64()
		var r float64
		switch op {
		case "+":
			r = x + y
		case "-":
			r = x - y
		case "*":
			r = x * y
		case "/":
			if y == 0 {
				return numericValue{}, false
			}
			r = x / y
		default:
			return numericValue{}, false
		}
		return numericValue{kind: kind, float: r}, true
	}

	// Exact decimal arithmetic. Division is never "integer" result
	// kind even if both operands are integers, per spec.md §4.D.
	x, y := a.toDecimal(), b.toDecimal()
	res := new(apd.Decimal)
	var cond apd.Condition
	var err error
	resultKind := kind
	switch op {
	case "+":
		cond, err = decimalContext.Add(res, x, y)
	case "-":
		cond, err = decimalContext.Sub(res, x, y)
	case "*":
		cond, err = decimalContext.Mul(res, x, y)
	case "/":
		if y.Sign() == 0 {
			return numericValue{}, false
		}
		cond, err = decimalContext.Quo(res, x, y)
		resultKind = numDecimal
	default:
		return numericValue{}, false
	}
	if err != nil || cond.DivisionByZero() {
		return numericValue{}, false
	}
	return numericValue{kind: resultKind, dec: res}, true
}

// numericNegate implements unary '-' preserving datatype.
func numericNegate(a numericValue) numericValue {
	if a.kind == numFloat || a.kind == numDouble {
		return numericValue{kind: a.kind, float: -a.asFloat64()}
	}
	res := new(apd.Decimal)
	res.Neg(a.toDecimal())
	return numericValue{kind: a.kind, dec: res}
}

// numericCompare orders two numeric values by value, per spec.md
// §4.A. NaN never compares equal or ordered to anything, including
// itself; callers treat that as "unordered" (see expr.go).
func numericCompare(a, b numericValue) (cmp int, ok bool) {
	if a.kind == numFloat || a.kind == numDouble || b.kind == numFloat || b.kind == numDouble {
		x, y := a.asFloat64(), b.asFloat64()
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	}
	return a.toDecimal().Cmp(b.toDecimal()), true
}

// isZeroOrNaN implements the numeric half of EBV (spec.md §4.D).
func (n numericValue) isZeroOrNaN() bool {
	if n.kind == numFloat || n.kind == numDouble {
		f := n.asFloat64()
		return f == 0 || math.IsNaN(f)
	}
	return n.dec.Sign() == 0
}
