package engine

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
)

// This file implements the builtin-function catalogue of spec.md
// §4.D. Per Design Notes ("resolve by name once at AST-validation
// time to a function pointer; do not dispatch by string at evaluation
// time"), Builtin() resolves the name to a builtinFunc at AST
// construction time and stores it on the Expression; evalBuiltin never
// re-dispatches by string.

type builtinFunc func(args []Expression, ctx evalContext) (Term, bool)

func evalBuiltin(e Expression, ctx evalContext) (Term, bool) {
	if e.resolved == nil {
		return Term{}, false
	}
	return e.resolved(e.Args, ctx)
}

// builtinArity, when >= 0, is enforced by validate.go at well-
// formedness time. -1 means variadic.
var builtinArity = map[string]int{
	"STR": 1, "LANG": 1, "DATATYPE": 1, "BOUND": 1, "IRI": 1, "URI": 1,
	"BNODE": -1, "STRDT": 2, "STRLANG": 2, "SAMETERM": 2, "ISIRI": 1,
	"ISBLANK": 1, "ISLITERAL": 1, "ISNUMERIC": 1,
	"STRLEN": 1, "SUBSTR": -1, "UCASE": 1, "LCASE": 1, "CONCAT": -1,
	"CONTAINS": 2, "STRSTARTS": 2, "STRENDS": 2, "STRBEFORE": 2,
	"STRAFTER": 2, "REPLACE": -1, "REGEX": -1, "ENCODE_FOR_URI": 1,
	"LANGMATCHES": 2,
	"ABS": 1, "ROUND": 1, "CEIL": 1, "FLOOR": 1, "RAND": 0,
	"MD5": 1, "SHA1": 1, "SHA256": 1, "SHA384": 1, "SHA512": 1,
	"UUID": 0, "STRUUID": 0,
	"NOW": 0, "YEAR": 1, "MONTH": 1, "DAY": 1, "HOURS": 1, "MINUTES": 1, "SECONDS": 1, "TIMEZONE": 1, "TZ": 1,
	"IF": 3, "COALESCE": -1, "IN": -1,
}

var builtinTable map[string]builtinFunc

func init() {
	builtinTable = map[string]builtinFunc{
		"STR":            biStr,
		"LANG":           biLang,
		"DATATYPE":       biDatatype,
		"BOUND":          biBound,
		"IRI":            biIRI,
		"URI":            biIRI,
		"BNODE":          biBnode,
		"STRDT":          biStrdt,
		"STRLANG":        biStrlang,
		"SAMETERM":       biSameTerm,
		"ISIRI":          biIsIRI,
		"ISBLANK":        biIsBlank,
		"ISLITERAL":      biIsLiteral,
		"ISNUMERIC":      biIsNumeric,
		"STRLEN":         biStrlen,
		"SUBSTR":         biSubstr,
		"UCASE":          biUcase,
		"LCASE":          biLcase,
		"CONCAT":         biConcat,
		"CONTAINS":       biContains,
		"STRSTARTS":      biStrstarts,
		"STRENDS":        biStrends,
		"STRBEFORE":      biStrbefore,
		"STRAFTER":       biStrafter,
		"REPLACE":        biReplace,
		"REGEX":          biRegex,
		"ENCODE_FOR_URI": biEncodeForURI,
		"LANGMATCHES":    biLangMatches,
		"ABS":            biAbs,
		"ROUND":          biRound,
		"CEIL":           biCeil,
		"FLOOR":          biFloor,
		"RAND":           biRand,
		"MD5":            biHash("md5"),
		"SHA1":           biHash("sha1"),
		"SHA256":         biHash("sha256"),
		"SHA384":         biHash("sha384"),
		"SHA512":         biHash("sha512"),
		"UUID":           biUUID,
		"STRUUID":        biStrUUID,
		"NOW":            biNow,
		"YEAR":           biUnsupportedTemporal,
		"MONTH":          biUnsupportedTemporal,
		"DAY":            biUnsupportedTemporal,
		"HOURS":          biUnsupportedTemporal,
		"MINUTES":        biUnsupportedTemporal,
		"SECONDS":        biUnsupportedTemporal,
		"TIMEZONE":       biUnsupportedTemporal,
		"TZ":             biUnsupportedTemporal,
		"IF":             biIf,
		"COALESCE":       biCoalesce,
		"IN":             biIn,
	}
}

// resolveBuiltin looks up name (case-insensitive) in the builtin
// table, returning nil if it is not a known builtin.
func resolveBuiltin(name string) builtinFunc {
	return builtinTable[strings.ToUpper(name)]
}

// evalArg evaluates args[i], returning (zero, false) if out of range
// or the sub-expression errors.
func evalArg(args []Expression, i int, ctx evalContext) (Term, bool) {
	if i >= len(args) {
		return Term{}, false
	}
	return eval(args[i], ctx)
}

func evalString(args []Expression, i int, ctx evalContext) (string, bool) {
	t, ok := evalArg(args, i, ctx)
	if !ok {
		return "", false
	}
	switch t.Kind() {
	case KindLiteral:
		return t.Lexical(), true
	case KindIRI:
		return t.IRIValue(), true
	default:
		return "", false
	}
}

// --- type and identity ---

func biStr(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	switch t.Kind() {
	case KindIRI:
		return PlainLiteral(t.IRIValue()), true
	case KindLiteral:
		return PlainLiteral(t.Lexical()), true
	case KindBlank:
		return PlainLiteral("_:" + t.BlankLabel()), true
	default:
		return Term{}, false
	}
}

func biLang(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	if !ok || t.Kind() != KindLiteral {
		return Term{}, false
	}
	return PlainLiteral(t.Lang()), true
}

func biDatatype(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	if !ok || t.Kind() != KindLiteral {
		return Term{}, false
	}
	return IRI(t.Datatype()), true
}

func biBound(args []Expression, ctx evalContext) (Term, bool) {
	if len(args) < 1 || args[0].Kind != ExprVariable {
		return Term{}, false
	}
	_, bound := ctx.mapping.Lookup(args[0].Var.VarName())
	return boolTerm(bound), true
}

func biIRI(args []Expression, ctx evalContext) (Term, bool) {
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	return IRI(s), true
}

func biBnode(args []Expression, ctx evalContext) (Term, bool) {
	// Zero-arg BNODE() mints a fresh blank node, deterministically
	// derived per (rule, μ, call number within that μ) by the driver's
	// blank-freshness hook so repeated runs are reproducible (spec.md
	// §4.G / Design Notes); single-arg BNODE(str) deterministically
	// labels from the string argument instead.
	if len(args) == 0 {
		return Blank(freshBlankLabel(ctx)), true
	}
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	return Blank("n" + s), true
}

func biStrdt(args []Expression, ctx evalContext) (Term, bool) {
	lex, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	dt, ok := evalArg(args, 1, ctx)
	if !ok || dt.Kind() != KindIRI {
		return Term{}, false
	}
	return TypedLiteral(lex, dt.IRIValue()), true
}

func biStrlang(args []Expression, ctx evalContext) (Term, bool) {
	lex, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	lang, ok := evalString(args, 1, ctx)
	if !ok {
		return Term{}, false
	}
	return LangLiteral(lex, lang), true
}

func biSameTerm(args []Expression, ctx evalContext) (Term, bool) {
	a, aok := evalArg(args, 0, ctx)
	b, bok := evalArg(args, 1, ctx)
	if !aok || !bok {
		return Term{}, false
	}
	return boolTerm(a.Equal(b)), true
}

func biIsIRI(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	return boolTerm(ok && t.IsIRI()), true
}

func biIsBlank(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	return boolTerm(ok && t.IsBlank()), true
}

func biIsLiteral(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	return boolTerm(ok && t.IsLiteral()), true
}

func biIsNumeric(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	return boolTerm(ok && t.isNumeric()), true
}

// --- strings ---

func biStrlen(args []Expression, ctx evalContext) (Term, bool) {
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	return TypedLiteral(strconv.Itoa(len([]rune(s))), xsdInteger), true
}

// biSubstr implements 1-indexed SUBSTR with an optional length
// (spec.md §4.D).
func biSubstr(args []Expression, ctx evalContext) (Term, bool) {
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	startTerm, ok := evalArg(args, 1, ctx)
	if !ok {
		return Term{}, false
	}
	startNum, ok := startTerm.asNumeric()
	if !ok {
		return Term{}, false
	}
	runes := []rune(s)
	start := int(startNum.asFloat64()) - 1
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if len(args) >= 3 {
		lenTerm, ok := evalArg(args, 2, ctx)
		if !ok {
			return Term{}, false
		}
		lenNum, ok := lenTerm.asNumeric()
		if !ok {
			return Term{}, false
		}
		want := int(lenNum.asFloat64())
		if want < 0 {
			want = 0
		}
		if start+want < end {
			end = start + want
		}
	}
	if end < start {
		end = start
	}
	return PlainLiteral(string(runes[start:end])), true
}

func biUcase(args []Expression, ctx evalContext) (Term, bool) {
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	return PlainLiteral(strings.ToUpper(s)), true
}

func biLcase(args []Expression, ctx evalContext) (Term, bool) {
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	return PlainLiteral(strings.ToLower(s)), true
}

func biConcat(args []Expression, ctx evalContext) (Term, bool) {
	var sb strings.Builder
	for i := range args {
		s, ok := evalString(args, i, ctx)
		if !ok {
			return Term{}, false
		}
		sb.WriteString(s)
	}
	return PlainLiteral(sb.String()), true
}

func biContains(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	needle, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	return boolTerm(strings.Contains(s, needle)), true
}

func biStrstarts(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	prefix, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	return boolTerm(strings.HasPrefix(s, prefix)), true
}

func biStrends(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	suffix, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	return boolTerm(strings.HasSuffix(s, suffix)), true
}

func biStrbefore(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	needle, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	idx := strings.Index(s, needle)
	if idx < 0 {
		return PlainLiteral(""), true
	}
	return PlainLiteral(s[:idx]), true
}

func biStrafter(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	needle, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	idx := strings.Index(s, needle)
	if idx < 0 {
		return PlainLiteral(""), true
	}
	return PlainLiteral(s[idx+len(needle):]), true
}

// regexOptions translates SPARQL flag letters (i, m, s) to regexp2
// options (spec.md §4.D).
func regexOptions(flags string) regexp2.RegexOptions {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		}
	}
	return opts
}

func biReplace(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	pattern, ok2 := evalString(args, 1, ctx)
	repl, ok3 := evalString(args, 2, ctx)
	if !ok1 || !ok2 || !ok3 {
		return Term{}, false
	}
	flags := ""
	if len(args) >= 4 {
		f, ok := evalString(args, 3, ctx)
		if !ok {
			return Term{}, false
		}
		flags = f
	}
	re, err := regexp2.Compile(pattern, regexOptions(flags))
	if err != nil {
		return Term{}, false
	}
	out, err := re.Replace(s, translateReplacement(repl), -1, -1)
	if err != nil {
		return Term{}, false
	}
	return PlainLiteral(out), true
}

// translateReplacement converts SPARQL/XPath-style $1 group references
// into regexp2's ${1} syntax.
func translateReplacement(repl string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '$' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9' {
			j := i + 1
			for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			sb.WriteString("${")
			sb.WriteString(repl[i+1 : j])
			sb.WriteByte('}')
			i = j - 1
			continue
		}
		sb.WriteByte(repl[i])
	}
	return sb.String()
}

func biRegex(args []Expression, ctx evalContext) (Term, bool) {
	s, ok1 := evalString(args, 0, ctx)
	pattern, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	flags := ""
	if len(args) >= 3 {
		f, ok := evalString(args, 2, ctx)
		if !ok {
			return Term{}, false
		}
		flags = f
	}
	re, err := regexp2.Compile(pattern, regexOptions(flags))
	if err != nil {
		return Term{}, false
	}
	m, err := re.FindStringMatch(s)
	if err != nil {
		return Term{}, false
	}
	return boolTerm(m != nil), true
}

func biEncodeForURI(args []Expression, ctx evalContext) (Term, bool) {
	s, ok := evalString(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	return PlainLiteral(url.QueryEscape(s)), true
}

// biLangMatches implements LANGMATCHES with prefix semantics and a
// '*' wildcard matching any non-empty tag (spec.md §4.D).
func biLangMatches(args []Expression, ctx evalContext) (Term, bool) {
	tag, ok1 := evalString(args, 0, ctx)
	pattern, ok2 := evalString(args, 1, ctx)
	if !ok1 || !ok2 {
		return Term{}, false
	}
	if pattern == "*" {
		return boolTerm(tag != ""), true
	}
	tag, pattern = strings.ToLower(tag), strings.ToLower(pattern)
	return boolTerm(tag == pattern || strings.HasPrefix(tag, pattern+"-")), true
}

// --- numerics ---

func biAbs(args []Expression, ctx evalContext) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	n, ok := t.asNumeric()
	if !ok {
		return Term{}, false
	}
	if n.kind == numFloat || n.kind == numDouble {
		return numericValue{kind: n.kind, float: math.Abs(n.asFloat64())}.toTerm(), true
	}
	res := new(apd.Decimal)
	res.Abs(n.toDecimal())
	return numericValue{kind: n.kind, dec: res}.toTerm(), true
}

func biRound(args []Expression, ctx evalContext) (Term, bool) {
	return roundLike(args, ctx, math.Round)
}

func biCeil(args []Expression, ctx evalContext) (Term, bool) {
	return roundLike(args, ctx, math.Ceil)
}

func biFloor(args []Expression, ctx evalContext) (Term, bool) {
	return roundLike(args, ctx, math.Floor)
}

func roundLike(args []Expression, ctx evalContext, f func(float64) float64) (Term, bool) {
	t, ok := evalArg(args, 0, ctx)
	if !ok {
		return Term{}, false
	}
	n, ok := t.asNumeric()
	if !ok {
		return Term{}, false
	}
	if n.kind == numFloat || n.kind == numDouble {
		return numericValue{kind: n.kind, float: f(n.asFloat64())}.toTerm(), true
	}
	rounded := f(n.asFloat64())
	d, _, err := apd.NewFromString(strconv.FormatFloat(rounded, 'f', -1, 64))
	if err != nil {
		return Term{}, false
	}
	return numericValue{kind: n.kind, dec: d}.toTerm(), true
}

func biRand(args []Expression, ctx evalContext) (Term, bool) {
	return numericValue{kind: numDouble, float: rand.Float64()}.toTerm(), true
}

func biHash(algo string) builtinFunc {
	return func(args []Expression, ctx evalContext) (Term, bool) {
		s, ok := evalString(args, 0, ctx)
		if !ok {
			return Term{}, false
		}
		var sum []byte
		switch algo {
		case "md5":
			h := md5.Sum([]byte(s))
			sum = h[:]
		case "sha1":
			h := sha1.Sum([]byte(s))
			sum = h[:]
		case "sha256":
			h := sha256.Sum256([]byte(s))
			sum = h[:]
		case "sha384":
			h := sha512.Sum384([]byte(s))
			sum = h[:]
		case "sha512":
			h := sha512.Sum512([]byte(s))
			sum = h[:]
		default:
			return Term{}, false
		}
		return PlainLiteral(hex.EncodeToString(sum)), true
	}
}

// --- identifiers ---

func biUUID(args []Expression, ctx evalContext) (Term, bool) {
	return IRI("urn:uuid:" + uuid.NewString()), true
}

func biStrUUID(args []Expression, ctx evalContext) (Term, bool) {
	return PlainLiteral(uuid.NewString()), true
}

// --- temporals ---

func biNow(args []Expression, ctx evalContext) (Term, bool) {
	return TypedLiteral(time.Now().UTC().Format(time.RFC3339Nano), xsdDateTime), true
}

// biUnsupportedTemporal covers the accessor functions spec.md §4.D
// permits leaving unimplemented ("may be unimplemented and return
// error").
func biUnsupportedTemporal(args []Expression, ctx evalContext) (Term, bool) {
	return Term{}, false
}

// --- control ---

func biIf(args []Expression, ctx evalContext) (Term, bool) {
	if len(args) < 3 {
		return Term{}, false
	}
	cond, ok := eval(args[0], ctx)
	if effectiveBoolean(cond, ok) {
		return eval(args[1], ctx)
	}
	return eval(args[2], ctx)
}

func biCoalesce(args []Expression, ctx evalContext) (Term, bool) {
	for _, a := range args {
		if t, ok := eval(a, ctx); ok {
			return t, true
		}
	}
	return Term{}, false
}

func biIn(args []Expression, ctx evalContext) (Term, bool) {
	if len(args) < 1 {
		return Term{}, false
	}
	x, ok := eval(args[0], ctx)
	if !ok {
		return Term{}, false
	}
	for _, a := range args[1:] {
		t, ok := eval(a, ctx)
		if ok && valueEqual(x, t) {
			return boolTerm(true), true
		}
	}
	return boolTerm(false), true
}
