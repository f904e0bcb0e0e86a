package engine

// effectiveBoolean computes the effective boolean value of a
// (possibly absent) term, per spec.md §4.D. Absent values (present ==
// false) are always false; this is the single funnel every Filter and
// logical operator goes through.
func effectiveBoolean(t Term, present bool) bool {
	if !present {
		return false
	}
	switch {
	case t.Kind() == KindLiteral && t.Datatype() == xsdBoolean:
		return t.Lexical() == "true" || t.Lexical() == "1"
	case t.isNumeric():
		n, _ := t.asNumeric()
		return !n.isZeroOrNaN()
	case t.Kind() == KindLiteral && (t.Datatype() == xsdString || t.LiteralForm() == FormPlain):
		return t.Lexical() != ""
	default:
		return false
	}
}
