package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/gitrdm/ruleforge/pkg/engine"
)

// loadFixture reads a tiny line-oriented triple fixture: one triple
// per line, whitespace-separated, each slot either <iri> or a quoted
// string literal. It is deliberately not a Turtle parser (surface
// syntax is out of scope); it exists only so the CLI has something to
// read besides facts wired directly into Go.
//
//	<http://example.org/alice> <http://example.org/parent> <http://example.org/bob>
//	<http://example.org/alice> <http://example.org/age> "42"
func loadFixture(path string) ([]engine.Triple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	var triples []engine.Triple
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := splitFixtureLine(line)
		if err != nil {
			return nil, fmt.Errorf("fixture line %d: %w", lineNo, err)
		}
		s, err := parseFixtureTerm(fields[0])
		if err != nil {
			return nil, fmt.Errorf("fixture line %d subject: %w", lineNo, err)
		}
		p, err := parseFixtureTerm(fields[1])
		if err != nil {
			return nil, fmt.Errorf("fixture line %d predicate: %w", lineNo, err)
		}
		o, err := parseFixtureTerm(fields[2])
		if err != nil {
			return nil, fmt.Errorf("fixture line %d object: %w", lineNo, err)
		}
		triples = append(triples, engine.Triple{Subject: s, Predicate: p, Object: o})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return triples, nil
}

// splitFixtureLine splits a line into exactly three whitespace-
// separated fields, respecting double-quoted literals that may
// themselves contain spaces.
func splitFixtureLine(line string) ([3]string, error) {
	var fields [3]string
	n := 0
	var b strings.Builder
	inQuote := false
	flush := func() error {
		if n >= 3 {
			return fmt.Errorf("too many fields")
		}
		fields[n] = b.String()
		b.Reset()
		n++
		return nil
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case (r == ' ' || r == '\t') && !inQuote:
			if b.Len() > 0 {
				if err := flush(); err != nil {
					return fields, err
				}
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		if err := flush(); err != nil {
			return fields, err
		}
	}
	if n != 3 {
		return fields, fmt.Errorf("expected 3 fields, got %d", n)
	}
	return fields, nil
}

func parseFixtureTerm(tok string) (engine.Term, error) {
	switch {
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return engine.IRI(tok[1 : len(tok)-1]), nil
	case strings.HasPrefix(tok, "\"") && strings.HasSuffix(tok, "\""):
		return engine.PlainLiteral(tok[1 : len(tok)-1]), nil
	default:
		return engine.Term{}, fmt.Errorf("unrecognized term %q (expected <iri> or \"literal\")", tok)
	}
}
