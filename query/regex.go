package query

import (
	"fmt"
	"regexp"
	"regexp/syntax"

	"github.com/hupe1980/codeindex/sparse"
	"github.com/hupe1980/codeindex/trigram"
)

// Regex matches documents against a Go regular expression evaluated on the
// raw bytes.
//
// Only literal runs that every match must contain are turned into trigrams.
// A pattern without such a run of at least three characters yields no
// trigrams and therefore finds nothing through the index.
func Regex(pattern string) (Spec, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &regexSpec{re: re, required: requiredLiterals(parsed.Simplify())}, nil
}

// MustRegex is like Regex but panics on an invalid pattern.
func MustRegex(pattern string) Spec {
	s, err := Regex(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

type regexSpec struct {
	re       *regexp.Regexp
	required []string
}

func (s *regexSpec) Matches(_ string, data []byte) bool {
	return s.re.Match(data)
}

func (s *regexSpec) CollectTrigrams(set *sparse.Set) {
	for _, lit := range s.required {
		for t := range trigram.All([]byte(lit)) {
			set.Add(t.ID())
		}
	}
}

func (s *regexSpec) String() string {
	return fmt.Sprintf("regex(%q)", s.re.String())
}

// exactLiteral returns the only string re can match, if there is one.
func exactLiteral(re *syntax.Regexp) (string, bool) {
	switch re.Op {
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase != 0 {
			return "", false
		}
		return string(re.Rune), true
	case syntax.OpEmptyMatch:
		return "", true
	case syntax.OpCapture:
		return exactLiteral(re.Sub[0])
	case syntax.OpConcat:
		var out []byte
		for _, sub := range re.Sub {
			lit, ok := exactLiteral(sub)
			if !ok {
				return "", false
			}
			out = append(out, lit...)
		}
		return string(out), true
	}
	return "", false
}

// requiredLiterals returns literal strings present in every match of re.
func requiredLiterals(re *syntax.Regexp) []string {
	if lit, ok := exactLiteral(re); ok {
		if lit == "" {
			return nil
		}
		return []string{lit}
	}

	switch re.Op {
	case syntax.OpCapture, syntax.OpPlus:
		return requiredLiterals(re.Sub[0])
	case syntax.OpRepeat:
		if re.Min >= 1 {
			return requiredLiterals(re.Sub[0])
		}
	case syntax.OpConcat:
		var (
			out []string
			run []byte
		)
		flush := func() {
			if len(run) > 0 {
				out = append(out, string(run))
				run = run[:0]
			}
		}
		for _, sub := range re.Sub {
			if lit, ok := exactLiteral(sub); ok {
				run = append(run, lit...)
				continue
			}
			flush()
			out = append(out, requiredLiterals(sub)...)
		}
		flush()
		return out
	}
	return nil
}
