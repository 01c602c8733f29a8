package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// PreservedKind tells how a preserved-list entry is matched.
type PreservedKind int

const (
	// PreservedLiteral entries match by case-insensitive equality.
	PreservedLiteral PreservedKind = iota
	// PreservedPattern entries are written as /source/flags and matched as regular expressions.
	PreservedPattern
)

func (k PreservedKind) String() string {
	switch k {
	case PreservedLiteral:
		return "literal"
	case PreservedPattern:
		return "pattern"
	}
	return "unknown"
}

// delimitedEntry recognises /source/flags. The greedy source group ends at the final slash.
// Line terminators break the shape, the same as an unflagged "." would.
var delimitedEntry = regexp.MustCompile(`\A/([^\n\r\x{2028}\x{2029}]+)/([^\n\r\x{2028}\x{2029}]*)\z`)

// CompiledPattern is a parsed preserved-list entry.
//
// A pattern entry that failed to compile keeps Err and never matches anything.
type CompiledPattern struct {
	Kind   PreservedKind
	Raw    string
	Source string
	Flags  string
	Err    error

	folded string
	re     *regexp.Regexp
}

// Valid reports whether the entry can match at all.
func (p CompiledPattern) Valid() bool {
	return p.Kind == PreservedLiteral || p.re != nil
}

// Match tests a candidate against the entry.
// Literal entries fold case on both sides; pattern entries see the raw candidate and
// are case-sensitive unless their flags say otherwise.
func (p CompiledPattern) Match(candidate string) bool {
	switch p.Kind {
	case PreservedLiteral:
		return p.folded == LowerUsername(candidate)
	case PreservedPattern:
		if p.re == nil {
			return false
		}
		return p.re.MatchString(candidate)
	}
	return false
}

// ParsePreservedEntry turns one raw preserved-list entry into a CompiledPattern.
// It never fails: a malformed pattern yields an entry that matches nothing.
func ParsePreservedEntry(entry string) CompiledPattern {
	m := delimitedEntry.FindStringSubmatch(entry)
	if m == nil {
		return CompiledPattern{Kind: PreservedLiteral, Raw: entry, folded: LowerUsername(entry)}
	}
	p := CompiledPattern{Kind: PreservedPattern, Raw: entry, Source: m[1], Flags: m[2]}
	p.re, p.Err = compileDelimited(p.Source, p.Flags)
	return p
}

// compileDelimited compiles source with JavaScript-style flags on top of RE2.
// Flags that only affect iteration state (g, u, d) are accepted and ignored.
func compileDelimited(source, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	sticky := false
	seen := make(map[rune]bool, len(flags))
	for _, f := range flags {
		if seen[f] {
			return nil, fmt.Errorf("duplicate flag %q", f)
		}
		seen[f] = true
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		case 'y':
			sticky = true
		case 'g', 'u', 'd':
		default:
			return nil, fmt.Errorf("unsupported flag %q", f)
		}
	}

	// The source must stand on its own before it gets wrapped, otherwise
	// an unbalanced ")" could be closed by the wrapper.
	if _, err := regexp.Compile(source); err != nil {
		return nil, err
	}

	expr := source
	if sticky {
		expr = `\A(?:` + expr + `)`
	}
	if inline.Len() > 0 {
		expr = "(?" + inline.String() + ")" + expr
	}
	return regexp.Compile(expr)
}

// IsPreserved reports whether any entry matches the candidate.
func IsPreserved(candidate string, entries []string) bool {
	for _, e := range entries {
		if ParsePreservedEntry(e).Match(candidate) {
			return true
		}
	}
	return false
}

// PreservedMatch is the per-entry outcome reported by Explain.
type PreservedMatch struct {
	Entry   string `json:"entry"`
	Kind    string `json:"kind"`
	Matched bool   `json:"matched"`
	Error   string `json:"error,omitempty"`
}

// PreservedMatcher evaluates candidates against the preserved list and keeps
// compiled entries around, since the list changes rarely.
// The zero value and a nil *PreservedMatcher compile on every call.
type PreservedMatcher struct {
	compiled *gocache.Cache
}

// NewPreservedMatcher creates a matcher whose compiled entries expire after ttl.
func NewPreservedMatcher(ttl time.Duration) *PreservedMatcher {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PreservedMatcher{compiled: gocache.New(ttl, 2*ttl)}
}

// Compile returns the parsed form of entry, from the cache when possible.
func (m *PreservedMatcher) Compile(entry string) CompiledPattern {
	if m == nil || m.compiled == nil {
		return ParsePreservedEntry(entry)
	}
	if v, ok := m.compiled.Get(entry); ok {
		if p, ok := v.(CompiledPattern); ok {
			return p
		}
	}
	p := ParsePreservedEntry(entry)
	m.compiled.SetDefault(entry, p)
	return p
}

// IsPreserved is the cached counterpart of the package-level IsPreserved.
func (m *PreservedMatcher) IsPreserved(candidate string, entries []string) bool {
	for _, e := range entries {
		if m.Compile(e).Match(candidate) {
			return true
		}
	}
	return false
}

// Explain evaluates every entry without short-circuiting, for administrators
// checking which entries block a name and which ones never can.
func (m *PreservedMatcher) Explain(candidate string, entries []string) []PreservedMatch {
	out := make([]PreservedMatch, 0, len(entries))
	for _, e := range entries {
		p := m.Compile(e)
		r := PreservedMatch{Entry: e, Kind: p.Kind.String(), Matched: p.Match(candidate)}
		if p.Err != nil {
			r.Error = p.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

// Flush drops all compiled entries.
func (m *PreservedMatcher) Flush() {
	if m == nil || m.compiled == nil {
		return
	}
	m.compiled.Flush()
}
