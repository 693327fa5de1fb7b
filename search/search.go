// Package search performs regex or substring search across collections of
// code-bearing records, returning match counts and bounded context windows
// without leaking full code bodies.
package search

import "regexp"

// Window limits applied to each match.
const (
	maxWindows   = 5
	contextBytes = 50
)

// Options configures a search run.
type Options struct {
	// CaseSensitive enables case-sensitive matching.
	// Default: false.
	CaseSensitive bool
}

// Candidate is one searchable record. Item is the original record, carried
// through to the match untouched; Text is the field content to search.
// Candidates with empty Text are skipped entirely, not reported as
// zero-match results.
type Candidate struct {
	Item any
	Text string
}

// Window is a bounded context excerpt around one match.
type Window struct {
	// Position is the byte offset of the match start within the field.
	Position int `json:"position"`

	// Context is the surrounding text, clipped to the field bounds.
	Context string `json:"context"`
}

// Match reports one matching record.
type Match struct {
	// Item is the original record the candidate carried.
	Item any `json:"item"`

	// Count is the total number of matches in the field.
	Count int `json:"match_count"`

	// Windows holds up to five context excerpts around the first matches.
	Windows []Window `json:"matches"`
}

// Run searches every candidate's text for query. The query is compiled as a
// regular expression; when compilation fails it degrades to a literal
// substring match instead of erroring, so search never fails on odd input.
func Run(candidates []Candidate, query string, opts Options) []Match {
	pattern := compile(query, opts.CaseSensitive)

	var out []Match
	for _, cand := range candidates {
		if cand.Text == "" {
			continue
		}
		locs := pattern.FindAllStringIndex(cand.Text, -1)
		if len(locs) == 0 {
			continue
		}

		match := Match{Item: cand.Item, Count: len(locs)}
		for _, loc := range locs {
			if len(match.Windows) == maxWindows {
				break
			}
			match.Windows = append(match.Windows, window(cand.Text, loc[0], loc[1]))
		}
		out = append(out, match)
	}
	return out
}

// compile builds the search pattern, escaping the query to a literal when it
// is not a valid regular expression.
func compile(query string, caseSensitive bool) *regexp.Regexp {
	prefix := "(?i)"
	if caseSensitive {
		prefix = ""
	}
	if re, err := regexp.Compile(prefix + query); err == nil {
		return re
	}
	return regexp.MustCompile(prefix + regexp.QuoteMeta(query))
}

// window extracts the context around one match, clipped to field bounds.
func window(text string, start, end int) Window {
	lo := start - contextBytes
	if lo < 0 {
		lo = 0
	}
	hi := end + contextBytes
	if hi > len(text) {
		hi = len(text)
	}
	return Window{Position: start, Context: text[lo:hi]}
}
