// Package pysyntax checks Python source for structural well-formedness
// before it is shipped to the remote system: unterminated strings,
// unbalanced brackets, dangling line continuations, tab-after-space
// indentation, and block headers that never receive their colon. Every
// finding carries a 1-based line number.
//
// The check is tokenizer-level, not a full grammar: code that passes may
// still be rejected by a real Python parser, but code that fails here is
// certainly broken, which is what import pre-flight needs.
package pysyntax

import "fmt"

// SyntaxError reports a structural problem in Python source.
type SyntaxError struct {
	// Line is the 1-based line number where the problem was detected.
	// For unclosed constructs this is the line that opened them.
	Line int

	// Msg describes the problem.
	Msg string
}

// Error returns the error message with its line number.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Msg)
}

// blockKeywords are statement heads that require a colon on their logical
// line.
var blockKeywords = map[string]bool{
	"def": true, "class": true, "if": true, "elif": true, "else": true,
	"for": true, "while": true, "try": true, "except": true,
	"finally": true, "with": true,
}

// bracket records an opener and the line it appeared on.
type bracket struct {
	open rune
	line int
}

var closers = map[rune]rune{')': '(', ']': '[', '}': '{'}

// Validate checks code for structural well-formedness. It returns nil for
// valid (including empty) source and a *SyntaxError otherwise.
func Validate(code string) error {
	v := &validator{src: []rune(code), line: 1, lineStart: true}
	return v.run()
}

type validator struct {
	src  []rune
	pos  int
	line int

	stack []bracket

	// Logical-line state, reset each time a logical line completes.
	headKeyword string
	headLine    int
	sawColon    bool
	lineStart   bool
	indentSpace bool
}

func (v *validator) run() error {
	for v.pos < len(v.src) {
		ch := v.src[v.pos]

		switch {
		case ch == '#':
			v.skipComment()
			continue
		case ch == '\'' || ch == '"':
			if err := v.scanString(); err != nil {
				return err
			}
			v.lineStart = false
			continue
		case ch == '\\':
			if err := v.scanContinuation(); err != nil {
				return err
			}
			continue
		case ch == '\n':
			if err := v.endPhysicalLine(); err != nil {
				return err
			}
			continue
		case ch == '(' || ch == '[' || ch == '{':
			v.stack = append(v.stack, bracket{open: ch, line: v.line})
		case ch == ')' || ch == ']' || ch == '}':
			if err := v.closeBracket(ch); err != nil {
				return err
			}
		case ch == ' ' || ch == '\t':
			if v.lineStart && len(v.stack) == 0 {
				if ch == ' ' {
					v.indentSpace = true
				} else if v.indentSpace {
					return &SyntaxError{Line: v.line, Msg: "inconsistent use of tabs and spaces in indentation"}
				}
			}
		case ch == ':':
			if len(v.stack) == 0 {
				v.sawColon = true
			}
		case isWordStart(ch):
			v.scanWord()
			continue
		}

		if ch != ' ' && ch != '\t' && ch != '\r' {
			v.lineStart = false
		}
		v.pos++
	}

	if len(v.stack) > 0 {
		b := v.stack[len(v.stack)-1]
		return &SyntaxError{Line: b.line, Msg: fmt.Sprintf("%q was never closed", string(b.open))}
	}
	return v.endLogicalLine()
}

// scanWord consumes an identifier, tracking block-header keywords at the
// start of a logical line.
func (v *validator) scanWord() {
	start := v.pos
	for v.pos < len(v.src) && isWordPart(v.src[v.pos]) {
		v.pos++
	}
	word := string(v.src[start:v.pos])

	if v.lineStart && len(v.stack) == 0 {
		if word == "async" {
			// Keep lineStart set so a following def/for/with is still
			// treated as the statement head.
			return
		}
		if blockKeywords[word] {
			v.headKeyword = word
			v.headLine = v.line
		}
	}
	v.lineStart = false
}

// skipComment consumes a comment up to (not including) the newline.
func (v *validator) skipComment() {
	for v.pos < len(v.src) && v.src[v.pos] != '\n' {
		v.pos++
	}
}

// scanContinuation handles a backslash outside strings: it must be
// immediately followed by a newline.
func (v *validator) scanContinuation() error {
	if v.pos+1 >= len(v.src) {
		return &SyntaxError{Line: v.line, Msg: "line continuation at end of file"}
	}
	next := v.src[v.pos+1]
	if next == '\r' && v.pos+2 < len(v.src) && v.src[v.pos+2] == '\n' {
		v.pos += 3
		v.line++
		return nil
	}
	if next != '\n' {
		return &SyntaxError{Line: v.line, Msg: "unexpected character after line continuation"}
	}
	v.pos += 2
	v.line++
	return nil
}

// endPhysicalLine finishes a newline. If no brackets are open the logical
// line completes and the block-header colon rule is checked.
func (v *validator) endPhysicalLine() error {
	v.pos++
	v.line++
	if len(v.stack) == 0 {
		if err := v.endLogicalLine(); err != nil {
			return err
		}
	}
	v.lineStart = true
	v.indentSpace = false
	return nil
}

// endLogicalLine enforces the colon requirement for block headers and
// resets the logical-line state.
func (v *validator) endLogicalLine() error {
	if v.headKeyword != "" && !v.sawColon {
		return &SyntaxError{
			Line: v.headLine,
			Msg:  fmt.Sprintf("expected ':' in %q statement", v.headKeyword),
		}
	}
	v.headKeyword = ""
	v.sawColon = false
	return nil
}

// closeBracket pops the bracket stack, checking pairing.
func (v *validator) closeBracket(ch rune) error {
	want := closers[ch]
	if len(v.stack) == 0 {
		return &SyntaxError{Line: v.line, Msg: fmt.Sprintf("unmatched %q", string(ch))}
	}
	top := v.stack[len(v.stack)-1]
	if top.open != want {
		return &SyntaxError{
			Line: v.line,
			Msg:  fmt.Sprintf("closing %q does not match %q opened on line %d", string(ch), string(top.open), top.line),
		}
	}
	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

// scanString consumes a string literal starting at the current quote,
// handling triple quotes and backslash escapes.
func (v *validator) scanString() error {
	quote := v.src[v.pos]
	startLine := v.line

	if v.pos+2 < len(v.src) && v.src[v.pos+1] == quote && v.src[v.pos+2] == quote {
		return v.scanTripleString(quote, startLine)
	}

	v.pos++
	for v.pos < len(v.src) {
		switch v.src[v.pos] {
		case '\\':
			if v.pos+1 < len(v.src) && v.src[v.pos+1] == '\n' {
				v.line++
			}
			v.pos += 2
			continue
		case '\n':
			return &SyntaxError{Line: startLine, Msg: "unterminated string literal"}
		case quote:
			v.pos++
			return nil
		}
		v.pos++
	}
	return &SyntaxError{Line: startLine, Msg: "unterminated string literal"}
}

func (v *validator) scanTripleString(quote rune, startLine int) error {
	v.pos += 3
	for v.pos < len(v.src) {
		ch := v.src[v.pos]
		if ch == '\\' {
			if v.pos+1 < len(v.src) && v.src[v.pos+1] == '\n' {
				v.line++
			}
			v.pos += 2
			continue
		}
		if ch == quote && v.pos+2 < len(v.src) &&
			v.src[v.pos+1] == quote && v.src[v.pos+2] == quote {
			v.pos += 3
			return nil
		}
		if ch == quote && v.pos+2 == len(v.src) && v.src[v.pos+1] == quote {
			// Two quotes at end of input do not close the literal.
			break
		}
		if ch == '\n' {
			v.line++
		}
		v.pos++
	}
	return &SyntaxError{Line: startLine, Msg: "unterminated triple-quoted string literal"}
}

func isWordStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordPart(ch rune) bool {
	return isWordStart(ch) || (ch >= '0' && ch <= '9')
}
