package script

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dop251/goja/file"
)

// source indexes a script by line for offset to position conversion.
type source struct {
	text       string
	lineStarts []int
}

func newSource(text string) *source {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &source{text: text, lineStarts: starts}
}

// pos converts a 0-based byte offset. Columns count runes.
func (s *source) pos(off int) Pos {
	off = max(0, min(off, len(s.text)))
	line := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > off }) - 1
	start := s.lineStarts[line]
	return Pos{Line: line + 1, Col: utf8.RuneCountInString(s.text[start:off]) + 1}
}

// posPtr is pos for parser indices.
func (s *source) posPtr(idx file.Idx) *Pos {
	p := s.pos(offset(idx))
	return &p
}

// offset converts a parser index (1-based) to a byte offset.
func offset(idx file.Idx) int {
	return int(idx) - 1
}

// scanner state used while skipping strings and comments.
const (
	scanCode = iota
	scanSingle
	scanDouble
	scanTemplate
	scanLineComment
	scanBlockComment
)

// unclosedParens counts '(' in text with no matching ')', ignoring strings
// and comments.
func unclosedParens(text string) int {
	open, _ := parenBalance(text)
	return open
}

// parenBalance counts the '(' in text left open at its end and the ')' that
// close a parenthesis opened before text starts.
func parenBalance(text string) (open, closed int) {
	walkCode(text, func(i int) {
		switch text[i] {
		case '(':
			open++
		case ')':
			if open > 0 {
				open--
			} else {
				closed++
			}
		}
	})
	return open, closed
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// walkCode calls fn for every byte of text that is code, not part of a
// string literal or comment.
func walkCode(text string, fn func(i int)) {
	mode := scanCode
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch mode {
		case scanCode:
			switch {
			case c == '\'':
				mode = scanSingle
			case c == '"':
				mode = scanDouble
			case c == '`':
				mode = scanTemplate
			case c == '/' && i+1 < len(text) && text[i+1] == '/':
				mode = scanLineComment
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				mode = scanBlockComment
				i++
			default:
				fn(i)
			}
		case scanSingle, scanDouble, scanTemplate:
			quote := closingQuote(mode)
			if c == '\\' {
				i++
			} else if c == quote {
				mode = scanCode
			}
		case scanLineComment:
			if c == '\n' {
				mode = scanCode
				fn(i)
			}
		case scanBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				mode = scanCode
				i++
			}
		}
	}
}

func closingQuote(mode int) byte {
	switch mode {
	case scanSingle:
		return '\''
	case scanDouble:
		return '"'
	default:
		return '`'
	}
}

// CodeLength counts the characters of src that are neither whitespace nor
// part of a comment.
func CodeLength(src string) int {
	var b strings.Builder
	mode := scanCode
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch mode {
		case scanCode:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				mode = scanLineComment
				i++
				continue
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				mode = scanBlockComment
				i++
				continue
			case c == '\'':
				mode = scanSingle
			case c == '"':
				mode = scanDouble
			case c == '`':
				mode = scanTemplate
			}
			b.WriteByte(c)
		case scanSingle, scanDouble, scanTemplate:
			b.WriteByte(c)
			quote := closingQuote(mode)
			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
			} else if c == quote {
				mode = scanCode
			}
		case scanLineComment:
			if c == '\n' {
				mode = scanCode
			}
		case scanBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				mode = scanCode
				i++
			}
		}
	}

	n := 0
	for _, r := range b.String() {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
