package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// keywordLiterals are the identifiers that lex as literal tokens
// instead of IDENTIFIER.
var keywordLiterals = map[string]Token{
	"true":      {Type: BOOLEAN, Value: true},
	"false":     {Type: BOOLEAN, Value: false},
	"null":      {Type: NULL, Value: nil},
	"undefined": {Type: UNDEFINED, Value: nil},
}

// multiCharOperators are matched greedily before their single-char
// prefixes, longest first within each leading byte.
var multiCharOperators = []string{
	"===", "!==", "==", "!=", ">=", "<=", "&&", "||",
}

// singleCharOperators is the set of one-byte operator characters.
// '=' is not here: a lone '=' lexes as ASSIGNMENT.
const singleCharOperators = "+-*/%<>!"

// punctuationChars is the set of punctuation characters.
const punctuationChars = "()[]{}.,?:"

// Tokenize converts an expression string into a token stream
// terminated by an EOF token. It returns a LexError on the first
// unrecognized character or malformed literal.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{src: src}
	return lx.run()
}

// lexer is a single-pass byte scanner over the source expression.
// Expressions are single-line, so only byte offsets are tracked.
type lexer struct {
	src    string
	cur    int
	tokens []Token
}

func (l *lexer) run() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.atEnd() {
			l.tokens = append(l.tokens, Token{Type: EOF, Pos: l.cur})
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.src[l.cur] {
		case ' ', '\t', '\r', '\n':
			l.cur++
		default:
			return
		}
	}
}

func (l *lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
}

func (l *lexer) errf(pos int, format string, args ...any) error {
	return &LexError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// scanToken scans exactly one token starting at l.cur.
func (l *lexer) scanToken() error {
	start := l.cur
	ch := l.src[l.cur]

	switch {
	case isDigit(ch):
		return l.scanNumber(start)

	case ch == '\'' || ch == '"':
		return l.scanString(start)

	case isIdentStart(ch):
		l.scanIdentifier(start)
		return nil
	}

	// Greedy multi-character operators before their prefixes.
	for _, op := range multiCharOperators {
		if l.hasPrefix(op) {
			l.cur += len(op)
			l.emit(Token{Type: OPERATOR, Text: op, Pos: start})
			return nil
		}
	}

	switch {
	case ch == '=':
		l.cur++
		l.emit(Token{Type: ASSIGNMENT, Text: "=", Pos: start})
		return nil

	case strings.IndexByte(singleCharOperators, ch) >= 0:
		l.cur++
		l.emit(Token{Type: OPERATOR, Text: string(ch), Pos: start})
		return nil

	case strings.IndexByte(punctuationChars, ch) >= 0:
		l.cur++
		l.emit(Token{Type: PUNCTUATION, Text: string(ch), Pos: start})
		return nil
	}

	return l.errf(start, "unrecognized character %q", string(ch))
}

func (l *lexer) hasPrefix(op string) bool {
	return len(l.src)-l.cur >= len(op) && l.src[l.cur:l.cur+len(op)] == op
}

// scanNumber scans a decimal number: digits with at most one interior
// decimal point. No exponent form, no leading-dot form.
func (l *lexer) scanNumber(start int) error {
	for !l.atEnd() && isDigit(l.peek()) {
		l.cur++
	}
	if !l.atEnd() && l.peek() == '.' && l.cur+1 < len(l.src) && isDigit(l.src[l.cur+1]) {
		l.cur++
		for !l.atEnd() && isDigit(l.peek()) {
			l.cur++
		}
	}
	text := l.src[start:l.cur]
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return l.errf(start, "malformed number %q", text)
	}
	l.emit(Token{Type: NUMBER, Text: text, Value: val, Pos: start})
	return nil
}

// scanString scans a quoted string with backslash escaping. The
// emitted token carries the decoded value; quotes are not retained.
func (l *lexer) scanString(start int) error {
	quote := l.src[l.cur]
	l.cur++

	var out []byte
	for !l.atEnd() {
		ch := l.src[l.cur]
		l.cur++

		switch {
		case ch == quote:
			s := string(out)
			l.emit(Token{Type: STRING, Text: s, Value: s, Pos: start})
			return nil

		case ch == '\\':
			if l.atEnd() {
				return l.errf(start, "unfinished escape sequence")
			}
			esc := l.src[l.cur]
			l.cur++
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\'', '"', '\\':
				out = append(out, esc)
			default:
				return l.errf(l.cur-2, "invalid escape sequence \\%s", string(esc))
			}

		default:
			out = append(out, ch)
		}
	}
	return l.errf(start, "unterminated string")
}

// scanIdentifier scans a name and resolves keyword literals.
func (l *lexer) scanIdentifier(start int) {
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.cur++
	}
	text := l.src[start:l.cur]
	if kw, ok := keywordLiterals[text]; ok {
		kw.Text = text
		kw.Pos = start
		l.emit(kw)
		return
	}
	l.emit(Token{Type: IDENTIFIER, Text: text, Pos: start})
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '$'
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
