package formula

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokComma
	tokQuestion
	tokColon
	tokLT
	tokLE
	tokGT
	tokGE
	tokEQ
	tokNE
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer produces tokens from a formula expression. Positions are byte
// offsets into the original string so parse errors point at the source.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.lexNumber()
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	}

	l.pos++
	switch c {
	case '+':
		return token{kind: tokPlus, text: "+", pos: start}, nil
	case '-':
		return token{kind: tokMinus, text: "-", pos: start}, nil
	case '*':
		return token{kind: tokStar, text: "*", pos: start}, nil
	case '/':
		return token{kind: tokSlash, text: "/", pos: start}, nil
	case '(':
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case ',':
		return token{kind: tokComma, text: ",", pos: start}, nil
	case '?':
		return token{kind: tokQuestion, text: "?", pos: start}, nil
	case ':':
		return token{kind: tokColon, text: ":", pos: start}, nil
	case '<':
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokLE, text: "<=", pos: start}, nil
		}
		return token{kind: tokLT, text: "<", pos: start}, nil
	case '>':
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokGE, text: ">=", pos: start}, nil
		}
		return token{kind: tokGT, text: ">", pos: start}, nil
	case '=':
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokEQ, text: "==", pos: start}, nil
		}
		return token{}, &ParseError{Pos: start, Reason: "unexpected '=' (did you mean '==')"}
	case '!':
		if l.peekByte() == '=' {
			l.pos++
			return token{kind: tokNE, text: "!=", pos: start}, nil
		}
		return token{}, &ParseError{Pos: start, Reason: "unexpected '!' (did you mean '!=')"}
	}

	return token{}, &ParseError{Pos: start, Reason: "unexpected character " + strings.TrimSpace(string(c))}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '.' {
			if seenDot {
				return token{}, &ParseError{Pos: l.pos, Reason: "malformed number"}
			}
			seenDot = true
			l.pos++
			continue
		}
		if !isDigit(c) {
			break
		}
		l.pos++
	}
	text := l.input[start:l.pos]
	if text == "." {
		return token{}, &ParseError{Pos: start, Reason: "malformed number"}
	}
	return token{kind: tokNumber, text: text, pos: start}, nil
}

func (l *lexer) peekByte() byte {
	if l.pos < len(l.input) {
		return l.input[l.pos]
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
