package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString // quoted string
	tokIdent  // bare identifier-like word
	tokNumber
	tokSymbol // run of comparison symbols, e.g. "<=", "!=", "~"
	tokIllegal
)

type token struct {
	kind    tokenKind
	text    string // decoded text for strings, raw text otherwise
	offset  int
	term    bool // for tokString: whether the closing quote was found
	isFloat bool // for tokNumber
}

// lexer scans the tolerant dialect: bare identifier keys and values,
// single- or double-quoted strings, trailing commas, and bare symbol
// runs in value position.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, offset: l.pos}
	}

	start := l.pos
	c := l.src[l.pos]

	switch c {
	case '{':
		l.pos++
		return token{kind: tokLBrace, text: "{", offset: start}
	case '}':
		l.pos++
		return token{kind: tokRBrace, text: "}", offset: start}
	case '[':
		l.pos++
		return token{kind: tokLBracket, text: "[", offset: start}
	case ']':
		l.pos++
		return token{kind: tokRBracket, text: "]", offset: start}
	case ':':
		l.pos++
		return token{kind: tokColon, text: ":", offset: start}
	case ',':
		l.pos++
		return token{kind: tokComma, text: ",", offset: start}
	case '"', '\'':
		return l.scanString(c)
	}

	if isSymbolChar(c) {
		for l.pos < len(l.src) && isSymbolChar(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokSymbol, text: l.src[start:l.pos], offset: start}
	}

	if c >= '0' && c <= '9' || c == '-' {
		return l.scanNumber()
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	if unicode.IsLetter(r) || c == '_' || c == '$' {
		return l.scanIdent()
	}

	l.pos++
	return token{kind: tokIllegal, text: string(c), offset: start}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

// scanString decodes a quoted string. If the closing quote is missing
// the token is returned with term=false and the text scanned so far, so
// the parser can record a truncation diagnostic.
func (l *lexer) scanString(quote byte) token {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return token{kind: tokString, text: b.String(), offset: start, term: true}
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			switch esc := l.src[l.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if l.pos+4 < len(l.src) {
					if r, ok := decodeHex4(l.src[l.pos+1 : l.pos+5]); ok {
						b.WriteRune(r)
						l.pos += 4
						break
					}
				}
				b.WriteByte(esc)
			default:
				b.WriteByte(esc)
			}
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return token{kind: tokString, text: b.String(), offset: start, term: false}
}

func (l *lexer) scanNumber() token {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	isFloat := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.':
			isFloat = true
		case c == 'e' || c == 'E':
			isFloat = true
		case c == '+' || c == '-':
			// exponent sign; only valid right after e/E, validated later
			prev := l.src[l.pos-1]
			if prev != 'e' && prev != 'E' {
				return token{kind: tokNumber, text: l.src[start:l.pos], offset: start, isFloat: isFloat}
			}
		default:
			return token{kind: tokNumber, text: l.src[start:l.pos], offset: start, isFloat: isFloat}
		}
		l.pos++
	}
	return token{kind: tokNumber, text: l.src[start:l.pos], offset: start, isFloat: isFloat}
}

func (l *lexer) scanIdent() token {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '$' {
			l.pos += size
			continue
		}
		break
	}
	return token{kind: tokIdent, text: l.src[start:l.pos], offset: start}
}

func isSymbolChar(c byte) bool {
	switch c {
	case '<', '>', '!', '=', '~':
		return true
	}
	return false
}

func decodeHex4(s string) (rune, bool) {
	var r rune
	for i := 0; i < 4; i++ {
		r <<= 4
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return r, true
}
