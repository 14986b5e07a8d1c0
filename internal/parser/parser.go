// Package parser turns raw sketch input into an annotated raw node tree.
//
// The parser is tolerant: it accepts a superset of strict JSON (bare
// identifier keys, single-quoted strings, trailing commas, bare words
// and comparison symbols in value position, input without the outer
// braces) and it never fails hard. Structural errors are recorded as
// diagnostics and a partial tree truncated at the failure point is
// returned, so later stages can still report their own findings on the
// surviving portion.
package parser

import (
	"strconv"

	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/rawval"
)

// Options adjusts tolerant-parse behavior.
type Options struct {
	// DuplicateKeysError escalates duplicate object keys from a warning
	// to an error-severity diagnostic. Last write still wins either way.
	DuplicateKeysError bool
}

// Parse parses textual sketch input with default options.
func Parse(src string) (rawval.Node, diag.Diagnostics) {
	return ParseWithOptions(src, Options{})
}

// ParseWithOptions parses textual sketch input. It never panics and
// never returns a hard error; check the diagnostics for parse problems.
func ParseWithOptions(src string, opts Options) (rawval.Node, diag.Diagnostics) {
	p := &parser{lex: newLexer(src), opts: opts}
	p.advance()

	var node rawval.Node
	switch p.tok.kind {
	case tokEOF:
		p.errorf("$", "Empty input")
		node = rawval.Node{Path: "$", Value: rawval.Object{}}
	case tokLBrace, tokLBracket:
		node = p.parseValue("$")
	default:
		// Sketches are often written without the outer braces; read the
		// whole input as an object body.
		node = rawval.Node{Path: "$", Value: p.parseMembers("$", tokEOF)}
	}

	if !p.failed && p.tok.kind != tokEOF {
		p.errorf("$", "Unexpected trailing input %q", p.tok.text)
	}
	return node, p.diags
}

// ParseInput accepts either textual input or an already-structured value
// and produces a raw tree. Structured values wrap losslessly with no
// duplicate-key ambiguity.
func ParseInput(src any, opts Options) (rawval.Node, diag.Diagnostics) {
	switch v := src.(type) {
	case string:
		return ParseWithOptions(v, opts)
	case []byte:
		return ParseWithOptions(string(v), opts)
	case rawval.Node:
		return v, nil
	default:
		return FromValue(src)
	}
}

type parser struct {
	lex    *lexer
	tok    token
	opts   Options
	diags  diag.Diagnostics
	failed bool
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

// errorf records the first structural error and marks the parse as
// truncated. Subsequent structural errors on the same document are
// suppressed; the partial tree built so far is still returned.
func (p *parser) errorf(path, format string, args ...any) {
	if p.failed {
		return
	}
	p.failed = true
	p.diags.Addf(diag.CodeParseError, diag.SeverityError, path, format, args...)
}

func (p *parser) parseValue(path string) rawval.Node {
	switch p.tok.kind {
	case tokLBrace:
		return rawval.Node{Path: path, Value: p.parseObject(path)}
	case tokLBracket:
		return rawval.Node{Path: path, Value: p.parseArray(path)}
	case tokString:
		text, term := p.tok.text, p.tok.term
		p.advance()
		if !term {
			p.errorf(path, "Unterminated string")
		}
		return rawval.Node{Path: path, Value: rawval.String(text)}
	case tokNumber:
		return p.parseNumber(path)
	case tokSymbol:
		text := p.tok.text
		p.advance()
		return rawval.Node{Path: path, Value: rawval.String(text)}
	case tokIdent:
		text := p.tok.text
		p.advance()
		switch text {
		case "true":
			return rawval.Node{Path: path, Value: rawval.Bool(true)}
		case "false":
			return rawval.Node{Path: path, Value: rawval.Bool(false)}
		case "null":
			return rawval.Node{Path: path, Value: rawval.Null{}}
		}
		// Bare words in value position read as strings.
		return rawval.Node{Path: path, Value: rawval.String(text)}
	case tokEOF:
		p.errorf(path, "Unexpected end of input")
		return rawval.Node{Path: path, Value: rawval.Null{}}
	default:
		p.errorf(path, "Unexpected token %q", p.tok.text)
		p.advance()
		return rawval.Node{Path: path, Value: rawval.Null{}}
	}
}

func (p *parser) parseNumber(path string) rawval.Node {
	text, isFloat := p.tok.text, p.tok.isFloat
	p.advance()
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return rawval.Node{Path: path, Value: rawval.Int(n)}
		}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return rawval.Node{Path: path, Value: rawval.Float(f)}
	}
	// Malformed numeric text degrades to a string value.
	p.diags.Addf(diag.CodeParseError, diag.SeverityWarning, path, "Malformed number %q read as string", text)
	return rawval.Node{Path: path, Value: rawval.String(text)}
}

func (p *parser) parseObject(path string) rawval.Object {
	p.advance() // consume '{'
	obj := p.parseMembers(path, tokRBrace)
	if p.tok.kind == tokRBrace {
		p.advance()
	} else if !p.failed {
		p.errorf(path, "Unterminated object")
	}
	return obj
}

func (p *parser) parseMembers(path string, terminator tokenKind) rawval.Object {
	var obj rawval.Object
	for {
		if p.failed || p.tok.kind == terminator {
			return obj
		}
		if p.tok.kind == tokEOF {
			if terminator != tokEOF {
				p.errorf(path, "Unterminated object")
			}
			return obj
		}

		var key string
		switch p.tok.kind {
		case tokString:
			if !p.tok.term {
				p.errorf(path, "Unterminated string in object key")
				return obj
			}
			key = p.tok.text
		case tokIdent, tokNumber:
			key = p.tok.text
		default:
			p.errorf(path, "Expected object key, got %q", p.tok.text)
			return obj
		}
		keyPath := rawval.ChildPath(path, key)
		p.advance()

		if p.tok.kind != tokColon {
			p.errorf(keyPath, "Expected ':' after object key %q", key)
			return obj
		}
		p.advance()

		val := p.parseValue(keyPath)
		if i := obj.Index(key); i >= 0 {
			severity := diag.SeverityWarning
			if p.opts.DuplicateKeysError {
				severity = diag.SeverityError
			}
			p.diags.Addf(diag.CodeDuplicateKey, severity, keyPath,
				"Duplicate key %q: earlier value discarded", key)
			obj[i].Node = val // last write wins, first position kept
		} else {
			obj = append(obj, rawval.Member{Key: key, Node: val})
		}

		switch p.tok.kind {
		case tokComma:
			p.advance() // trailing comma before the close is fine
		case terminator, tokEOF:
			// loop header closes out
		default:
			if !p.failed {
				p.errorf(path, "Expected ',' or close after value of %q", key)
				return obj
			}
		}
	}
}

func (p *parser) parseArray(path string) rawval.Array {
	p.advance() // consume '['
	var arr rawval.Array
	for i := 0; ; {
		if p.failed {
			return arr
		}
		switch p.tok.kind {
		case tokRBracket:
			p.advance()
			return arr
		case tokEOF:
			p.errorf(path, "Unterminated array")
			return arr
		}

		elem := p.parseValue(rawval.ElemPath(path, i))
		i++
		arr = append(arr, elem)

		switch p.tok.kind {
		case tokComma:
			p.advance()
		case tokRBracket, tokEOF:
			// loop header closes out
		default:
			if !p.failed {
				p.errorf(path, "Expected ',' or ']' in array")
				return arr
			}
		}
	}
}
