package crs

import (
	"fmt"
	"strings"
	"unicode"
)

// node is one WKT keyword with its bracketed arguments. Arguments are
// strings, bare numbers/enums (kept as text) or nested nodes.
type node struct {
	keyword  string
	values   []string
	children []*node
}

func (n *node) name() string {
	if len(n.values) == 0 {
		return ""
	}
	return n.values[0]
}

// epsg returns the code of the root's own AUTHORITY (WKT1) or ID (WKT2)
// child. Authorities of nested components are ignored so compound systems
// without an authority of their own stay unresolved.
func (n *node) epsg() int {
	for _, child := range n.children {
		switch strings.ToUpper(child.keyword) {
		case "AUTHORITY", "ID":
			if len(child.values) >= 2 && strings.EqualFold(child.values[0], "EPSG") {
				return atoiLoose(child.values[1])
			}
		}
	}
	return 0
}

type wktParser struct {
	src []rune
	pos int
}

func parseWKT(src string) (*node, error) {
	p := &wktParser{src: []rune(src)}
	root, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing content")
	}
	return root, nil
}

func (p *wktParser) parseNode() (*node, error) {
	p.skipSpace()
	kw := p.readWord()
	if kw == "" {
		return nil, p.errorf("expected keyword")
	}
	n := &node{keyword: kw}

	p.skipSpace()
	if !p.consume('[', '(') {
		return nil, p.errorf("expected '[' after %s", kw)
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated %s", kw)
		}

		switch r := p.src[p.pos]; {
		case r == '"':
			s, err := p.readQuoted()
			if err != nil {
				return nil, err
			}
			n.values = append(n.values, s)
		case isWordStart(r):
			start := p.pos
			word := p.readWord()
			p.skipSpace()
			if p.pos < len(p.src) && (p.src[p.pos] == '[' || p.src[p.pos] == '(') {
				p.pos = start
				child, err := p.parseNode()
				if err != nil {
					return nil, err
				}
				n.children = append(n.children, child)
			} else {
				n.values = append(n.values, word)
			}
		default:
			num := p.readNumber()
			if num == "" {
				return nil, p.errorf("unexpected %q", r)
			}
			n.values = append(n.values, num)
		}

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(']', ')') {
			return n, nil
		}
		return nil, p.errorf("expected ',' or ']' in %s", kw)
	}
}

func (p *wktParser) readWord() string {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *wktParser) readNumber() string {
	start := p.pos
	for p.pos < len(p.src) && strings.ContainsRune("+-.0123456789eE", p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// readQuoted reads a double-quoted string; "" escapes a quote.
func (p *wktParser) readQuoted() (string, error) {
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		if r == '"' {
			if p.pos < len(p.src) && p.src[p.pos] == '"' {
				b.WriteRune('"')
				p.pos++
				continue
			}
			return b.String(), nil
		}
		b.WriteRune(r)
	}
	return "", p.errorf("unterminated string")
}

func (p *wktParser) consume(rs ...rune) bool {
	if p.pos >= len(p.src) {
		return false
	}
	for _, r := range rs {
		if p.src[p.pos] == r {
			p.pos++
			return true
		}
	}
	return false
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *wktParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: WKT at offset %d: %s", ErrInvalid, p.pos, fmt.Sprintf(format, args...))
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}
