package cloji

import (
	"errors"
	"strings"
	"unicode"
)

type bracket struct {
	open rune
	line int
}

type parser struct {
	input []rune
	pos   int
	line  int
	stack []bracket
}

var closerFor = map[rune]rune{'(': ')', '[': ']', '{': '}'}

var openerKinds = map[rune]NodeType{'(': NodeSexpr, '[': NodeArray, '{': NodeObject}

var keywords = []string{"true", "false", "nil", "void"}

// Parse turns source text into a Root node. It fails with a *SyntaxError for
// an unrecognized character and with an *UnbalancedBracketError when bracket
// nesting does not close correctly.
func Parse(input string) (*Node, error) {
	p := &parser{input: []rune(input), line: 1}
	root, err := p.parseSeq(NodeRoot, 0)
	if err != nil {
		return nil, err
	}
	if len(p.stack) > 0 {
		outer := p.stack[0]
		return nil, &UnbalancedBracketError{Bracket: outer.open, Line: outer.line, EndLine: p.line}
	}
	root.Line = p.line
	return root, nil
}

// IsIncomplete reports whether err only says that input ended inside an open
// bracket, i.e. more input could complete the program.
func IsIncomplete(err error) bool {
	var ube *UnbalancedBracketError
	return errors.As(err, &ube) && !ube.Unexpected
}

func (p *parser) parseSeq(kind NodeType, line int) (*Node, error) {
	node := &Node{Type: kind, Line: line}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			return node, nil
		}
		ch := p.input[p.pos]
		start := p.line

		switch {
		case p.hasPrefix(";;"):
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue

		case ch == ')' || ch == ']' || ch == '}':
			p.pos++
			if len(p.stack) == 0 {
				return nil, &UnbalancedBracketError{Bracket: ch, Line: start, Unexpected: true}
			}
			top := p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			if closerFor[top.open] != ch {
				return nil, &UnbalancedBracketError{Bracket: ch, Line: start, Unexpected: true, Open: top.open, OpenLine: top.line}
			}
			return node, nil

		case ch == '(' || ch == '[' || ch == '{':
			p.pos++
			p.stack = append(p.stack, bracket{open: ch, line: start})
			child, err := p.parseSeq(openerKinds[ch], start)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			continue

		case ch == '"':
			s, err := p.readString()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, &Node{Type: NodeString, Value: s, Line: start})
			continue
		}

		if kw := p.matchKeyword(); kw != "" {
			node.Children = append(node.Children, &Node{Type: NodeKeyword, Value: kw, Line: start})
		} else if ch == ':' && p.countWord(p.pos+1) > 0 {
			n := p.countWord(p.pos + 1)
			node.Children = append(node.Children, &Node{Type: NodeKey, Value: p.take(1 + n)[1:], Line: start})
		} else if n := p.matchNumber(); n > 0 {
			node.Children = append(node.Children, &Node{Type: NodeNumber, Value: p.take(n), Line: start})
		} else if ch == '&' && p.countIdent(p.pos+1) > 0 {
			n := p.countIdent(p.pos + 1)
			node.Children = append(node.Children, &Node{Type: NodeRest, Value: p.take(1 + n)[1:], Line: start})
		} else if n := p.countIdent(p.pos); n > 0 {
			node.Children = append(node.Children, &Node{Type: NodeIdent, Value: p.take(n), Line: start})
		} else {
			return nil, &SyntaxError{Char: ch, Line: start, Pos: p.pos}
		}
	}
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		if p.input[p.pos] == '\n' {
			p.line++
		}
		p.pos++
	}
}

func (p *parser) hasPrefix(s string) bool {
	rs := []rune(s)
	if p.pos+len(rs) > len(p.input) {
		return false
	}
	for i, r := range rs {
		if p.input[p.pos+i] != r {
			return false
		}
	}
	return true
}

func (p *parser) take(n int) string {
	s := string(p.input[p.pos : p.pos+n])
	p.pos += n
	return s
}

// readString consumes a double-quoted literal and returns its unescaped text.
func (p *parser) readString() (string, error) {
	start, startPos := p.line, p.pos
	p.pos++ // opening quote
	var buf strings.Builder
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		switch ch {
		case '"':
			p.pos++
			return buf.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				continue
			}
			esc := p.input[p.pos]
			switch esc {
			case 'n':
				buf.WriteRune('\n')
			case 't':
				buf.WriteRune('\t')
			case 'r':
				buf.WriteRune('\r')
			default:
				if esc == '\n' {
					p.line++
				}
				buf.WriteRune(esc)
			}
			p.pos++
			continue
		case '\n':
			p.line++
		}
		buf.WriteRune(ch)
		p.pos++
	}
	return "", &SyntaxError{Char: '"', Line: start, Pos: startPos, Msg: "unterminated string"}
}

func (p *parser) matchKeyword() string {
	for _, kw := range keywords {
		if !p.hasPrefix(kw) {
			continue
		}
		end := p.pos + len(kw)
		if end < len(p.input) && isWordChar(p.input[end]) {
			continue
		}
		p.pos = end
		return kw
	}
	return ""
}

// matchNumber returns the length of a numeric literal at the cursor: 0x-prefixed
// hex, or digits with an optional fraction and exponent.
func (p *parser) matchNumber() int {
	in, i := p.input, p.pos
	if p.hasPrefix("0x") {
		j := i + 2
		for j < len(in) && isHexDigit(in[j]) {
			j++
		}
		if j > i+2 {
			return j - i
		}
	}
	j := i
	for j < len(in) && isDigit(in[j]) {
		j++
	}
	intDigits := j - i
	if j+1 < len(in) && in[j] == '.' && isDigit(in[j+1]) {
		j++
		for j < len(in) && isDigit(in[j]) {
			j++
		}
	} else if intDigits == 0 {
		return 0
	}
	if j < len(in) && (in[j] == 'e' || in[j] == 'E') {
		k := j + 1
		if k < len(in) && (in[k] == '+' || in[k] == '-') {
			k++
		}
		d := k
		for d < len(in) && isDigit(in[d]) {
			d++
		}
		if d > k {
			j = d
		}
	}
	return j - i
}

func (p *parser) countWord(from int) int {
	n := 0
	for from+n < len(p.input) && isWordChar(p.input[from+n]) {
		n++
	}
	return n
}

func (p *parser) countIdent(from int) int {
	n := 0
	for from+n < len(p.input) && isIdentChar(p.input[from+n]) {
		n++
	}
	return n
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isWordChar(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentChar(r rune) bool {
	if isWordChar(r) {
		return true
	}
	return strings.ContainsRune(`.+-*/=<>"'$#?`, r)
}
