// Package dub parses the commands typed at the envgen prompt. A command is a
// name followed by arguments: identifiers, numbers, double quoted strings and
// bracketed arrays, which may nest.
//
//	set attack 0.25
//	loop 4 [1 0 1 [1 1]]
//	render "out.wav" 2
package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Number) isNode()     {}
func (String) isNode()     {}
func (Array) isNode()      {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Number float64
type String string
type Array []Node

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		arg, err := p.node(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) node(token token) (Node, error) {
	switch token.typ {
	case typeIdentifier:
		return Identifier(token.text), nil
	case typeString:
		return String(token.text[1 : len(token.text)-1]), nil
	case typeFloat, typeInt:
		f, err := strconv.ParseFloat(token.text, 64)
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case typeLeftBracket:
		return p.array()
	}
	return nil, unexpected(token)
}

func (p *parser) array() (Array, error) {
	arr := Array{}
	for {
		token := p.next()
		switch token.typ {
		case typeRightBracket:
			return arr, nil
		case typeEOF:
			return nil, fmt.Errorf("unterminated array")
		}
		n, err := p.node(token)
		if err != nil {
			return nil, err
		}
		arr = append(arr, n)
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input")
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
