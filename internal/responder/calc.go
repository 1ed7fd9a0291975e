package responder

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrSyntax       = errors.New("malformed expression")
	ErrDivideByZero = errors.New("division by zero")
	ErrTooComplex   = errors.New("expression too complex")
)

const (
	maxExprLen   = 256
	maxExprDepth = 32

	sqrtToken = "sqrt"
)

// Eval evaluates an arithmetic expression made of numbers, + - * / ^, sqrt
// and parentheses. Anything else is a syntax error.
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ "^" unary ]
//	primary = number | "(" expr ")" | "sqrt" primary
func Eval(s string) (float64, error) {
	if len(s) > maxExprLen {
		return 0, ErrTooComplex
	}
	p := &parser{src: s}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, ErrSyntax
	}
	return v, nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxExprDepth {
		return ErrTooComplex
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, ErrDivideByZero
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *parser) unary() (float64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *parser) primary() (float64, error) {
	switch c := p.peek(); {
	case c == '(':
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, ErrSyntax
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.number()
	case strings.HasPrefix(p.src[p.pos:], sqrtToken):
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		p.pos += len(sqrtToken)
		v, err := p.primary()
		if err != nil {
			return 0, err
		}
		return math.Sqrt(v), nil
	default:
		return 0, ErrSyntax
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	dot := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' && !dot {
			dot = true
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, ErrSyntax
	}
	return v, nil
}
