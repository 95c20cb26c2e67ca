package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

// CalculateRequest carries a single arithmetic expression.
type CalculateRequest struct {
	Expression string `json:"expression" validate:"required,max=512"`
}

// CalculateResponse returns the evaluated value.
type CalculateResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

// CalculatorService evaluates arithmetic expressions for the study tools
// endpoint. Supported: + - * / ^, parentheses, unary minus, the functions
// sin cos tan sqrt log ln abs, and the constants pi and e.
type CalculatorService struct {
	logger *zap.Logger
}

// NewCalculatorService constructs CalculatorService.
func NewCalculatorService(logger *zap.Logger) *CalculatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculatorService{logger: logger}
}

// Evaluate parses and computes the expression.
func (s *CalculatorService) Evaluate(req CalculateRequest) (*CalculateResponse, error) {
	expr := strings.TrimSpace(req.Expression)
	if expr == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expression is required")
	}
	if len(expr) > 512 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expression is too long")
	}

	p := &exprParser{input: expr}
	value, err := p.parseExpression(0)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unexpected character %q at position %d", p.input[p.pos], p.pos))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expression does not evaluate to a finite number")
	}
	return &CalculateResponse{Expression: expr, Result: value}, nil
}

// exprParser is a precedence-climbing parser over a byte offset.
type exprParser struct {
	input string
	pos   int
}

type operator struct {
	precedence int
	rightAssoc bool
}

var binaryOperators = map[byte]operator{
	'+': {precedence: 1},
	'-': {precedence: 1},
	'*': {precedence: 2},
	'/': {precedence: 2},
	'^': {precedence: 3, rightAssoc: true},
}

func (p *exprParser) parseExpression(minPrecedence int) (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return left, nil
		}
		op, ok := binaryOperators[p.input[p.pos]]
		if !ok || op.precedence < minPrecedence {
			return left, nil
		}
		symbol := p.input[p.pos]
		p.pos++

		next := op.precedence + 1
		if op.rightAssoc {
			next = op.precedence
		}
		right, err := p.parseExpression(next)
		if err != nil {
			return 0, err
		}
		left, err = applyBinary(symbol, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.pos < len(p.input) && p.input[p.pos] == '-' {
		p.pos++
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	if p.pos < len(p.input) && p.input[p.pos] == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	ch := p.input[p.pos]
	switch {
	case ch == '(':
		p.pos++
		value, err := p.parseExpression(0)
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	case ch >= '0' && ch <= '9' || ch == '.':
		return p.parseNumber()
	case unicode.IsLetter(rune(ch)):
		return p.parseIdentifier()
	default:
		return 0, fmt.Errorf("unexpected character %q at position %d", ch, p.pos)
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if (ch >= '0' && ch <= '9') || ch == '.' {
			p.pos++
			continue
		}
		break
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value, nil
}

func (p *exprParser) parseIdentifier() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) && unicode.IsLetter(rune(p.input[p.pos])) {
		p.pos++
	}
	name := strings.ToLower(p.input[start:p.pos])

	switch name {
	case "pi":
		return math.Pi, nil
	case "e":
		return math.E, nil
	}

	p.skipSpaces()
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return 0, fmt.Errorf("unknown identifier %q", name)
	}
	p.pos++
	arg, err := p.parseExpression(0)
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos >= len(p.input) || p.input[p.pos] != ')' {
		return 0, fmt.Errorf("missing closing parenthesis after %s", name)
	}
	p.pos++

	switch name {
	case "sin":
		return math.Sin(arg), nil
	case "cos":
		return math.Cos(arg), nil
	case "tan":
		return math.Tan(arg), nil
	case "sqrt":
		if arg < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(arg), nil
	case "log":
		if arg <= 0 {
			return 0, fmt.Errorf("log of non-positive number")
		}
		return math.Log10(arg), nil
	case "ln":
		if arg <= 0 {
			return 0, fmt.Errorf("ln of non-positive number")
		}
		return math.Log(arg), nil
	case "abs":
		return math.Abs(arg), nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func applyBinary(symbol byte, left, right float64) (float64, error) {
	switch symbol {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	case '/':
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case '^':
		return math.Pow(left, right), nil
	default:
		return 0, fmt.Errorf("unsupported operator %q", symbol)
	}
}
