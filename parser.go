package gridsheet

import "strings"

// operatorFunctions maps infix operator text to the registry function it calls.
var operatorFunctions = map[string]string{
	"+":  "ADD",
	"-":  "MINUS",
	"*":  "MULTIPLY",
	"/":  "DIVIDE",
	"^":  "POW",
	"&":  "CONCAT",
	"=":  "EQ",
	"<>": "NE",
	">":  "GT",
	">=": "GTE",
	"<":  "LT",
	"<=": "LTE",
}

var operatorPrecedence = map[string]int{
	"=": 1, "<>": 1, ">": 1, ">=": 1, "<": 1, "<=": 1,
	"&": 2,
	"+": 3, "-": 3,
	"*": 4, "/": 4,
	"^": 5,
}

const prefixPrecedence = 6

type pendingOperator struct {
	text       string
	precedence int
	prefix     bool
}

// Parser builds an expression tree from formula tokens.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses formula text. A leading "=" is optional.
func Parse(text string) (Expression, error) {
	tokens, err := Tokenize(strings.TrimPrefix(text, "="))
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Build()
}

// Build parses the whole token sequence.
func (p *Parser) Build() (Expression, error) {
	p.pos = 0
	expr, err := p.build(false, false)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, NewSyntaxError("unexpected %q at %d", p.tokens[p.pos].Text, p.tokens[p.pos].Pos)
	}
	return expr, nil
}

// build parses one expression level. It stops, without consuming, at a comma
// or close paren that belongs to the caller.
func (p *Parser) build(inCall, inParen bool) (Expression, error) {
	var (
		operands      []Expression
		operators     []pendingOperator
		expectOperand = true
	)

	reduce := func() {
		op := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		right := operands[len(operands)-1]
		operands = operands[:len(operands)-1]
		if op.prefix {
			if op.text == "-" {
				operands = append(operands, &FunctionExpression{Name: "MINUS", Args: []Expression{&ValueExpression{Value: 0.0}, right}})
			} else {
				operands = append(operands, right)
			}
			return
		}
		left := operands[len(operands)-1]
		operands[len(operands)-1] = &FunctionExpression{Name: operatorFunctions[op.text], Args: []Expression{left, right}}
	}

	push := func(e Expression) error {
		if !expectOperand {
			return NewSyntaxError("missing operator before %s", e)
		}
		operands = append(operands, e)
		expectOperand = false
		return nil
	}

loop:
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		switch tok.Type {
		case TokenSpace:
			p.pos++
		case TokenValue:
			p.pos++
			if err := push(&ValueExpression{Value: tok.Value}); err != nil {
				return nil, err
			}
		case TokenRef:
			p.pos++
			if err := push(&RefExpression{Text: tok.Text}); err != nil {
				return nil, err
			}
		case TokenRange:
			p.pos++
			if err := push(&RangeExpression{Text: tok.Text}); err != nil {
				return nil, err
			}
		case TokenID:
			p.pos++
			if err := push(&IDExpression{Text: tok.Text}); err != nil {
				return nil, err
			}
		case TokenIDRange:
			p.pos++
			if err := push(&IDRangeExpression{Text: tok.Text}); err != nil {
				return nil, err
			}
		case TokenUnreferenced:
			p.pos++
			if err := push(&UnreferencedExpression{}); err != nil {
				return nil, err
			}
		case TokenInvalidRef:
			p.pos++
			if err := push(&InvalidRefExpression{Text: tok.Text}); err != nil {
				return nil, err
			}
		case TokenFunction:
			call, err := p.buildCall()
			if err != nil {
				return nil, err
			}
			if err := push(call); err != nil {
				return nil, err
			}
		case TokenOpen:
			p.pos++
			inner, err := p.build(false, true)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenClose {
				return nil, NewSyntaxError("unclosed parenthesis at %d", tok.Pos)
			}
			p.pos++
			if err := push(inner); err != nil {
				return nil, err
			}
		case TokenClose:
			if !inCall && !inParen {
				return nil, NewSyntaxError("unbalanced parenthesis at %d", tok.Pos)
			}
			break loop
		case TokenComma:
			if !inCall {
				return nil, NewSyntaxError("unexpected comma at %d", tok.Pos)
			}
			break loop
		case TokenPrefixOperator:
			p.pos++
			if !expectOperand {
				return nil, NewSyntaxError("unexpected %q at %d", tok.Text, tok.Pos)
			}
			operators = append(operators, pendingOperator{text: tok.Text, precedence: prefixPrecedence, prefix: true})
		case TokenInfixOperator:
			p.pos++
			prec := operatorPrecedence[tok.Text]
			if expectOperand {
				if tok.Text != "+" && tok.Text != "-" {
					return nil, NewSyntaxError("missing left operand for %q at %d", tok.Text, tok.Pos)
				}
				operands = append(operands, &ValueExpression{Value: 0.0})
			}
			for len(operators) > 0 && operators[len(operators)-1].precedence >= prec {
				reduce()
			}
			operators = append(operators, pendingOperator{text: tok.Text, precedence: prec})
			expectOperand = true
		case TokenPostfixOperator:
			p.pos++
			if expectOperand {
				return nil, NewSyntaxError("unexpected %q at %d", tok.Text, tok.Pos)
			}
			last := operands[len(operands)-1]
			operands[len(operands)-1] = &FunctionExpression{Name: "DIVIDE", Args: []Expression{last, &ValueExpression{Value: 100.0}}}
		default:
			return nil, NewSyntaxError("unexpected %q at %d", tok.Text, tok.Pos)
		}
	}

	if len(operands) == 0 && len(operators) == 0 {
		return &ValueExpression{}, nil
	}
	if expectOperand {
		return nil, NewSyntaxError("missing operand at end of expression")
	}
	for len(operators) > 0 {
		reduce()
	}
	return operands[0], nil
}

// buildCall parses NAME(arg, arg, ...) starting at the function token.
func (p *Parser) buildCall() (*FunctionExpression, error) {
	name := p.tokens[p.pos]
	p.pos += 2 // name and "("
	call := &FunctionExpression{Name: strings.ToUpper(name.Text)}

	if p.skipSpaces() && p.tokens[p.pos].Type == TokenClose {
		p.pos++
		return call, nil
	}
	for {
		arg, err := p.build(true, false)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.pos >= len(p.tokens) {
			return nil, NewSyntaxError("unclosed call to %s", call.Name)
		}
		switch p.tokens[p.pos].Type {
		case TokenComma:
			p.pos++
		case TokenClose:
			p.pos++
			return call, nil
		}
	}
}

// skipSpaces advances past space tokens and reports whether a token remains.
func (p *Parser) skipSpaces() bool {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenSpace {
		p.pos++
	}
	return p.pos < len(p.tokens)
}
