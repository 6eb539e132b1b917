package gridsheet

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// TokenType classifies a formula token.
type TokenType int

const (
	TokenValue   TokenType = iota // number, string or boolean literal
	TokenRef                      // A1, $A$1, Sheet2!A1
	TokenRange                    // A1:B2, A:A, 1:3
	TokenID                       // #2!15
	TokenIDRange                  // #2!15:#2!20
	TokenFunction
	TokenPrefixOperator
	TokenInfixOperator
	TokenPostfixOperator
	TokenOpen
	TokenClose
	TokenComma
	TokenSpace
	TokenUnreferenced // #REF!
	TokenInvalidRef
)

// String returns a human-readable name for the TokenType.
func (tt TokenType) String() string {
	switch tt {
	case TokenValue:
		return "VALUE"
	case TokenRef:
		return "REF"
	case TokenRange:
		return "RANGE"
	case TokenID:
		return "ID"
	case TokenIDRange:
		return "ID_RANGE"
	case TokenFunction:
		return "FUNCTION"
	case TokenPrefixOperator:
		return "PREFIX_OPERATOR"
	case TokenInfixOperator:
		return "INFIX_OPERATOR"
	case TokenPostfixOperator:
		return "POSTFIX_OPERATOR"
	case TokenOpen:
		return "OPEN"
	case TokenClose:
		return "CLOSE"
	case TokenComma:
		return "COMMA"
	case TokenSpace:
		return "SPACE"
	case TokenUnreferenced:
		return "UNREFERENCED"
	case TokenInvalidRef:
		return "INVALID_REF"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexeme of formula text. Text is the exact source slice, so
// joining the Text of every token reproduces the input.
type Token struct {
	Type  TokenType
	Text  string
	Value any // decoded literal for TokenValue
	Pos   int // rune offset in the input
}

var (
	numberRegex       = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	exponentStemRegex = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)[eE]$`)
)

// Lexer tokenizes formula text (without the leading "=").
type Lexer struct {
	src     []rune
	pos     int
	tokens  []Token
	buf     strings.Builder
	bufPos  int
	lengths []int
}

// NewLexer creates a lexer for the given formula body.
func NewLexer(text string) *Lexer {
	return &Lexer{src: []rune(text)}
}

// Tokenize lexes formula text in one call.
func Tokenize(text string) ([]Token, error) {
	return NewLexer(text).Tokenize()
}

// Tokenize runs the lexer over its whole input.
func (l *Lexer) Tokenize() ([]Token, error) {
	l.pos, l.tokens, l.lengths = 0, nil, nil
	l.buf.Reset()
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '"':
			l.flush()
			if err := l.scanString(); err != nil {
				return nil, err
			}
		case c == '\'':
			if err := l.scanQuotedName(); err != nil {
				return nil, err
			}
		case unicode.IsSpace(c):
			l.flush()
			start := l.pos
			for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
				l.pos++
			}
			l.emit(TokenSpace, string(l.src[start:l.pos]), nil, start)
		case c == '(':
			if l.buf.Len() > 0 {
				l.emit(TokenFunction, l.buf.String(), nil, l.bufPos)
				l.buf.Reset()
			}
			l.emit(TokenOpen, "(", nil, l.pos)
			l.pos++
		case c == ')':
			l.single(TokenClose)
		case c == ',':
			l.single(TokenComma)
		case c == '%':
			l.single(TokenPostfixOperator)
		case c == '+' || c == '-':
			if exponentStemRegex.MatchString(l.buf.String()) {
				l.buf.WriteRune(c)
				l.pos++
				continue
			}
			l.flush()
			if l.isUnaryContext() {
				l.single(TokenPrefixOperator)
			} else {
				l.single(TokenInfixOperator)
			}
		case c == '*' || c == '/' || c == '^' || c == '&' || c == '=':
			l.single(TokenInfixOperator)
		case c == '<' || c == '>':
			l.flush()
			start := l.pos
			l.pos++
			if l.pos < len(l.src) && (l.src[l.pos] == '=' || (c == '<' && l.src[l.pos] == '>')) {
				l.pos++
			}
			l.emit(TokenInfixOperator, string(l.src[start:l.pos]), nil, start)
		default:
			if l.buf.Len() == 0 {
				l.bufPos = l.pos
			}
			l.buf.WriteRune(c)
			l.pos++
		}
	}
	l.flush()
	return l.tokens, nil
}

// Lengths returns the rune length of every token, index-aligned with the tokens.
func (l *Lexer) Lengths() []int { return l.lengths }

// TokenIndexAt maps a rune offset of the input back to the index of the token
// covering it. Offsets past the end map to the last token.
func (l *Lexer) TokenIndexAt(offset int) int {
	acc := 0
	for i, n := range l.lengths {
		acc += n
		if offset < acc {
			return i
		}
	}
	return len(l.lengths) - 1
}

func (l *Lexer) emit(tt TokenType, text string, value any, pos int) {
	l.tokens = append(l.tokens, Token{Type: tt, Text: text, Value: value, Pos: pos})
	l.lengths = append(l.lengths, len([]rune(text)))
}

func (l *Lexer) single(tt TokenType) {
	l.flush()
	l.emit(tt, string(l.src[l.pos]), nil, l.pos)
	l.pos++
}

// isUnaryContext reports whether a sign at the current position is a prefix
// operator: at start of input or after an operator, "(" or ",".
func (l *Lexer) isUnaryContext() bool {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		switch l.tokens[i].Type {
		case TokenSpace:
			continue
		case TokenInfixOperator, TokenPrefixOperator, TokenOpen, TokenComma:
			return true
		default:
			return false
		}
	}
	return true
}

// scanString reads a double-quoted literal; "" is an escaped quote.
func (l *Lexer) scanString() error {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '"' {
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '"' {
				sb.WriteRune('"')
				l.pos += 2
				continue
			}
			l.pos++
			l.emit(TokenValue, string(l.src[start:l.pos]), sb.String(), start)
			return nil
		}
		sb.WriteRune(c)
		l.pos++
	}
	return NewSyntaxError("unterminated string at %d", start)
}

// scanQuotedName copies a single-quoted sheet name verbatim into the
// identifier buffer; '' is an escaped quote.
func (l *Lexer) scanQuotedName() error {
	start := l.pos
	if l.buf.Len() == 0 {
		l.bufPos = l.pos
	}
	l.buf.WriteRune('\'')
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.buf.WriteRune(c)
		l.pos++
		if c == '\'' {
			if l.pos < len(l.src) && l.src[l.pos] == '\'' {
				l.buf.WriteRune('\'')
				l.pos++
				continue
			}
			return nil
		}
	}
	return NewSyntaxError("unterminated sheet name at %d", start)
}

// flush classifies the pending identifier, if any.
func (l *Lexer) flush() {
	if l.buf.Len() == 0 {
		return
	}
	text := l.buf.String()
	l.buf.Reset()
	tt, value := classifyIdentifier(text)
	l.emit(tt, text, value, l.bufPos)
}

func classifyIdentifier(text string) (TokenType, any) {
	upper := strings.ToUpper(text)
	switch {
	case upper == "TRUE":
		return TokenValue, true
	case upper == "FALSE":
		return TokenValue, false
	case numberRegex.MatchString(text):
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return TokenInvalidRef, nil
		}
		return TokenValue, n
	case upper == string(ErrorCodeRef):
		return TokenUnreferenced, nil
	case strings.HasPrefix(text, "#"):
		if strings.Contains(text, ":") {
			return TokenIDRange, nil
		}
		return TokenID, nil
	case strings.Contains(text, ":"):
		return TokenRange, nil
	case unicode.IsDigit(rune(text[len(text)-1])):
		return TokenRef, nil
	default:
		return TokenInvalidRef, nil
	}
}
