package asm

import "fmt"

// Kind identifies the category of a lexed token.
type Kind int

const (
	Number Kind = iota // numeric literal
	TypeTok            // one or more type keywords
	LParen             // (
	RParen             // )
	LCurly             // {
	RCurly             // }
	LSquare            // [
	RSquare            // ]
	String             // "..."
	Dot                // .
	Comma              // ,
	Ident              // plain identifier, may carry a * or & sigil
	Colon              // :
	Var                // $name
)

var kindNames = [...]string{
	Number:  "NUMBER",
	TypeTok: "TYPE",
	LParen:  "LPAREN",
	RParen:  "RPAREN",
	LCurly:  "LCURLY",
	RCurly:  "RCURLY",
	LSquare: "LSQUARE",
	RSquare: "RSQUARE",
	String:  "STRING",
	Dot:     "DOT",
	Comma:   "COMMA",
	Ident:   "IDENT",
	Colon:   "COLON",
	Var:     "VAR",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Location is a 1-based position in a source file.
type Location struct {
	File string
	Line int
	Col  int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Token is a single lexical unit. Only the field matching Kind is meaningful:
// Text for Ident, Var and String, Num for Number, Type for TypeTok.
type Token struct {
	Kind Kind
	Text string
	Num  Num
	Type Type
}

// IdentTok returns an identifier token.
func IdentTok(name string) Token { return Token{Kind: Ident, Text: name} }

// VarTok returns a bound-variable token; name excludes the $.
func VarTok(name string) Token { return Token{Kind: Var, Text: name} }

// StringTok returns a string literal token.
func StringTok(text string) Token { return Token{Kind: String, Text: text} }

// NumberTok returns a numeric token.
func NumberTok(n Num) Token { return Token{Kind: Number, Num: n} }

// TypeToken returns a type token.
func TypeToken(t Type) Token { return Token{Kind: TypeTok, Type: t} }

// PunctTok returns a punctuation token of kind k.
func PunctTok(k Kind) Token { return Token{Kind: k} }

// UnsignedTok returns an unsigned numeric token, the form a resolved label takes.
func UnsignedTok(v uint64) Token { return NumberTok(Unsigned(v)) }

// IsIdent reports whether t is the plain identifier s.
func (t Token) IsIdent(s string) bool { return t.Kind == Ident && t.Text == s }

// Equal reports structural equality.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Number:
		return t.Num == o.Num
	case TypeTok:
		return t.Type.Equal(o.Type)
	case Ident, Var, String:
		return t.Text == o.Text
	}
	return true
}

// Key returns a comparable value that is equal for structurally equal tokens,
// so tokens can be used in maps.
func (t Token) Key() string {
	return t.String()
}

func (t Token) String() string {
	switch t.Kind {
	case Number:
		return "NUMBER(" + t.Num.String() + ")"
	case TypeTok:
		return "TYPE(" + t.Type.String() + ")"
	case Ident:
		return "IDENT(" + t.Text + ")"
	case Var:
		return "VAR(" + t.Text + ")"
	case String:
		return fmt.Sprintf("STRING(%q)", t.Text)
	}
	return t.Kind.String()
}

// Line is one source line: its tokens and the location of each token.
// Tokens and Locs always have the same length.
type Line struct {
	Tokens []Token
	Locs   []Location
}

func (l *Line) push(tok Token, loc Location) {
	l.Tokens = append(l.Tokens, tok)
	l.Locs = append(l.Locs, loc)
}

// Len returns the number of tokens on the line.
func (l Line) Len() int { return len(l.Tokens) }

// Loc returns the location of the line, which is the location of its first
// token.
func (l Line) Loc() Location {
	if len(l.Locs) == 0 {
		return Location{}
	}
	return l.Locs[0]
}

// At returns the location of token i, falling back to the last token's
// location when i is past the end of the line.
func (l Line) At(i int) Location {
	if i < len(l.Locs) {
		return l.Locs[i]
	}
	if len(l.Locs) == 0 {
		return Location{}
	}
	last := l.Locs[len(l.Locs)-1]
	last.Col++
	return last
}

// Contains reports whether any token on the line has kind k.
func (l Line) Contains(k Kind) bool {
	for _, t := range l.Tokens {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// Last returns the final token of the line.
func (l Line) Last() (Token, bool) {
	if len(l.Tokens) == 0 {
		return Token{}, false
	}
	return l.Tokens[len(l.Tokens)-1], true
}

func (l Line) clone() Line {
	return Line{
		Tokens: append([]Token(nil), l.Tokens...),
		Locs:   append([]Location(nil), l.Locs...),
	}
}

func (l Line) String() string {
	s := ""
	for i, t := range l.Tokens {
		if i > 0 {
			s += " "
		}
		s += t.String()
	}
	return s
}
