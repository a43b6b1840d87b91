package asm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// lexer holds the state for scanning a single source line.
type lexer struct {
	file string
	line int
	fold cases.Caser

	out Line

	word     []rune // pending identifier or number
	wordCol  int
	numeric  bool
	types    Type // pending run of type keywords
	typesCol int
}

// Tokenize converts one source line into tokens. lineNo is 1-based and only
// used for locations.
func Tokenize(file string, lineNo int, src string) (Line, error) {
	return tokenizeLine(cases.Fold(), file, lineNo, src)
}

// TokenizeSource splits src into lines and tokenizes each one. Lines without
// tokens (blank or comment-only) are dropped; the remaining lines keep their
// original line numbers in their locations.
func TokenizeSource(file, src string) ([]Line, error) {
	fold := cases.Fold()
	var lines []Line
	for i, raw := range strings.Split(src, "\n") {
		line, err := tokenizeLine(fold, file, i+1, raw)
		if err != nil {
			return nil, err
		}
		if line.Len() > 0 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func tokenizeLine(fold cases.Caser, file string, lineNo int, src string) (Line, error) {
	l := &lexer{file: file, line: lineNo, fold: fold}

	inString := false
	var str []rune
	strCol := 0

	col := 0
scan:
	for _, r := range src {
		col++
		if inString {
			if r == '"' {
				l.out.push(StringTok(string(str)), l.loc(strCol))
				inString = false
				continue
			}
			str = append(str, r)
			continue
		}

		switch r {
		case ';':
			break scan
		case '"':
			if err := l.flush(); err != nil {
				return Line{}, err
			}
			inString = true
			str = str[:0]
			strCol = col
		case '(', ')', '{', '}', '[', ']', ':', ',':
			if err := l.flush(); err != nil {
				return Line{}, err
			}
			l.out.push(PunctTok(punctKinds[r]), l.loc(col))
		case '.':
			if l.numeric {
				l.word = append(l.word, r)
				continue
			}
			if err := l.flush(); err != nil {
				return Line{}, err
			}
			l.out.push(PunctTok(Dot), l.loc(col))
		default:
			if unicode.IsSpace(r) {
				if err := l.flushWord(); err != nil {
					return Line{}, err
				}
				continue
			}
			if len(l.word) == 0 {
				l.wordCol = col
				l.numeric = r == '-' || unicode.IsDigit(r)
			}
			l.word = append(l.word, r)
		}
	}

	if inString {
		return Line{}, newError(GrammarError, l.loc(strCol), "unterminated string literal")
	}
	if err := l.flush(); err != nil {
		return Line{}, err
	}
	return l.out, nil
}

var punctKinds = map[rune]Kind{
	'(': LParen,
	')': RParen,
	'{': LCurly,
	'}': RCurly,
	'[': LSquare,
	']': RSquare,
	':': Colon,
	',': Comma,
}

func (l *lexer) loc(col int) Location {
	return Location{File: l.file, Line: l.line, Col: col}
}

// flush emits the pending word and then any pending type keywords.
func (l *lexer) flush() error {
	if err := l.flushWord(); err != nil {
		return err
	}
	l.flushTypes()
	return nil
}

// flushWord turns the pending word into a token. Type keywords are held back
// so that consecutive keywords merge into a single Type token.
func (l *lexer) flushWord() error {
	if len(l.word) == 0 {
		return nil
	}
	text := string(l.word)
	col := l.wordCol
	numeric := l.numeric
	l.word = l.word[:0]
	l.numeric = false

	if numeric {
		n, err := ParseNumber(text)
		if err != nil {
			return newError(GrammarError, l.loc(col), "malformed number literal %q", text)
		}
		l.flushTypes()
		l.out.push(NumberTok(n), l.loc(col))
		return nil
	}

	if tag, ok := typeKeywords[l.fold.String(text)]; ok {
		if len(l.types) == 0 {
			l.typesCol = col
		}
		l.types = append(l.types, tag)
		return nil
	}

	l.flushTypes()
	if strings.HasPrefix(text, "$") && len(text) > 1 {
		l.out.push(VarTok(text[1:]), l.loc(col))
		return nil
	}
	l.out.push(IdentTok(text), l.loc(col))
	return nil
}

func (l *lexer) flushTypes() {
	if len(l.types) == 0 {
		return
	}
	t := make(Type, len(l.types))
	copy(t, l.types)
	l.types = l.types[:0]
	l.out.push(TypeToken(t), l.loc(l.typesCol))
}
