package parser

import (
	"context"
	"errors"

	"mender/internal/model"
)

// tokenStage recovers structure from a lexical token scan when the full
// parse fails. Imports, functions, and classes are found by scanning
// for the keywords that introduce them and taking the following
// identifier; parameter lists cannot be recovered reliably and are
// marked unknown.
type tokenStage struct{}

func newTokenStage() *tokenStage {
	return &tokenStage{}
}

func (s *tokenStage) status() model.ParseStatus {
	return model.TokenFallback
}

func (s *tokenStage) parse(_ context.Context, content string) (*model.SourceModel, bool) {
	toks, err := tokenize(content)
	if err != nil {
		return nil, false
	}

	m := &model.SourceModel{
		Imports:   []string{},
		Functions: []model.FunctionInfo{},
		Classes:   []model.ClassInfo{},
		Variables: []string{},
	}

	branches := 0
	booleans := 0

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.kind != tokIdent {
			continue
		}
		switch tok.text {
		case "from":
			mod, next := dottedName(toks, i+1)
			if mod != "" {
				m.Imports = append(m.Imports, mod)
			}
			// Skip the trailing "import" so it isn't counted twice.
			if next < len(toks) && toks[next].text == "import" {
				i = next
			}
		case "import":
			mod, next := dottedName(toks, i+1)
			if mod != "" {
				m.Imports = append(m.Imports, mod)
				i = next - 1
			}
		case "def":
			if name, ok := identAt(toks, i+1); ok {
				m.Functions = append(m.Functions, model.FunctionInfo{
					Name:   name,
					Line:   tok.line,
					Params: []string{"unknown"},
				})
				i++
			}
		case "class":
			if name, ok := identAt(toks, i+1); ok {
				m.Classes = append(m.Classes, model.ClassInfo{
					Name: name,
					Line: tok.line,
				})
				i++
			}
		case "if", "elif", "for", "while", "except":
			branches++
		case "and", "or":
			booleans++
		}
	}

	m.Complexity = model.Complexity{
		Cyclomatic: 1 + branches,
		Cognitive:  branches + booleans,
	}
	return m, true
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokPunct
)

type token struct {
	text string
	line int
	kind tokenKind
}

var errUnterminatedString = errors.New("unterminated string literal")

// tokenize splits content into identifier and punctuation tokens,
// skipping comments and string literals. An unterminated string is a
// tokenization failure and triggers the pattern fallback.
func tokenize(content string) ([]token, error) {
	var toks []token
	line := 1

	i := 0
	for i < len(content) {
		c := content[i]

		switch {
		case c == '\n':
			line++
			i++

		case c == ' ' || c == '\t' || c == '\r':
			i++

		case c == '#':
			for i < len(content) && content[i] != '\n' {
				i++
			}

		case c == '\'' || c == '"':
			next, newLine, err := skipString(content, i, line)
			if err != nil {
				return nil, err
			}
			i = next
			line = newLine

		case isIdentStart(c):
			start := i
			for i < len(content) && isIdentPart(content[i]) {
				i++
			}
			toks = append(toks, token{text: content[start:i], line: line, kind: tokIdent})

		default:
			toks = append(toks, token{text: string(c), line: line, kind: tokPunct})
			i++
		}
	}

	return toks, nil
}

// skipString advances past a string literal starting at i, handling
// triple-quoted strings and backslash escapes.
func skipString(content string, i, line int) (int, int, error) {
	quote := content[i]

	if i+2 < len(content) && content[i+1] == quote && content[i+2] == quote {
		// Triple-quoted: closed by three matching quotes, may span lines.
		j := i + 3
		for j < len(content) {
			if content[j] == '\\' {
				j += 2
				continue
			}
			if content[j] == quote && j+2 < len(content) && content[j+1] == quote && content[j+2] == quote {
				return j + 3, line, nil
			}
			if content[j] == '\n' {
				line++
			}
			j++
		}
		return 0, 0, errUnterminatedString
	}

	// Single-quoted: must close before end of line.
	j := i + 1
	for j < len(content) {
		switch content[j] {
		case '\\':
			j += 2
		case '\n':
			return 0, 0, errUnterminatedString
		case quote:
			return j + 1, line, nil
		default:
			j++
		}
	}
	return 0, 0, errUnterminatedString
}

// dottedName reads ident(.ident)* starting at index start and returns
// the joined name plus the index after it.
func dottedName(toks []token, start int) (string, int) {
	name, ok := identAt(toks, start)
	if !ok {
		return "", start
	}
	i := start + 1
	for i+1 < len(toks) && toks[i].kind == tokPunct && toks[i].text == "." {
		part, ok := identAt(toks, i+1)
		if !ok {
			break
		}
		name += "." + part
		i += 2
	}
	return name, i
}

func identAt(toks []token, i int) (string, bool) {
	if i >= len(toks) || toks[i].kind != tokIdent {
		return "", false
	}
	return toks[i].text, true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
