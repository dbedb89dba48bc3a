// Package mdtest extracts lowering scenarios from Markdown documents.
//
// A scenario starts at a heading of the form "Test: name" and holds one
// `pat` fence with the units to lower plus any number of assertion fences:
//
//   - tree: the tree notation of every lowered unit, separated by blank lines
//   - calls: one call per line, `(name args...) => result`
//   - diagnostics: lines that must each appear in the formatted diagnostics
package mdtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FenceType is the language tag of a code fence in a scenario
type FenceType string

const (
	FenceSource      FenceType = "pat"
	FenceTree        FenceType = "tree"
	FenceCalls       FenceType = "calls"
	FenceDiagnostics FenceType = "diagnostics"
)

// Assertion is one assertion fence
type Assertion struct {
	Type    FenceType
	Content string
	Line    int
}

// Case is one scenario
type Case struct {
	Name       string
	Source     string
	Line       int // line of the source fence
	Assertions []Assertion
}

// Call is one line of a calls fence
type Call struct {
	Expr string // the call in tree notation
	Want string // the printed result or the fault message
}

// Extract parses a Markdown document and returns its scenarios in order.
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validate(current); err != nil {
					return ast.WalkStop, err
				}
				cases = append(cases, *current)
			}
			current = &Case{Name: strings.TrimPrefix(heading, "Test: ")}

		case *ast.FencedCodeBlock:
			language := FenceType(n.Language(source))
			line := lineOf(n, source)
			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of a test", line, language)
				}
				return ast.WalkContinue, nil
			}
			content := strings.TrimRight(fenceContent(n, source), "\n")
			switch language {
			case FenceSource:
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple pat fences in test '%s'", line, current.Name)
				}
				current.Source, current.Line = content, line
			case FenceTree, FenceCalls, FenceDiagnostics:
				if language == FenceCalls {
					if _, err := ParseCalls(content); err != nil {
						return ast.WalkStop, fmt.Errorf("line %d: test '%s': %w", line, current.Name, err)
					}
				}
				current.Assertions = append(current.Assertions, Assertion{Type: language, Content: content, Line: line})
			case "":
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown: %w", err)
	}

	if current != nil {
		if err := validate(current); err != nil {
			return nil, err
		}
		cases = append(cases, *current)
	}
	return cases, nil
}

// ParseCalls splits a calls fence into its calls. Blank lines and lines
// starting with ; are skipped.
func ParseCalls(content string) ([]Call, error) {
	var calls []Call
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		expr, want, ok := strings.Cut(line, "=>")
		if !ok {
			return nil, fmt.Errorf("call %d: expected `call => result`, got %q", i+1, line)
		}
		expr, want = strings.TrimSpace(expr), strings.TrimSpace(want)
		if expr == "" || want == "" {
			return nil, fmt.Errorf("call %d: empty call or result in %q", i+1, line)
		}
		calls = append(calls, Call{Expr: expr, Want: want})
	}
	return calls, nil
}

// validate ensures a scenario has units and something to check
func validate(c *Case) error {
	if c.Source == "" {
		return fmt.Errorf("test '%s' has no pat fence", c.Name)
	}
	if len(c.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", c.Name)
	}
	return nil
}

// nodeText extracts the plain text of a node
func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of the first content line of node
func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
