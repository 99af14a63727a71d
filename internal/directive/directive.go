// Package directive parses the argument list of a //slashy:subcommand
// directive:
//
//	args := [flag] [','] [check (',' check)* [',']]
//	flag := 'true' | 'false'
//	check := ident | ident '.' ident
//
// Only the exact spellings true and false are read as the flag. Any other
// leading identifier is the first check and the flag stays false.
package directive

import (
	"go/ast"
	"go/scanner"
	"go/token"
	"strings"
)

// Prefix introduces the directive in a function's doc comment.
const Prefix = "//slashy:subcommand"

// Configuration is the parsed directive.
type Configuration struct {
	WorksInDMs bool
	Checks     []Ident
}

// Ident names a permission predicate. Qualifier is the package name for
// qualified references such as perms.IsModerator.
type Ident struct {
	Qualifier string
	Name      string
	Pos       token.Pos
}

func (id Ident) String() string {
	if id.Qualifier == "" {
		return id.Name
	}
	return id.Qualifier + "." + id.Name
}

// Names returns the checks in declared order.
func (c Configuration) Names() []string {
	names := make([]string, len(c.Checks))
	for i, id := range c.Checks {
		names[i] = id.String()
	}
	return names
}

// Find returns the directive comment in doc and the position of its first
// argument byte. ok is false when doc carries no directive.
func Find(doc *ast.CommentGroup) (c *ast.Comment, args string, argsPos token.Pos, ok bool) {
	if doc == nil {
		return nil, "", token.NoPos, false
	}
	for _, c := range doc.List {
		rest, found := strings.CutPrefix(c.Text, Prefix)
		if !found {
			continue
		}
		// //slashy:subcommandX is some other directive
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		return c, rest, c.Slash + token.Pos(len(Prefix)), true
	}
	return nil, "", token.NoPos, false
}

// IsDirective reports whether a comment is a slashy:subcommand directive.
func IsDirective(c *ast.Comment) bool {
	_, _, _, ok := Find(&ast.CommentGroup{List: []*ast.Comment{c}})
	return ok
}

// Parse parses args. base is the position of the first byte of args in fset;
// errors are *scanner.Error values positioned at the offending token.
func Parse(fset *token.FileSet, base token.Pos, args string) (Configuration, error) {
	p := newParser(fset, base, args)
	return p.parse()
}

// Lint reports leading checks that look like a misspelled flag. Such names
// are accepted and treated as predicates; the result is advisory.
func Lint(fset *token.FileSet, cfg Configuration) []*scanner.Error {
	if len(cfg.Checks) == 0 {
		return nil
	}
	first := cfg.Checks[0]
	if first.Qualifier != "" {
		return nil
	}
	if strings.EqualFold(first.Name, "true") || strings.EqualFold(first.Name, "false") {
		return []*scanner.Error{{
			Pos: fset.Position(first.Pos),
			Msg: "predicate " + first.Name + " looks like a misspelled works-in-dms flag; only true and false are recognized",
		}}
	}
	return nil
}
