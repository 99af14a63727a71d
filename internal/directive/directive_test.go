package directive

import (
	"go/ast"
	goparser "go/parser"
	"go/scanner"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseArgs(t *testing.T, args string) (Configuration, *token.FileSet, error) {
	t.Helper()
	fset := token.NewFileSet()
	f := fset.AddFile("cmd.go", -1, len(args)+100)
	cfg, err := Parse(fset, f.Pos(10), args)
	return cfg, fset, err
}

func TestParse(t *testing.T) {
	cases := []struct {
		args  string
		dms   bool
		names []string
	}{
		{"true, a, b", true, []string{"a", "b"}},
		{"a, b", false, []string{"a", "b"}},
		{"", false, []string{}},
		{"   ", false, []string{}},
		{"false", false, []string{}},
		{"true", true, []string{}},
		{"true,", true, []string{}},
		{"false, IsAdmin", false, []string{"IsAdmin"}},
		{"true IsAdmin", true, []string{"IsAdmin"}},
		{"IsAdmin, IsMod,", false, []string{"IsAdmin", "IsMod"}},
		{"True, IsMod", false, []string{"True", "IsMod"}},
		{"true, perms.IsAdmin, IsMod", true, []string{"perms.IsAdmin", "IsMod"}},
		{"a, a", false, []string{"a", "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.args, func(t *testing.T) {
			cfg, _, err := parseArgs(t, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.dms, cfg.WorksInDMs)
			if diff := cmp.Diff(tc.names, cfg.Names()); diff != "" {
				t.Errorf("checks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		args   string
		column int
		msg    string
	}{
		{"true, 1", 17, "unexpected INT \"1\""},
		{"a b", 13, "expected ',' or end of arguments"},
		{"a,, b", 13, "expected predicate name"},
		{"a, \"b\"", 14, "expected predicate name"},
		{"perms.", 17, "expected predicate name after perms."},
		{"1", 11, "unexpected INT \"1\""},
		{"a; b", 12, "expected ',' or end of arguments"},
	}
	for _, tc := range cases {
		t.Run(tc.args, func(t *testing.T) {
			_, _, err := parseArgs(t, tc.args)
			require.Error(t, err)

			var list scanner.ErrorList
			require.ErrorAs(t, err, &list)
			require.NotEmpty(t, list)
			assert.Equal(t, "cmd.go", list[0].Pos.Filename)
			assert.Equal(t, tc.column, list[0].Pos.Column)
			assert.Contains(t, list[0].Msg, "configuration syntax")
			assert.Contains(t, list[0].Msg, tc.msg)
		})
	}
}

func TestParseKeepsPositions(t *testing.T) {
	cfg, fset, err := parseArgs(t, "true, IsAdmin, IsMod")
	require.NoError(t, err)
	require.Len(t, cfg.Checks, 2)
	assert.Equal(t, 17, fset.Position(cfg.Checks[0].Pos).Column)
	assert.Equal(t, 26, fset.Position(cfg.Checks[1].Pos).Column)
}

func TestLint(t *testing.T) {
	cfg, fset, err := parseArgs(t, "True, IsMod")
	require.NoError(t, err)
	warnings := Lint(fset, cfg)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Msg, "misspelled")

	cfg, fset, err = parseArgs(t, "true, IsMod")
	require.NoError(t, err)
	assert.Empty(t, Lint(fset, cfg))
}

func TestFind(t *testing.T) {
	src := `package p

// Ban bans someone.
//
//slashy:subcommand true, IsAdmin
//go:noinline
func Ban() error { return nil }

//slashy:subcommandx nope
func Other() error { return nil }

// Plain has no directive.
func Plain() error { return nil }
`
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, "ban.go", src, goparser.ParseComments)
	require.NoError(t, err)

	docs := map[string]*ast.CommentGroup{}
	for _, d := range f.Decls {
		fn := d.(*ast.FuncDecl)
		docs[fn.Name.Name] = fn.Doc
	}

	c, args, pos, ok := Find(docs["Ban"])
	require.True(t, ok)
	assert.Equal(t, "//slashy:subcommand true, IsAdmin", c.Text)
	assert.Equal(t, " true, IsAdmin", args)
	assert.Equal(t, 20, fset.Position(pos).Column)

	cfg, err := Parse(fset, pos, args)
	require.NoError(t, err)
	assert.True(t, cfg.WorksInDMs)
	assert.Equal(t, 27, fset.Position(cfg.Checks[0].Pos).Column)
	assert.Equal(t, 5, fset.Position(cfg.Checks[0].Pos).Line)

	_, _, _, ok = Find(docs["Other"])
	assert.False(t, ok)
	_, _, _, ok = Find(docs["Plain"])
	assert.False(t, ok)
	_, _, _, ok = Find(nil)
	assert.False(t, ok)
}
