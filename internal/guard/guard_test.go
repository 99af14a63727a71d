package guard

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/scanner"
	"go/token"
	"testing"

	"github.com/keshon/slashy/internal/directive"
	"github.com/keshon/slashy/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fset *token.FileSet
	src  []byte
	cfg  directive.Configuration
	desc *signature.Descriptor
}

func load(t *testing.T, src string) fixture {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "cmd.go", src, parser.ParseComments)
	require.NoError(t, err)

	var decl *ast.FuncDecl
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			decl = fn
			break
		}
	}
	require.NotNil(t, decl)

	_, args, pos, ok := directive.Find(decl.Doc)
	require.True(t, ok)
	cfg, err := directive.Parse(fset, pos, args)
	require.NoError(t, err)
	desc, err := signature.Parse(fset, decl)
	require.NoError(t, err)
	return fixture{fset: fset, src: []byte(src), cfg: cfg, desc: desc}
}

// render generates, renders and reparses the wrapper.
func (fx fixture) render(t *testing.T, opts Options) (*Definition, *ast.FuncDecl, string) {
	t.Helper()
	def, err := Generate(fx.fset, fx.cfg, fx.desc, opts)
	require.NoError(t, err)
	out, err := Render(fx.fset, fx.src, def)
	require.NoError(t, err)

	formatted, err := format.Source(append([]byte("package p\n\n"), out...))
	require.NoError(t, err, string(out))

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "gen.go", formatted, parser.ParseComments)
	require.NoError(t, err)
	return def, f.Decls[0].(*ast.FuncDecl), string(formatted)
}

func show(t *testing.T, node any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, printer.Fprint(&buf, token.NewFileSet(), node))
	return buf.String()
}

// calls lists the functions called inside n, in source order.
func calls(t *testing.T, n ast.Node) []string {
	var names []string
	ast.Inspect(n, func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok {
			names = append(names, show(t, c.Fun))
		}
		return true
	})
	return names
}

func closureOf(fn *ast.FuncDecl) *ast.FuncLit {
	return fn.Body.List[0].(*ast.ReturnStmt).Results[0].(*ast.FuncLit)
}

const handler = `package p

// Ban removes a member from the guild.
//
//slashy:subcommand %s
func Ban(cc *slashy.CommandContext, reason string) (string, error) {
	// keep this comment
	if reason == "" {
		return "", errors.New("no reason")
	}
	return "banned: " + reason, nil
}
`

func withArgs(args string) string {
	return string(bytes.Replace([]byte(handler), []byte("%s"), []byte(args), 1))
}

func TestNoChecksKeepsBodyUnchanged(t *testing.T) {
	fx := load(t, withArgs("true"))
	def, fn, out := fx.render(t, Options{Profile: Production})

	assert.False(t, def.Guarded)
	assert.Empty(t, def.Checks)
	require.Len(t, closureOf(def.Func).Body.List, 1, "only the body placeholder")

	lit := closureOf(fn)
	require.Len(t, lit.Body.List, 2)
	assert.Equal(t, show(t, fx.desc.Body.List[0]), show(t, lit.Body.List[0]))
	assert.Equal(t, show(t, fx.desc.Body.List[1]), show(t, lit.Body.List[1]))
	assert.NotContains(t, out, "slashyMember")
	assert.Contains(t, out, "// keep this comment")
}

func TestProductionGuards(t *testing.T) {
	fx := load(t, withArgs("IsAdmin, perms.IsModerator"))
	def, fn, out := fx.render(t, Options{Profile: Production})

	assert.True(t, def.Guarded)
	assert.Equal(t, []string{"IsAdmin", "perms.IsModerator"}, def.Checks)
	assert.Equal(t, []string{"cc"}, def.Borrows)

	assert.Equal(t, "func(context.Context) (string, error)", show(t, fn.Type.Results.List[0].Type))
	assert.Equal(t, []string{
		"cc.Member",
		"new",
		"cc.Channel",
		"new",
		"slashy.AsGuildChannel",
		"IsAdmin",
		"new",
		"new",
		"slashy.NewError",
		"perms.IsModerator",
		"new",
		"new",
		"slashy.NewError",
		"new",
		"slashy.NewError",
		"errors.New",
	}, calls(t, closureOf(fn)))

	assert.Contains(t, out, "slashyMember, slashyErr := cc.Member(futCtx)")
	assert.Contains(t, out, "slashyChannel, slashyErr := cc.Channel(futCtx)")
	assert.Contains(t, out, "if slashyGuild, slashyOK := slashy.AsGuildChannel(slashyChannel); slashyOK {")
	assert.Contains(t, out, "if slashyOK, slashyErr := IsAdmin(futCtx, cc, slashyMember, slashyGuild); slashyErr != nil {")
	assert.Contains(t, out, "return *new(string), slashy.NewError(slashy.MsgPermissionDenied)")
	assert.Contains(t, out, "return *new(string), slashy.NewError(slashy.MsgNotInDMs)")
	assert.Contains(t, out, "// keep this comment")
	assert.Contains(t, out, "// Ban removes a member from the guild.")
	assert.NotContains(t, out, "slashy:subcommand")
}

func TestProductionWorksInDMsHasNoDenial(t *testing.T) {
	fx := load(t, withArgs("true, IsAdmin"))
	_, fn, out := fx.render(t, Options{Profile: Production})

	assert.NotContains(t, out, "MsgNotInDMs")
	classify := closureOf(fn).Body.List[4].(*ast.IfStmt)
	assert.Nil(t, classify.Else)
}

func TestTestProfile(t *testing.T) {
	fx := load(t, withArgs("false, IsAdmin, IsModerator"))
	def, fn, out := fx.render(t, Options{Profile: Test, Runtime: "rt", Context: "stdctx"})

	assert.Equal(t, Test, def.Profile)
	assert.Equal(t, []string{
		"IsAdmin",
		"new",
		"new",
		"rt.NewError",
		"IsModerator",
		"new",
		"new",
		"rt.NewError",
		"errors.New",
	}, calls(t, closureOf(fn)))
	assert.Contains(t, out, "if slashyOK, slashyErr := IsAdmin(); slashyErr != nil {")
	assert.Contains(t, out, "func Ban(cc *slashy.CommandContext, reason string) func(stdctx.Context) (string, error) {")
	assert.NotContains(t, out, "Member(")
	assert.NotContains(t, out, "MsgNotInDMs")
}

func TestGuardedBodyFollowsChecks(t *testing.T) {
	fx := load(t, withArgs("IsAdmin"))
	_, fn, _ := fx.render(t, Options{Profile: Test})

	list := closureOf(fn).Body.List
	require.Len(t, list, 2)
	_, isIf := list[0].(*ast.IfStmt)
	assert.True(t, isIf)
	body, isBlock := list[1].(*ast.BlockStmt)
	require.True(t, isBlock)
	assert.Equal(t, show(t, fx.desc.Body), show(t, body))
}

func TestGuardedRequiresErrorResult(t *testing.T) {
	src := `package p

//slashy:subcommand IsAdmin
func Count(cc *Ctx) int { return 1 }
`
	fx := load(t, src)
	_, err := Generate(fx.fset, fx.cfg, fx.desc, Options{})
	require.Error(t, err)

	var list scanner.ErrorList
	require.ErrorAs(t, err, &list)
	assert.Equal(t, "guarded subcommand Count must return error as its last result", list[0].Msg)
	assert.Equal(t, 4, list[0].Pos.Line)
	assert.Equal(t, 21, list[0].Pos.Column)

	// without predicates nothing needs to be returned through error
	fx.cfg.Checks = nil
	def, err := Generate(fx.fset, fx.cfg, fx.desc, Options{})
	require.NoError(t, err)
	assert.False(t, def.Guarded)
}

func TestZeroValuesForNamedAndGenericResults(t *testing.T) {
	src := `package p

//slashy:subcommand IsAdmin
func Pick[T any](cc *Ctx, items ...T) (first T, n, m int, err error) {
	if len(items) == 0 {
		return
	}
	return items[0], len(items), 0, nil
}
`
	fx := load(t, src)
	def, _, out := fx.render(t, Options{Profile: Test})
	assert.Equal(t, []string{"cc", "items"}, def.Borrows)
	assert.Contains(t, out, "func Pick[T any](cc *Ctx, items ...T) func(context.Context) (first T, n, m int, err error) {")
	assert.Contains(t, out, "return *new(T), *new(int), *new(int), slashyErr")
}

func TestErrorOnlyResult(t *testing.T) {
	src := `package p

//slashy:subcommand IsAdmin
func Warn(cc *Ctx) error {
	return nil
}
`
	fx := load(t, src)
	_, fn, out := fx.render(t, Options{Profile: Production})
	assert.Equal(t, "func(context.Context) error", show(t, fn.Type.Results.List[0].Type))
	assert.Contains(t, out, "return slashyErr")
	assert.Contains(t, out, "return slashy.NewError(slashy.MsgPermissionDenied)")
}
