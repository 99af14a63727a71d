// Package guard synthesizes the guarded wrapper for a parsed subcommand.
//
// The wrapper keeps the handler's name, doc comment, type parameters and
// result list. It returns a future, func(context.Context) <results>, whose body
// checks where the command was invoked and runs the configured predicates in
// order before falling through to the original body:
//
//	member, channel := resolve(ctx)            // production profile only
//	guild channel?  -> P1 && P2 && ... else "User does not have permissions"
//	otherwise       -> body if works in DMs else "Command is not available in dms"
//
// Without predicates the future's body is the original body, unchanged.
package guard

import (
	"go/ast"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/keshon/slashy/internal/directive"
	"github.com/keshon/slashy/internal/signature"
)

// Profile selects how predicates are invoked.
type Profile int

const (
	// Production resolves member and channel and calls P(ctx, cc, member, guild).
	Production Profile = iota
	// Test calls P() and skips location resolution.
	Test
)

func (p Profile) String() string {
	if p == Test {
		return "test"
	}
	return "production"
}

// Profiles lists every profile a generator must emit.
var Profiles = []Profile{Production, Test}

// BodyPlaceholder stands for the original body in the synthesized AST until
// Render splices the body's source text back in.
const BodyPlaceholder = "__slashy_body__"

// Generated identifiers; signature.Reserved keeps handlers from using them.
const (
	futCtx        = "futCtx"
	slashyMember  = "slashyMember"
	slashyChannel = "slashyChannel"
	slashyGuild   = "slashyGuild"
	slashyOK      = "slashyOK"
	slashyErr     = "slashyErr"
)

// Options names the packages generated code refers to, as imported in the
// output file.
type Options struct {
	Profile Profile
	Context string
	Runtime string
}

func (o Options) withDefaults() Options {
	if o.Context == "" {
		o.Context = "context"
	}
	if o.Runtime == "" {
		o.Runtime = "slashy"
	}
	return o
}

// Definition is a synthesized subcommand.
type Definition struct {
	Func *ast.FuncDecl
	// Doc is the handler's doc comment without the directive line.
	Doc []*ast.Comment
	// Body is the original body the placeholder stands for.
	Body *ast.BlockStmt
	// Guarded is false when no predicates are configured and the future
	// body is the original body.
	Guarded bool
	Profile Profile
	Checks  []string
	Borrows []string
}

// Generate builds the wrapper for desc under cfg.
func Generate(fset *token.FileSet, cfg directive.Configuration, desc *signature.Descriptor, opts Options) (*Definition, error) {
	opts = opts.withDefaults()
	guarded := len(cfg.Checks) > 0

	slots := resultSlots(desc.Results)
	if guarded && !endsWithError(slots) {
		var errs scanner.ErrorList
		errs.Add(fset.Position(desc.Results.Pos()), "guarded subcommand "+desc.Name.Name+" must return error as its last result")
		return nil, errs.Err()
	}

	g := &builder{opts: opts, ctx: desc.Context.Name, slots: slots}

	var stmts []ast.Stmt
	if guarded {
		switch opts.Profile {
		case Production:
			stmts = g.production(cfg)
		case Test:
			stmts = g.checks(cfg.Checks, nil)
		}
	}
	stmts = append(stmts, &ast.ExprStmt{X: ast.NewIdent(BodyPlaceholder)})

	ctxType := &ast.SelectorExpr{X: ast.NewIdent(opts.Context), Sel: ast.NewIdent("Context")}
	future := &ast.FuncLit{
		Type: &ast.FuncType{
			Params:  &ast.FieldList{List: []*ast.Field{{Names: []*ast.Ident{ast.NewIdent(futCtx)}, Type: ctxType}}},
			Results: desc.Results,
		},
		Body: &ast.BlockStmt{List: stmts},
	}

	params := make([]*ast.Field, len(desc.Normalized))
	for i, p := range desc.Normalized {
		params[i] = &ast.Field{Names: p.Names, Type: p.Type}
	}

	fn := &ast.FuncDecl{
		Name: ast.NewIdent(desc.Name.Name),
		Type: &ast.FuncType{
			TypeParams: desc.TypeParams,
			Params:     &ast.FieldList{List: params},
			Results: &ast.FieldList{List: []*ast.Field{{Type: &ast.FuncType{
				Params:  &ast.FieldList{List: []*ast.Field{{Type: ctxType}}},
				Results: desc.Results,
			}}}},
		},
		Body: &ast.BlockStmt{List: []ast.Stmt{&ast.ReturnStmt{Results: []ast.Expr{future}}}},
	}

	var doc []*ast.Comment
	for _, c := range desc.Doc {
		if !directive.IsDirective(c) {
			doc = append(doc, c)
		}
	}
	// drop the empty line that separated prose from the directive
	for len(doc) > 0 && strings.TrimSpace(doc[len(doc)-1].Text) == "//" {
		doc = doc[:len(doc)-1]
	}

	return &Definition{
		Func:    fn,
		Doc:     doc,
		Body:    desc.Body,
		Guarded: guarded,
		Profile: opts.Profile,
		Checks:  cfg.Names(),
		Borrows: desc.Borrows(),
	}, nil
}

type builder struct {
	opts  Options
	ctx   string
	slots []ast.Expr
}

// production resolves member then channel, classifies the channel and runs
// the checks for guild channels. Non-guild invocations fall through to the
// body only when the command works in DMs.
func (g *builder) production(cfg directive.Configuration) []ast.Stmt {
	stmts := []ast.Stmt{
		g.resolve(slashyMember, "Member"),
		g.returnOnErr(),
		g.resolve(slashyChannel, "Channel"),
		g.returnOnErr(),
	}

	args := []ast.Expr{ast.NewIdent(futCtx), ast.NewIdent(g.ctx), ast.NewIdent(slashyMember), ast.NewIdent(slashyGuild)}
	classify := &ast.IfStmt{
		Init: &ast.AssignStmt{
			Lhs: []ast.Expr{ast.NewIdent(slashyGuild), ast.NewIdent(slashyOK)},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{&ast.CallExpr{
				Fun:  g.runtime("AsGuildChannel"),
				Args: []ast.Expr{ast.NewIdent(slashyChannel)},
			}},
		},
		Cond: ast.NewIdent(slashyOK),
		Body: &ast.BlockStmt{List: g.checks(cfg.Checks, args)},
	}
	if !cfg.WorksInDMs {
		classify.Else = &ast.BlockStmt{List: []ast.Stmt{g.deny("MsgNotInDMs")}}
	}
	return append(stmts, classify)
}

// checks evaluates every predicate in order; the first error or false
// return leaves the future.
func (g *builder) checks(ids []directive.Ident, args []ast.Expr) []ast.Stmt {
	stmts := make([]ast.Stmt, 0, len(ids))
	for _, id := range ids {
		var fun ast.Expr = ast.NewIdent(id.Name)
		if id.Qualifier != "" {
			fun = &ast.SelectorExpr{X: ast.NewIdent(id.Qualifier), Sel: ast.NewIdent(id.Name)}
		}
		stmts = append(stmts, &ast.IfStmt{
			Init: &ast.AssignStmt{
				Lhs: []ast.Expr{ast.NewIdent(slashyOK), ast.NewIdent(slashyErr)},
				Tok: token.DEFINE,
				Rhs: []ast.Expr{&ast.CallExpr{Fun: fun, Args: args}},
			},
			Cond: notNil(slashyErr),
			Body: &ast.BlockStmt{List: []ast.Stmt{g.fail(ast.NewIdent(slashyErr))}},
			Else: &ast.IfStmt{
				Cond: &ast.UnaryExpr{Op: token.NOT, X: ast.NewIdent(slashyOK)},
				Body: &ast.BlockStmt{List: []ast.Stmt{g.deny("MsgPermissionDenied")}},
			},
		})
	}
	return stmts
}

// resolve declares name from cc.method(futCtx).
func (g *builder) resolve(name, method string) ast.Stmt {
	return &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(name), ast.NewIdent(slashyErr)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{&ast.CallExpr{
			Fun:  &ast.SelectorExpr{X: ast.NewIdent(g.ctx), Sel: ast.NewIdent(method)},
			Args: []ast.Expr{ast.NewIdent(futCtx)},
		}},
	}
}

func (g *builder) returnOnErr() ast.Stmt {
	return &ast.IfStmt{
		Cond: notNil(slashyErr),
		Body: &ast.BlockStmt{List: []ast.Stmt{g.fail(ast.NewIdent(slashyErr))}},
	}
}

func (g *builder) deny(msg string) ast.Stmt {
	return g.fail(&ast.CallExpr{
		Fun:  g.runtime("NewError"),
		Args: []ast.Expr{g.runtime(msg)},
	})
}

// fail returns zero values for every result but the last, and err.
func (g *builder) fail(err ast.Expr) ast.Stmt {
	results := make([]ast.Expr, 0, len(g.slots))
	for _, typ := range g.slots[:len(g.slots)-1] {
		results = append(results, &ast.StarExpr{X: &ast.CallExpr{Fun: ast.NewIdent("new"), Args: []ast.Expr{typ}}})
	}
	return &ast.ReturnStmt{Results: append(results, err)}
}

func (g *builder) runtime(name string) ast.Expr {
	return &ast.SelectorExpr{X: ast.NewIdent(g.opts.Runtime), Sel: ast.NewIdent(name)}
}

func notNil(name string) ast.Expr {
	return &ast.BinaryExpr{X: ast.NewIdent(name), Op: token.NEQ, Y: ast.NewIdent("nil")}
}

// resultSlots flattens a result list to one type per returned value.
func resultSlots(fl *ast.FieldList) []ast.Expr {
	if fl == nil {
		return nil
	}
	var slots []ast.Expr
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			slots = append(slots, f.Type)
		}
	}
	return slots
}

func endsWithError(slots []ast.Expr) bool {
	if len(slots) == 0 {
		return false
	}
	id, ok := slots[len(slots)-1].(*ast.Ident)
	return ok && id.Name == "error"
}
