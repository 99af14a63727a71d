// Package signature takes an annotated handler declaration apart and
// normalizes its parameters for capture by a single future.
package signature

import (
	"go/ast"
	"go/scanner"
	"go/token"
	"slices"
)

// Scope is the region a parameter is valid in while the generated future runs.
type Scope int

const (
	// ScopeCall parameters are copied into the future when the handler is called.
	ScopeCall Scope = iota
	// ScopeFuture parameters are references the future borrows until it completes.
	ScopeFuture
)

func (s Scope) String() string {
	if s == ScopeFuture {
		return "fut"
	}
	return "call"
}

// Reserved lists identifiers the generated guard code declares. Handler
// parameters and named results must not use them.
var Reserved = []string{"futCtx", "slashyMember", "slashyChannel", "slashyGuild", "slashyOK", "slashyErr"}

// Parameter is one field of the handler's parameter list.
type Parameter struct {
	Names       []*ast.Ident
	Type        ast.Expr
	IsReference bool
	Variadic    bool
	Scope       Scope
}

// Descriptor is the structural view of an annotated handler.
type Descriptor struct {
	Doc        []*ast.Comment
	Name       *ast.Ident
	TypeParams *ast.FieldList
	Params     []Parameter
	Normalized []Parameter
	Results    *ast.FieldList
	Body       *ast.BlockStmt
	// Context is the first parameter's name, used by the guards to resolve
	// the invoking member and channel.
	Context *ast.Ident
	Pos     token.Pos
}

// Borrows returns the names of the parameters the future borrows.
func (d *Descriptor) Borrows() []string {
	var names []string
	for _, p := range d.Normalized {
		if p.Scope != ScopeFuture {
			continue
		}
		for _, n := range p.Names {
			if n.Name != "_" {
				names = append(names, n.Name)
			}
		}
	}
	return names
}

// Parse builds a Descriptor from decl. Every shape violation is reported as
// a positioned error; no Descriptor is returned if there is any.
func Parse(fset *token.FileSet, decl *ast.FuncDecl) (*Descriptor, error) {
	var errs scanner.ErrorList
	fail := func(pos token.Pos, msg string) {
		errs.Add(fset.Position(pos), msg)
	}

	ft := decl.Type
	if decl.Recv != nil {
		fail(decl.Recv.Opening, "expected command context as first parameter, found method receiver")
	}
	if decl.Body == nil {
		fail(decl.Name.Pos(), "subcommand "+decl.Name.Name+" has no body")
	}
	if ft.Results == nil || len(ft.Results.List) == 0 {
		fail(ft.Params.Closing+1, "subcommand "+decl.Name.Name+" is missing a return type")
	}

	var ctxName *ast.Ident
	switch {
	case len(ft.Params.List) == 0:
		fail(ft.Params.Opening, "expected command context as first parameter")
	case len(ft.Params.List[0].Names) == 0:
		fail(ft.Params.List[0].Type.Pos(), "command context parameter must be named")
	case ft.Params.List[0].Names[0].Name == "_":
		fail(ft.Params.List[0].Names[0].Pos(), "command context parameter must not be blank")
	default:
		ctxName = ft.Params.List[0].Names[0]
	}

	checkReserved(ft.Params, fail)
	checkReserved(ft.Results, fail)

	if len(errs) > 0 {
		errs.Sort()
		return nil, errs.Err()
	}

	params := make([]Parameter, 0, len(ft.Params.List))
	for _, f := range ft.Params.List {
		_, variadic := f.Type.(*ast.Ellipsis)
		params = append(params, Parameter{
			Names:       f.Names,
			Type:        f.Type,
			IsReference: isReference(f.Type),
			Variadic:    variadic,
		})
	}

	d := &Descriptor{
		Name:       decl.Name,
		TypeParams: ft.TypeParams,
		Params:     params,
		Normalized: Normalize(params),
		Results:    ft.Results,
		Body:       decl.Body,
		Context:    ctxName,
		Pos:        decl.Pos(),
	}
	if decl.Doc != nil {
		d.Doc = decl.Doc.List
	}
	return d, nil
}

// Normalize returns a copy of params in which every reference-typed
// parameter is assigned the shared future scope. Types are left as written.
func Normalize(params []Parameter) []Parameter {
	out := slices.Clone(params)
	for i := range out {
		if out[i].IsReference {
			out[i].Scope = ScopeFuture
		} else {
			out[i].Scope = ScopeCall
		}
	}
	return out
}

func isReference(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.Ellipsis:
		return true
	case *ast.ArrayType:
		return t.Len == nil
	case *ast.ParenExpr:
		return isReference(t.X)
	}
	return false
}

func checkReserved(fl *ast.FieldList, fail func(token.Pos, string)) {
	if fl == nil {
		return
	}
	for _, f := range fl.List {
		for _, n := range f.Names {
			if slices.Contains(Reserved, n.Name) {
				fail(n.Pos(), n.Name+" is reserved for generated guard code")
			}
		}
	}
}
