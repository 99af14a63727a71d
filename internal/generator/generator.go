// Package generator turns handler source files into guarded output files.
//
// An input file carries the input build tag (//go:build slashy) and holds
// handlers annotated with //slashy:subcommand. For x.go the generator writes
// x_slashy.go for normal builds and x_slashy_testprofile.go for builds with
// the test tag. Annotated handlers are replaced by their guarded wrappers;
// everything else in the file is copied as is.
package generator

import (
	"errors"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"path/filepath"
	"slices"
	"strings"

	"github.com/keshon/slashy/internal/cache"
	"github.com/keshon/slashy/internal/config"
	"github.com/keshon/slashy/internal/directive"
	"github.com/keshon/slashy/internal/guard"
	"github.com/keshon/slashy/internal/signature"
)

// Header marks output files as generated.
const Header = "// Code generated by slashygen. DO NOT EDIT."

// ErrNotInput is returned for files without the input build tag.
var ErrNotInput = errors.New("not a slashy input file")

// Generator transforms input files. It is safe for concurrent use.
type Generator struct {
	Config *config.Config
	// Cache may be nil.
	Cache *cache.Cache
	// Force regenerates inputs the cache reports as unchanged.
	Force bool
}

// New returns a Generator for cfg.
func New(cfg *config.Config, c *cache.Cache) *Generator {
	return &Generator{Config: cfg, Cache: c}
}

// Output is one generated file.
type Output struct {
	Path    string
	Profile guard.Profile
	Src     []byte
}

// Subcommand summarizes one generated wrapper.
type Subcommand struct {
	Name       string
	Line       int
	WorksInDMs bool
	Checks     []string
	// Borrows lists reference parameters the future holds until it completes.
	Borrows []string
}

// Result describes what was generated from one input.
type Result struct {
	Input       string
	Outputs     []Output
	Subcommands []Subcommand
	Warnings    []*scanner.Error
	// Skipped is set when the cache showed the input unchanged.
	Skipped bool
}

// OutputPath returns where input's output for profile is written.
func (g *Generator) OutputPath(input string, p guard.Profile) string {
	stem := strings.TrimSuffix(input, ".go") + g.Config.Suffix
	if p == guard.Test {
		return stem + "_testprofile.go"
	}
	return stem + ".go"
}

type edit struct {
	start, end int
	text       string
}

// handler is an annotated declaration with its rendered wrappers.
type handler struct {
	decl     *ast.FuncDecl
	info     Subcommand
	rendered map[guard.Profile][]byte
	guarded  bool
}

// Transform generates the outputs for one input file in memory.
// Definition errors are returned as a sorted scanner.ErrorList; a file with
// any error produces no output.
func (g *Generator) Transform(filename string, src []byte) (*Result, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	tf := fset.File(f.Pos())

	bl, err := findBuildLines(f)
	if err != nil {
		return nil, fmt.Errorf("%s: build constraint: %w", filename, err)
	}
	if bl.expr == nil || !mentions(bl.expr, g.Config.InputTag) {
		return nil, ErrNotInput
	}
	rest, val := assume(bl.expr, g.Config.InputTag)
	if rest == nil && !val {
		return nil, fmt.Errorf("%s: build constraint is never satisfied with tag %s set", filename, g.Config.InputTag)
	}

	shadowed := handlerNames(f)
	ctxRef := resolveImport(f, "context", "slashyctx", shadowed)
	rtRef := resolveImport(f, g.Config.Runtime, "slashyrt", shadowed)

	res := &Result{Input: filename}
	var errs scanner.ErrorList
	var handlers []*handler

	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			if c, _, _, ok := directive.Find(d.Doc); ok {
				errs.Add(fset.Position(c.Slash), "//slashy:subcommand must annotate a function")
			}
		case *ast.FuncDecl:
			h, ok := g.handler(fset, src, d, ctxRef.name, rtRef.name, &errs, res)
			if ok {
				handlers = append(handlers, h)
			}
		}
	}

	if len(errs) > 0 {
		errs.Sort()
		return nil, errs
	}

	for _, p := range guard.Profiles {
		out, err := g.assemble(f, tf, src, bl, rest, handlers, ctxRef, rtRef, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		res.Outputs = append(res.Outputs, Output{Path: g.OutputPath(filename, p), Profile: p, Src: out})
	}
	for _, h := range handlers {
		res.Subcommands = append(res.Subcommands, h.info)
	}
	return res, nil
}

// handler runs the pipeline for one declaration. ok is false when decl is
// not annotated or failed; failures are added to errs.
func (g *Generator) handler(fset *token.FileSet, src []byte, decl *ast.FuncDecl, ctxName, rtName string, errs *scanner.ErrorList, res *Result) (*handler, bool) {
	_, args, argsPos, ok := directive.Find(decl.Doc)
	if !ok {
		return nil, false
	}
	before := len(*errs)

	cfg, err := directive.Parse(fset, argsPos, args)
	collect(errs, err)
	res.Warnings = append(res.Warnings, directive.Lint(fset, cfg)...)

	desc, err := signature.Parse(fset, decl)
	collect(errs, err)
	if len(*errs) > before {
		return nil, false
	}

	h := &handler{
		decl: decl,
		info: Subcommand{
			Name:       decl.Name.Name,
			Line:       fset.Position(decl.Pos()).Line,
			WorksInDMs: cfg.WorksInDMs,
			Checks:     cfg.Names(),
			Borrows:    desc.Borrows(),
		},
		rendered: make(map[guard.Profile][]byte),
	}
	for _, p := range guard.Profiles {
		def, err := guard.Generate(fset, cfg, desc, guard.Options{Profile: p, Context: ctxName, Runtime: rtName})
		if err != nil {
			collect(errs, err)
			return nil, false
		}
		text, err := guard.Render(fset, src, def)
		if err != nil {
			errs.Add(fset.Position(decl.Pos()), err.Error())
			return nil, false
		}
		h.rendered[p] = text
		h.guarded = def.Guarded
	}
	return h, true
}

func collect(errs *scanner.ErrorList, err error) {
	if err == nil {
		return
	}
	var list scanner.ErrorList
	var one *scanner.Error
	switch {
	case errors.As(err, &list):
		*errs = append(*errs, list...)
	case errors.As(err, &one):
		*errs = append(*errs, one)
	default:
		errs.Add(token.Position{}, err.Error())
	}
}

// assemble applies the edits for profile p to src and formats the result.
func (g *Generator) assemble(f *ast.File, tf *token.File, src []byte, bl *buildLines, rest constraint.Expr, handlers []*handler, ctxRef, rtRef importRef, p guard.Profile) ([]byte, error) {
	edits := []edit{{start: 0, end: 0, text: Header + "\n\n"}}

	line := outputLine(rest, g.Config.TestTag, p == guard.Test)
	switch {
	case bl.goBuild != nil:
		edits = append(edits, commentEdit(tf, bl.goBuild, line))
		for _, c := range bl.plusBuild {
			edits = append(edits, lineDelete(tf, src, c))
		}
	default:
		edits = append(edits, commentEdit(tf, bl.plusBuild[0], line))
		for _, c := range bl.plusBuild[1:] {
			edits = append(edits, lineDelete(tf, src, c))
		}
	}

	var refs []importRef
	if len(handlers) > 0 && ctxRef.missing {
		refs = append(refs, ctxRef)
	}
	if rtRef.missing && slices.ContainsFunc(handlers, func(h *handler) bool { return h.guarded }) {
		refs = append(refs, rtRef)
	}
	edits = append(edits, importEdits(f, tf, src, refs)...)

	for _, h := range handlers {
		start := h.decl.Pos()
		if h.decl.Doc != nil {
			start = h.decl.Doc.Pos()
		}
		edits = append(edits, edit{start: tf.Offset(start), end: tf.Offset(h.decl.End()), text: string(h.rendered[p])})
	}

	out, err := apply(src, edits)
	if err != nil {
		return nil, err
	}
	formatted, err := format.Source(out)
	if err != nil {
		return nil, fmt.Errorf("format %s output: %w", p, err)
	}
	return formatted, nil
}

func commentEdit(tf *token.File, c *ast.Comment, text string) edit {
	return edit{start: tf.Offset(c.Pos()), end: tf.Offset(c.End()), text: text}
}

// lineDelete removes c and its line break.
func lineDelete(tf *token.File, src []byte, c *ast.Comment) edit {
	end := tf.Offset(c.End())
	if end < len(src) && src[end] == '\n' {
		end++
	}
	return edit{start: tf.Offset(c.Pos()), end: end}
}

// apply performs non-overlapping edits on src.
func apply(src []byte, edits []edit) ([]byte, error) {
	slices.SortStableFunc(edits, func(a, b edit) int {
		if a.start != b.start {
			return a.start - b.start
		}
		return a.end - b.end
	})
	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	for _, e := range edits {
		if e.start < pos || e.end < e.start || e.end > len(src) {
			return nil, fmt.Errorf("overlapping edit at offset %d", e.start)
		}
		b.Write(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(src[pos:])
	return []byte(b.String()), nil
}

// isInput reports whether src is an input file for tag.
func isInput(fset *token.FileSet, filename string, src any, tag string) (bool, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil {
		return false, err
	}
	bl, err := findBuildLines(f)
	if err != nil {
		return false, err
	}
	return bl.expr != nil && mentions(bl.expr, tag), nil
}

func isGoSource(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") && filepath.Base(name)[0] != '.' && filepath.Base(name)[0] != '_'
}
