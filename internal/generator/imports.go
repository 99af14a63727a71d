package generator

import (
	"go/ast"
	"go/token"
	"path"
	"strconv"
	"strings"

	"github.com/keshon/slashy/internal/directive"
)

// importRef is how an output file refers to a package.
type importRef struct {
	path  string
	name  string
	alias bool
	// missing means the input does not import the package.
	missing bool
}

func (r importRef) spec() string {
	if r.alias {
		return r.name + " " + strconv.Quote(r.path)
	}
	return strconv.Quote(r.path)
}

// resolveImport finds the local name of importPath in f. When f does not
// import it, the package's base name is used unless that name is taken, in
// which case fallback is. Names in shadowed are visible inside handler
// bodies, so an import under one of them is added again under fallback.
func resolveImport(f *ast.File, importPath, fallback string, shadowed map[string]bool) importRef {
	base := path.Base(importPath)
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		n := base
		if imp.Name != nil {
			n = imp.Name.Name
		}
		if n != "_" && n != "." && !shadowed[n] {
			return importRef{path: importPath, name: n}
		}
	}

	taken := fileScopeNames(f)
	if !taken[base] && !shadowed[base] {
		return importRef{path: importPath, name: base, missing: true}
	}
	name := fallback
	for i := 2; taken[name] || shadowed[name]; i++ {
		name = fallback + strconv.Itoa(i)
	}
	return importRef{path: importPath, name: name, alias: true, missing: true}
}

// handlerNames collects the type parameter, parameter and result names of
// annotated functions. They are in scope where generated code refers to
// imported packages.
func handlerNames(f *ast.File) map[string]bool {
	names := make(map[string]bool)
	add := func(fl *ast.FieldList) {
		if fl == nil {
			return
		}
		for _, field := range fl.List {
			for _, n := range field.Names {
				names[n.Name] = true
			}
		}
	}
	for _, d := range f.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if _, _, _, ok := directive.Find(fd.Doc); !ok {
			continue
		}
		add(fd.Type.TypeParams)
		add(fd.Type.Params)
		add(fd.Type.Results)
	}
	return names
}

// fileScopeNames collects import names and top-level declarations.
func fileScopeNames(f *ast.File) map[string]bool {
	names := make(map[string]bool)
	for _, imp := range f.Imports {
		if imp.Name != nil {
			names[imp.Name.Name] = true
			continue
		}
		if p, err := strconv.Unquote(imp.Path.Value); err == nil {
			names[path.Base(p)] = true
		}
	}
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				names[d.Name.Name] = true
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		}
	}
	return names
}

// importEdits adds refs to the file's imports. With a parenthesized import
// block, standard library packages go to its first group and others to its
// last, so sorting keeps the groups intact. A single-line import becomes a
// block holding it and refs. A file without imports gets a new block after
// the package clause.
func importEdits(f *ast.File, tf *token.File, src []byte, refs []importRef) []edit {
	if len(refs) == 0 {
		return nil
	}
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		if !gd.Lparen.IsValid() {
			spec := gd.Specs[0].(*ast.ImportSpec)
			p, _ := strconv.Unquote(spec.Path.Value)
			kept := string(src[tf.Offset(spec.Pos()):tf.Offset(spec.End())])
			text := importBlock(append(specLines(refs), specLine{path: p, text: kept}))
			return []edit{{start: tf.Offset(gd.Pos()), end: tf.Offset(gd.End()), text: text}}
		}
		var edits []edit
		for _, r := range refs {
			if isStd(r.path) {
				off := tf.Offset(gd.Lparen) + 1
				edits = append(edits, edit{start: off, end: off, text: "\n\t" + r.spec()})
			} else {
				off := tf.Offset(gd.Rparen)
				edits = append(edits, edit{start: off, end: off, text: "\t" + r.spec() + "\n"})
			}
		}
		return edits
	}

	off := tf.Offset(f.Name.End())
	return []edit{{start: off, end: off, text: "\n\n" + importBlock(specLines(refs))}}
}

type specLine struct {
	path, text string
}

func specLines(refs []importRef) []specLine {
	out := make([]specLine, 0, len(refs))
	for _, r := range refs {
		out = append(out, specLine{path: r.path, text: r.spec()})
	}
	return out
}

// importBlock renders lines as an import block with the standard library
// group first.
func importBlock(lines []specLine) string {
	var std, other []string
	for _, l := range lines {
		if isStd(l.path) {
			std = append(std, "\t"+l.text+"\n")
		} else {
			other = append(other, "\t"+l.text+"\n")
		}
	}
	var b strings.Builder
	b.WriteString("import (\n")
	b.WriteString(strings.Join(std, ""))
	if len(std) > 0 && len(other) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(other, ""))
	b.WriteString(")")
	return b.String()
}

// isStd reports whether importPath looks like a standard library package.
func isStd(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
