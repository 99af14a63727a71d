package generator

import (
	"go/ast"
	"go/build/constraint"
)

// buildLines holds the constraint comments that precede the package clause.
type buildLines struct {
	goBuild   *ast.Comment
	plusBuild []*ast.Comment
	expr      constraint.Expr
}

func findBuildLines(f *ast.File) (*buildLines, error) {
	var bl buildLines
	var plus constraint.Expr
	for _, g := range f.Comments {
		if g.Pos() >= f.Package {
			break
		}
		for _, c := range g.List {
			switch {
			case constraint.IsGoBuild(c.Text):
				x, err := constraint.Parse(c.Text)
				if err != nil {
					return nil, err
				}
				bl.goBuild, bl.expr = c, x
			case constraint.IsPlusBuild(c.Text):
				x, err := constraint.Parse(c.Text)
				if err != nil {
					return nil, err
				}
				bl.plusBuild = append(bl.plusBuild, c)
				if plus == nil {
					plus = x
				} else {
					plus = &constraint.AndExpr{X: plus, Y: x}
				}
			}
		}
	}
	if bl.expr == nil {
		bl.expr = plus
	}
	return &bl, nil
}

// mentions reports whether x refers to tag.
func mentions(x constraint.Expr, tag string) bool {
	switch x := x.(type) {
	case *constraint.TagExpr:
		return x.Tag == tag
	case *constraint.NotExpr:
		return mentions(x.X, tag)
	case *constraint.AndExpr:
		return mentions(x.X, tag) || mentions(x.Y, tag)
	case *constraint.OrExpr:
		return mentions(x.X, tag) || mentions(x.Y, tag)
	}
	return false
}

// assume simplifies x under tag being set. A nil expression means x is the
// constant val.
func assume(x constraint.Expr, tag string) (rest constraint.Expr, val bool) {
	switch x := x.(type) {
	case *constraint.TagExpr:
		if x.Tag == tag {
			return nil, true
		}
		return x, false
	case *constraint.NotExpr:
		y, v := assume(x.X, tag)
		if y == nil {
			return nil, !v
		}
		return &constraint.NotExpr{X: y}, false
	case *constraint.AndExpr:
		l, lv := assume(x.X, tag)
		r, rv := assume(x.Y, tag)
		switch {
		case l == nil && !lv, r == nil && !rv:
			return nil, false
		case l == nil:
			return r, rv
		case r == nil:
			return l, lv
		}
		return &constraint.AndExpr{X: l, Y: r}, false
	case *constraint.OrExpr:
		l, lv := assume(x.X, tag)
		r, rv := assume(x.Y, tag)
		switch {
		case l == nil && lv, r == nil && rv:
			return nil, true
		case l == nil:
			return r, rv
		case r == nil:
			return l, lv
		}
		return &constraint.OrExpr{X: l, Y: r}, false
	}
	return x, false
}

// outputLine is the //go:build line of an output file: what remains of the
// input constraint and-ed with the profile's selector.
func outputLine(rest constraint.Expr, profileTag string, test bool) string {
	var sel constraint.Expr = &constraint.TagExpr{Tag: profileTag}
	if !test {
		sel = &constraint.NotExpr{X: sel}
	}
	if rest != nil {
		sel = &constraint.AndExpr{X: rest, Y: sel}
	}
	return "//go:build " + sel.String()
}
