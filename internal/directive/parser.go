package directive

import (
	"fmt"
	"go/scanner"
	"go/token"
)

type item struct {
	tok token.Token
	lit string
	pos token.Pos
}

type parser struct {
	fset  *token.FileSet
	items []item
	i     int
	errs  scanner.ErrorList
}

func newParser(fset *token.FileSet, base token.Pos, args string) *parser {
	p := &parser{fset: fset}

	local := token.NewFileSet()
	file := local.AddFile("", -1, len(args))

	var s scanner.Scanner
	s.Init(file, []byte(args), func(pos token.Position, msg string) {
		p.errs.Add(fset.Position(base+token.Pos(pos.Offset)), msg)
	}, 0)

	for {
		pos, tok, lit := s.Scan()
		at := base + token.Pos(file.Offset(pos))
		// the scanner inserts a semicolon after a trailing identifier
		if tok == token.EOF || (tok == token.SEMICOLON && lit == "\n") {
			p.items = append(p.items, item{tok: token.EOF, pos: at})
			break
		}
		p.items = append(p.items, item{tok: tok, lit: lit, pos: at})
	}
	return p
}

func (p *parser) peek() item { return p.items[p.i] }

func (p *parser) next() item {
	it := p.items[p.i]
	if it.tok != token.EOF {
		p.i++
	}
	return it
}

func (p *parser) errorf(it item, format string, args ...any) {
	p.errs.Add(p.fset.Position(it.pos), "configuration syntax: "+fmt.Sprintf(format, args...))
}

func describe(it item) string {
	switch {
	case it.tok == token.EOF:
		return "end of arguments"
	case it.lit != "":
		return fmt.Sprintf("%s %q", it.tok, it.lit)
	default:
		return fmt.Sprintf("%q", it.tok.String())
	}
}

func (p *parser) parse() (Configuration, error) {
	var cfg Configuration
	if err := p.errs.Err(); err != nil {
		return cfg, err
	}

	if it := p.peek(); it.tok == token.IDENT && (it.lit == "true" || it.lit == "false") {
		p.next()
		cfg.WorksInDMs = it.lit == "true"
	}

	if p.peek().tok == token.COMMA {
		p.next()
	}

	if p.peek().tok == token.IDENT {
		cfg.Checks = p.parseChecks()
	}

	if it := p.peek(); it.tok != token.EOF && len(p.errs) == 0 {
		p.errorf(it, "unexpected %s", describe(it))
	}

	if err := p.errs.Err(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func (p *parser) parseChecks() []Ident {
	var checks []Ident
	for {
		it := p.peek()
		if it.tok != token.IDENT {
			p.errorf(it, "expected predicate name, found %s", describe(it))
			return checks
		}
		p.next()
		id := Ident{Name: it.lit, Pos: it.pos}

		if p.peek().tok == token.PERIOD {
			p.next()
			sel := p.peek()
			if sel.tok != token.IDENT {
				p.errorf(sel, "expected predicate name after %s., found %s", it.lit, describe(sel))
				return checks
			}
			p.next()
			id = Ident{Qualifier: it.lit, Name: sel.lit, Pos: it.pos}
		}
		checks = append(checks, id)

		switch sep := p.peek(); sep.tok {
		case token.EOF:
			return checks
		case token.COMMA:
			p.next()
			if p.peek().tok == token.EOF {
				return checks
			}
		default:
			p.errorf(sep, "expected ',' or end of arguments, found %s", describe(sep))
			return checks
		}
	}
}
