// Package docs renders a Markdown overview of the guards slashygen generated,
// one section per input file.
package docs

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/keshon/slashy/internal/generator"
)

const reportTmpl = `# Subcommands
{{range .}}
### {{.File}}

| Subcommand | Direct messages | Checks | Held by the future |
|---|---|---|---|
{{- range .Subcommands}}
| {{.Name}} | {{dms .WorksInDMs (len .Checks)}} | {{names .Checks}} | {{names .Borrows}} |
{{- end}}
{{end}}`

var report = template.Must(template.New("report").Funcs(template.FuncMap{
	"dms": func(ok bool, checks int) string {
		switch {
		case checks == 0:
			return "yes"
		case ok:
			return "yes, unchecked"
		default:
			return "no"
		}
	},
	"names": func(names []string) string {
		if len(names) == 0 {
			return "none"
		}
		return "`" + strings.Join(names, "`, `") + "`"
	},
}).Parse(reportTmpl))

type section struct {
	File        string
	Subcommands []generator.Subcommand
}

// Write renders results to w. Inputs are shown relative to root when
// possible; results without subcommands are left out.
func Write(w io.Writer, root string, results []*generator.Result) error {
	var sections []section
	for _, r := range results {
		if len(r.Subcommands) == 0 {
			continue
		}
		name := r.Input
		if rel, err := filepath.Rel(root, r.Input); err == nil {
			name = filepath.ToSlash(rel)
		}
		sections = append(sections, section{File: name, Subcommands: r.Subcommands})
	}
	if err := report.Execute(w, sections); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
