package guard

import (
	"bytes"
	"fmt"
	"go/printer"
	"go/token"
	"strings"
)

var printConfig = printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}

// Render prints d as Go source. fset and src are the file the handler was
// parsed from; the original body is copied from src so its comments and
// layout survive. The result is not gofmt-formatted.
func Render(fset *token.FileSet, src []byte, d *Definition) ([]byte, error) {
	tf := fset.File(d.Body.Lbrace)
	if tf == nil {
		return nil, fmt.Errorf("render %s: body position not in file set", d.Func.Name.Name)
	}
	lb, rb := tf.Offset(d.Body.Lbrace), tf.Offset(d.Body.Rbrace)
	if lb < 0 || rb >= len(src) || src[lb] != '{' || src[rb] != '}' {
		return nil, fmt.Errorf("render %s: body offsets do not match source", d.Func.Name.Name)
	}

	body := src[lb : rb+1]
	if !d.Guarded {
		body = bytes.TrimSpace(src[lb+1 : rb])
	}

	var buf bytes.Buffer
	for _, c := range d.Doc {
		buf.WriteString(c.Text)
		buf.WriteByte('\n')
	}
	// synthesized nodes carry no positions; an empty file set keeps the
	// handler's own positions from steering line breaks
	if err := printConfig.Fprint(&buf, token.NewFileSet(), d.Func); err != nil {
		return nil, fmt.Errorf("render %s: %w", d.Func.Name.Name, err)
	}

	out := buf.String()
	if strings.Count(out, BodyPlaceholder) != 1 {
		return nil, fmt.Errorf("render %s: body placeholder not found exactly once", d.Func.Name.Name)
	}
	return []byte(strings.Replace(out, BodyPlaceholder, string(body), 1)), nil
}
