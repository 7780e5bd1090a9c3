package walker

import (
	"strings"

	"github.com/mvp-joe/triumph-js/internal/estree"
)

// MakeSignature renders a function signature such as "function doWork(arg, argTwo)".
// Only plain identifier parameters are rendered; destructuring, default-valued and
// rest parameters are left out without changing the order of the others.
func MakeSignature(name string, params []estree.Node) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if id, ok := p.(*estree.Identifier); ok && id != nil {
			names = append(names, id.Name)
		}
	}
	return "function " + name + "(" + strings.Join(names, ", ") + ")"
}

// FindComment returns the value of the first block comment that ends on the
// function's line or on the line directly above it, or "" when there is none.
func FindComment(functionLine int, comments []estree.Comment) string {
	for _, c := range comments {
		if !c.IsBlock() {
			continue
		}
		end := c.Loc.End.Line
		if end == functionLine || end == functionLine-1 {
			return c.Value
		}
	}
	return ""
}
