package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/triumph-js/internal/estree"
)

// comments collects every comment under root in source order. Values are stored
// without their delimiters, the way esprima reports them.
func (c *converter) comments(root *sitter.Node) []estree.Comment {
	var comments []estree.Comment
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() != "comment" {
			return true
		}

		text := c.text(n)
		comment := estree.Comment{Loc: c.loc(n)}
		switch {
		case strings.HasPrefix(text, "/*"):
			comment.Type = estree.CommentBlock
			comment.Value = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		default:
			comment.Type = estree.CommentLine
			comment.Value = strings.TrimPrefix(text, "//")
		}
		comments = append(comments, comment)
		return false
	})
	return comments
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
// Children are skipped when the visitor returns false.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), visitor)
	}
}
