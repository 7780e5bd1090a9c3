package estree

// CommentType distinguishes block comments from line comments.
type CommentType string

const (
	CommentBlock CommentType = "Block"
	CommentLine  CommentType = "Line"
)

// Comment is a source comment as reported by an ESTree parser. Value holds the
// text between the delimiters ("/*" and "*/", or "//" and end of line).
type Comment struct {
	Type  CommentType `json:"type"`
	Value string      `json:"value"`
	Loc   Loc         `json:"loc"`
}

// IsBlock reports whether the comment is a block comment.
func (c Comment) IsBlock() bool { return c.Type == CommentBlock }
