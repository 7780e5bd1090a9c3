package walker

// Resource is an "interesting" artifact found in source code: a named function
// declaration or a function-valued property.
type Resource struct {
	// Key identifies the resource within its file: the function name, or
	// "<object>.<name>" when the function belongs to an object or namespace.
	Key string `json:"key"`

	// Identifier is the bare function name.
	Identifier string `json:"identifier"`

	// Signature is the synthesized declaration, e.g. "function doWork(arg, argTwo)".
	Signature string `json:"signature"`

	// Comment is the raw text of the block comment directly above the function.
	Comment string `json:"comment"`

	// LineNumber is the 1-based line of the name token.
	LineNumber int `json:"line_number"`

	// ColumnPosition is the 0-based column of the name token.
	ColumnPosition int `json:"column_position"`

	FileItemID int64 `json:"file_item_id"`
	SourceID   int64 `json:"source_id"`
}

// FileContext links resources to the file and source directory records owned by
// the storage layer. It is copied verbatim onto every resource of one walk.
type FileContext struct {
	FileItemID int64
	SourceID   int64
}

// Sink accepts discovered resources. Insert is called once per resource, in
// depth-first, left-to-right discovery order.
type Sink interface {
	Insert(resource Resource) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(resource Resource) error

// Insert calls f(resource).
func (f SinkFunc) Insert(resource Resource) error { return f(resource) }

// Collector is an in-memory Sink that keeps resources in discovery order.
type Collector struct {
	Resources []Resource
}

// Insert appends the resource.
func (c *Collector) Insert(resource Resource) error {
	c.Resources = append(c.Resources, resource)
	return nil
}

// Keys returns the collected keys in discovery order.
func (c *Collector) Keys() []string {
	keys := make([]string, len(c.Resources))
	for i, r := range c.Resources {
		keys[i] = r.Key
	}
	return keys
}
