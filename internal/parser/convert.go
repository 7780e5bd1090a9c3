package parser

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/triumph-js/internal/estree"
)

// converter maps tree-sitter nodes onto estree nodes. Node kinds without a
// mapping become *estree.Unknown carrying the tree-sitter kind.
type converter struct {
	source []byte
}

func (c *converter) program(root *sitter.Node) *estree.Program {
	program := &estree.Program{Loc: c.loc(root), SourceType: "script"}
	for _, child := range namedChildren(root) {
		if child.Kind() == "hash_bang_line" {
			continue
		}
		if child.Kind() == "import_statement" || child.Kind() == "export_statement" {
			program.SourceType = "module"
		}
		program.Body = append(program.Body, c.node(child))
	}
	return program
}

// node converts any statement, declaration, expression or pattern.
func (c *converter) node(n *sitter.Node) estree.Node {
	if n == nil {
		return nil
	}

	loc := c.loc(n)

	switch n.Kind() {
	// Statements
	case "expression_statement":
		return &estree.ExpressionStatement{Loc: loc, Expression: c.firstNamed(n)}
	case "statement_block", "class_static_block":
		return c.block(n)
	case "empty_statement":
		return &estree.EmptyStatement{Loc: loc}
	case "return_statement":
		return &estree.ReturnStatement{Loc: loc, Argument: c.firstNamed(n)}
	case "throw_statement":
		return &estree.ThrowStatement{Loc: loc, Argument: c.firstNamed(n)}
	case "if_statement":
		stmt := &estree.IfStatement{
			Loc:        loc,
			Test:       c.field(n, "condition"),
			Consequent: c.field(n, "consequence"),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if alt.Kind() == "else_clause" {
				stmt.Alternate = c.firstNamed(alt)
			} else {
				stmt.Alternate = c.node(alt)
			}
		}
		return stmt
	case "with_statement":
		return &estree.WithStatement{Loc: loc, Object: c.field(n, "object"), Body: c.field(n, "body")}
	case "switch_statement":
		return c.switchStatement(n)
	case "switch_case", "switch_default":
		return c.switchCase(n)
	case "try_statement":
		return c.tryStatement(n)
	case "catch_clause":
		return &estree.CatchClause{Loc: loc, Param: c.field(n, "parameter"), Body: c.field(n, "body")}
	case "while_statement":
		return &estree.WhileStatement{Loc: loc, Test: c.field(n, "condition"), Body: c.field(n, "body")}
	case "do_statement":
		return &estree.DoWhileStatement{Loc: loc, Body: c.field(n, "body"), Test: c.field(n, "condition")}
	case "for_statement":
		return &estree.ForStatement{
			Loc:    loc,
			Init:   c.forClause(n.ChildByFieldName("initializer")),
			Test:   c.forClause(n.ChildByFieldName("condition")),
			Update: c.forClause(n.ChildByFieldName("increment")),
			Body:   c.field(n, "body"),
		}
	case "for_in_statement":
		return c.forInStatement(n)
	case "labeled_statement":
		return &estree.LabeledStatement{Loc: loc, Label: c.identifier(n.ChildByFieldName("label")), Body: c.field(n, "body")}
	case "break_statement":
		return &estree.Unknown{Loc: loc, Type: "BreakStatement"}
	case "continue_statement":
		return &estree.Unknown{Loc: loc, Type: "ContinueStatement"}
	case "debugger_statement":
		return &estree.Unknown{Loc: loc, Type: "DebuggerStatement"}
	case "import_statement":
		return &estree.Unknown{Loc: loc, Type: "ImportDeclaration"}

	// Declarations
	case "function_declaration", "generator_function_declaration":
		return &estree.FunctionDeclaration{
			Loc:       loc,
			ID:        c.identifier(n.ChildByFieldName("name")),
			Params:    c.params(n.ChildByFieldName("parameters")),
			Body:      c.field(n, "body"),
			Generator: n.Kind() == "generator_function_declaration",
			Async:     hasToken(n, "async"),
		}
	case "variable_declaration", "lexical_declaration":
		return c.variableDeclaration(n)
	case "variable_declarator":
		return c.declarator(n)
	case "class_declaration", "abstract_class_declaration":
		return &estree.ClassDeclaration{
			Loc:        loc,
			ID:         c.identifier(n.ChildByFieldName("name")),
			SuperClass: c.superClass(n),
			Body:       c.classBody(n.ChildByFieldName("body")),
		}
	case "export_statement":
		return c.exportStatement(n)

	// Expressions
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "private_property_identifier",
		"statement_identifier", "type_identifier":
		return c.identifier(n)
	case "this":
		return &estree.ThisExpression{Loc: loc}
	case "string", "number", "true", "false", "null", "undefined", "regex":
		return c.literal(n)
	case "template_string":
		return c.templateLiteral(n)
	case "array":
		return c.array(n)
	case "object":
		return c.object(n)
	case "function_expression", "function", "generator_function":
		return c.functionExpression(n)
	case "arrow_function":
		return c.arrowFunction(n)
	case "class":
		return &estree.ClassExpression{
			Loc:        loc,
			ID:         c.identifier(n.ChildByFieldName("name")),
			SuperClass: c.superClass(n),
			Body:       c.classBody(n.ChildByFieldName("body")),
		}
	case "assignment_expression", "augmented_assignment_expression":
		op := "="
		if opNode := n.ChildByFieldName("operator"); opNode != nil {
			op = c.text(opNode)
		}
		return &estree.AssignmentExpression{Loc: loc, Operator: op, Left: c.field(n, "left"), Right: c.field(n, "right")}
	case "binary_expression":
		op := c.text(n.ChildByFieldName("operator"))
		left, right := c.field(n, "left"), c.field(n, "right")
		switch op {
		case "&&", "||", "??":
			return &estree.LogicalExpression{Loc: loc, Operator: op, Left: left, Right: right}
		default:
			return &estree.BinaryExpression{Loc: loc, Operator: op, Left: left, Right: right}
		}
	case "unary_expression":
		return &estree.UnaryExpression{Loc: loc, Operator: c.text(n.ChildByFieldName("operator")), Argument: c.field(n, "argument")}
	case "update_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		return &estree.UpdateExpression{
			Loc:      loc,
			Operator: c.text(op),
			Argument: c.node(arg),
			Prefix:   op != nil && arg != nil && op.StartByte() < arg.StartByte(),
		}
	case "ternary_expression":
		return &estree.ConditionalExpression{
			Loc:        loc,
			Test:       c.field(n, "condition"),
			Consequent: c.field(n, "consequence"),
			Alternate:  c.field(n, "alternative"),
		}
	case "call_expression":
		return c.callExpression(n)
	case "new_expression":
		return &estree.NewExpression{Loc: loc, Callee: c.field(n, "constructor"), Arguments: c.arguments(n.ChildByFieldName("arguments"))}
	case "member_expression":
		return &estree.MemberExpression{Loc: loc, Object: c.field(n, "object"), Property: c.field(n, "property")}
	case "subscript_expression":
		return &estree.MemberExpression{Loc: loc, Object: c.field(n, "object"), Property: c.field(n, "index"), Computed: true}
	case "sequence_expression":
		seq := &estree.SequenceExpression{Loc: loc}
		c.flattenSequence(n, &seq.Expressions)
		return seq
	case "spread_element":
		return &estree.SpreadElement{Loc: loc, Argument: c.firstNamed(n)}
	case "await_expression":
		return &estree.AwaitExpression{Loc: loc, Argument: c.firstNamed(n)}
	case "yield_expression":
		return &estree.YieldExpression{Loc: loc, Argument: c.firstNamed(n), Delegate: hasToken(n, "*")}
	case "parenthesized_expression", "as_expression", "satisfies_expression",
		"non_null_expression", "type_assertion":
		// ESTree has no node for parentheses; TypeScript wrappers are stripped too
		return c.firstNamed(n)

	// Patterns
	case "required_parameter", "optional_parameter":
		return c.parameter(n)
	case "assignment_pattern", "object_assignment_pattern":
		return &estree.AssignmentPattern{Loc: loc, Left: c.field(n, "left"), Right: c.field(n, "right")}
	case "object_pattern":
		pattern := &estree.ObjectPattern{Loc: loc}
		for _, child := range namedChildren(n) {
			pattern.Properties = append(pattern.Properties, c.node(child))
		}
		return pattern
	case "pair_pattern":
		return &estree.Property{Loc: loc, Key: c.propertyKey(n.ChildByFieldName("key")), Value: c.field(n, "value"), PropKind: "init"}
	case "array_pattern":
		pattern := &estree.ArrayPattern{Loc: loc}
		for _, child := range namedChildren(n) {
			pattern.Elements = append(pattern.Elements, c.node(child))
		}
		return pattern
	case "rest_pattern":
		return &estree.RestElement{Loc: loc, Argument: c.firstNamed(n)}
	}

	return &estree.Unknown{Loc: loc, Type: n.Kind()}
}

func (c *converter) block(n *sitter.Node) *estree.BlockStatement {
	block := &estree.BlockStatement{Loc: c.loc(n)}
	for _, child := range namedChildren(n) {
		block.Body = append(block.Body, c.node(child))
	}
	return block
}

func (c *converter) switchStatement(n *sitter.Node) *estree.SwitchStatement {
	stmt := &estree.SwitchStatement{Loc: c.loc(n), Discriminant: c.field(n, "value")}
	if body := n.ChildByFieldName("body"); body != nil {
		for _, child := range namedChildren(body) {
			if child.Kind() == "switch_case" || child.Kind() == "switch_default" {
				stmt.Cases = append(stmt.Cases, c.switchCase(child))
			}
		}
	}
	return stmt
}

// switchCase converts "case x: ..." and "default: ...". Statements follow the colon.
func (c *converter) switchCase(n *sitter.Node) *estree.SwitchCase {
	sc := &estree.SwitchCase{Loc: c.loc(n), Test: c.field(n, "value")}
	afterColon := false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		if !child.IsNamed() {
			if child.Kind() == ":" {
				afterColon = true
			}
			continue
		}
		if afterColon {
			sc.Consequent = append(sc.Consequent, c.node(child))
		}
	}
	return sc
}

func (c *converter) tryStatement(n *sitter.Node) *estree.TryStatement {
	stmt := &estree.TryStatement{Loc: c.loc(n), Block: c.field(n, "body")}
	if handler := n.ChildByFieldName("handler"); handler != nil {
		stmt.Handler = &estree.CatchClause{
			Loc:   c.loc(handler),
			Param: c.field(handler, "parameter"),
			Body:  c.field(handler, "body"),
		}
	}
	if finalizer := n.ChildByFieldName("finalizer"); finalizer != nil {
		stmt.Finalizer = c.field(finalizer, "body")
	}
	return stmt
}

// forClause converts one of the three for(;;) header positions. Depending on the
// grammar version these arrive as statements or bare expressions.
func (c *converter) forClause(n *sitter.Node) estree.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "empty_statement", ";":
		return nil
	case "expression_statement":
		return c.firstNamed(n)
	}
	return c.node(n)
}

func (c *converter) forInStatement(n *sitter.Node) estree.Node {
	loc := c.loc(n)
	left := c.field(n, "left")
	if kind := n.ChildByFieldName("kind"); kind != nil && left != nil {
		// for (const k of xs): wrap the binding the way ESTree does
		left = &estree.VariableDeclaration{
			Loc:          left.Location(),
			DeclKind:     c.text(kind),
			Declarations: []*estree.VariableDeclarator{{Loc: left.Location(), ID: left}},
		}
	}
	right := c.field(n, "right")
	body := c.field(n, "body")

	isOf := false
	if op := n.ChildByFieldName("operator"); op != nil {
		isOf = c.text(op) == "of"
	} else {
		isOf = hasToken(n, "of")
	}

	if isOf {
		return &estree.ForOfStatement{Loc: loc, Left: left, Right: right, Body: body}
	}
	return &estree.ForInStatement{Loc: loc, Left: left, Right: right, Body: body}
}

func (c *converter) variableDeclaration(n *sitter.Node) *estree.VariableDeclaration {
	decl := &estree.VariableDeclaration{Loc: c.loc(n), DeclKind: "var"}
	if kind := n.ChildByFieldName("kind"); kind != nil {
		decl.DeclKind = c.text(kind)
	}
	for _, child := range namedChildren(n) {
		if child.Kind() == "variable_declarator" {
			decl.Declarations = append(decl.Declarations, c.declarator(child))
		}
	}
	return decl
}

func (c *converter) declarator(n *sitter.Node) *estree.VariableDeclarator {
	return &estree.VariableDeclarator{
		Loc:  c.loc(n),
		ID:   c.field(n, "name"),
		Init: c.field(n, "value"),
	}
}

func (c *converter) exportStatement(n *sitter.Node) estree.Node {
	loc := c.loc(n)
	decl := n.ChildByFieldName("declaration")
	if decl == nil {
		decl = n.ChildByFieldName("value")
	}

	if hasToken(n, "default") {
		return &estree.ExportDefaultDeclaration{Loc: loc, Declaration: c.node(decl)}
	}
	return &estree.ExportNamedDeclaration{Loc: loc, Declaration: c.node(decl)}
}

// superClass returns the extends target of a class. The TypeScript grammar nests
// it in an extends_clause, the JavaScript grammar does not.
func (c *converter) superClass(n *sitter.Node) estree.Node {
	heritage := childOfKind(n, "class_heritage")
	if heritage == nil {
		return nil
	}
	if extends := childOfKind(heritage, "extends_clause"); extends != nil {
		if value := extends.ChildByFieldName("value"); value != nil {
			return c.node(value)
		}
		return c.firstNamed(extends)
	}
	return c.firstNamed(heritage)
}

func (c *converter) classBody(n *sitter.Node) *estree.ClassBody {
	if n == nil {
		return nil
	}
	body := &estree.ClassBody{Loc: c.loc(n)}
	for _, member := range namedChildren(n) {
		switch member.Kind() {
		case "method_definition":
			body.Body = append(body.Body, c.methodDefinition(member))
		case "public_field_definition", "field_definition":
			body.Body = append(body.Body, &estree.Unknown{Loc: c.loc(member), Type: "PropertyDefinition"})
		case "class_static_block":
			body.Body = append(body.Body, &estree.Unknown{Loc: c.loc(member), Type: "StaticBlock"})
		}
	}
	return body
}

func (c *converter) methodDefinition(n *sitter.Node) *estree.MethodDefinition {
	nameNode := n.ChildByFieldName("name")
	key, computed := c.propertyKeyComputed(nameNode)

	kind := "method"
	switch {
	case hasToken(n, "get"):
		kind = "get"
	case hasToken(n, "set"):
		kind = "set"
	case nameNode != nil && !computed && c.text(nameNode) == "constructor":
		kind = "constructor"
	}

	return &estree.MethodDefinition{
		Loc:        c.loc(n),
		Key:        key,
		Value:      c.methodFunction(n),
		MethodKind: kind,
		Computed:   computed,
		Static:     hasToken(n, "static"),
	}
}

// methodFunction builds the function value of a method; it spans the whole method.
func (c *converter) methodFunction(n *sitter.Node) *estree.FunctionExpression {
	return &estree.FunctionExpression{
		Loc:       c.loc(n),
		Params:    c.params(n.ChildByFieldName("parameters")),
		Body:      c.field(n, "body"),
		Generator: hasToken(n, "*"),
		Async:     hasToken(n, "async"),
	}
}

func (c *converter) functionExpression(n *sitter.Node) *estree.FunctionExpression {
	return &estree.FunctionExpression{
		Loc:       c.loc(n),
		ID:        c.identifier(n.ChildByFieldName("name")),
		Params:    c.params(n.ChildByFieldName("parameters")),
		Body:      c.field(n, "body"),
		Generator: n.Kind() == "generator_function" || hasToken(n, "*"),
		Async:     hasToken(n, "async"),
	}
}

func (c *converter) arrowFunction(n *sitter.Node) *estree.ArrowFunctionExpression {
	fn := &estree.ArrowFunctionExpression{Loc: c.loc(n), Async: hasToken(n, "async")}
	if param := n.ChildByFieldName("parameter"); param != nil {
		fn.Params = []estree.Node{c.node(param)}
	} else {
		fn.Params = c.params(n.ChildByFieldName("parameters"))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = c.node(body)
		fn.Expression = body.Kind() != "statement_block"
	}
	return fn
}

func (c *converter) params(n *sitter.Node) []estree.Node {
	if n == nil {
		return nil
	}
	var params []estree.Node
	for _, child := range namedChildren(n) {
		params = append(params, c.node(child))
	}
	return params
}

// parameter unwraps a TypeScript parameter node into a plain pattern, with a
// default value turning it into an AssignmentPattern.
func (c *converter) parameter(n *sitter.Node) estree.Node {
	pattern := c.field(n, "pattern")
	if value := n.ChildByFieldName("value"); value != nil {
		return &estree.AssignmentPattern{Loc: c.loc(n), Left: pattern, Right: c.node(value)}
	}
	return pattern
}

func (c *converter) callExpression(n *sitter.Node) estree.Node {
	loc := c.loc(n)
	callee := c.field(n, "function")
	args := n.ChildByFieldName("arguments")
	if args != nil && args.Kind() == "template_string" {
		return &estree.TaggedTemplateExpression{Loc: loc, Tag: callee, Quasi: c.templateLiteral(args)}
	}
	return &estree.CallExpression{Loc: loc, Callee: callee, Arguments: c.arguments(args)}
}

func (c *converter) arguments(n *sitter.Node) []estree.Node {
	if n == nil {
		return nil
	}
	var args []estree.Node
	for _, child := range namedChildren(n) {
		args = append(args, c.node(child))
	}
	return args
}

func (c *converter) flattenSequence(n *sitter.Node, out *[]estree.Node) {
	for _, child := range namedChildren(n) {
		if child.Kind() == "sequence_expression" {
			c.flattenSequence(child, out)
			continue
		}
		*out = append(*out, c.node(child))
	}
}

// array converts an array literal. Tree-sitter drops holes, so they are
// recovered from consecutive commas.
func (c *converter) array(n *sitter.Node) *estree.ArrayExpression {
	arr := &estree.ArrayExpression{Loc: c.loc(n)}
	expectElement := true
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		switch {
		case child.IsNamed():
			arr.Elements = append(arr.Elements, c.node(child))
			expectElement = false
		case child.Kind() == ",":
			if expectElement {
				arr.Elements = append(arr.Elements, nil)
			}
			expectElement = true
		}
	}
	return arr
}

func (c *converter) object(n *sitter.Node) *estree.ObjectExpression {
	obj := &estree.ObjectExpression{Loc: c.loc(n)}
	for _, child := range namedChildren(n) {
		loc := c.loc(child)
		switch child.Kind() {
		case "pair":
			key, computed := c.propertyKeyComputed(child.ChildByFieldName("key"))
			obj.Properties = append(obj.Properties, &estree.Property{
				Loc:      loc,
				Key:      key,
				Value:    c.field(child, "value"),
				PropKind: "init",
				Computed: computed,
			})
		case "method_definition":
			key, computed := c.propertyKeyComputed(child.ChildByFieldName("name"))
			kind := "init"
			if hasToken(child, "get") {
				kind = "get"
			} else if hasToken(child, "set") {
				kind = "set"
			}
			obj.Properties = append(obj.Properties, &estree.Property{
				Loc:      loc,
				Key:      key,
				Value:    c.methodFunction(child),
				PropKind: kind,
				Computed: computed,
				Method:   kind == "init",
			})
		case "shorthand_property_identifier":
			id := c.identifier(child)
			obj.Properties = append(obj.Properties, &estree.Property{
				Loc:       loc,
				Key:       id,
				Value:     c.identifier(child),
				PropKind:  "init",
				Shorthand: true,
			})
		default:
			obj.Properties = append(obj.Properties, c.node(child))
		}
	}
	return obj
}

func (c *converter) propertyKey(n *sitter.Node) estree.Node {
	key, _ := c.propertyKeyComputed(n)
	return key
}

// propertyKeyComputed converts an object or class member key. Computed keys
// ([expr]) return the inner expression and true.
func (c *converter) propertyKeyComputed(n *sitter.Node) (estree.Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.Kind() == "computed_property_name" {
		return c.firstNamed(n), true
	}
	return c.node(n), false
}

func (c *converter) templateLiteral(n *sitter.Node) *estree.TemplateLiteral {
	tpl := &estree.TemplateLiteral{Loc: c.loc(n)}
	for _, child := range namedChildren(n) {
		if child.Kind() == "template_substitution" {
			tpl.Expressions = append(tpl.Expressions, c.firstNamed(child))
		}
	}
	return tpl
}

func (c *converter) literal(n *sitter.Node) *estree.Literal {
	raw := c.text(n)
	lit := &estree.Literal{Loc: c.loc(n), Raw: raw}
	switch n.Kind() {
	case "string":
		if len(raw) >= 2 {
			lit.Value = raw[1 : len(raw)-1]
		}
	case "number":
		if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64); err == nil {
			lit.Value = v
		}
	case "true":
		lit.Value = true
	case "false":
		lit.Value = false
	}
	return lit
}

func (c *converter) identifier(n *sitter.Node) *estree.Identifier {
	if n == nil {
		return nil
	}
	return &estree.Identifier{Loc: c.loc(n), Name: c.text(n)}
}

// field converts the child stored under a grammar field name.
func (c *converter) field(n *sitter.Node, name string) estree.Node {
	child := n.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return c.node(child)
}

// firstNamed converts the first named child that is not a comment.
func (c *converter) firstNamed(n *sitter.Node) estree.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return c.node(children[0])
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(c.source[n.StartByte():n.EndByte()])
}

func (c *converter) loc(n *sitter.Node) estree.Loc {
	return estree.Loc{
		Start: c.start(n),
		End:   c.position(n.EndByte(), n.EndPosition()),
	}
}

func (c *converter) start(n *sitter.Node) estree.Position {
	return c.position(n.StartByte(), n.StartPosition())
}

// position converts a tree-sitter point, whose column counts bytes, into a
// 1-based line and a column in UTF-16 code units, as esprima and acorn report it.
func (c *converter) position(offset uint, point sitter.Point) estree.Position {
	column := int(point.Column)
	if point.Column <= offset && offset <= uint(len(c.source)) {
		column = utf16Len(c.source[offset-point.Column : offset])
	}
	return estree.Position{Line: int(point.Row) + 1, Column: column}
}

// utf16Len counts the UTF-16 code units of UTF-8 text. Characters outside the
// basic multilingual plane take two.
func utf16Len(text []byte) int {
	n := 0
	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		text = text[size:]
		n += utf16.RuneLen(r)
	}
	return n
}

// namedChildren returns the named children of n, skipping comments and other extras.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var children []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.IsExtra() {
			continue
		}
		children = append(children, child)
	}
	return children
}

// hasToken reports whether n has a direct anonymous child with the given text.
func hasToken(n *sitter.Node, token string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

func childOfKind(n *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
