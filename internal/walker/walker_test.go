package walker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/triumph-js/internal/estree"
)

// Test Plan for Walker:
// - Trees without function-like constructs emit nothing
// - Top-level function declarations emit key, signature and name-token position
// - Object literals in declarators qualify keys; elsewhere keys are bare
// - Member and this-assignments of function literals
// - Sibling object literals never share their object name
// - Array elements, nested object values and call arguments clear the object name
// - define([], function (item) {...}) callbacks and IIFEs are walked
// - try/catch, if/else, switch and loops are transparent and ordered
// - Leading block comments attach only when they end on the line above
// - With several adjacent block comments the first in the list wins
// - Class methods qualify with the class name, constructors are skipped
// - The file context is stamped on every resource
// - Walking twice yields identical sequences
// - A sink error stops the walk and is returned
// - Unknown nodes are skipped without losing siblings

func ident(name string, line, col int) *estree.Identifier {
	return &estree.Identifier{Loc: estree.At(line, col), Name: name}
}

func block(stmts ...estree.Node) *estree.BlockStatement {
	return &estree.BlockStatement{Body: stmts}
}

func fnExpr(body *estree.BlockStatement, params ...estree.Node) *estree.FunctionExpression {
	if body == nil {
		body = block()
	}
	return &estree.FunctionExpression{Params: params, Body: body}
}

func fnDecl(id *estree.Identifier, body *estree.BlockStatement, params ...estree.Node) *estree.FunctionDeclaration {
	if body == nil {
		body = block()
	}
	return &estree.FunctionDeclaration{ID: id, Params: params, Body: body}
}

func prop(key *estree.Identifier, value estree.Node) *estree.Property {
	return &estree.Property{Key: key, Value: value, PropKind: "init"}
}

func object(props ...estree.Node) *estree.ObjectExpression {
	return &estree.ObjectExpression{Properties: props}
}

func varDecl(name string, init estree.Node) *estree.VariableDeclaration {
	return &estree.VariableDeclaration{
		DeclKind: "var",
		Declarations: []*estree.VariableDeclarator{
			{ID: ident(name, 1, 4), Init: init},
		},
	}
}

func exprStmt(e estree.Node) *estree.ExpressionStatement {
	return &estree.ExpressionStatement{Expression: e}
}

func assign(left, right estree.Node) *estree.AssignmentExpression {
	return &estree.AssignmentExpression{Operator: "=", Left: left, Right: right}
}

func member(object estree.Node, property *estree.Identifier) *estree.MemberExpression {
	return &estree.MemberExpression{Object: object, Property: property}
}

func program(body ...estree.Node) *estree.Program {
	return &estree.Program{Body: body, SourceType: "script"}
}

func walkKeys(t *testing.T, root estree.Node) []string {
	t.Helper()
	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(root))
	return c.Keys()
}

func TestWalk_NoFunctions(t *testing.T) {
	t.Parallel()

	root := program(
		varDecl("a", &estree.Literal{Value: 1.0, Raw: "1"}),
		varDecl("config", object(prop(ident("debug", 2, 2), &estree.Literal{Value: true, Raw: "true"}))),
		exprStmt(&estree.CallExpression{Callee: ident("init", 3, 0), Arguments: []estree.Node{ident("config", 3, 5)}}),
		&estree.EmptyStatement{},
	)

	var calls int
	sink := SinkFunc(func(Resource) error {
		calls++
		return nil
	})
	require.NoError(t, New(sink, FileContext{}, nil).Walk(root))
	assert.Zero(t, calls)
}

func TestWalk_FunctionDeclaration(t *testing.T) {
	t.Parallel()

	root := program(fnDecl(ident("extractName", 2, 4), nil,
		ident("fullName", 2, 16),
		ident("separators", 2, 26),
	))

	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(root))
	require.Len(t, c.Resources, 1)

	r := c.Resources[0]
	assert.Equal(t, "extractName", r.Key)
	assert.Equal(t, "extractName", r.Identifier)
	assert.Equal(t, "function extractName(fullName, separators)", r.Signature)
	assert.Equal(t, 2, r.LineNumber)
	assert.Equal(t, 4, r.ColumnPosition)
	assert.Empty(t, r.Comment)
}

func TestWalk_SignatureSkipsPatterns(t *testing.T) {
	t.Parallel()

	root := program(fnDecl(ident("load", 1, 9), nil,
		ident("url", 1, 14),
		&estree.ObjectPattern{},
		&estree.AssignmentPattern{Left: ident("retries", 1, 25), Right: &estree.Literal{Value: 3.0, Raw: "3"}},
		ident("done", 1, 38),
		&estree.RestElement{Argument: ident("rest", 1, 47)},
	))

	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(root))
	require.Len(t, c.Resources, 1)
	assert.Equal(t, "function load(url, done)", c.Resources[0].Signature)
}

func TestWalk_PositionFallsBackToNode(t *testing.T) {
	t.Parallel()

	fn := fnDecl(&estree.Identifier{Name: "noLoc"}, nil)
	fn.Loc = estree.At(7, 2)

	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(program(fn)))
	require.Len(t, c.Resources, 1)
	assert.Equal(t, 7, c.Resources[0].LineNumber)
	assert.Equal(t, 2, c.Resources[0].ColumnPosition)
}

func TestWalk_ObjectLiteralDeclarator(t *testing.T) {
	t.Parallel()

	root := program(varDecl("Utils", object(
		prop(ident("extractName", 2, 4), fnExpr(nil, ident("fullName", 2, 27))),
	)))

	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(root))
	require.Len(t, c.Resources, 1)

	r := c.Resources[0]
	assert.Equal(t, "Utils.extractName", r.Key)
	assert.Equal(t, "extractName", r.Identifier)
	assert.Equal(t, "function extractName(fullName)", r.Signature)
	assert.Equal(t, 2, r.LineNumber)
	assert.Equal(t, 4, r.ColumnPosition)
}

func TestWalk_ObjectNameResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		root estree.Node
		want []string
	}{
		{
			name: "module.exports object is bare",
			root: program(exprStmt(assign(
				member(ident("module", 1, 0), ident("exports", 1, 7)),
				object(prop(ident("parse", 2, 2), fnExpr(nil))),
			))),
			want: []string{"parse"},
		},
		{
			name: "jQuery.extend argument is bare",
			root: program(exprStmt(&estree.CallExpression{
				Callee:    member(ident("jQuery", 1, 0), ident("extend", 1, 7)),
				Arguments: []estree.Node{object(prop(ident("trim", 2, 2), fnExpr(nil)))},
			})),
			want: []string{"trim"},
		},
		{
			name: "array elements drop the declarator name",
			root: program(varDecl("items", &estree.ArrayExpression{Elements: []estree.Node{
				object(prop(ident("render", 2, 4), fnExpr(nil))),
				nil,
			}})),
			want: []string{"render"},
		},
		{
			name: "nested object values drop the declarator name",
			root: program(varDecl("App", object(
				prop(ident("views", 2, 2), object(prop(ident("show", 3, 4), fnExpr(nil)))),
				prop(ident("start", 5, 2), fnExpr(nil)),
			))),
			want: []string{"show", "App.start"},
		},
		{
			name: "logical initializer keeps the declarator name",
			root: program(varDecl("NS", &estree.LogicalExpression{
				Operator: "||",
				Left:     ident("NS", 1, 9),
				Right:    object(prop(ident("init", 2, 2), fnExpr(nil))),
			})),
			want: []string{"NS.init"},
		},
		{
			name: "conditional initializer keeps the declarator name",
			root: program(varDecl("api", &estree.ConditionalExpression{
				Test:       ident("legacy", 1, 10),
				Consequent: object(prop(ident("get", 2, 2), fnExpr(nil))),
				Alternate:  object(prop(ident("fetch", 4, 2), fnExpr(nil))),
			})),
			want: []string{"api.get", "api.fetch"},
		},
		{
			name: "arrow function property",
			root: program(varDecl("math", object(
				prop(ident("double", 2, 2), &estree.ArrowFunctionExpression{Params: []estree.Node{ident("x", 2, 11)}, Body: ident("x", 2, 17), Expression: true}),
			))),
			want: []string{"math.double"},
		},
		{
			name: "non-function and computed properties are skipped",
			root: program(varDecl("o", object(
				prop(ident("size", 2, 2), &estree.Literal{Value: 3.0, Raw: "3"}),
				&estree.Property{Key: ident("dyn", 3, 3), Value: fnExpr(nil), Computed: true},
				&estree.SpreadElement{Argument: ident("base", 4, 5)},
			))),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, keysOrNil(walkKeys(t, tt.root)))
		})
	}
}

func keysOrNil(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	return keys
}

func TestWalk_SiblingObjectsDoNotShareContext(t *testing.T) {
	t.Parallel()

	root := program(
		varDecl("A", object(prop(ident("one", 2, 2), fnExpr(nil)))),
		exprStmt(assign(ident("x", 4, 0), object(prop(ident("two", 5, 2), fnExpr(nil))))),
		&estree.VariableDeclaration{
			DeclKind: "var",
			Declarations: []*estree.VariableDeclarator{
				{ID: ident("B", 7, 4), Init: object(prop(ident("three", 8, 2), fnExpr(nil)))},
				{ID: ident("other", 9, 4), Init: &estree.CallExpression{
					Callee:    ident("make", 9, 12),
					Arguments: []estree.Node{object(prop(ident("four", 10, 2), fnExpr(nil)))},
				}},
			},
		},
	)

	assert.Equal(t, []string{"A.one", "two", "B.three", "four"}, walkKeys(t, root))
}

func TestWalk_FunctionBodiesClearContext(t *testing.T) {
	t.Parallel()

	inner := fnDecl(ident("helper", 3, 13), nil)
	root := program(varDecl("Outer", object(
		prop(ident("method", 2, 2), fnExpr(block(
			inner,
			exprStmt(assign(ident("cfg", 4, 4), object(prop(ident("cb", 4, 12), fnExpr(nil))))),
		))),
	)))

	assert.Equal(t, []string{"Outer.method", "helper", "cb"}, walkKeys(t, root))
}

func TestWalk_MemberAssignments(t *testing.T) {
	t.Parallel()

	root := program(
		exprStmt(assign(member(ident("StringUtils", 1, 0), ident("pad", 1, 12)), fnExpr(nil, ident("s", 1, 27)))),
		exprStmt(assign(member(&estree.ThisExpression{}, ident("render", 2, 5)), fnExpr(nil))),
		exprStmt(assign(member(member(ident("a", 3, 0), ident("b", 3, 2)), ident("c", 3, 4)), fnExpr(nil))),
		exprStmt(assign(&estree.MemberExpression{Object: ident("obj", 4, 0), Property: ident("k", 4, 4), Computed: true}, fnExpr(nil))),
		exprStmt(assign(member(ident("obj", 5, 0), ident("value", 5, 4)), &estree.Literal{Value: 1.0, Raw: "1"})),
	)

	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(root))
	assert.Equal(t, []string{"StringUtils.pad", "render"}, c.Keys())

	pad := c.Resources[0]
	assert.Equal(t, "pad", pad.Identifier)
	assert.Equal(t, "function pad(s)", pad.Signature)
	assert.Equal(t, 1, pad.LineNumber)
	assert.Equal(t, 12, pad.ColumnPosition)

	assert.Equal(t, "render", c.Resources[1].Identifier)
}

func TestWalk_DefineCallback(t *testing.T) {
	t.Parallel()

	// define([], function (item) { item.format = function (v) {}; })
	root := program(exprStmt(&estree.CallExpression{
		Callee: ident("define", 1, 0),
		Arguments: []estree.Node{
			&estree.ArrayExpression{},
			fnExpr(block(
				exprStmt(assign(member(ident("item", 2, 2), ident("format", 2, 7)), fnExpr(nil, ident("v", 2, 26)))),
			), ident("item", 1, 21)),
		},
	}))

	assert.Equal(t, []string{"item.format"}, walkKeys(t, root))
}

func TestWalk_ImmediatelyInvokedFunction(t *testing.T) {
	t.Parallel()

	// (function () { function hidden() {} })();
	root := program(exprStmt(&estree.CallExpression{
		Callee: fnExpr(block(fnDecl(ident("hidden", 2, 11), nil))),
	}))

	assert.Equal(t, []string{"hidden"}, walkKeys(t, root))
}

func TestWalk_TryCatch(t *testing.T) {
	t.Parallel()

	root := program(&estree.TryStatement{
		Block: block(fnDecl(ident("f", 1, 15), nil)),
		Handler: &estree.CatchClause{
			Param: ident("e", 1, 30),
			Body:  block(fnDecl(ident("g", 1, 44), nil)),
		},
	})

	var c Collector
	require.NoError(t, New(&c, FileContext{}, nil).Walk(root))
	require.Len(t, c.Resources, 2)
	assert.Equal(t, "f", c.Resources[0].Key)
	assert.Equal(t, "g", c.Resources[1].Key)
}

func TestWalk_IfElseBothBranches(t *testing.T) {
	t.Parallel()

	root := program(&estree.IfStatement{
		Test:       &estree.Literal{Value: false, Raw: "false"},
		Consequent: block(fnDecl(ident("whenTrue", 2, 11), nil)),
		Alternate:  block(fnDecl(ident("whenFalse", 4, 11), nil)),
	})
	assert.Equal(t, []string{"whenTrue", "whenFalse"}, walkKeys(t, root))

	onlyElse := program(&estree.IfStatement{
		Test:       ident("cond", 1, 4),
		Consequent: &estree.EmptyStatement{},
		Alternate:  fnDecl(ident("fallback", 2, 13), nil),
	})
	assert.Equal(t, []string{"fallback"}, walkKeys(t, onlyElse))
}

func TestWalk_TransparentStatements(t *testing.T) {
	t.Parallel()

	root := program(
		&estree.SwitchStatement{
			Discriminant: ident("mode", 1, 8),
			Cases: []*estree.SwitchCase{
				{Test: &estree.Literal{Value: "a", Raw: "'a'"}, Consequent: []estree.Node{fnDecl(ident("caseA", 2, 20), nil)}},
				nil,
				{Consequent: []estree.Node{fnDecl(ident("caseDefault", 3, 20), nil)}},
			},
		},
		&estree.ForStatement{Body: block(fnDecl(ident("inFor", 5, 11), nil))},
		&estree.ForInStatement{Left: ident("k", 6, 5), Right: ident("o", 6, 10), Body: fnDecl(ident("inForIn", 6, 22), nil)},
		&estree.WhileStatement{Test: ident("x", 7, 7), Body: block(fnDecl(ident("inWhile", 7, 20), nil))},
		&estree.DoWhileStatement{Body: block(fnDecl(ident("inDo", 8, 14), nil)), Test: ident("x", 8, 30)},
		&estree.LabeledStatement{Label: ident("outer", 9, 0), Body: block(fnDecl(ident("labeled", 9, 17), nil))},
		&estree.WithStatement{Object: ident("scope", 10, 6), Body: block(fnDecl(ident("inWith", 10, 22), nil))},
		&estree.ReturnStatement{Argument: fnExpr(block(fnDecl(ident("returned", 11, 28), nil)))},
	)

	assert.Equal(t, []string{
		"caseA", "caseDefault", "inFor", "inForIn", "inWhile", "inDo", "labeled", "inWith", "returned",
	}, walkKeys(t, root))
}

func TestWalk_Comments(t *testing.T) {
	t.Parallel()

	comments := []estree.Comment{
		{Type: estree.CommentBlock, Value: "* far away ", Loc: estree.Loc{Start: estree.Position{Line: 1}, End: estree.Position{Line: 1, Column: 15}}},
		{Type: estree.CommentLine, Value: " line comment", Loc: estree.At(6, 0)},
		{Type: estree.CommentBlock, Value: "*\n * Adds numbers.\n ", Loc: estree.Loc{Start: estree.Position{Line: 8}, End: estree.Position{Line: 10, Column: 3}}},
	}

	root := program(
		fnDecl(ident("distant", 3, 9), nil),
		fnDecl(ident("lineCommented", 7, 9), nil),
		fnDecl(ident("add", 11, 9), nil, ident("a", 11, 13), ident("b", 11, 16)),
	)

	var c Collector
	require.NoError(t, New(&c, FileContext{}, comments).Walk(root))
	require.Len(t, c.Resources, 3)

	assert.Empty(t, c.Resources[0].Comment, "comment ending two lines above must not attach")
	assert.Empty(t, c.Resources[1].Comment, "line comments never attach")
	assert.Equal(t, "*\n * Adds numbers.\n ", c.Resources[2].Comment)
}

func TestWalk_FirstAdjacentCommentWins(t *testing.T) {
	t.Parallel()

	above := estree.Comment{Type: estree.CommentBlock, Value: " above ", Loc: estree.At(4, 0)}
	inline := estree.Comment{Type: estree.CommentBlock, Value: " inline ", Loc: estree.At(5, 0)}

	tests := []struct {
		name     string
		comments []estree.Comment
		want     string
	}{
		{"line above listed first", []estree.Comment{above, inline}, " above "},
		{"same line listed first", []estree.Comment{inline, above}, " inline "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var c Collector
			require.NoError(t, New(&c, FileContext{}, tt.comments).Walk(program(fnDecl(ident("both", 5, 22), nil))))
			require.Len(t, c.Resources, 1)
			assert.Equal(t, tt.want, c.Resources[0].Comment)
		})
	}
}

func TestWalk_SameLineComment(t *testing.T) {
	t.Parallel()

	comments := []estree.Comment{
		{Type: estree.CommentBlock, Value: " inline ", Loc: estree.At(4, 0)},
	}

	var c Collector
	require.NoError(t, New(&c, FileContext{}, comments).Walk(program(fnDecl(ident("tagged", 4, 22), nil))))
	require.Len(t, c.Resources, 1)
	assert.Equal(t, " inline ", c.Resources[0].Comment)
}

func TestWalk_Classes(t *testing.T) {
	t.Parallel()

	method := func(name string, line int, kind string, body *estree.BlockStatement) *estree.MethodDefinition {
		return &estree.MethodDefinition{Key: ident(name, line, 2), Value: fnExpr(body), MethodKind: kind}
	}

	root := program(
		&estree.ClassDeclaration{
			ID: ident("Parser", 1, 6),
			Body: &estree.ClassBody{Body: []estree.Node{
				method("constructor", 2, "constructor", block(
					exprStmt(assign(member(&estree.ThisExpression{}, ident("onToken", 3, 9)), fnExpr(nil))),
				)),
				method("parse", 5, "method", nil),
				method("size", 6, "get", nil),
				&estree.Unknown{Type: "PropertyDefinition"},
			}},
		},
		varDecl("Anon", &estree.ClassExpression{
			Body: &estree.ClassBody{Body: []estree.Node{method("run", 9, "method", nil)}},
		}),
	)

	assert.Equal(t, []string{"onToken", "Parser.parse", "Parser.size", "run"}, walkKeys(t, root))
}

func TestWalk_ExportsPassThrough(t *testing.T) {
	t.Parallel()

	root := &estree.Program{SourceType: "module", Body: []estree.Node{
		&estree.ExportNamedDeclaration{Declaration: fnDecl(ident("exported", 1, 16), nil)},
		&estree.ExportDefaultDeclaration{Declaration: fnDecl(nil, block(fnDecl(ident("inner", 2, 11), nil)))},
	}}

	assert.Equal(t, []string{"exported", "inner"}, walkKeys(t, root))
}

func TestWalk_FileContext(t *testing.T) {
	t.Parallel()

	file := FileContext{FileItemID: 42, SourceID: 7}
	root := program(
		fnDecl(ident("a", 1, 9), nil),
		varDecl("B", object(prop(ident("c", 2, 2), fnExpr(nil)))),
	)

	var c Collector
	require.NoError(t, New(&c, file, nil).Walk(root))
	require.Len(t, c.Resources, 2)
	for _, r := range c.Resources {
		assert.Equal(t, int64(42), r.FileItemID)
		assert.Equal(t, int64(7), r.SourceID)
	}
}

func TestWalk_Idempotent(t *testing.T) {
	t.Parallel()

	root := program(
		fnDecl(ident("a", 1, 9), nil, ident("x", 1, 11)),
		varDecl("B", object(prop(ident("c", 2, 2), fnExpr(nil)))),
		exprStmt(assign(member(&estree.ThisExpression{}, ident("d", 3, 5)), fnExpr(nil))),
	)
	file := FileContext{FileItemID: 1, SourceID: 1}

	var first, second Collector
	w := New(&first, file, nil)
	require.NoError(t, w.Walk(root))
	require.NoError(t, New(&second, file, nil).Walk(root))

	assert.Equal(t, first.Resources, second.Resources)
	assert.Len(t, first.Resources, 3)
}

func TestWalk_SinkErrorStopsWalk(t *testing.T) {
	t.Parallel()

	errFull := errors.New("sink full")
	var seen []string
	sink := SinkFunc(func(r Resource) error {
		seen = append(seen, r.Key)
		if r.Key == "second" {
			return errFull
		}
		return nil
	})

	root := program(
		fnDecl(ident("first", 1, 9), nil),
		fnDecl(ident("second", 2, 9), nil),
		fnDecl(ident("third", 3, 9), nil),
	)

	err := New(sink, FileContext{}, nil).Walk(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, errFull)
	assert.Contains(t, err.Error(), "second")
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestWalk_UnknownNodesSkipped(t *testing.T) {
	t.Parallel()

	root := program(
		&estree.Unknown{Type: "DebuggerStatement"},
		fnDecl(ident("afterUnknown", 2, 9), nil),
		exprStmt(&estree.Unknown{Type: "JSXElement"}),
		nil,
		fnDecl(nil, nil),
	)

	assert.Equal(t, []string{"afterUnknown"}, walkKeys(t, root))
}
