// Package estree models the subset of the ESTree specification the indexer walks.
//
// Every node type is a concrete struct implementing Node. Consumers dispatch with a
// type switch; node types outside the modeled set are represented by *Unknown so a
// traversal can skip them without losing their siblings.
//
// Reference: https://github.com/estree/estree
package estree

// Position is a point in source text. Line is 1-based, Column is 0-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Loc is the source span of a node, mirroring the ESTree "loc" property.
// A zero Loc means the producer did not record a location.
type Loc struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location returns the span itself; embedding Loc gives every node its Location method.
func (l Loc) Location() Loc { return l }

// IsZero reports whether no location was recorded.
func (l Loc) IsZero() bool { return l.Start.Line == 0 }

// At returns a Loc starting at the given 1-based line and 0-based column.
func At(line, column int) Loc {
	return Loc{Start: Position{Line: line, Column: column}, End: Position{Line: line, Column: column}}
}

// Node is implemented by every ESTree node type.
type Node interface {
	Kind() Kind
	Location() Loc
}

// Program is the root of a module or script.
type Program struct {
	Loc
	Body       []Node
	SourceType string // "script" or "module"
}

// Statements

type ExpressionStatement struct {
	Loc
	Expression Node
}

type BlockStatement struct {
	Loc
	Body []Node
}

type EmptyStatement struct {
	Loc
}

type ReturnStatement struct {
	Loc
	Argument Node
}

type ThrowStatement struct {
	Loc
	Argument Node
}

type IfStatement struct {
	Loc
	Test       Node
	Consequent Node
	Alternate  Node
}

type WithStatement struct {
	Loc
	Object Node
	Body   Node
}

type SwitchStatement struct {
	Loc
	Discriminant Node
	Cases        []*SwitchCase
}

// SwitchCase is a case clause; Test is nil for the default clause.
type SwitchCase struct {
	Loc
	Test       Node
	Consequent []Node
}

type TryStatement struct {
	Loc
	Block     Node
	Handler   *CatchClause
	Finalizer Node
}

type CatchClause struct {
	Loc
	Param Node
	Body  Node
}

type WhileStatement struct {
	Loc
	Test Node
	Body Node
}

type DoWhileStatement struct {
	Loc
	Body Node
	Test Node
}

type ForStatement struct {
	Loc
	Init   Node
	Test   Node
	Update Node
	Body   Node
}

type ForInStatement struct {
	Loc
	Left  Node
	Right Node
	Body  Node
}

type ForOfStatement struct {
	Loc
	Left  Node
	Right Node
	Body  Node
}

type LabeledStatement struct {
	Loc
	Label *Identifier
	Body  Node
}

// Declarations

// FunctionDeclaration is a function statement. ID is nil for the anonymous form
// allowed in "export default function () {}".
type FunctionDeclaration struct {
	Loc
	ID        *Identifier
	Params    []Node
	Body      Node
	Generator bool
	Async     bool
}

type VariableDeclaration struct {
	Loc
	Declarations []*VariableDeclarator
	DeclKind     string // "var", "let" or "const"
}

type VariableDeclarator struct {
	Loc
	ID   Node
	Init Node
}

type ClassDeclaration struct {
	Loc
	ID         *Identifier
	SuperClass Node
	Body       *ClassBody
}

type ClassBody struct {
	Loc
	Body []Node
}

// MethodDefinition is a class member function. MethodKind is "constructor",
// "method", "get" or "set".
type MethodDefinition struct {
	Loc
	Key        Node
	Value      *FunctionExpression
	MethodKind string
	Computed   bool
	Static     bool
}

type ExportNamedDeclaration struct {
	Loc
	Declaration Node
}

type ExportDefaultDeclaration struct {
	Loc
	Declaration Node
}

// Expressions

type Identifier struct {
	Loc
	Name string
}

type Literal struct {
	Loc
	Value any
	Raw   string
}

type ThisExpression struct {
	Loc
}

// ArrayExpression elements may contain nil entries for holes ("[a, , b]").
type ArrayExpression struct {
	Loc
	Elements []Node
}

// ObjectExpression properties are *Property or *SpreadElement nodes.
type ObjectExpression struct {
	Loc
	Properties []Node
}

// Property is an object literal member. PropKind is "init", "get" or "set".
type Property struct {
	Loc
	Key       Node
	Value     Node
	PropKind  string
	Computed  bool
	Method    bool
	Shorthand bool
}

type FunctionExpression struct {
	Loc
	ID        *Identifier
	Params    []Node
	Body      Node
	Generator bool
	Async     bool
}

// ArrowFunctionExpression has either a *BlockStatement body or, when Expression
// is true, an expression body.
type ArrowFunctionExpression struct {
	Loc
	Params     []Node
	Body       Node
	Expression bool
	Async      bool
}

type ClassExpression struct {
	Loc
	ID         *Identifier
	SuperClass Node
	Body       *ClassBody
}

type UnaryExpression struct {
	Loc
	Operator string
	Argument Node
}

type UpdateExpression struct {
	Loc
	Operator string
	Argument Node
	Prefix   bool
}

type BinaryExpression struct {
	Loc
	Operator string
	Left     Node
	Right    Node
}

type LogicalExpression struct {
	Loc
	Operator string
	Left     Node
	Right    Node
}

type AssignmentExpression struct {
	Loc
	Operator string
	Left     Node
	Right    Node
}

type ConditionalExpression struct {
	Loc
	Test       Node
	Consequent Node
	Alternate  Node
}

type CallExpression struct {
	Loc
	Callee    Node
	Arguments []Node
}

type NewExpression struct {
	Loc
	Callee    Node
	Arguments []Node
}

// MemberExpression is "object.property" or, when Computed, "object[property]".
type MemberExpression struct {
	Loc
	Object   Node
	Property Node
	Computed bool
}

type SequenceExpression struct {
	Loc
	Expressions []Node
}

type SpreadElement struct {
	Loc
	Argument Node
}

type AwaitExpression struct {
	Loc
	Argument Node
}

type YieldExpression struct {
	Loc
	Argument Node
	Delegate bool
}

type TemplateLiteral struct {
	Loc
	Expressions []Node
}

type TaggedTemplateExpression struct {
	Loc
	Tag   Node
	Quasi *TemplateLiteral
}

// Patterns

type AssignmentPattern struct {
	Loc
	Left  Node
	Right Node
}

type ObjectPattern struct {
	Loc
	Properties []Node
}

type ArrayPattern struct {
	Loc
	Elements []Node
}

type RestElement struct {
	Loc
	Argument Node
}

// Unknown stands in for any node type outside the modeled set.
type Unknown struct {
	Loc
	Type string
}

func (*Program) Kind() Kind                  { return KindProgram }
func (*ExpressionStatement) Kind() Kind      { return KindExpressionStatement }
func (*BlockStatement) Kind() Kind           { return KindBlockStatement }
func (*EmptyStatement) Kind() Kind           { return KindEmptyStatement }
func (*ReturnStatement) Kind() Kind          { return KindReturnStatement }
func (*ThrowStatement) Kind() Kind           { return KindThrowStatement }
func (*IfStatement) Kind() Kind              { return KindIfStatement }
func (*WithStatement) Kind() Kind            { return KindWithStatement }
func (*SwitchStatement) Kind() Kind          { return KindSwitchStatement }
func (*SwitchCase) Kind() Kind               { return KindSwitchCase }
func (*TryStatement) Kind() Kind             { return KindTryStatement }
func (*CatchClause) Kind() Kind              { return KindCatchClause }
func (*WhileStatement) Kind() Kind           { return KindWhileStatement }
func (*DoWhileStatement) Kind() Kind         { return KindDoWhileStatement }
func (*ForStatement) Kind() Kind             { return KindForStatement }
func (*ForInStatement) Kind() Kind           { return KindForInStatement }
func (*ForOfStatement) Kind() Kind           { return KindForOfStatement }
func (*LabeledStatement) Kind() Kind         { return KindLabeledStatement }
func (*FunctionDeclaration) Kind() Kind      { return KindFunctionDeclaration }
func (*VariableDeclaration) Kind() Kind      { return KindVariableDeclaration }
func (*VariableDeclarator) Kind() Kind       { return KindVariableDeclarator }
func (*ClassDeclaration) Kind() Kind         { return KindClassDeclaration }
func (*ClassBody) Kind() Kind                { return KindClassBody }
func (*MethodDefinition) Kind() Kind         { return KindMethodDefinition }
func (*ExportNamedDeclaration) Kind() Kind   { return KindExportNamedDeclaration }
func (*ExportDefaultDeclaration) Kind() Kind { return KindExportDefaultDeclaration }
func (*Identifier) Kind() Kind               { return KindIdentifier }
func (*Literal) Kind() Kind                  { return KindLiteral }
func (*ThisExpression) Kind() Kind           { return KindThisExpression }
func (*ArrayExpression) Kind() Kind          { return KindArrayExpression }
func (*ObjectExpression) Kind() Kind         { return KindObjectExpression }
func (*Property) Kind() Kind                 { return KindProperty }
func (*FunctionExpression) Kind() Kind       { return KindFunctionExpression }
func (*ArrowFunctionExpression) Kind() Kind  { return KindArrowFunctionExpression }
func (*ClassExpression) Kind() Kind          { return KindClassExpression }
func (*UnaryExpression) Kind() Kind          { return KindUnaryExpression }
func (*UpdateExpression) Kind() Kind         { return KindUpdateExpression }
func (*BinaryExpression) Kind() Kind         { return KindBinaryExpression }
func (*LogicalExpression) Kind() Kind        { return KindLogicalExpression }
func (*AssignmentExpression) Kind() Kind     { return KindAssignmentExpression }
func (*ConditionalExpression) Kind() Kind    { return KindConditionalExpression }
func (*CallExpression) Kind() Kind           { return KindCallExpression }
func (*NewExpression) Kind() Kind            { return KindNewExpression }
func (*MemberExpression) Kind() Kind         { return KindMemberExpression }
func (*SequenceExpression) Kind() Kind       { return KindSequenceExpression }
func (*SpreadElement) Kind() Kind            { return KindSpreadElement }
func (*AwaitExpression) Kind() Kind          { return KindAwaitExpression }
func (*YieldExpression) Kind() Kind          { return KindYieldExpression }
func (*TemplateLiteral) Kind() Kind          { return KindTemplateLiteral }
func (*TaggedTemplateExpression) Kind() Kind { return KindTaggedTemplateExpression }
func (*AssignmentPattern) Kind() Kind        { return KindAssignmentPattern }
func (*ObjectPattern) Kind() Kind            { return KindObjectPattern }
func (*ArrayPattern) Kind() Kind             { return KindArrayPattern }
func (*RestElement) Kind() Kind              { return KindRestElement }
func (*Unknown) Kind() Kind                  { return KindUnknown }

// IsFunction reports whether n is a function literal: a FunctionExpression or an
// ArrowFunctionExpression.
func IsFunction(n Node) bool {
	switch n.(type) {
	case *FunctionExpression, *ArrowFunctionExpression:
		return true
	default:
		return false
	}
}

// FunctionParts returns the parameters and body of a function literal or
// declaration, and false for any other node.
func FunctionParts(n Node) (params []Node, body Node, ok bool) {
	switch f := n.(type) {
	case *FunctionDeclaration:
		return f.Params, f.Body, true
	case *FunctionExpression:
		return f.Params, f.Body, true
	case *ArrowFunctionExpression:
		return f.Params, f.Body, true
	default:
		return nil, nil, false
	}
}
