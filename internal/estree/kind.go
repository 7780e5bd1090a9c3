package estree

// Kind identifies an ESTree node type. The set is closed: any type tag not listed
// here decodes to KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota

	// Program and statements
	KindProgram
	KindExpressionStatement
	KindBlockStatement
	KindEmptyStatement
	KindReturnStatement
	KindThrowStatement
	KindIfStatement
	KindWithStatement
	KindSwitchStatement
	KindSwitchCase
	KindTryStatement
	KindCatchClause
	KindWhileStatement
	KindDoWhileStatement
	KindForStatement
	KindForInStatement
	KindForOfStatement
	KindLabeledStatement

	// Declarations
	KindFunctionDeclaration
	KindVariableDeclaration
	KindVariableDeclarator
	KindClassDeclaration
	KindClassBody
	KindMethodDefinition
	KindExportNamedDeclaration
	KindExportDefaultDeclaration

	// Expressions
	KindIdentifier
	KindLiteral
	KindThisExpression
	KindArrayExpression
	KindObjectExpression
	KindProperty
	KindFunctionExpression
	KindArrowFunctionExpression
	KindClassExpression
	KindUnaryExpression
	KindUpdateExpression
	KindBinaryExpression
	KindLogicalExpression
	KindAssignmentExpression
	KindConditionalExpression
	KindCallExpression
	KindNewExpression
	KindMemberExpression
	KindSequenceExpression
	KindSpreadElement
	KindAwaitExpression
	KindYieldExpression
	KindTemplateLiteral
	KindTaggedTemplateExpression

	// Patterns
	KindAssignmentPattern
	KindObjectPattern
	KindArrayPattern
	KindRestElement
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindProgram:                  "Program",
	KindExpressionStatement:      "ExpressionStatement",
	KindBlockStatement:           "BlockStatement",
	KindEmptyStatement:           "EmptyStatement",
	KindReturnStatement:          "ReturnStatement",
	KindThrowStatement:           "ThrowStatement",
	KindIfStatement:              "IfStatement",
	KindWithStatement:            "WithStatement",
	KindSwitchStatement:          "SwitchStatement",
	KindSwitchCase:               "SwitchCase",
	KindTryStatement:             "TryStatement",
	KindCatchClause:              "CatchClause",
	KindWhileStatement:           "WhileStatement",
	KindDoWhileStatement:         "DoWhileStatement",
	KindForStatement:             "ForStatement",
	KindForInStatement:           "ForInStatement",
	KindForOfStatement:           "ForOfStatement",
	KindLabeledStatement:         "LabeledStatement",
	KindFunctionDeclaration:      "FunctionDeclaration",
	KindVariableDeclaration:      "VariableDeclaration",
	KindVariableDeclarator:       "VariableDeclarator",
	KindClassDeclaration:         "ClassDeclaration",
	KindClassBody:                "ClassBody",
	KindMethodDefinition:         "MethodDefinition",
	KindExportNamedDeclaration:   "ExportNamedDeclaration",
	KindExportDefaultDeclaration: "ExportDefaultDeclaration",
	KindIdentifier:               "Identifier",
	KindLiteral:                  "Literal",
	KindThisExpression:           "ThisExpression",
	KindArrayExpression:          "ArrayExpression",
	KindObjectExpression:         "ObjectExpression",
	KindProperty:                 "Property",
	KindFunctionExpression:       "FunctionExpression",
	KindArrowFunctionExpression:  "ArrowFunctionExpression",
	KindClassExpression:          "ClassExpression",
	KindUnaryExpression:          "UnaryExpression",
	KindUpdateExpression:         "UpdateExpression",
	KindBinaryExpression:         "BinaryExpression",
	KindLogicalExpression:        "LogicalExpression",
	KindAssignmentExpression:     "AssignmentExpression",
	KindConditionalExpression:    "ConditionalExpression",
	KindCallExpression:           "CallExpression",
	KindNewExpression:            "NewExpression",
	KindMemberExpression:         "MemberExpression",
	KindSequenceExpression:       "SequenceExpression",
	KindSpreadElement:            "SpreadElement",
	KindAwaitExpression:          "AwaitExpression",
	KindYieldExpression:          "YieldExpression",
	KindTemplateLiteral:          "TemplateLiteral",
	KindTaggedTemplateExpression: "TaggedTemplateExpression",
	KindAssignmentPattern:        "AssignmentPattern",
	KindObjectPattern:            "ObjectPattern",
	KindArrayPattern:             "ArrayPattern",
	KindRestElement:              "RestElement",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if k != KindUnknown {
			m[name] = k
		}
	}
	return m
}()

// String returns the ESTree type tag for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind maps an ESTree type tag ("FunctionDeclaration") to its Kind.
// Unrecognized tags map to KindUnknown.
func ParseKind(typeTag string) Kind {
	if k, ok := kindsByName[typeTag]; ok {
		return k
	}
	return KindUnknown
}
