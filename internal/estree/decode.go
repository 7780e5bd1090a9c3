package estree

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidTree indicates that the input is not an ESTree Program in JSON form.
var ErrInvalidTree = errors.New("invalid ESTree input")

// Decode reads an ESTree JSON document, as produced by esprima or acorn with
// location tracking enabled, and returns the Program plus its top-level
// "comments" array (empty when the producer did not attach comments).
//
// Nodes with unrecognized type tags decode to *Unknown. Missing locations decode
// to a zero Loc.
func Decode(data []byte) (*Program, []Comment, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}

	if tag := typeTag(raw); tag != "Program" {
		return nil, nil, fmt.Errorf("%w: root node type is %q, want Program", ErrInvalidTree, tag)
	}

	program, _ := decodeNode(raw).(*Program)
	return program, decodeComments(raw["comments"]), nil
}

func typeTag(m map[string]any) string {
	s, _ := m["type"].(string)
	return s
}

func decodeNode(v any) Node {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	loc := decodeLoc(m["loc"])

	switch ParseKind(typeTag(m)) {
	case KindProgram:
		return &Program{Loc: loc, Body: decodeNodes(m["body"]), SourceType: str(m["sourceType"])}
	case KindExpressionStatement:
		return &ExpressionStatement{Loc: loc, Expression: decodeNode(m["expression"])}
	case KindBlockStatement:
		return &BlockStatement{Loc: loc, Body: decodeNodes(m["body"])}
	case KindEmptyStatement:
		return &EmptyStatement{Loc: loc}
	case KindReturnStatement:
		return &ReturnStatement{Loc: loc, Argument: decodeNode(m["argument"])}
	case KindThrowStatement:
		return &ThrowStatement{Loc: loc, Argument: decodeNode(m["argument"])}
	case KindIfStatement:
		return &IfStatement{
			Loc:        loc,
			Test:       decodeNode(m["test"]),
			Consequent: decodeNode(m["consequent"]),
			Alternate:  decodeNode(m["alternate"]),
		}
	case KindWithStatement:
		return &WithStatement{Loc: loc, Object: decodeNode(m["object"]), Body: decodeNode(m["body"])}
	case KindSwitchStatement:
		s := &SwitchStatement{Loc: loc, Discriminant: decodeNode(m["discriminant"])}
		for _, c := range decodeNodes(m["cases"]) {
			if sc, ok := c.(*SwitchCase); ok {
				s.Cases = append(s.Cases, sc)
			}
		}
		return s
	case KindSwitchCase:
		return &SwitchCase{Loc: loc, Test: decodeNode(m["test"]), Consequent: decodeNodes(m["consequent"])}
	case KindTryStatement:
		t := &TryStatement{Loc: loc, Block: decodeNode(m["block"]), Finalizer: decodeNode(m["finalizer"])}
		t.Handler, _ = decodeNode(m["handler"]).(*CatchClause)
		if t.Handler == nil {
			// esprima 1.x reported catch clauses in a "handlers" array
			for _, h := range decodeNodes(m["handlers"]) {
				if cc, ok := h.(*CatchClause); ok {
					t.Handler = cc
					break
				}
			}
		}
		return t
	case KindCatchClause:
		return &CatchClause{Loc: loc, Param: decodeNode(m["param"]), Body: decodeNode(m["body"])}
	case KindWhileStatement:
		return &WhileStatement{Loc: loc, Test: decodeNode(m["test"]), Body: decodeNode(m["body"])}
	case KindDoWhileStatement:
		return &DoWhileStatement{Loc: loc, Body: decodeNode(m["body"]), Test: decodeNode(m["test"])}
	case KindForStatement:
		return &ForStatement{
			Loc:    loc,
			Init:   decodeNode(m["init"]),
			Test:   decodeNode(m["test"]),
			Update: decodeNode(m["update"]),
			Body:   decodeNode(m["body"]),
		}
	case KindForInStatement:
		return &ForInStatement{Loc: loc, Left: decodeNode(m["left"]), Right: decodeNode(m["right"]), Body: decodeNode(m["body"])}
	case KindForOfStatement:
		return &ForOfStatement{Loc: loc, Left: decodeNode(m["left"]), Right: decodeNode(m["right"]), Body: decodeNode(m["body"])}
	case KindLabeledStatement:
		return &LabeledStatement{Loc: loc, Label: decodeIdentifier(m["label"]), Body: decodeNode(m["body"])}

	case KindFunctionDeclaration:
		return &FunctionDeclaration{
			Loc:       loc,
			ID:        decodeIdentifier(m["id"]),
			Params:    decodeNodes(m["params"]),
			Body:      decodeNode(m["body"]),
			Generator: boolean(m["generator"]),
			Async:     boolean(m["async"]),
		}
	case KindVariableDeclaration:
		d := &VariableDeclaration{Loc: loc, DeclKind: str(m["kind"])}
		for _, n := range decodeNodes(m["declarations"]) {
			if vd, ok := n.(*VariableDeclarator); ok {
				d.Declarations = append(d.Declarations, vd)
			}
		}
		return d
	case KindVariableDeclarator:
		return &VariableDeclarator{Loc: loc, ID: decodeNode(m["id"]), Init: decodeNode(m["init"])}
	case KindClassDeclaration:
		return &ClassDeclaration{
			Loc:        loc,
			ID:         decodeIdentifier(m["id"]),
			SuperClass: decodeNode(m["superClass"]),
			Body:       decodeClassBody(m["body"]),
		}
	case KindClassBody:
		return &ClassBody{Loc: loc, Body: decodeNodes(m["body"])}
	case KindMethodDefinition:
		md := &MethodDefinition{
			Loc:        loc,
			Key:        decodeNode(m["key"]),
			MethodKind: str(m["kind"]),
			Computed:   boolean(m["computed"]),
			Static:     boolean(m["static"]),
		}
		md.Value, _ = decodeNode(m["value"]).(*FunctionExpression)
		return md
	case KindExportNamedDeclaration:
		return &ExportNamedDeclaration{Loc: loc, Declaration: decodeNode(m["declaration"])}
	case KindExportDefaultDeclaration:
		return &ExportDefaultDeclaration{Loc: loc, Declaration: decodeNode(m["declaration"])}

	case KindIdentifier:
		return &Identifier{Loc: loc, Name: str(m["name"])}
	case KindLiteral:
		return &Literal{Loc: loc, Value: m["value"], Raw: str(m["raw"])}
	case KindThisExpression:
		return &ThisExpression{Loc: loc}
	case KindArrayExpression:
		return &ArrayExpression{Loc: loc, Elements: decodeNodes(m["elements"])}
	case KindObjectExpression:
		return &ObjectExpression{Loc: loc, Properties: decodeNodes(m["properties"])}
	case KindProperty:
		return &Property{
			Loc:       loc,
			Key:       decodeNode(m["key"]),
			Value:     decodeNode(m["value"]),
			PropKind:  str(m["kind"]),
			Computed:  boolean(m["computed"]),
			Method:    boolean(m["method"]),
			Shorthand: boolean(m["shorthand"]),
		}
	case KindFunctionExpression:
		return &FunctionExpression{
			Loc:       loc,
			ID:        decodeIdentifier(m["id"]),
			Params:    decodeNodes(m["params"]),
			Body:      decodeNode(m["body"]),
			Generator: boolean(m["generator"]),
			Async:     boolean(m["async"]),
		}
	case KindArrowFunctionExpression:
		return &ArrowFunctionExpression{
			Loc:        loc,
			Params:     decodeNodes(m["params"]),
			Body:       decodeNode(m["body"]),
			Expression: boolean(m["expression"]),
			Async:      boolean(m["async"]),
		}
	case KindClassExpression:
		return &ClassExpression{
			Loc:        loc,
			ID:         decodeIdentifier(m["id"]),
			SuperClass: decodeNode(m["superClass"]),
			Body:       decodeClassBody(m["body"]),
		}
	case KindUnaryExpression:
		return &UnaryExpression{Loc: loc, Operator: str(m["operator"]), Argument: decodeNode(m["argument"])}
	case KindUpdateExpression:
		return &UpdateExpression{Loc: loc, Operator: str(m["operator"]), Argument: decodeNode(m["argument"]), Prefix: boolean(m["prefix"])}
	case KindBinaryExpression:
		return &BinaryExpression{Loc: loc, Operator: str(m["operator"]), Left: decodeNode(m["left"]), Right: decodeNode(m["right"])}
	case KindLogicalExpression:
		return &LogicalExpression{Loc: loc, Operator: str(m["operator"]), Left: decodeNode(m["left"]), Right: decodeNode(m["right"])}
	case KindAssignmentExpression:
		return &AssignmentExpression{Loc: loc, Operator: str(m["operator"]), Left: decodeNode(m["left"]), Right: decodeNode(m["right"])}
	case KindConditionalExpression:
		return &ConditionalExpression{
			Loc:        loc,
			Test:       decodeNode(m["test"]),
			Consequent: decodeNode(m["consequent"]),
			Alternate:  decodeNode(m["alternate"]),
		}
	case KindCallExpression:
		return &CallExpression{Loc: loc, Callee: decodeNode(m["callee"]), Arguments: decodeNodes(m["arguments"])}
	case KindNewExpression:
		return &NewExpression{Loc: loc, Callee: decodeNode(m["callee"]), Arguments: decodeNodes(m["arguments"])}
	case KindMemberExpression:
		return &MemberExpression{
			Loc:      loc,
			Object:   decodeNode(m["object"]),
			Property: decodeNode(m["property"]),
			Computed: boolean(m["computed"]),
		}
	case KindSequenceExpression:
		return &SequenceExpression{Loc: loc, Expressions: decodeNodes(m["expressions"])}
	case KindSpreadElement:
		return &SpreadElement{Loc: loc, Argument: decodeNode(m["argument"])}
	case KindAwaitExpression:
		return &AwaitExpression{Loc: loc, Argument: decodeNode(m["argument"])}
	case KindYieldExpression:
		return &YieldExpression{Loc: loc, Argument: decodeNode(m["argument"]), Delegate: boolean(m["delegate"])}
	case KindTemplateLiteral:
		return &TemplateLiteral{Loc: loc, Expressions: decodeNodes(m["expressions"])}
	case KindTaggedTemplateExpression:
		t := &TaggedTemplateExpression{Loc: loc, Tag: decodeNode(m["tag"])}
		t.Quasi, _ = decodeNode(m["quasi"]).(*TemplateLiteral)
		return t

	case KindAssignmentPattern:
		return &AssignmentPattern{Loc: loc, Left: decodeNode(m["left"]), Right: decodeNode(m["right"])}
	case KindObjectPattern:
		return &ObjectPattern{Loc: loc, Properties: decodeNodes(m["properties"])}
	case KindArrayPattern:
		return &ArrayPattern{Loc: loc, Elements: decodeNodes(m["elements"])}
	case KindRestElement:
		return &RestElement{Loc: loc, Argument: decodeNode(m["argument"])}

	default:
		return &Unknown{Loc: loc, Type: typeTag(m)}
	}
}

// decodeNodes decodes a JSON array of nodes. JSON nulls (array holes) are kept
// as nil entries so element positions are preserved.
func decodeNodes(v any) []Node {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, decodeNode(item))
	}
	return nodes
}

func decodeIdentifier(v any) *Identifier {
	id, _ := decodeNode(v).(*Identifier)
	return id
}

func decodeClassBody(v any) *ClassBody {
	body, _ := decodeNode(v).(*ClassBody)
	return body
}

func decodeLoc(v any) Loc {
	m, ok := v.(map[string]any)
	if !ok {
		return Loc{}
	}
	return Loc{Start: decodePosition(m["start"]), End: decodePosition(m["end"])}
}

func decodePosition(v any) Position {
	m, ok := v.(map[string]any)
	if !ok {
		return Position{}
	}
	return Position{Line: integer(m["line"]), Column: integer(m["column"])}
}

func decodeComments(v any) []Comment {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	comments := make([]Comment, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		comments = append(comments, Comment{
			Type:  CommentType(str(m["type"])),
			Value: str(m["value"]),
			Loc:   decodeLoc(m["loc"]),
		})
	}
	return comments
}

// DecodeComments reads a standalone JSON array of ESTree comment nodes, as
// written by "esprima.parse(src, {comment: true}).comments".
func DecodeComments(data []byte) ([]Comment, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	return decodeComments(raw), nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func integer(v any) int {
	f, _ := v.(float64)
	return int(f)
}
