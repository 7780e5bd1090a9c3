// Package walker discovers resources in an ESTree syntax tree.
//
// A Walker recurses down a parsed tree and hands every named function-like
// construct to a Sink. Keys are resolved with a handful of JavaScript idioms:
//
//   - function declarations:           function name() {}            -> "name"
//   - object literals in declarators:  var Utils = { name: fn }       -> "Utils.name"
//   - object literals anywhere else:   module.exports = { name: fn }  -> "name"
//   - member assignments:              obj.name = function () {}      -> "obj.name"
//   - constructor assignments:         this.name = function () {}     -> "name"
//   - class methods:                   class A { name() {} }          -> "A.name"
//
// Calls are walked into, so AMD wrappers (define([], function () {...})) and
// option tables (jQuery.extend({...})) are covered. Compound statements are
// transparent: both arms of an if are always walked.
//
// The walk is static and best-effort. Node types it has no rule for are skipped
// and their siblings are still visited.
package walker

import (
	"fmt"

	"github.com/mvp-joe/triumph-js/internal/estree"
)

// Walker walks the tree of a single file. Create one per file with New; the
// file context it carries is stamped onto every resource it emits.
//
// A Walker is not safe for concurrent use. Separate walkers share nothing.
type Walker struct {
	sink     Sink
	file     FileContext
	comments []estree.Comment

	// err is the first sink error; once set, nothing more is emitted.
	err error
}

// New creates a walker that emits resources for one file to sink. comments is the
// file's comment list in source order, used to attach leading block comments.
func New(sink Sink, file FileContext, comments []estree.Comment) *Walker {
	return &Walker{
		sink:     sink,
		file:     file,
		comments: comments,
	}
}

// Walk traverses root and inserts every discovered resource into the sink.
// It returns the first error reported by the sink, which also ends the walk.
// Walking the same tree again produces the same sequence of resources.
func (w *Walker) Walk(root estree.Node) error {
	w.err = nil
	w.walk(root, "")
	return w.err
}

// walk dispatches on the node type. objectName is the qualifying name for
// function-valued properties of an object literal reached through this node; it
// only flows from a variable declarator into its initializer, and every other
// child position clears it.
func (w *Walker) walk(node estree.Node, objectName string) {
	if node == nil || w.err != nil {
		return
	}

	switch n := node.(type) {
	case *estree.Program:
		w.walkAll(n.Body)
	case *estree.BlockStatement:
		w.walkAll(n.Body)
	case *estree.ExpressionStatement:
		w.walk(n.Expression, "")
	case *estree.ReturnStatement:
		w.walk(n.Argument, "")
	case *estree.ThrowStatement:
		w.walk(n.Argument, "")
	case *estree.IfStatement:
		w.walk(n.Test, "")
		w.walk(n.Consequent, "")
		w.walk(n.Alternate, "")
	case *estree.WithStatement:
		w.walk(n.Object, "")
		w.walk(n.Body, "")
	case *estree.SwitchStatement:
		w.walk(n.Discriminant, "")
		for _, c := range n.Cases {
			if c != nil {
				w.walkSwitchCase(c)
			}
		}
	case *estree.SwitchCase:
		w.walkSwitchCase(n)
	case *estree.TryStatement:
		w.walk(n.Block, "")
		if n.Handler != nil {
			w.walk(n.Handler, "")
		}
		w.walk(n.Finalizer, "")
	case *estree.CatchClause:
		w.walk(n.Body, "")
	case *estree.WhileStatement:
		w.walk(n.Test, "")
		w.walk(n.Body, "")
	case *estree.DoWhileStatement:
		w.walk(n.Body, "")
		w.walk(n.Test, "")
	case *estree.ForStatement:
		w.walk(n.Init, "")
		w.walk(n.Test, "")
		w.walk(n.Update, "")
		w.walk(n.Body, "")
	case *estree.ForInStatement:
		w.walk(n.Left, "")
		w.walk(n.Right, "")
		w.walk(n.Body, "")
	case *estree.ForOfStatement:
		w.walk(n.Left, "")
		w.walk(n.Right, "")
		w.walk(n.Body, "")
	case *estree.LabeledStatement:
		w.walk(n.Body, "")

	case *estree.FunctionDeclaration:
		w.walkFunctionDeclaration(n)
	case *estree.VariableDeclaration:
		for _, d := range n.Declarations {
			if d != nil {
				w.walkDeclarator(d)
			}
		}
	case *estree.VariableDeclarator:
		w.walkDeclarator(n)
	case *estree.ClassDeclaration:
		w.walkClass(n.ID, n.SuperClass, n.Body)
	case *estree.ClassExpression:
		w.walkClass(n.ID, n.SuperClass, n.Body)
	case *estree.ExportNamedDeclaration:
		w.walk(n.Declaration, "")
	case *estree.ExportDefaultDeclaration:
		w.walk(n.Declaration, "")

	case *estree.ObjectExpression:
		w.walkObject(n, objectName)
	case *estree.ArrayExpression:
		// array elements never inherit the declarator's object name
		for _, el := range n.Elements {
			w.walk(el, "")
		}
	case *estree.FunctionExpression:
		w.walk(n.Body, "")
	case *estree.ArrowFunctionExpression:
		w.walk(n.Body, "")
	case *estree.AssignmentExpression:
		w.walkAssignment(n)
	case *estree.CallExpression:
		w.walkCall(n.Callee, n.Arguments)
	case *estree.NewExpression:
		w.walkCall(n.Callee, n.Arguments)
	case *estree.LogicalExpression:
		// var NS = NS || { ... }
		w.walk(n.Left, objectName)
		w.walk(n.Right, objectName)
	case *estree.ConditionalExpression:
		w.walk(n.Test, "")
		w.walk(n.Consequent, objectName)
		w.walk(n.Alternate, objectName)
	case *estree.SequenceExpression:
		for _, e := range n.Expressions {
			w.walk(e, "")
		}
	case *estree.BinaryExpression:
		w.walk(n.Left, "")
		w.walk(n.Right, "")
	case *estree.UnaryExpression:
		w.walk(n.Argument, "")
	case *estree.UpdateExpression:
		w.walk(n.Argument, "")
	case *estree.AwaitExpression:
		w.walk(n.Argument, "")
	case *estree.YieldExpression:
		w.walk(n.Argument, "")
	case *estree.SpreadElement:
		w.walk(n.Argument, "")
	case *estree.MemberExpression:
		w.walk(n.Object, "")
		if n.Computed {
			w.walk(n.Property, "")
		}
	case *estree.TemplateLiteral:
		for _, e := range n.Expressions {
			w.walk(e, "")
		}
	case *estree.TaggedTemplateExpression:
		w.walk(n.Tag, "")
		if n.Quasi != nil {
			w.walk(n.Quasi, "")
		}

	default:
		// not interesting: identifiers, literals, patterns, unknown node types
	}
}

func (w *Walker) walkAll(nodes []estree.Node) {
	for _, n := range nodes {
		w.walk(n, "")
	}
}

func (w *Walker) walkSwitchCase(c *estree.SwitchCase) {
	w.walk(c.Test, "")
	w.walkAll(c.Consequent)
}

// walkFunctionDeclaration stores a named function and walks its body as a fresh
// scope. Anonymous declarations are not stored.
func (w *Walker) walkFunctionDeclaration(fn *estree.FunctionDeclaration) {
	if fn.ID != nil && fn.ID.Name != "" {
		w.emit(fn.ID.Name, fn.ID.Name, fn.Params, fn.ID.Loc, fn.Loc)
	}
	w.walk(fn.Body, "")
}

// walkDeclarator hands the declarator's name to its initializer so that an
// object literal assigned to a variable qualifies its methods with that name.
func (w *Walker) walkDeclarator(d *estree.VariableDeclarator) {
	name := ""
	if id, ok := d.ID.(*estree.Identifier); ok && id != nil {
		name = id.Name
	}
	w.walk(d.Init, name)
}

// walkObject stores every function-valued property of an object literal,
// qualified by objectName when one is set, then walks the property values.
func (w *Walker) walkObject(obj *estree.ObjectExpression, objectName string) {
	for _, p := range obj.Properties {
		if w.err != nil {
			return
		}

		prop, ok := p.(*estree.Property)
		if !ok || prop == nil {
			w.walk(p, "")
			continue
		}

		if name, ok := propertyName(prop.Key, prop.Computed); ok && estree.IsFunction(prop.Value) {
			params, body, _ := estree.FunctionParts(prop.Value)
			w.emit(qualify(objectName, name), name, params, prop.Key.Location(), prop.Loc)
			w.walk(body, "")
			continue
		}

		if prop.Computed {
			w.walk(prop.Key, "")
		}
		w.walk(prop.Value, "")
	}
}

// walkAssignment handles "obj.name = function () {}" and "this.name = function () {}".
// Since we don't know which object "this" refers to, the latter is stored under
// the bare name. Any other assignment is walked through.
func (w *Walker) walkAssignment(a *estree.AssignmentExpression) {
	if member, ok := a.Left.(*estree.MemberExpression); ok && member != nil && !member.Computed && estree.IsFunction(a.Right) {
		if prop, ok := member.Property.(*estree.Identifier); ok && prop != nil && prop.Name != "" {
			key := ""
			switch obj := member.Object.(type) {
			case *estree.Identifier:
				if obj != nil && obj.Name != "" {
					key = obj.Name + "." + prop.Name
				}
			case *estree.ThisExpression:
				key = prop.Name
			}

			if key != "" {
				params, body, _ := estree.FunctionParts(a.Right)
				w.emit(key, prop.Name, params, prop.Loc, member.Loc)
				w.walk(body, "")
				return
			}
		}
	}

	w.walk(a.Left, "")
	w.walk(a.Right, "")
}

// walkCall walks the callee, which reaches immediately-invoked function bodies,
// then every argument. Function literal arguments are walked as nested scopes and
// object literal arguments with no object name, which covers
// define([], function (x) {...}) and $.extend({ ... }).
func (w *Walker) walkCall(callee estree.Node, args []estree.Node) {
	w.walk(callee, "")
	for _, arg := range args {
		w.walk(arg, "")
	}
}

// walkClass stores class methods as "<Class>.<method>" and walks every member body.
// Constructors are walked but not stored.
func (w *Walker) walkClass(id *estree.Identifier, superClass estree.Node, body *estree.ClassBody) {
	w.walk(superClass, "")
	if body == nil {
		return
	}

	className := ""
	if id != nil {
		className = id.Name
	}

	for _, member := range body.Body {
		if w.err != nil {
			return
		}

		method, ok := member.(*estree.MethodDefinition)
		if !ok || method == nil || method.Value == nil {
			continue
		}

		if name, ok := propertyName(method.Key, method.Computed); ok && method.MethodKind != "constructor" {
			w.emit(qualify(className, name), name, method.Value.Params, method.Key.Location(), method.Loc)
		} else if method.Computed {
			w.walk(method.Key, "")
		}
		w.walk(method.Value.Body, "")
	}
}

// emit builds a fresh Resource and inserts it. The name token's location is
// preferred; fallback is used when the parser did not record one.
func (w *Walker) emit(key, name string, params []estree.Node, nameLoc, fallback estree.Loc) {
	if w.err != nil {
		return
	}

	loc := nameLoc
	if loc.IsZero() {
		loc = fallback
	}
	line := loc.Start.Line
	if line < 1 {
		line = 1
	}

	resource := Resource{
		Key:            key,
		Identifier:     name,
		Signature:      MakeSignature(name, params),
		Comment:        FindComment(line, w.comments),
		LineNumber:     line,
		ColumnPosition: loc.Start.Column,
		FileItemID:     w.file.FileItemID,
		SourceID:       w.file.SourceID,
	}

	if err := w.sink.Insert(resource); err != nil {
		w.err = fmt.Errorf("failed to insert resource %s: %w", key, err)
	}
}

// propertyName returns the name of a non-computed identifier key.
func propertyName(key estree.Node, computed bool) (string, bool) {
	if computed {
		return "", false
	}
	id, ok := key.(*estree.Identifier)
	if !ok || id == nil || id.Name == "" {
		return "", false
	}
	return id.Name, true
}

func qualify(objectName, name string) string {
	if objectName == "" {
		return name
	}
	return objectName + "." + name
}
