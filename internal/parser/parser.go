// Package parser turns JavaScript source into the estree model used by the walker.
//
// Parsing is done with tree-sitter using the TypeScript grammar, a superset of
// JavaScript. The concrete syntax tree is converted node by node into estree
// structs and comments are collected in source order.
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/triumph-js/internal/estree"
)

var (
	// ErrFileTooLarge is returned when the source exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent is returned when the source is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content: not valid UTF-8")

	// ErrSyntax is returned when the source does not parse cleanly.
	ErrSyntax = errors.New("syntax error")
)

// DefaultMaxFileSize is the largest source accepted by default (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Options configures a Parser.
type Options struct {
	// MaxFileSize is the maximum source size in bytes. Zero or less disables the limit.
	MaxFileSize int
}

// DefaultOptions returns the default parser options.
func DefaultOptions() Options {
	return Options{MaxFileSize: DefaultMaxFileSize}
}

// Option is a functional option for New.
type Option func(*Options)

// WithMaxFileSize sets the maximum source size in bytes.
func WithMaxFileSize(size int) Option {
	return func(o *Options) {
		o.MaxFileSize = size
	}
}

// Parser parses JavaScript files. It is safe for concurrent use; every call
// creates its own tree-sitter parser.
type Parser struct {
	language *sitter.Language
	options  Options
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Parser{
		language: sitter.NewLanguage(typescript.LanguageTypescript()),
		options:  options,
	}
}

// ParseFile reads and parses a JavaScript file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*estree.Program, []estree.Comment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if p.options.MaxFileSize > 0 && info.Size() > int64(p.options.MaxFileSize) {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	program, comments, err := p.Parse(ctx, source)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, comments, nil
}

// Parse parses JavaScript source. Positions in the result use 1-based lines and
// 0-based columns counted in characters.
func (p *Parser) Parse(ctx context.Context, source []byte) (*estree.Program, []estree.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if p.options.MaxFileSize > 0 && len(source) > p.options.MaxFileSize {
		return nil, nil, ErrFileTooLarge
	}
	if !utf8.Valid(source) {
		return nil, nil, ErrInvalidContent
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, nil, fmt.Errorf("failed to set language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil, fmt.Errorf("%w: parser returned no tree", ErrSyntax)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	c := &converter{source: source}

	if root.HasError() {
		if bad := firstError(root); bad != nil {
			pos := c.start(bad)
			return nil, nil, fmt.Errorf("%w at line %d, column %d", ErrSyntax, pos.Line, pos.Column)
		}
		return nil, nil, ErrSyntax
	}

	return c.program(root), c.comments(root), nil
}

// firstError returns the first ERROR or MISSING node in source order.
func firstError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}
