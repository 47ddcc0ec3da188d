// Package engine applies declarative rule tables to parsed XML documents,
// producing flat records grouped by type.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/records"
)

var ErrNoDocument = errors.New("document has no root element")

// Params are per-file values made available to extractors, such as the TNDS
// region or the file scope token.
type Params map[string]string

// Extractor pulls one value out of the element a rule matched. The second
// result is false when the value is absent.
type Extractor func(c *Context, n *xmlquery.Node) (interface{}, bool)

// Predicate decides whether an element takes part in a rule.
type Predicate func(c *Context, n *xmlquery.Node) bool

type Field struct {
	Column   string
	Extract  Extractor
	Required bool
}

// Index precomputes a keyed lookup over a subtree of the document.
type Index struct {
	Name   string
	Select *xpath.Expr
	Key    Extractor
}

// Rule maps every element matched by Select onto one record of Type.
type Rule struct {
	Type   records.Type
	Select *xpath.Expr
	Filter Predicate
	Fields []Field

	// Derive may fill further columns from the element or reject the record
	// by returning false.
	Derive func(c *Context, n *xmlquery.Node, record records.Record) bool

	// Emit runs after the record is added and may add dependent records.
	Emit func(c *Context, n *xmlquery.Node, record records.Record)
}

type Definition struct {
	Name    string
	Indexes []Index

	// Validate rejects the whole file with an error.
	Validate func(c *Context) error

	// Gate returning false yields an intentionally empty document.
	Gate Predicate

	Rules    []Rule
	Finalise []func(c *Context) error
}

type Context struct {
	context.Context

	Root     *xmlquery.Node
	Params   Params
	Document *records.Document

	indexes map[string]map[string]*xmlquery.Node
}

// Param returns a per-file parameter or "".
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// Lookup returns the element registered under key in the named index.
func (c *Context) Lookup(index string, key string) *xmlquery.Node {
	return c.indexes[index][key]
}

// Parse reads a whole document into a queryable tree.
func Parse(reader io.Reader) (*xmlquery.Node, error) {
	root, err := xmlquery.Parse(reader)
	if err != nil {
		return nil, err
	}

	if root == nil || xmlquery.FindOne(root, "/*") == nil {
		return nil, ErrNoDocument
	}

	return root, nil
}

// Transform parses the reader and applies the definition to it.
func (d *Definition) Transform(ctx context.Context, source string, reader io.Reader, params Params) (*records.Document, error) {
	root, err := Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	return d.Apply(ctx, source, root, params)
}

// Apply evaluates the rule table against an already parsed document.
func (d *Definition) Apply(ctx context.Context, source string, root *xmlquery.Node, params Params) (*records.Document, error) {
	c := &Context{
		Context:  ctx,
		Root:     root,
		Params:   params,
		Document: records.NewDocument(source),
		indexes:  map[string]map[string]*xmlquery.Node{},
	}

	if d.Validate != nil {
		if err := d.Validate(c); err != nil {
			return nil, fmt.Errorf("%s document %s: %w", d.Name, source, err)
		}
	}

	if d.Gate != nil && !d.Gate(c, root) {
		log.Info().Str("source", source).Msgf("%s document skipped by gate", d.Name)
		return c.Document, nil
	}

	for _, index := range d.Indexes {
		c.buildIndex(index)
	}

	for _, rule := range d.Rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.applyRule(rule)
	}

	for _, finalise := range d.Finalise {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := finalise(c); err != nil {
			return nil, fmt.Errorf("%s document %s: %w", d.Name, source, err)
		}
	}

	return c.Document, nil
}

func (c *Context) buildIndex(index Index) {
	lookup := map[string]*xmlquery.Node{}

	for _, node := range xmlquery.QuerySelectorAll(c.Root, index.Select) {
		key, ok := AsString(index.Key(c, node))
		if !ok {
			continue
		}

		// First definition wins
		if _, exists := lookup[key]; !exists {
			lookup[key] = node
		}
	}

	c.indexes[index.Name] = lookup
}

func (c *Context) applyRule(rule Rule) {
	for _, node := range xmlquery.QuerySelectorAll(c.Root, rule.Select) {
		if rule.Filter != nil && !rule.Filter(c, node) {
			continue
		}

		record, ok := c.Record(rule.Type, rule.Fields, node)
		if !ok {
			continue
		}

		if rule.Derive != nil && !rule.Derive(c, node, record) {
			continue
		}

		c.Document.Add(rule.Type, record)

		if rule.Emit != nil {
			rule.Emit(c, node, record)
		}
	}
}

// Record evaluates a field list against one element. The second result is
// false when a required field is absent.
func (c *Context) Record(recordType records.Type, fields []Field, node *xmlquery.Node) (records.Record, bool) {
	record := records.Record{}

	for _, field := range fields {
		value, ok := field.Extract(c, node)
		if !ok {
			if field.Required {
				log.Debug().
					Str("source", c.Document.Source).
					Str("type", string(recordType)).
					Str("column", field.Column).
					Msg("Required field missing, record skipped")
				return nil, false
			}

			value = nil
		}

		record[field.Column] = value
	}

	return record, true
}
