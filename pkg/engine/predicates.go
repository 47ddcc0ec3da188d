package engine

import (
	"github.com/antchfx/xmlquery"
	"golang.org/x/exp/slices"
)

// In is true when the extracted value is one of values.
func In(extractor Extractor, values ...string) Predicate {
	return func(c *Context, n *xmlquery.Node) bool {
		value, ok := AsString(extractor(c, n))

		return ok && slices.Contains(values, value)
	}
}

// Exists is true when the extractor yields a value.
func Exists(extractor Extractor) Predicate {
	return func(c *Context, n *xmlquery.Node) bool {
		_, ok := extractor(c, n)

		return ok
	}
}

// ParamIs is true when a per-file parameter equals value.
func ParamIs(name string, value string) Predicate {
	return func(c *Context, n *xmlquery.Node) bool {
		return c.Param(name) == value
	}
}

func Not(predicate Predicate) Predicate {
	return func(c *Context, n *xmlquery.Node) bool {
		return !predicate(c, n)
	}
}

func All(predicates ...Predicate) Predicate {
	return func(c *Context, n *xmlquery.Node) bool {
		for _, predicate := range predicates {
			if !predicate(c, n) {
				return false
			}
		}

		return true
	}
}

func Any(predicates ...Predicate) Predicate {
	return func(c *Context, n *xmlquery.Node) bool {
		for _, predicate := range predicates {
			if predicate(c, n) {
				return true
			}
		}

		return false
	}
}
