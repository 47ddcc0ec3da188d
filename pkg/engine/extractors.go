package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/records"
	"golang.org/x/exp/slices"
)

// Path compiles an XPath expression. Rule tables are package level values,
// so a bad expression is a programming error and panics at start up.
func Path(expr string) *xpath.Expr {
	return xpath.MustCompile(expr)
}

// AsString converts an extracted value to a non-empty string.
func AsString(value interface{}, ok bool) (string, bool) {
	if !ok || value == nil {
		return "", false
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	return s, s != ""
}

// Node selects the first element matching expr relative to n.
func Node(n *xmlquery.Node, expr *xpath.Expr) *xmlquery.Node {
	if n == nil {
		return nil
	}

	return xmlquery.QuerySelector(n, expr)
}

// NodeText returns the trimmed text of the first element matching expr.
func NodeText(n *xmlquery.Node, expr *xpath.Expr) string {
	match := Node(n, expr)
	if match == nil {
		return ""
	}

	return strings.TrimSpace(match.InnerText())
}

// Text extracts the trimmed inner text of the first node matching expr,
// which may be an element or attribute path and may walk ancestors.
func Text(expr string) Extractor {
	compiled := Path(expr)

	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value := NodeText(n, compiled)

		return value, value != ""
	}
}

// Attr extracts an attribute of the matched element itself.
func Attr(name string) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value := strings.TrimSpace(n.SelectAttr(name))

		return value, value != ""
	}
}

// Const always yields the same value.
func Const(value interface{}) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		return value, true
	}
}

// Param yields a per-file parameter.
func Param(name string) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value := c.Param(name)

		return value, value != ""
	}
}

// FirstOf tries each extractor in turn and yields the first present value.
func FirstOf(extractors ...Extractor) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		for _, extractor := range extractors {
			if value, ok := extractor(c, n); ok {
				return value, true
			}
		}

		return nil, false
	}
}

// Default substitutes value when the extractor yields nothing.
func Default(extractor Extractor, value interface{}) Extractor {
	return FirstOf(extractor, Const(value))
}

// Map runs a string field function over an extracted value. An empty result
// is treated as absent.
func Map(extractor Extractor, fn func(string) string) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value, ok := AsString(extractor(c, n))
		if !ok {
			return nil, false
		}

		mapped := fn(value)

		return mapped, mapped != ""
	}
}

// Lookup resolves a key through a document index and evaluates then against
// the element found.
func Lookup(index string, key Extractor, then Extractor) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		keyValue, ok := AsString(key(c, n))
		if !ok {
			return nil, false
		}

		target := c.Lookup(index, keyValue)
		if target == nil {
			return nil, false
		}

		return then(c, target)
	}
}

// Int parses an extracted value as an integer.
func Int(extractor Extractor) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value, ok := AsString(extractor(c, n))
		if !ok {
			return nil, false
		}

		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, false
		}

		return parsed, true
	}
}

// Bool yields whether the extractor produced a value in the truthy set.
func Bool(extractor Extractor, truthy ...string) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value, _ := AsString(extractor(c, n))

		return slices.Contains(truthy, value), true
	}
}

// Time converts an extracted value with a field parser, dropping zero times.
func Time(extractor Extractor, parse func(string) time.Time) Extractor {
	return func(c *Context, n *xmlquery.Node) (interface{}, bool) {
		value, ok := AsString(extractor(c, n))
		if !ok {
			return nil, false
		}

		parsed := parse(value)
		if parsed.IsZero() {
			return nil, false
		}

		return parsed, true
	}
}

// Coordinates returns a Derive hook filling the easting, northing, latitude
// and longitude columns from the Location element at path, completing
// whichever pair the source leaves out. Both pairs are null when neither is
// present.
func Coordinates(path string) func(c *Context, n *xmlquery.Node, record records.Record) bool {
	location := Path(path)
	easting := Path(".//Easting")
	northing := Path(".//Northing")
	latitude := Path(".//Latitude")
	longitude := Path(".//Longitude")

	return func(c *Context, n *xmlquery.Node, record records.Record) bool {
		record["easting"], record["northing"] = nil, nil
		record["latitude"], record["longitude"] = nil, nil

		locationNode := Node(n, location)
		if locationNode == nil {
			return true
		}

		position, ok := fields.Coordinates(
			NodeText(locationNode, easting),
			NodeText(locationNode, northing),
			NodeText(locationNode, latitude),
			NodeText(locationNode, longitude),
		)
		if !ok {
			return true
		}

		record["easting"], record["northing"] = position.Easting, position.Northing
		record["latitude"], record["longitude"] = position.Latitude, position.Longitude

		return true
	}
}
