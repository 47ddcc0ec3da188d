// Package records is the intermediate, flat representation every feed
// definition produces and the loader consumes.
package records

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

type Type string

// Record maps column names to values. A nil value is stored as NULL.
type Record map[string]interface{}

// String returns the value of a column as a string, or "" when it is absent
// or not a string.
func (r Record) String(column string) string {
	value, _ := r[column].(string)

	return value
}

// Key extracts the given columns. The second result is false when any of
// them is null or an empty string.
func (r Record) Key(columns []string) (Record, bool) {
	key := Record{}
	complete := true

	for _, column := range columns {
		value := r[column]
		if value == nil || value == "" {
			complete = false
		}

		key[column] = value
	}

	return key, complete
}

// KeyString renders the given columns as a stable identity string for maps.
func (r Record) KeyString(columns []string) string {
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprint(r[column])
	}

	return strings.Join(parts, "\x1f")
}

// Document holds the records produced from a single source file, grouped by
// type. Records sharing a natural key are merged with the later one winning.
type Document struct {
	Source string

	records map[Type][]Record
	keys    map[Type]map[string]int
}

func NewDocument(source string) *Document {
	return &Document{
		Source:  source,
		records: map[Type][]Record{},
		keys:    map[Type]map[string]int{},
	}
}

// Add appends a record, replacing any earlier record of the same type and
// natural key.
func (d *Document) Add(recordType Type, record Record) {
	schema, hasSchema := Schemas[recordType]
	if !hasSchema || len(schema.Key) == 0 {
		d.records[recordType] = append(d.records[recordType], record)
		return
	}

	if d.keys[recordType] == nil {
		d.keys[recordType] = map[string]int{}
	}

	key := record.KeyString(schema.Key)
	if index, exists := d.keys[recordType][key]; exists {
		d.records[recordType][index] = record
		return
	}

	d.keys[recordType][key] = len(d.records[recordType])
	d.records[recordType] = append(d.records[recordType], record)
}

// Get returns the records of one type in insertion order.
func (d *Document) Get(recordType Type) []Record {
	return d.records[recordType]
}

// Replace swaps the records of one type, rebuilding the key index.
func (d *Document) Replace(recordType Type, records []Record) {
	delete(d.records, recordType)
	delete(d.keys, recordType)

	for _, record := range records {
		d.Add(recordType, record)
	}
}

// Has reports whether a record of the given type with the given key values
// is present.
func (d *Document) Has(recordType Type, key Record) bool {
	schema, hasSchema := Schemas[recordType]
	if !hasSchema {
		return false
	}

	_, exists := d.keys[recordType][key.KeyString(schema.Key)]

	return exists
}

// Types lists the record types present, in load order.
func (d *Document) Types() []Type {
	var types []Type
	for _, recordType := range Order {
		if len(d.records[recordType]) > 0 {
			types = append(types, recordType)
		}
	}

	for recordType, list := range d.records {
		if len(list) > 0 && !slices.Contains(types, recordType) {
			types = append(types, recordType)
		}
	}

	return types
}

// Len counts every record in the document.
func (d *Document) Len() int {
	count := 0
	for _, list := range d.records {
		count += len(list)
	}

	return count
}

// Counts returns the number of records per type.
func (d *Document) Counts() map[Type]int {
	counts := map[Type]int{}
	for recordType, list := range d.records {
		counts[recordType] = len(list)
	}

	return counts
}
