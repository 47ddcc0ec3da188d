package transforms

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/travigo/populate/pkg/records"
)

// TransformDefinition overwrites columns of every record of Type whose
// columns equal Match and, when set, for which the When expression holds.
type TransformDefinition struct {
	Type  records.Type           `yaml:"type"`
	Match map[string]string      `yaml:"match"`
	When  string                 `yaml:"when"`
	Data  map[string]interface{} `yaml:"data"`

	program *vm.Program
}

func (t *TransformDefinition) compile() error {
	if t.When == "" {
		return nil
	}

	program, err := expr.Compile(t.When, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return fmt.Errorf("compiling %s transform condition %q: %w", t.Type, t.When, err)
	}

	t.program = program

	return nil
}

func (t *TransformDefinition) matches(record records.Record) bool {
	for column, value := range t.Match {
		current, exists := record[column]
		if !exists || current == nil || fmt.Sprint(current) != value {
			return false
		}
	}

	if t.program != nil {
		result, err := expr.Run(t.program, map[string]interface{}(record))
		if err != nil {
			return false
		}

		if matched, _ := result.(bool); !matched {
			return false
		}
	}

	return true
}

// Transform applies the definition to a record, reporting whether it matched.
func (t *TransformDefinition) Transform(record records.Record) bool {
	if !t.matches(record) {
		return false
	}

	for column, value := range t.Data {
		record[column] = value
	}

	return true
}
