package transforms

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/records"
	"gopkg.in/yaml.v3"
)

// Set is an ordered list of record overrides applied after a feed is
// transformed.
type Set struct {
	transforms []*TransformDefinition
}

// SetupClient returns the overrides for known upstream data defects.
func SetupClient() *Set {
	set := &Set{}

	// NaPTAN carries a misspelt on-street pair code
	set.Add(&TransformDefinition{
		Type: records.TypeStopArea,
		Match: map[string]string{
			"stop_area_type": "GBPS",
		},
		Data: map[string]interface{}{
			"stop_area_type": "GPBS",
		},
	})

	// District 310 stands for "no district"
	set.Add(&TransformDefinition{
		Type: records.TypeLocality,
		Match: map[string]string{
			"district_ref": "310",
		},
		Data: map[string]interface{}{
			"district_ref": nil,
		},
	})

	return set
}

// Add registers a definition. A definition whose condition does not compile
// is logged and ignored.
func (s *Set) Add(definition *TransformDefinition) {
	if err := definition.compile(); err != nil {
		log.Error().Err(err).Msg("Ignoring record transform")
		return
	}

	s.transforms = append(s.transforms, definition)
}

// LoadFile appends definitions read from a YAML list.
func (s *Set) LoadFile(path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var definitions []*TransformDefinition
	if err := yaml.Unmarshal(contents, &definitions); err != nil {
		return err
	}

	for _, definition := range definitions {
		s.Add(definition)
	}

	log.Info().Msgf("Loaded %d record transforms from %s", len(definitions), path)

	return nil
}

// Transform applies every matching definition to the document in place and
// returns how many records changed.
func (s *Set) Transform(document *records.Document) int {
	changed := 0

	for _, definition := range s.transforms {
		for _, record := range document.Get(definition.Type) {
			if definition.Transform(record) {
				changed++
			}
		}
	}

	return changed
}
