package dataimporter

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/database"
	"github.com/travigo/populate/pkg/records"
)

// referenceKey maps the referencing columns onto the key columns of the
// target. It reports how many referencing columns were set.
func referenceKey(row records.Record, reference records.Reference) (records.Record, int) {
	target := records.Schemas[reference.Target]

	key := records.Record{}
	set := 0
	for i, column := range reference.Columns {
		value := row[column]
		if value != nil && value != "" {
			set++
		}

		if i < len(target.Key) {
			key[target.Key[i]] = value
		}
	}

	return key, set
}

// resolveReferences checks every reference in dependency order against the
// document and then the store. Unresolved optional references are nulled;
// records with an unresolved or empty required reference are dropped. It
// returns how many records were dropped.
func (i *Importer) resolveReferences(ctx context.Context, db database.Store, document *records.Document) (int, error) {
	dropped := 0

	for _, recordType := range records.Order {
		schema := records.Schemas[recordType]
		rows := document.Get(recordType)

		if len(rows) == 0 || len(schema.Refs) == 0 {
			continue
		}

		kept := make([]records.Record, 0, len(rows))

		for _, row := range rows {
			keep := true

			for _, reference := range schema.Refs {
				key, set := referenceKey(row, reference)
				if set == 0 && !reference.Required {
					continue
				}

				complete := set == len(reference.Columns)

				exists := complete && document.Has(reference.Target, key)
				if complete && !exists {
					var err error
					exists, err = i.cache().Exists(ctx, db, reference.Target, key)
					if err != nil {
						return dropped, err
					}
				}

				if exists {
					continue
				}

				if reference.Required {
					log.Debug().
						Str("source", document.Source).
						Str("type", string(recordType)).
						Interface("reference", key).
						Msgf("Unresolved %s reference, record dropped", reference.Target)
					keep = false
					break
				}

				log.Debug().
					Str("source", document.Source).
					Str("type", string(recordType)).
					Interface("reference", key).
					Msgf("Unresolved %s reference nulled", reference.Target)

				for _, column := range reference.ClearColumns() {
					row[column] = nil
				}
			}

			if keep {
				kept = append(kept, row)
			} else {
				dropped++
			}
		}

		if len(kept) != len(rows) {
			document.Replace(recordType, kept)
		}
	}

	return dropped, nil
}
