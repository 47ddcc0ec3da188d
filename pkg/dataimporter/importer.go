// Package dataimporter discovers feed files, transforms them in parallel and
// writes each file's records in its own transaction.
package dataimporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/populate/pkg/database"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/identity"
	"github.com/travigo/populate/pkg/records"
	"github.com/travigo/populate/pkg/transforms"
)

var ErrAllFilesFailed = errors.New("every file failed to import")

// fileScoped types are only ever referenced from the file that defines them,
// so their keys are not remembered between files.
var fileScoped = map[records.Type]bool{
	records.TypeJourneyPattern: true,
	records.TypeJourneyLink:    true,
	records.TypeJourney:        true,
}

type FileResult struct {
	Name     string
	Counts   map[records.Type]int
	Dropped  int
	Duration time.Duration
	Err      error
}

type Summary struct {
	Feed  string
	Files []FileResult
}

func (s Summary) Failed() int {
	failed := 0
	for _, file := range s.Files {
		if file.Err != nil {
			failed++
		}
	}

	return failed
}

func (s Summary) Records() int {
	total := 0
	for _, file := range s.Files {
		for _, count := range file.Counts {
			total += count
		}
	}

	return total
}

type Importer struct {
	Store      database.Store
	Transforms *transforms.Set
	Cache      *RefCache

	// Workers bounds concurrent transforms. Zero means one per CPU.
	Workers int

	// DryRun writes the transformed documents to Output instead of the
	// store.
	DryRun bool
	Output io.Writer

	writeMutex sync.Mutex
	cacheOnce  sync.Once
}

func (i *Importer) cache() *RefCache {
	i.cacheOnce.Do(func() {
		if i.Cache == nil {
			i.Cache = NewRefCache(nil, "", 0)
		}
	})

	return i.Cache
}

func (i *Importer) workers() int {
	if i.Workers > 0 {
		return i.Workers
	}

	return runtime.NumCPU()
}

// Run imports every file of a feed. Files are transformed in parallel and
// written one at a time. It fails only when every file failed or the
// context was cancelled.
func (i *Importer) Run(ctx context.Context, feed string, files []DataFile) (Summary, error) {
	summary := Summary{Feed: feed}

	resolver := identity.NewResolver()
	definition, err := Definition(feed, resolver)
	if err != nil {
		return summary, err
	}

	log.Info().Str("feed", feed).Int("files", len(files)).Msgf("%s import started", definition.Name)

	results := make([]FileResult, len(files))

	p := pool.New().WithMaxGoroutines(i.workers())
	for index, file := range files {
		index, file := index, file

		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[index] = FileResult{Name: file.Name, Err: err}
				return
			}

			results[index] = i.ImportFile(ctx, definition, file)
		})
	}
	p.Wait()

	summary.Files = results

	log.Info().
		Str("feed", feed).
		Int("files", len(files)).
		Int("failed", summary.Failed()).
		Int("records", summary.Records()).
		Int("identifiers", resolver.Len()).
		Msgf("%s import finished", definition.Name)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if len(files) > 0 && summary.Failed() == len(files) {
		return summary, ErrAllFilesFailed
	}

	return summary, nil
}

// ImportFile transforms one file and writes it in a single transaction. Any
// failure, including a panic, rolls the file back and is reported in the
// result.
func (i *Importer) ImportFile(ctx context.Context, definition *engine.Definition, file DataFile) (result FileResult) {
	startTime := time.Now()
	result.Name = file.Name

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Err = fmt.Errorf("panic importing %s: %v", file.Name, recovered)
		}

		result.Duration = time.Since(startTime)

		if result.Err != nil {
			log.Error().Err(result.Err).Str("file", file.Name).Msg("Failed to import file")
		} else {
			log.Info().Str("file", file.Name).Int("dropped", result.Dropped).Msgf("Imported in %s", result.Duration)
		}
	}()

	document, err := i.transform(ctx, definition, file)
	if err != nil {
		result.Err = err
		return result
	}

	if i.DryRun {
		result.Counts = document.Counts()
		i.dump(document)
		return result
	}

	i.writeMutex.Lock()
	defer i.writeMutex.Unlock()

	err = i.Store.Transaction(ctx, func(tx database.Store) error {
		dropped, err := i.resolveReferences(ctx, tx, document)
		if err != nil {
			return err
		}
		result.Dropped = dropped

		for _, recordType := range document.Types() {
			if err := tx.Upsert(ctx, recordType, document.Get(recordType)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		result.Err = fmt.Errorf("writing %s: %w", file.Name, err)
		return result
	}

	result.Counts = document.Counts()

	for _, recordType := range document.Types() {
		if !fileScoped[recordType] {
			i.cache().Remember(recordType, document.Get(recordType))
		}
	}

	return result
}

func (i *Importer) transform(ctx context.Context, definition *engine.Definition, file DataFile) (*records.Document, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	document, err := definition.Transform(ctx, file.Name, reader, file.Params)
	if err != nil {
		return nil, err
	}

	if i.Transforms != nil {
		if changed := i.Transforms.Transform(document); changed > 0 {
			log.Debug().Str("file", file.Name).Msgf("Record transforms changed %d records", changed)
		}
	}

	return document, nil
}

// dump prints a document for inspection.
func (i *Importer) dump(document *records.Document) {
	if i.Output == nil {
		return
	}

	i.writeMutex.Lock()
	defer i.writeMutex.Unlock()

	fmt.Fprintf(i.Output, "# %s\n", document.Source)

	for _, recordType := range document.Types() {
		fmt.Fprintf(i.Output, "%s (%d)\n", recordType, len(document.Get(recordType)))
		for _, record := range document.Get(recordType) {
			fmt.Fprintf(i.Output, "%# v\n", pretty.Formatter(record))
		}
	}
}
