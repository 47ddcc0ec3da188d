package dataimporter

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/config"
	"github.com/travigo/populate/pkg/database"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/naptan"
	"github.com/travigo/populate/pkg/redis_client"
	"github.com/travigo/populate/pkg/transforms"
	"github.com/travigo/populate/pkg/transxchange"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

// session is everything a command needs to import.
type session struct {
	cfg      *config.Config
	backend  database.Backend
	importer *Importer
}

func openSession(c *cli.Context, dryRun bool) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	transformSet := transforms.SetupClient()
	for _, path := range cfg.Transforms {
		if err := transformSet.LoadFile(path); err != nil {
			return nil, err
		}
	}

	importer := &Importer{
		Transforms: transformSet,
		Workers:    cfg.Import.Workers,
		DryRun:     dryRun,
		Output:     os.Stdout,
	}

	s := &session{cfg: cfg, importer: importer}
	if dryRun {
		return s, nil
	}

	s.backend, err = database.Connect(c.Context, cfg.Database, cfg.Import.BatchSize)
	if err != nil {
		return nil, err
	}
	importer.Store = s.backend

	if err := redis_client.Connect(c.Context, cfg.Redis); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	importer.Cache = NewRefCache(redis_client.Client, Namespace(cfg.Database), cfg.Redis.CacheTTL)

	return s, nil
}

func (s *session) Close() {
	if s.backend != nil {
		if err := s.backend.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}

	redis_client.Close()
}

func (s *session) params(region string) engine.Params {
	params := engine.Params{}
	if region != "" {
		params[transxchange.RegionParam] = region
	}
	if s.cfg.Import.IncludeInactive {
		params[naptan.IncludeInactive] = strconv.FormatBool(true)
	}

	return params
}

// importSource discovers the files of a source and imports them.
func (s *session) importSource(ctx context.Context, feed string, source string, params engine.Params) (Summary, error) {
	bundle, err := Discover(ctx, source, params)
	if err != nil {
		return Summary{Feed: feed}, err
	}
	defer func() {
		if err := bundle.Close(); err != nil {
			log.Warn().Err(err).Str("source", source).Msg("Failed to clean up source")
		}
	}()

	return s.importer.Run(ctx, feed, bundle.Files)
}

// ImportDataset imports a configured dataset.
func (s *session) ImportDataset(ctx context.Context, dataset config.Dataset) error {
	log.Info().Str("id", dataset.Identifier).Str("feed", dataset.Feed).Str("source", dataset.Source).Msg("Found dataset")

	summary, err := s.importSource(ctx, dataset.Feed, dataset.Source, s.params(dataset.Region))
	if err != nil {
		return fmt.Errorf("dataset %s: %w", dataset.Identifier, err)
	}

	if failed := summary.Failed(); failed > 0 {
		log.Warn().Str("id", dataset.Identifier).Msgf("%d of %d files failed", failed, len(summary.Files))
	}

	return nil
}

func repeat(repeatEvery string, operation func() error) error {
	repeat := repeatEvery != ""
	var repeatDuration time.Duration
	if repeat {
		var err error
		repeatDuration, err = time.ParseDuration(repeatEvery)

		if err != nil {
			return err
		}
	}

	for {
		startTime := time.Now()

		if err := operation(); err != nil {
			return err
		}
		if !repeat {
			break
		}

		executionDuration := time.Since(startTime)
		log.Info().Msgf("Operation took %s", executionDuration.String())

		waitTime := repeatDuration - executionDuration

		if waitTime.Seconds() > 0 {
			time.Sleep(waitTime)
		}
	}

	return nil
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Transform NPTG, NaPTAN, NOC and TNDS files into the reference tables",
		Subcommands: []*cli.Command{
			{
				Name:      "file",
				Usage:     "Import files, directories, archives or URLs of one feed",
				ArgsUsage: "PATH...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "feed",
						Usage:    "Feed of the files: nptg, naptan, noc or tnds",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "region",
						Usage: "TNDS region the files were published for",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the transformed records instead of writing them",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one PATH is required", 1)
					}

					s, err := openSession(c, c.Bool("dry-run"))
					if err != nil {
						return err
					}
					defer s.Close()

					for _, source := range c.Args().Slice() {
						if _, err := s.importSource(c.Context, c.String("feed"), source, s.params(c.String("region"))); err != nil {
							return err
						}
					}

					return nil
				},
			},
			{
				Name:  "dataset",
				Usage: "Import a configured dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "ID of the dataset",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "repeat-every",
						Usage:    "Repeat this dataset import every duration",
						Required: false,
					},
				},
				Action: func(c *cli.Context) error {
					s, err := openSession(c, false)
					if err != nil {
						return err
					}
					defer s.Close()

					dataset, err := s.cfg.Dataset(c.String("id"))
					if err != nil {
						return err
					}

					return repeat(c.String("repeat-every"), func() error {
						return s.ImportDataset(c.Context, dataset)
					})
				},
			},
			{
				Name:  "all",
				Usage: "Import every configured dataset in dependency order",
				Action: func(c *cli.Context) error {
					s, err := openSession(c, false)
					if err != nil {
						return err
					}
					defer s.Close()

					for _, dataset := range s.cfg.OrderedDatasets() {
						if err := s.ImportDataset(c.Context, dataset); err != nil {
							return err
						}
					}

					return nil
				},
			},
		},
	}
}
