// Command fixtures generates user streams for load tests, as CSV or straight into postgres.
//
//	go run ./testutil/cmd/fixtures -streams 100000 -csv testutil/fixtures/events.csv
//	go run ./testutil/cmd/fixtures -streams 100000 -config eventstore.yaml -import
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

const (
	defaultStreams   = 10000
	defaultTableName = "events"
	copyBatchSize    = 10000
)

var errNothingToDo = errors.New("either -csv or -import is required")

func main() {
	streams := flag.Int("streams", defaultStreams, "number of user streams to generate")
	seed := flag.Uint64("seed", 1, "seed of the generator")
	csvPath := flag.String("csv", "", "write the fixtures to this CSV file")
	configPath := flag.String("config", "", "postgresengine YAML config, defaults to EVENTSTORE_POSTGRES_DSN")
	importRows := flag.Bool("import", false, "copy the fixtures into the events table")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(context.Background(), logger, *streams, *seed, *csvPath, *configPath, *importRows); err != nil {
		logger.Error("generating fixtures failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	streams int,
	seed uint64,
	csvPath string,
	configPath string,
	importRows bool,
) error {

	if csvPath == "" && !importRows {
		return errNothingToDo
	}

	codec, err := userland.NewCodec()
	if err != nil {
		return err
	}

	start := time.Now()

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create csv file: %w", err)
		}
		defer func() { _ = file.Close() }()

		count, err := newGenerator(seed, codec).writeCSV(file, streams)
		if err != nil {
			return fmt.Errorf("write csv file: %w", err)
		}

		logger.Info("fixtures written", "path", csvPath, "events", count, "duration_ms", time.Since(start).Milliseconds())
	}

	if !importRows {
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	poolConfig, err := cfg.PGXPoolConfig()
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	tableName := cfg.TableName
	if tableName == "" {
		tableName = defaultTableName
	}

	if _, err = pool.Exec(ctx, postgresengine.CreateTableSQL(tableName)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	count, err := copyFixtures(ctx, pool, tableName, newGenerator(seed, codec), streams)
	if err != nil {
		return err
	}

	logger.Info("fixtures imported", "table", tableName, "events", count, "duration_ms", time.Since(start).Milliseconds())

	return nil
}

func loadConfig(path string) (postgresengine.Config, error) {
	if path != "" {
		return postgresengine.LoadConfigFile(path)
	}

	cfg := postgresengine.Config{DSN: os.Getenv("EVENTSTORE_POSTGRES_DSN")}

	return cfg, cfg.Validate()
}

// copyFixtures streams the generated rows into tableName with COPY, in batches.
func copyFixtures(ctx context.Context, pool *pgxpool.Pool, tableName string, g *generator, streams int) (int, error) {
	columns := []string{"stream_id", "commit_number", "event_type", "payload"}
	batch := make([][]any, 0, copyBatchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		copied, err := pool.CopyFrom(ctx, pgx.Identifier{tableName}, columns, pgx.CopyFromRows(batch))
		if err != nil {
			return fmt.Errorf("copy fixtures: %w", err)
		}

		total += int(copied)
		batch = batch[:0]

		return nil
	}

	err := g.generate(streams, func(row fixtureRow) error {
		batch = append(batch, row.copyValues())
		if len(batch) < copyBatchSize {
			return nil
		}

		return flush()
	})
	if err != nil {
		return total, err
	}

	return total, flush()
}
