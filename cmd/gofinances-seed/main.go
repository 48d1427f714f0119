// Command gofinances-seed imports a JSON array of transaction records into
// the configured store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gofinances/internal/amqp"
	"gofinances/internal/backend"
	"gofinances/internal/cli"
	"gofinances/internal/config"
	"gofinances/internal/core"
	"gofinances/internal/events"
	"gofinances/internal/kafka"
	applog "gofinances/internal/log"
	"gofinances/internal/services"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of transaction records")
	replace := flag.Bool("replace", false, "overwrite the stored list instead of appending")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentSeed)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: gofinances-seed -file records.json [-replace]")
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	if err := run(logger, cfg, *file, *replace); err != nil {
		logger.Error("Import failed", applog.FieldError, err, applog.FieldOperation, applog.OpSeed)
		os.Exit(1)
	}
}

func run(logger *applog.Logger, cfg *config.Config, file string, replace bool) error {
	if cfg.DataBackend == string(backend.MemoryBackend) {
		return errors.New("seeding the memory backend has no lasting effect; set DATA_BACKEND to sqlite or postgres")
	}

	records, err := readRecords(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).CreateStore(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	// Announce the import so a running dashboard refreshes.
	var publishers events.Multi
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, import will not be announced", applog.FieldError, err)
		} else {
			defer client.Close()
			publishers = append(publishers, client)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Warn("Kafka unavailable", applog.FieldError, err)
		} else {
			defer p.Close()
			publishers = append(publishers, p)
		}
	}
	var publisher events.Publisher
	if len(publishers) > 0 {
		publisher = publishers
	}

	n, err := services.NewTransactionRecorder(store, cfg.StorageKey, publisher).Import(ctx, records, replace)
	if err != nil {
		return err
	}
	logger.Info("Import complete",
		applog.FieldOperation, applog.OpSeed,
		applog.FieldCount, n,
		applog.FieldStorageKey, cfg.StorageKey,
		"file", file,
		"replace", replace)
	return nil
}

func readRecords(path string) ([]core.TransactionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []core.TransactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
