package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BaSui01/llmschema/schemastore"
)

const schemaUsage = "usage: llmschema schema [--config path] put <name> <file> | get <name> | list | delete <name>"

func runSchema(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New(schemaUsage)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, err := schemastore.NewRedisStore(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return schemaCommand(ctx, store, fs.Args(), stdout)
}

// schemaCommand 在给定存储上执行 schema 子命令
func schemaCommand(ctx context.Context, store schemastore.Store, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(schemaUsage)
	}
	switch args[0] {
	case "put":
		if len(args) != 3 {
			return errors.New(schemaUsage)
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("read schema file: %w", err)
		}
		if err := store.Put(ctx, args[1], data); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "stored %s\n", args[1])
		return nil

	case "get":
		if len(args) != 2 {
			return errors.New(schemaUsage)
		}
		def, err := store.Get(ctx, args[1])
		if err != nil {
			return err
		}
		data, err := def.Document().MarshalJSONIndent()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil

	case "list":
		names, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil

	case "delete":
		if len(args) != 2 {
			return errors.New(schemaUsage)
		}
		if err := store.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown schema command %q\n%s", args[0], schemaUsage)
	}
}
