/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/suparena/recordgateway"
	"github.com/suparena/recordgateway/config"
	"github.com/suparena/recordgateway/storagemodels"
)

const usage = `gatewayctl - query record gateways from the command line

Usage:
  gatewayctl <command> [flags]

Commands:
  find      List records of a model
  get       Fetch one record by id
  count     Count records of a model
  exists    Report whether any record matches
  create    Create a record from JSON
  update    Update a record by id
  delete    Delete a record by id
  models    List configured models
  version   Show version information

Flags:
  --config   Path to the configuration file (default: ./recordgateway.yaml)
  --model    Model name
  --where    Filter as JSON, e.g. '{"views": {"$gt": 10}}'
  --include  Comma separated relations to include
  --sort     Sort expression, e.g. "-createdAt,title"
  --skip     Records to skip
  --limit    Maximum records to return
  --id       Record id
  --data     Record or update document as JSON
  --new      Return the updated record instead of the previous one

Examples:
  gatewayctl find --model posts --where '{"published": true}' --include tags --sort -createdAt --limit 10
  gatewayctl get --model posts --id 42 --include author
  gatewayctl update --model posts --id 42 --data '{"$inc": {"views": 1}}' --new
`

type options struct {
	config    string
	model     string
	where     string
	include   string
	sort      string
	skip      int64
	limit     int64
	id        string
	data      string
	returnNew bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}
	command := args[0]

	if command == "version" {
		info := recordgateway.GetVersionInfo()
		fmt.Fprintf(out, "recordgateway gatewayctl version %s\n", info.Version)
		fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
		fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
		return nil
	}

	var opts options
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.config, "config", "./recordgateway.yaml", "Path to the configuration file")
	fs.StringVar(&opts.model, "model", "", "Model name")
	fs.StringVar(&opts.where, "where", "", "Filter as JSON")
	fs.StringVar(&opts.include, "include", "", "Comma separated relations to include")
	fs.StringVar(&opts.sort, "sort", "", "Sort expression")
	fs.Int64Var(&opts.skip, "skip", 0, "Records to skip")
	fs.Int64Var(&opts.limit, "limit", 0, "Maximum records to return")
	fs.StringVar(&opts.id, "id", "", "Record id")
	fs.StringVar(&opts.data, "data", "", "Record or update document as JSON")
	fs.BoolVar(&opts.returnNew, "new", false, "Return the updated record")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w\n\n%s", err, usage)
	}

	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	catalog, closeFn, err := recordgateway.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn(ctx)

	if command == "models" {
		return printJSON(out, catalog.Names())
	}

	if opts.model == "" {
		return fmt.Errorf("--model is required for %s", command)
	}
	g, err := recordgateway.Lookup[storagemodels.Document](catalog, opts.model)
	if err != nil {
		return err
	}
	return execute(ctx, g, command, opts, out)
}

func execute(ctx context.Context, g *recordgateway.Gateway[storagemodels.Document], command string, opts options, out io.Writer) error {
	where, err := parseDocument("where", opts.where)
	if err != nil {
		return err
	}
	filter := storagemodels.Filter{
		Where: where,
		Skip:  opts.skip,
		Limit: opts.limit,
		Sort:  storagemodels.ParseSort(opts.sort),
	}
	include := splitList(opts.include)

	switch command {
	case "find":
		records, err := g.Find(ctx, filter, include)
		if err != nil {
			return err
		}
		return printJSON(out, records)

	case "get":
		if opts.id == "" {
			return fmt.Errorf("--id is required for get")
		}
		record, err := g.FindByID(ctx, opts.id, include)
		if err != nil {
			return err
		}
		return printJSON(out, record)

	case "count":
		n, err := g.Count(ctx, filter)
		if err != nil {
			return err
		}
		return printJSON(out, n)

	case "exists":
		ok, err := g.Exists(ctx, filter)
		if err != nil {
			return err
		}
		return printJSON(out, ok)

	case "create":
		data, err := parseDocument("data", opts.data)
		if err != nil {
			return err
		}
		record, err := g.Create(ctx, data, storagemodels.Options{})
		if err != nil {
			return err
		}
		return printJSON(out, record)

	case "update":
		if opts.id == "" {
			return fmt.Errorf("--id is required for update")
		}
		data, err := parseDocument("data", opts.data)
		if err != nil {
			return err
		}
		doc, err := g.FindByIDAndUpdate(ctx, opts.id, data, storagemodels.Options{ReturnNew: opts.returnNew})
		if err != nil {
			return err
		}
		return printJSON(out, doc)

	case "delete":
		if opts.id == "" {
			return fmt.Errorf("--id is required for delete")
		}
		doc, err := g.FindByIDAndDelete(ctx, opts.id, storagemodels.Options{})
		if err != nil {
			return err
		}
		return printJSON(out, doc)
	}

	return fmt.Errorf("unknown command %q\n\n%s", command, usage)
}

func parseDocument(name, raw string) (storagemodels.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var doc storagemodels.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid --%s JSON: %w", name, err)
	}
	return doc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
