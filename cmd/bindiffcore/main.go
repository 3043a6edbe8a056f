// Command bindiffcore compares two JSON-encoded call-graph fixtures and
// prints the resulting FixedPoints. It is a minimal stand-in for a real
// loader/writer pair (spec §6): production deployments implement
// ports.ExecutableFactory against a disassembler's export format and
// ports.ResultVisitor against a results database instead of stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/whicun/bindiff/config"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/pipeline"
	"github.com/whicun/bindiff/ports"
)

func main() {
	primaryPath := flag.String("primary", "", "path to the primary call-graph fixture (JSON)")
	secondaryPath := flag.String("secondary", "", "path to the secondary call-graph fixture (JSON)")
	workers := flag.Int("workers", 0, "worker pool size (0 = GOMAXPROCS)")
	flag.Parse()

	if *primaryPath == "" || *secondaryPath == "" {
		fmt.Fprintln(os.Stderr, "bindiffcore: -primary and -secondary are required")
		os.Exit(2)
	}

	if err := run(*primaryPath, *secondaryPath, *workers); err != nil {
		fmt.Fprintln(os.Stderr, "bindiffcore:", err)
		os.Exit(1)
	}
}

func run(primaryPath, secondaryPath string, workers int) error {
	cache := instruction.NewCache()

	primary, err := loadInto(cache, primaryPath)
	if err != nil {
		return err
	}
	secondary, err := loadInto(cache, secondaryPath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var opts []config.Option
	if workers > 0 {
		opts = append(opts, config.WithWorkers(workers))
	}
	cfg, err := config.New(opts...)
	if err != nil {
		return err
	}

	driver := pipeline.New(cfg)
	result, err := driver.Run(ctx, primary, secondary, cache)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	return ports.Walk(result.FixedPoints, textReport{Out: os.Stdout})
}
