// Command csetbench is the companion benchmark driver for [cset.Set]: it
// constructs an instance, spawns worker goroutines that each perform a
// deterministic pseudo-random sequence of Add/Remove calls, and reports
// wall time and the final Count.
//
// This is the external collaborator the cset package's design
// deliberately excludes from its own scope — it consumes the public
// [cset.Set] contract like any other caller.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/flurry/cset"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		workers  int
		perOp    int
		keyspace int
		seed     uint64
	)

	cmd := &cobra.Command{
		Use:   "csetbench",
		Short: "Benchmark the cset striped concurrent set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, workers, perOp, keyspace, seed)
		},
	}

	var flags *pflag.FlagSet = cmd.Flags()
	flags.IntVar(&workers, "workers", 4, "number of concurrent worker goroutines")
	flags.IntVar(&perOp, "ops", 250_000, "add/remove operations performed by each worker")
	flags.IntVar(&keyspace, "keyspace", 1_000_000, "size of the uint64 key range operations are drawn from")
	flags.Uint64Var(&seed, "seed", 1, "base seed for each worker's deterministic PRNG sequence")

	return cmd
}

// run spawns workers goroutines, each performing perOp deterministic
// pseudo-random Add/Remove calls against a shared set, and logs the
// elapsed wall time and final count.
func run(ctx context.Context, workers, perOp, keyspace int, seed uint64) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	set := cset.NewSet[uint64, cset.Uint64Hasher](cset.WithLogger[uint64, cset.Uint64Hasher](logger))

	logger.Info("starting benchmark", "workers", workers, "opsPerWorker", perOp, "keyspace", keyspace)

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			return worker(gctx, set, seed+uint64(w), perOp, keyspace)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("csetbench: worker failed: %w", err)
	}

	elapsed := time.Since(start)
	total := workers * perOp
	logger.Info("benchmark complete",
		"elapsed", elapsed,
		"totalOps", total,
		"opsPerSecond", float64(total)/elapsed.Seconds(),
		"finalCount", set.Count(),
	)
	return nil
}

// worker runs a deterministic pseudo-random sequence of Add/Remove calls
// against set, seeded so re-running the benchmark with the same seed
// reproduces the same operation sequence.
func worker(ctx context.Context, set *cset.Set[uint64, cset.Uint64Hasher], seed uint64, ops, keyspace int) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := 0; i < ops; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		key := rng.Uint64N(uint64(keyspace))
		if rng.IntN(3) == 0 {
			set.Remove(key)
			continue
		}
		if _, err := set.Add(key); err != nil {
			return fmt.Errorf("add %d: %w", key, err)
		}
	}
	return nil
}
