package partition

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/featbank/bank"
	"github.com/hupe1980/featbank/blobstore"
)

// Load reads the named partitions and merges them into one bank.
//
// Partitions are fetched and decoded concurrently, but merged strictly in the
// order given: when two partitions define the same entity, the later one in
// names wins. Each collision is logged as a warning — overlapping partitions
// usually mean a misconfigured split rather than an intended shadowing.
//
// Any read failure aborts the whole load; a feature bank is required input
// and there is no sensible partial mode.
func Load(ctx context.Context, store blobstore.Store, names []string, wantChannels int, log *slog.Logger) (bank.Bank, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	banks := make([]bank.Bank, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			b, err := Read(gctx, store, name, wantChannels)
			if err != nil {
				return err
			}
			banks[i] = b
			log.Info("partition loaded",
				"partition", name,
				"entities", len(b),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(bank.Bank)
	for i, b := range banks {
		for _, id := range merged.Merge(b) {
			log.Warn("partition key collision, later partition wins",
				"partition", names[i],
				"entity", id,
			)
		}
	}
	return merged, nil
}
