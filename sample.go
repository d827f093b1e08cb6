package featbank

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/featbank/bank"
)

// Sample returns a block of long-term features around timestamp for the
// given entity.
//
// The block has windowSize*maxSamples rows of channels columns: for each
// second in [timestamp-windowSize/2, timestamp-windowSize/2+windowSize), up
// to maxSamples features are drawn uniformly at random without replacement
// and written in draw order; all remaining rows stay zero. Seconds with no
// recorded features are a normal zero-fill case, not an error.
//
// Repeated calls for the same query return different blocks on purpose:
// stochastic sub-sampling is a training-time augmentation. Callers that need
// determinism seed the store with WithRandSource.
//
// Sample fails with ErrNotFound when the entity is absent from the bank
// entirely.
func (s *Store) Sample(ctx context.Context, entityID string, timestamp int) (*bank.Block, error) {
	start := time.Now()
	block, err := s.sample(ctx, entityID, timestamp)
	s.opts.metrics.RecordSample(time.Since(start), err)
	s.opts.logger.LogSample(ctx, entityID, timestamp, err)
	return block, translateError(err)
}

func (s *Store) sample(ctx context.Context, entityID string, timestamp int) (*bank.Block, error) {
	fetchStart := time.Now()
	rec, err := s.backend.Record(ctx, entityID)
	s.opts.metrics.RecordFetch(time.Since(fetchStart), err)
	if err != nil {
		return nil, err
	}

	windowSize, maxSamples := s.opts.windowSize, s.opts.maxSamples
	block := bank.NewBlock(windowSize*maxSamples, s.opts.channels)

	// The window may start before zero or run past the last recorded second;
	// such seconds simply stay zero.
	startSec := timestamp - windowSize/2

	for i := 0; i < windowSize; i++ {
		feats := rec.FeaturesAt(startSec + i)
		if len(feats) == 0 {
			continue
		}

		n := min(len(feats), maxSamples)
		for k, idx := range s.draw(len(feats), n) {
			block.SetRow(i*maxSamples+k, feats[idx])
		}
	}

	return block, nil
}

// draw picks n distinct indices uniformly at random from [0,count), in draw
// order.
func (s *Store) draw(count, n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(count)[:n]
}

// SampleKey samples via a combined "<entity>,<timestamp>" key, the form in
// which detection datasets index their clips (e.g. "0f39OWEqJ24,0902").
func (s *Store) SampleKey(ctx context.Context, key string) (*bank.Block, error) {
	entityID, tsPart, ok := strings.Cut(key, ",")
	if !ok || strings.Contains(tsPart, ",") {
		return nil, &KeyParseError{Key: key}
	}

	timestamp, err := strconv.Atoi(tsPart)
	if err != nil {
		return nil, &KeyParseError{Key: key, cause: err}
	}

	return s.Sample(ctx, entityID, timestamp)
}
