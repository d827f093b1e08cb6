package featbank

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featbank/bank"
	"github.com/hupe1980/featbank/blobstore"
	"github.com/hupe1980/featbank/cluster"
	"github.com/hupe1980/featbank/partition"
	"github.com/hupe1980/featbank/testutil"
)

// scenarioBank matches the worked sampling example: two features at second
// 10, one at second 11, channels=3.
func scenarioBank() bank.Bank {
	return bank.Bank{
		"vid42": bank.Record{
			10: {bank.Vector{1, 1, 1}, bank.Vector{2, 2, 2}},
			11: {bank.Vector{9, 9, 9}},
		},
	}
}

func writePartitions(t *testing.T, prefix string, parts map[string]bank.Bank) {
	t.Helper()
	store := blobstore.NewLocal(prefix)
	for name, b := range parts {
		require.NoError(t, partition.Write(context.Background(), store, name, b, partition.WriteOptions{}))
	}
}

func newTestStore(t *testing.T, prefix string, opts ...Option) *Store {
	t.Helper()
	store, err := New(context.Background(), prefix, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewConfigErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingPrefix", func(t *testing.T) {
		_, err := New(ctx, "/does/not/exist")
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "prefix", cfgErr.Option)
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		_, err := New(ctx, t.TempDir(), WithBackend(BackendKind("gpu")))
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "backend", cfgErr.Option)
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		_, err := New(ctx, t.TempDir(), WithWindowSize(0))
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("BarrierRequiredForMultiProcessPersistent", func(t *testing.T) {
		prefix := t.TempDir()
		writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

		_, err := New(ctx, prefix,
			WithBackend(BackendPersistent),
			WithPartitions("train"),
			WithChannels(3),
			WithCluster(cluster.Info{Rank: 0, WorldSize: 2}),
		)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "barrier", cfgErr.Option)
	})

	t.Run("MissingPartition", func(t *testing.T) {
		prefix := t.TempDir()
		writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

		_, err := New(ctx, prefix, WithPartitions("train", "val"), WithChannels(3))
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestSampleScenario(t *testing.T) {
	// window=4, max=2, channels=3; query ts=11 so the window covers seconds
	// 9..12. Expected 8 rows: sec 9 zero, sec 10 both vectors in some order,
	// sec 11 [9,9,9] then zero, sec 12 zero.
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	store := newTestStore(t, prefix,
		WithPartitions("train"),
		WithWindowSize(4),
		WithMaxSamples(2),
		WithChannels(3),
	)

	block, err := store.Sample(ctx, "vid42", 11)
	require.NoError(t, err)

	require.Equal(t, 8, block.Rows())
	require.Equal(t, 3, block.Channels())

	zero := []float32{0, 0, 0}

	assert.Equal(t, zero, block.Row(0))
	assert.Equal(t, zero, block.Row(1))

	// Second 10 contributes both features, order random.
	got := [][]float32{block.Row(2), block.Row(3)}
	assert.ElementsMatch(t, [][]float32{{1, 1, 1}, {2, 2, 2}}, got)

	assert.Equal(t, []float32{9, 9, 9}, block.Row(4))
	assert.Equal(t, zero, block.Row(5))
	assert.Equal(t, zero, block.Row(6))
	assert.Equal(t, zero, block.Row(7))
}

func TestSampleZeroFill(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	store := newTestStore(t, prefix,
		WithPartitions("train"),
		WithWindowSize(4),
		WithMaxSamples(2),
		WithChannels(3),
	)

	// Window far away from any recorded second: entirely zero, exact shape.
	block, err := store.Sample(ctx, "vid42", 500)
	require.NoError(t, err)
	assert.Equal(t, 8, block.Rows())
	assert.Equal(t, 3, block.Channels())
	assert.True(t, block.IsZero())

	// Negative window start is fine too.
	block, err = store.Sample(ctx, "vid42", 0)
	require.NoError(t, err)
	assert.True(t, block.IsZero())
}

func TestSampleCardinalityAndDistinctness(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()

	// 7 distinguishable features at one second, cap at 3 per second.
	feats := make([]bank.Vector, 7)
	for i := range feats {
		feats[i] = bank.Vector{float32(i + 1)}
	}
	writePartitions(t, prefix, map[string]bank.Bank{
		"train": {"vid": bank.Record{100: feats}},
	})

	store := newTestStore(t, prefix,
		WithPartitions("train"),
		WithWindowSize(2),
		WithMaxSamples(3),
		WithChannels(1),
	)

	for trial := 0; trial < 50; trial++ {
		block, err := store.Sample(ctx, "vid", 101)
		require.NoError(t, err)

		// Second 100 lands at window offset 0: rows 0..2.
		seen := map[float32]bool{}

		for row := 0; row < 3; row++ {
			v := block.Row(row)[0]
			require.NotZero(t, v, "cap of 3 must be filled from 7 available")
			require.False(t, seen[v], "indices must be drawn without replacement")
			seen[v] = true
		}
		// No more than max samples contributed.
		for row := 3; row < block.Rows(); row++ {
			require.Zero(t, block.Row(row)[0])
		}
	}
}

func TestSampleFewerThanMax(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{
		"train": {"vid": bank.Record{100: {bank.Vector{5}}}},
	})

	store := newTestStore(t, prefix,
		WithPartitions("train"),
		WithWindowSize(2),
		WithMaxSamples(4),
		WithChannels(1),
	)

	block, err := store.Sample(ctx, "vid", 101)
	require.NoError(t, err)

	assert.Equal(t, []float32{5}, block.Row(0))
	for row := 1; row < block.Rows(); row++ {
		assert.Zero(t, block.Row(row)[0])
	}
}

func TestSampleNotFound(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	store := newTestStore(t, prefix, WithPartitions("train"), WithChannels(3))

	_, err := store.Sample(ctx, "never-loaded", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSampleKey(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	store := newTestStore(t, prefix,
		WithPartitions("train"),
		WithWindowSize(4),
		WithMaxSamples(2),
		WithChannels(3),
	)

	t.Run("Valid", func(t *testing.T) {
		block, err := store.SampleKey(ctx, "vid42,11")
		require.NoError(t, err)
		assert.Equal(t, 8, block.Rows())
	})

	t.Run("LeadingZeroTimestamp", func(t *testing.T) {
		_, err := store.SampleKey(ctx, "vid42,0011")
		require.NoError(t, err)
	})

	t.Run("NoSeparator", func(t *testing.T) {
		_, err := store.SampleKey(ctx, "vid42")
		var parseErr *KeyParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "vid42", parseErr.Key)
	})

	t.Run("TooManySeparators", func(t *testing.T) {
		_, err := store.SampleKey(ctx, "vid42,11,12")
		var parseErr *KeyParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("NonIntegerTimestamp", func(t *testing.T) {
		_, err := store.SampleKey(ctx, "vid42,eleven")
		var parseErr *KeyParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}

func TestMergePrecedence(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()

	writePartitions(t, prefix, map[string]bank.Bank{
		"train": {"x": bank.Record{100: {bank.Vector{1}}}},
		"val":   {"x": bank.Record{100: {bank.Vector{2}}}},
	})

	store := newTestStore(t, prefix,
		WithPartitions("train", "val"),
		WithWindowSize(2),
		WithMaxSamples(1),
		WithChannels(1),
	)

	block, err := store.Sample(ctx, "x", 101)
	require.NoError(t, err)
	// "val" loads after "train" and wins.
	assert.Equal(t, []float32{2}, block.Row(0))
}

func TestLen(t *testing.T) {
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	t.Run("InMemory", func(t *testing.T) {
		store := newTestStore(t, prefix, WithPartitions("train"), WithChannels(3))
		n, err := store.Len()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("PersistentUnsupported", func(t *testing.T) {
		store := newTestStore(t, prefix,
			WithPartitions("train"),
			WithChannels(3),
			WithBackend(BackendPersistent),
		)
		_, err := store.Len()
		assert.ErrorIs(t, err, ErrLenUnsupported)
	})
}

func TestBackendEquivalence(t *testing.T) {
	// Identical data and an identical fixed seed must yield bit-identical
	// blocks across all three backends; only storage differs.
	ctx := context.Background()

	rng := testutil.NewRNG(1)
	data := bank.Bank{
		"vid": testutil.RandomRecord(rng, 95, 20, 8, 16),
	}

	var blocks []*bank.Block
	for _, kind := range []BackendKind{BackendDevice, BackendHost, BackendPersistent} {
		prefix := t.TempDir()
		writePartitions(t, prefix, map[string]bank.Bank{"train": data})

		store := newTestStore(t, prefix,
			WithPartitions("train"),
			WithWindowSize(10),
			WithMaxSamples(3),
			WithChannels(16),
			WithBackend(kind),
			WithRandSource(rand.NewSource(99)),
		)

		block, err := store.Sample(ctx, "vid", 100)
		require.NoError(t, err, string(kind))
		blocks = append(blocks, block)
	}

	assert.Equal(t, blocks[0].Data(), blocks[1].Data())
	assert.Equal(t, blocks[0].Data(), blocks[2].Data())
}

func TestPersistentSkipConstruction(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	// First store constructs the file.
	first := newTestStore(t, prefix,
		WithPartitions("train"),
		WithChannels(3),
		WithBackend(BackendPersistent),
	)
	require.NoError(t, first.Close())

	// Second store reuses it without rebuilding; partitions are not even
	// read, so removing them must not matter.
	store := blobstore.NewLocal(prefix)
	require.NoError(t, store.Put(ctx, partition.FileName("train"), []byte("garbage")))

	reopened := newTestStore(t, prefix,
		WithPartitions("train"),
		WithChannels(3),
		WithBackend(BackendPersistent),
		WithSkipConstruction(),
		WithWindowSize(4),
		WithMaxSamples(2),
	)

	block, err := reopened.Sample(ctx, "vid42", 11)
	require.NoError(t, err)
	assert.False(t, block.IsZero())
}

func TestMetricsRecorded(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()
	writePartitions(t, prefix, map[string]bank.Bank{"train": scenarioBank()})

	metrics := &BasicMetricsCollector{}
	store := newTestStore(t, prefix,
		WithPartitions("train"),
		WithChannels(3),
		WithMetricsCollector(metrics),
	)

	_, err := store.Sample(ctx, "vid42", 11)
	require.NoError(t, err)
	_, err = store.Sample(ctx, "missing", 11)
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.SampleCount)
	assert.Equal(t, int64(1), stats.SampleErrors)
	assert.Equal(t, int64(2), stats.FetchCount)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(1), stats.LoadPartitions)
	assert.Positive(t, stats.LoadAvgNanos)
}

func TestParseBackendKind(t *testing.T) {
	for _, s := range []string{"device", "host", "persistent"} {
		kind, err := ParseBackendKind(s)
		require.NoError(t, err)
		assert.Equal(t, BackendKind(s), kind)
	}

	_, err := ParseBackendKind("lmdb")
	assert.Error(t, err)
}
