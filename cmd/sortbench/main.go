// Command sortbench measures spatial hash and radix sort throughput across
// particle counts, spanning both sides of the sorter's large-batch threshold.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
	"github.com/pthm-cable/silt/particle"
	"github.com/pthm-cable/silt/solver"
)

func main() {
	workers := flag.Int("workers", 0, "Dispatcher worker count (0 = GOMAXPROCS)")
	rounds := flag.Int("rounds", 10, "Timed rounds per particle count")
	seed := flag.Int64("seed", 42, "Position RNG seed")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	counts := []int{1_000, 10_000, 25_000, 50_000, 100_000}

	d := compute.NewDispatcher(*workers)
	d.Start()
	defer d.Stop()

	rng := rand.New(rand.NewSource(*seed))
	hasher := solver.SpatialHasher{GridSize: 0.1}
	sorter := solver.NewRadixSorter()

	for _, count := range counts {
		positions := make([]mgl32.Vec3, count)
		for i := range positions {
			positions[i] = mgl32.Vec3{
				rng.Float32()*8 - 4,
				rng.Float32() * 8,
				rng.Float32()*8 - 4,
			}
		}
		pairs := particle.NewKeyPingPong(count)

		// Warm-up round, then validate the result once.
		hasher.Run(d, positions, pairs.Keys(), pairs.Indices())
		sorter.Sort(d, pairs)
		if !sortedAndComplete(pairs, count) {
			slog.Error("sort validation failed", "count", count)
			os.Exit(1)
		}

		var hashTotal, sortTotal time.Duration
		for r := 0; r < *rounds; r++ {
			start := time.Now()
			hasher.Run(d, positions, pairs.Keys(), pairs.Indices())
			hashTotal += time.Since(start)

			start = time.Now()
			sorter.Sort(d, pairs)
			sortTotal += time.Since(start)
		}

		hashAvg := hashTotal / time.Duration(*rounds)
		sortAvg := sortTotal / time.Duration(*rounds)
		slog.Info("sortbench",
			"count", count,
			"hash_avg_us", hashAvg.Microseconds(),
			"sort_avg_us", sortAvg.Microseconds(),
			"particles_per_sec", float64(count)/sortAvg.Seconds(),
		)
	}
}

// sortedAndComplete reports whether the keys are non-decreasing and the
// indices form a permutation of [0, count).
func sortedAndComplete(pairs *particle.KeyPingPong, count int) bool {
	keys := pairs.Keys()
	for i := 1; i < count; i++ {
		if keys[i-1] > keys[i] {
			return false
		}
	}

	seen := make([]bool, count)
	for _, idx := range pairs.Indices() {
		if int(idx) >= count || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
