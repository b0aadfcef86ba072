// Package hashcash implements the MD5HashCash engine from spec.md §4.2: a
// multi-threaded, counter-partitioned proof-of-work search for a 64-bit
// seed whose MD5 digest (uppercase-hex(seed) ‖ message) has at least
// complexity leading zero bits.
//
// The worker pool is sized from github.com/klauspost/cpuid/v2's logical
// core count, the way _examples/swift-s3-md5-simd depends on cpuid to
// drive its own parallel MD5 implementation's lane/worker sizing. The
// shared counter and solved-flag are go.uber.org/atomic typed wrappers
// instead of raw sync/atomic.
package hashcash

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/big"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// DefaultSliceSize is the number of consecutive counter values a worker
// claims per atomic fetch-add, matching the CLI default in spec.md §6.
const DefaultSliceSize = 1000

// DefaultWorkerCount reports the configured hardware parallelism, per
// spec.md §6's "--thread-count <usize> (default hardware parallelism)".
func DefaultWorkerCount() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Solution is a winning (seed, hash) pair.
type Solution struct {
	Seed uint64
	Hash string // uppercase hex, 32 chars
}

// Solve searches for a seed such that md5(hex(seed) ‖ message) has at
// least complexity leading zero bits. workers and sliceSize select the
// worker count and per-claim counter slice size; zero/negative values
// fall back to DefaultWorkerCount and DefaultSliceSize. Solve has no
// internal timeout: per spec.md §4.2, the surrounding round owns the
// deadline, and callers that need one should cancel ctx.
func Solve(ctx context.Context, message string, complexity uint8, workers, sliceSize int) (Solution, error) {
	if workers <= 0 {
		workers = DefaultWorkerCount()
	}
	if sliceSize <= 0 {
		sliceSize = DefaultSliceSize
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var counter atomic.Uint64
	var solved atomic.Bool
	result := make(chan Solution, 1)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if solved.Load() {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				start := counter.Add(uint64(sliceSize)) - uint64(sliceSize)
				for seed := start; seed < start+uint64(sliceSize); seed++ {
					if solved.Load() {
						return nil
					}
					hash := hashFor(seed, message)
					if leadingZeroBits(hash) >= int(complexity) {
						if solved.CompareAndSwap(false, true) {
							select {
							case result <- Solution{Seed: seed, Hash: hash}:
							default:
							}
							cancel()
						}
						return nil
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return Solution{}, err
	}

	select {
	case sol := <-result:
		return sol, nil
	default:
		return Solution{}, fmt.Errorf("hashcash: search cancelled before a solution was found")
	}
}

// hashFor computes md5(uppercase_hex(seed_be64) ‖ message) as an uppercase
// hex string.
func hashFor(seed uint64, message string) string {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], seed)
	seedHex := strings.ToUpper(fmt.Sprintf("%x", seedBytes[:]))

	sum := md5.Sum([]byte(seedHex + message))
	return strings.ToUpper(fmt.Sprintf("%x", sum[:]))
}

// leadingZeroBits counts the number of leading zero bits in a 32-hex-digit
// (128-bit) MD5 hash, via a big-endian bit-shift check rather than a
// string scan.
func leadingZeroBits(hexHash string) int {
	n := new(big.Int)
	n.SetString(hexHash, 16)
	// 128-bit space; count leading zero bits relative to that width.
	return 128 - n.BitLen()
}

// Verify reports whether seed is a valid proof-of-work for (message,
// complexity), by recomputing the hash and re-checking its leading zero
// bits — the same check Solve uses, so solver and verifier can never
// disagree on the bit-counting rule.
func Verify(seed uint64, hash string, message string, complexity uint8) bool {
	want := hashFor(seed, message)
	if !strings.EqualFold(want, hash) {
		return false
	}
	return leadingZeroBits(want) >= int(complexity)
}
