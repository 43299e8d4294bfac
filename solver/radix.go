package solver

import (
	"github.com/pthm-cable/silt/compute"
	"github.com/pthm-cable/silt/particle"
)

const (
	radixBins   = 256
	radixPasses = 4

	// smallSortThreshold selects the element-throughput strategy: below it
	// each lane handles one element per block, above it each lane loads
	// four consecutive elements, trading occupancy for access locality.
	smallSortThreshold   = 25_000
	largeElementsPerLane = 4
)

// RadixSorter sorts (morton key, index) pairs by ascending 32-bit key using
// four stable 8-bit passes, each composed of a histogram, an exclusive
// prefix sum over the 256 digit bins, and a scatter through per-group
// cursors. Every pass is stable: a group's elements keep input order within
// a digit run, and groups claim disjoint runs in group order, so earlier
// passes' ordering survives each subsequent pass.
type RadixSorter struct {
	histogram   []uint32          // 256 × numGroups partial bin counts, rebuilt every pass
	offsets     [radixBins]uint32 // exclusive prefix offsets per digit value
	groupStarts []uint32          // 256 × numGroups per-group starting offsets per digit value
}

// NewRadixSorter creates a sorter. Scratch grows on first use.
func NewRadixSorter() *RadixSorter {
	return &RadixSorter{}
}

// groupSpan returns the number of elements each work group covers under the
// strategy selected for count.
func groupSpan(count int) int {
	if count < smallSortThreshold {
		return compute.GroupSize
	}
	return compute.GroupSize * largeElementsPerLane
}

// Sort sorts the ping-pong pair buffers in place. After it returns, the
// current side of p holds keys in non-decreasing order and the matching
// permutation of original indices. Four passes leave the result on the same
// side the sort started from.
func (s *RadixSorter) Sort(d *compute.Dispatcher, p *particle.KeyPingPong) {
	count := len(p.Keys())
	if count == 0 {
		return
	}

	span := groupSpan(count)
	groups := (count + span - 1) / span
	if need := groups * radixBins; len(s.histogram) < need {
		s.histogram = make([]uint32, need)
		s.groupStarts = make([]uint32, need)
	}

	for pass := 0; pass < radixPasses; pass++ {
		shift := uint32(pass * 8)
		s.histogramPass(d, p.Keys(), shift, count, span, groups)
		s.prefixSumPass(d, groups)
		s.scatterPass(d, p, shift, count, span, groups)
		p.Flip()
	}
}

// histogramPass counts, per work group, how many of its elements fall into
// each 8-bit digit bin. Each group owns a disjoint 256-entry slice of the
// global histogram, so no cross-group atomics are needed.
func (s *RadixSorter) histogramPass(d *compute.Dispatcher, keys []uint32, shift uint32, count, span, groups int) {
	d.Dispatch(groups, func(g int) {
		start := g * span
		end := start + span
		if end > count {
			end = count
		}

		var local [radixBins]uint32
		for i := start; i < end; i++ {
			local[(keys[i]>>shift)&0xFF]++
		}
		copy(s.histogram[g*radixBins:(g+1)*radixBins], local[:])
	})
}

// prefixSumPass collapses the per-group histograms into 256 global bin
// totals, runs a work-efficient two-phase exclusive scan over them, then
// derives per-group starting offsets: group g's run for digit value v begins
// at offsets[v] plus the counts of v in all earlier groups. The scan fits a
// single group, so this is one dispatch.
func (s *RadixSorter) prefixSumPass(d *compute.Dispatcher, groups int) {
	d.Dispatch(1, func(int) {
		var bins [radixBins]uint32
		for bin := 0; bin < radixBins; bin++ {
			var sum uint32
			for g := 0; g < groups; g++ {
				sum += s.histogram[g*radixBins+bin]
			}
			bins[bin] = sum
		}

		// Up-sweep: pairwise reduction with doubling stride.
		for stride := 1; stride < radixBins; stride <<= 1 {
			for i := 2*stride - 1; i < radixBins; i += 2 * stride {
				bins[i] += bins[i-stride]
			}
		}

		// Down-sweep: zero the root, then distribute partial sums back.
		bins[radixBins-1] = 0
		for stride := radixBins / 2; stride >= 1; stride >>= 1 {
			for i := 2*stride - 1; i < radixBins; i += 2 * stride {
				t := bins[i-stride]
				bins[i-stride] = bins[i]
				bins[i] += t
			}
		}

		s.offsets = bins

		for bin := 0; bin < radixBins; bin++ {
			running := s.offsets[bin]
			for g := 0; g < groups; g++ {
				s.groupStarts[g*radixBins+bin] = running
				running += s.histogram[g*radixBins+bin]
			}
		}
	})
}

// scatterPass writes each element to the next slot of its group's private
// cursor for that digit, seeded from the per-group starting offsets. Groups
// own disjoint destination ranges per digit, so no cross-group coordination
// is needed and equal-digit elements land in input order: within a group by
// sequential claim, across groups by the group-ordered starting offsets.
// A destination beyond the buffer (possible only under a histogram/offset
// mismatch) is dropped rather than written out of range.
func (s *RadixSorter) scatterPass(d *compute.Dispatcher, p *particle.KeyPingPong, shift uint32, count, span, groups int) {
	srcKeys, srcIdx := p.Keys(), p.Indices()
	dstKeys, dstIdx := p.DstKeys(), p.DstIndices()

	d.Dispatch(groups, func(g int) {
		start := g * span
		end := start + span
		if end > count {
			end = count
		}

		var cursors [radixBins]uint32
		copy(cursors[:], s.groupStarts[g*radixBins:(g+1)*radixBins])

		for i := start; i < end; i++ {
			key := srcKeys[i]
			digit := (key >> shift) & 0xFF
			dest := cursors[digit]
			cursors[digit]++
			if dest >= uint32(count) {
				continue
			}
			dstKeys[dest] = key
			dstIdx[dest] = srcIdx[i]
		}
	})
}
