// Package book implements the read-only opening-book adapter: a binary
// file of (hash, move, weight) records sorted ascending by hash,
// queried by binary search, per spec.md §4.7/§6. Generating the book
// file is explicitly out of scope (spec.md §1); this package only reads
// one.
package book

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hezhaoyun/xiangqigo/common"
)

const recordSize = 12

// CorruptBookError is returned when a book file is truncated or its
// records are not sorted ascending by hash, per spec.md §7. The adapter
// falls back to "no book" rather than partially trusting the file.
type CorruptBookError struct {
	Detail string
}

func (e *CorruptBookError) Error() string {
	return fmt.Sprintf("corrupt opening book: %s", e.Detail)
}

type record struct {
	hash   uint64
	move   uint16
	weight uint16
}

// Book is an immutable, sorted list of opening records ready for binary
// search lookup.
type Book struct {
	records []record
}

// Load parses a book file already read fully into memory. The wire
// format is spec.md's: 12-byte big-endian records of
// (hash uint64, move uint16, weight uint16), sorted ascending by hash.
func Load(data []byte) (*Book, error) {
	if len(data)%recordSize != 0 {
		return nil, &CorruptBookError{Detail: "file size is not a multiple of the 12-byte record size"}
	}
	n := len(data) / recordSize
	records := make([]record, n)
	for i := 0; i < n; i++ {
		off := i * recordSize
		records[i] = record{
			hash:   binary.BigEndian.Uint64(data[off : off+8]),
			move:   binary.BigEndian.Uint16(data[off+8 : off+10]),
			weight: binary.BigEndian.Uint16(data[off+10 : off+12]),
		}
	}
	b := &Book{records: records}
	if err := b.verifySorted(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Book) verifySorted() error {
	for i := 1; i < len(b.records); i++ {
		if b.records[i].hash < b.records[i-1].hash {
			return &CorruptBookError{Detail: fmt.Sprintf("hash not ascending at record %d", i)}
		}
	}
	return nil
}

// VerifyFile validates a book file's raw bytes (record-size multiple and
// ascending hashes) concurrently in fixed-size chunks, without building a
// Book; an in-scope use of golang.org/x/sync/errgroup that
// does not touch the single-threaded search invariant: it is a read-only
// integrity scan run once at load time, not part of search.
func VerifyFile(data []byte) error {
	if len(data)%recordSize != 0 {
		return &CorruptBookError{Detail: "file size is not a multiple of the 12-byte record size"}
	}
	n := len(data) / recordSize
	if n < 2 {
		return nil
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	hashAt := func(i int) uint64 {
		off := i * recordSize
		return binary.BigEndian.Uint64(data[off : off+8])
	}
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			// Start at start, not start+1, so the first comparison in every
			// chunk but the first also checks against the previous chunk's
			// last record: a descending hash straddling a chunk boundary is
			// still caught, not just descents within a single chunk.
			from := start
			if from == 0 {
				from = 1
			}
			for i := from; i < end; i++ {
				if hashAt(i) < hashAt(i-1) {
					return &CorruptBookError{Detail: fmt.Sprintf("hash not ascending at record %d", i)}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Probe returns the from/to squares of a book move for hash, chosen by
// weighted random selection among every matching record using a
// deterministic PRNG seeded from (hash, seed) so the same position and
// seed always reproduce the same choice. Matches are sorted by move
// encoding ascending before the draw, so the result does not depend on
// record order in the file; among equal-weight matches the smallest
// encoding is not preferred, the draw decides.
func (b *Book) Probe(hash uint64, seed uint64) (from, to common.Square, ok bool) {
	lo, hi := 0, len(b.records)
	for lo < hi {
		mid := (lo + hi) / 2
		if b.records[mid].hash < hash {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	start := lo
	if start >= len(b.records) || b.records[start].hash != hash {
		return 0, 0, false
	}
	end := start
	for end < len(b.records) && b.records[end].hash == hash {
		end++
	}
	matches := append([]record(nil), b.records[start:end]...)
	sort.Slice(matches, func(i, j int) bool { return matches[i].move < matches[j].move })

	var totalWeight int
	for _, r := range matches {
		w := int(r.weight)
		if w == 0 {
			w = 1
		}
		totalWeight += w
	}
	target := int(splitmix64(hash^seed) % uint64(totalWeight))

	selected := matches[0].move
	running := 0
	for _, r := range matches {
		w := int(r.weight)
		if w == 0 {
			w = 1
		}
		running += w
		if target < running {
			selected = r.move
			break
		}
	}
	f, t := common.Decode16(selected)
	return f, t, true
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
