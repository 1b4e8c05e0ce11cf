package reconcile

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/recondo/recondo/pkg/index"
)

// ReconcileSharded partitions the key space by hash into n disjoint shards,
// reconciles each shard concurrently, and merges the partial results. Every
// aggregation operator involved is associative and commutative across
// shards, and the merge applies a stable by-key sort, so the output is
// identical to the single-threaded run.
func ReconcileSharded(a, b *index.Index, policies *Policies, shards int) (*Result, error) {
	if shards <= 1 {
		return Reconcile(a, b, policies)
	}
	if err := preflight(a, b); err != nil {
		return nil, err
	}

	aParts := partition(a.Keys(), shards)
	bParts := partition(b.Keys(), shards)

	// Each shard owns its slice of both key sets and its own partial
	// result; nothing mutable is shared.
	partials := make([]*Result, shards)
	var wg sync.WaitGroup
	for i := 0; i < shards; i++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			partial := &Result{
				Mismatches:       make(map[string][]Mismatch),
				ComparableFields: comparableFields(a, b),
			}
			compareKeys(a, b, policies, aParts[shard], bParts[shard], partial)
			partials[shard] = partial
		}(i)
	}
	wg.Wait()

	return merge(a, b, partials), nil
}

// partition assigns each key to a shard by FNV-1a hash. Input order within
// a shard is preserved (already sorted).
func partition(keys []index.Key, shards int) [][]index.Key {
	parts := make([][]index.Key, shards)
	for _, key := range keys {
		h := fnv.New32a()
		_, _ = h.Write([]byte(key))
		shard := int(h.Sum32() % uint32(shards))
		parts[shard] = append(parts[shard], key)
	}
	return parts
}

// merge reduces shard partials into one Result. List concatenation order is
// fixed by a by-key sort at merge time.
func merge(a, b *index.Index, partials []*Result) *Result {
	out := newResult(a, b)
	for _, partial := range partials {
		out.OnlyInA = append(out.OnlyInA, partial.OnlyInA...)
		out.OnlyInB = append(out.OnlyInB, partial.OnlyInB...)
		out.CommonKeys += partial.CommonKeys
		for field, list := range partial.Mismatches {
			out.Mismatches[field] = append(out.Mismatches[field], list...)
		}
	}

	sortKeys(out.OnlyInA)
	sortKeys(out.OnlyInB)
	for field := range out.Mismatches {
		list := out.Mismatches[field]
		sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	}
	return out
}

func sortKeys(keys []index.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
