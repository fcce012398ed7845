package temporal

import "sort"

// IndexBefore returns the index of the last element of items whose key is
// strictly less than k, and true. It returns false when items is empty or
// every element has a key at or after k.
//
// Elements equal to k sit on the right side of the partition, so with
// duplicate keys the returned index always points to the last strictly-less
// element. Runs in O(log n).
func IndexBefore[T any](items []T, k Key, keyOf func(T) Key) (int, bool) {
	if len(items) == 0 || k.Compare(keyOf(items[0])) <= 0 {
		return 0, false
	}
	if k.Compare(keyOf(items[len(items)-1])) > 0 {
		return len(items) - 1, true
	}

	// First index whose key is >= k; at least 1 after the front check above.
	i := sort.Search(len(items), func(i int) bool {
		return keyOf(items[i]).Compare(k) >= 0
	})
	return i - 1, true
}

// IndexesBetween returns (start, end) such that items[start:end] is the
// half-open range of elements with lo <= key < hi. Returns (0, 0) when items
// is empty or lo >= hi. Runs in O(log n).
func IndexesBetween[T any](items []T, lo, hi Key, keyOf func(T) Key) (int, int) {
	if len(items) == 0 || lo.Compare(hi) >= 0 {
		return 0, 0
	}

	start := sort.Search(len(items), func(i int) bool {
		return keyOf(items[i]).Compare(lo) >= 0
	})
	end := sort.Search(len(items), func(i int) bool {
		return keyOf(items[i]).Compare(hi) >= 0
	})
	return start, end
}
