package locationindex

// bigramBuckets lists, for every two-byte value, all offsets where it starts
// in a fragment, in ascending order. Lists are singly linked through `next` so
// the whole structure costs two allocations regardless of fragment contents.
type bigramBuckets struct {
	head [1 << 16]int32
	next []int32
}

func bigramAt(fragment []byte, offset int) int {
	return int(fragment[offset])<<8 | int(fragment[offset+1])
}

func newBigramBuckets(fragment []byte) *bigramBuckets {
	buckets := &bigramBuckets{next: make([]int32, len(fragment))}
	for i := range buckets.head {
		buckets.head[i] = -1
	}

	// Walk backwards so each list ends up in ascending order.
	for offset := len(fragment) - 2; offset >= 0; offset-- {
		bigram := bigramAt(fragment, offset)
		buckets.next[offset] = buckets.head[bigram]
		buckets.head[bigram] = int32(offset)
	}
	return buckets
}

// nonOverlapping returns the non-overlapping occurrences of the bigram at
// `start`, exactly as a forward scan from `start` would find them. Build only
// asks for a bigram at its first occurrence, so no earlier offsets exist.
func (buckets *bigramBuckets) nonOverlapping(fragment []byte, start int) []int {
	var locations []int
	for offset := buckets.head[bigramAt(fragment, start)]; offset >= 0; offset = buckets.next[offset] {
		if int(offset) < start {
			continue
		}
		if len(locations) > 0 && int(offset)-locations[len(locations)-1] < 2 {
			continue
		}
		locations = append(locations, int(offset))
	}
	return locations
}
