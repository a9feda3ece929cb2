// Package locationindex implements the trie that maps every repeated substring
// of a fragment to the offsets where it occurs.
//
// Nodes live in a single arena and refer to each other by [Handle]. Each node
// stands for the byte sequence spelled by the path from the root to it. Its
// children are kept in a sibling list sorted by byte value, so a depth-first
// walk visits sequences in ascending order with shorter sequences before their
// extensions. Lookups go through an edge map instead of the sibling lists.
//
// Occurrence lists are non-overlapping: once a sequence matches at some offset,
// the next candidate offset is at least one sequence length further on. A
// child's list is derived by filtering its parent's, so a longer sequence never
// has more occurrences than its prefix.
package locationindex

import (
	"bytes"

	"github.com/dargueta/dcp/sequence"
)

// Handle identifies a node in an [Index].
type Handle int32

// Root is the handle of the root node, which stands for the empty sequence.
const Root = Handle(0)

// NoHandle marks the absence of a node.
const NoHandle = Handle(-1)

type node struct {
	parent      Handle
	firstChild  Handle
	nextSibling Handle
	value       byte
	depth       int
	// computed is set once the occurrence list has been filled in. An empty
	// list with computed set means the sequence was checked and doesn't repeat.
	computed bool
	// exhausted is set by the selector when this sequence can never be chosen
	// because its occurrences collide with an already-chosen pattern.
	exhausted bool
	locations []int
}

// Index is the trie built over a single fragment. It is not safe for concurrent
// use, but indexes of different fragments share nothing.
type Index struct {
	fragment         []byte
	maxPatternLength int
	nodes            []node
	edges            map[uint64]Handle
}

func edgeKey(parent Handle, value byte) uint64 {
	return uint64(parent)<<8 | uint64(value)
}

// Build indexes every substring of `fragment` that has a length between 2 and
// `maxPatternLength` inclusive and occurs at least twice.
//
// The fragment is referenced, not copied, and must not be modified while the
// index is in use.
func Build(fragment []byte, maxPatternLength int) *Index {
	idx := &Index{
		fragment:         fragment,
		maxPatternLength: maxPatternLength,
		nodes: []node{
			{parent: NoHandle, firstChild: NoHandle, nextSibling: NoHandle},
		},
		edges: make(map[uint64]Handle),
	}

	// Every byte in the fragment gets a depth-1 node, even the last one. This
	// lets Contains answer short lookups without scanning the fragment.
	for _, b := range fragment {
		idx.child(Root, b)
	}

	if len(fragment) < 2 || maxPatternLength < 2 {
		return idx
	}

	buckets := newBigramBuckets(fragment)

	for start := 0; start <= len(fragment)-2; start++ {
		current := idx.child(Root, fragment[start])

		for length := 2; length <= maxPatternLength && start+length <= len(fragment); length++ {
			parent := current
			current = idx.child(parent, fragment[start+length-1])

			if !idx.nodes[current].computed {
				var locations []int
				if length == 2 {
					locations = buckets.nonOverlapping(fragment, start)
				} else {
					locations = refineLocations(
						idx.nodes[parent].locations,
						fragment,
						start,
						length,
					)
				}
				idx.nodes[current].locations = locations
				idx.nodes[current].computed = true
			}

			if len(idx.nodes[current].locations) < 2 {
				// No extension of this sequence can repeat either.
				break
			}
		}
	}
	return idx
}

// refineLocations derives the occurrence list of fragment[start:start+length]
// from the list of its prefix one byte shorter. An offset is kept if it doesn't
// overlap the previously kept offset and the final byte matches.
func refineLocations(prefixLocations []int, fragment []byte, start, length int) []int {
	lastByte := fragment[start+length-1]
	kept := make([]int, 0, len(prefixLocations))

	for _, offset := range prefixLocations {
		if len(kept) > 0 && offset-kept[len(kept)-1] < length {
			continue
		}
		if offset+length > len(fragment) || fragment[offset+length-1] != lastByte {
			continue
		}
		kept = append(kept, offset)
	}
	return kept
}

// child returns the handle of the child of `parent` for byte `value`, creating
// it if it doesn't exist yet.
func (idx *Index) child(parent Handle, value byte) Handle {
	key := edgeKey(parent, value)
	if existing, ok := idx.edges[key]; ok {
		return existing
	}

	handle := Handle(len(idx.nodes))
	idx.nodes = append(
		idx.nodes,
		node{
			parent:      parent,
			firstChild:  NoHandle,
			nextSibling: NoHandle,
			value:       value,
			depth:       idx.nodes[parent].depth + 1,
		},
	)
	idx.edges[key] = handle

	// Insert into the parent's sibling list, keeping it sorted by byte value.
	first := idx.nodes[parent].firstChild
	if first == NoHandle || idx.nodes[first].value > value {
		idx.nodes[handle].nextSibling = first
		idx.nodes[parent].firstChild = handle
		return handle
	}

	previous := first
	for {
		next := idx.nodes[previous].nextSibling
		if next == NoHandle || idx.nodes[next].value > value {
			idx.nodes[handle].nextSibling = next
			idx.nodes[previous].nextSibling = handle
			return handle
		}
		previous = next
	}
}

// Fragment returns the data this index was built from.
func (idx *Index) Fragment() []byte {
	return idx.fragment
}

// MaxPatternLength returns the longest sequence length this index records.
func (idx *Index) MaxPatternLength() int {
	return idx.maxPatternLength
}

// NodeCount returns the number of nodes in the trie, excluding the root.
func (idx *Index) NodeCount() int {
	return len(idx.nodes) - 1
}

// Lookup returns the node for `seq`, if one exists.
func (idx *Index) Lookup(seq sequence.ByteSequence) (Handle, bool) {
	current := Root
	for _, b := range seq {
		next, ok := idx.edges[edgeKey(current, b)]
		if !ok {
			return NoHandle, false
		}
		current = next
	}
	return current, true
}

// Contains returns true if `seq` occurs anywhere in the fragment, overlapping
// or not.
func (idx *Index) Contains(seq sequence.ByteSequence) bool {
	current := Root
	for i, b := range seq {
		next, ok := idx.edges[edgeKey(current, b)]
		if !ok {
			// Every byte and byte pair of the fragment has a node, so a miss at
			// depth 1 or 2 is conclusive. Deeper branches may have been pruned.
			if i < 2 {
				return false
			}
			return bytes.Contains(idx.fragment, seq)
		}
		current = next
	}
	return true
}

// Depth returns the length of the sequence a node stands for.
func (idx *Index) Depth(handle Handle) int {
	return idx.nodes[handle].depth
}

// Locations returns the occurrence offsets of a node's sequence in ascending
// order. The slice belongs to the index and must not be modified.
func (idx *Index) Locations(handle Handle) []int {
	return idx.nodes[handle].locations
}

// Count returns the number of non-overlapping occurrences of a node's sequence.
// Nodes whose occurrences were never computed report zero.
func (idx *Index) Count(handle Handle) int {
	return len(idx.nodes[handle].locations)
}

// Computed returns true if the occurrence list of a node has been filled in.
func (idx *Index) Computed(handle Handle) bool {
	return idx.nodes[handle].computed
}

// Parent returns the parent of a node, or [NoHandle] for the root.
func (idx *Index) Parent(handle Handle) Handle {
	return idx.nodes[handle].parent
}

// Exhausted returns true if the node was flagged by [Index.MarkExhausted].
func (idx *Index) Exhausted(handle Handle) bool {
	return idx.nodes[handle].exhausted
}

// MarkExhausted flags a node so that selection skips it from now on.
func (idx *Index) MarkExhausted(handle Handle) {
	idx.nodes[handle].exhausted = true
}

// Pattern rebuilds the sequence a node stands for by following parent links.
func (idx *Index) Pattern(handle Handle) sequence.ByteSequence {
	pattern := make(sequence.ByteSequence, idx.nodes[handle].depth)
	for current := handle; current != Root; current = idx.nodes[current].parent {
		pattern[idx.nodes[current].depth-1] = idx.nodes[current].value
	}
	return pattern
}

// Walk calls `visit` for every node except the root, depth first, children in
// ascending byte order, each node before its descendants. If `visit` returns
// false the node's descendants are skipped.
func (idx *Index) Walk(visit func(handle Handle) bool) {
	idx.walkChildren(Root, visit)
}

func (idx *Index) walkChildren(parent Handle, visit func(handle Handle) bool) {
	for child := idx.nodes[parent].firstChild; child != NoHandle; child = idx.nodes[child].nextSibling {
		if visit(child) {
			idx.walkChildren(child, visit)
		}
	}
}
