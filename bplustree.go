package heapdb

import "sort"

// bpIndex is a per-page, in-memory B+ tree mapping a 4-byte record key to
// the id of the slot holding that record on the owning page. It is never
// persisted: a reload starts with an empty index and repopulates it as
// records are inserted (see Page.InsertRecord).
type bpIndex struct {
	root *bpNode
}

func newBPIndex() *bpIndex {
	return &bpIndex{root: &bpNode{isLeaf: true}}
}

// Insert associates key with slotID. Splits start at the leaf and propagate
// upward; a split of the root adds a new root above it.
func (idx *bpIndex) Insert(key uint32, slotID int) {
	sep, right, split := idx.root.insert(key, slotID)
	if split {
		idx.root = &bpNode{
			keys:     []uint32{sep},
			children: []*bpNode{idx.root, right},
		}
	}
}

// Search returns the slot id associated with key, if present.
func (idx *bpIndex) Search(key uint32) (int, bool) {
	return idx.root.search(key)
}

// bpNode is either a leaf (keys[i] -> slots[i]) or an internal node
// (keys[i] separates children[i] from children[i+1], so
// len(children) == len(keys)+1). Leaves are additionally threaded together
// via next, in ascending key order.
type bpNode struct {
	isLeaf   bool
	keys     []uint32
	slots    []int     // leaf only, parallel to keys
	children []*bpNode // internal only
	next     *bpNode   // leaf only
}

// insert recurses to the owning leaf, appends, and propagates any split back
// up to the caller per §4.3 steps 2-4. When split is true, n itself has
// been split: right is its new right-hand sibling and sep the separator key
// for right. The caller grafts (sep, right) into its own key/child arrays
// just after n, possibly triggering its own split in turn.
func (n *bpNode) insert(key uint32, slotID int) (sep uint32, right *bpNode, split bool) {
	if n.isLeaf {
		pos := sort.Search(len(n.keys), func(i int) bool { return n.keys[i] >= key })
		n.keys = append(n.keys, 0)
		copy(n.keys[pos+1:], n.keys[pos:])
		n.keys[pos] = key

		n.slots = append(n.slots, 0)
		copy(n.slots[pos+1:], n.slots[pos:])
		n.slots[pos] = slotID

		if len(n.keys) <= branchingFactor {
			return 0, nil, false
		}

		mid := len(n.keys) / 2
		newLeaf := &bpNode{
			isLeaf: true,
			keys:   append([]uint32(nil), n.keys[mid:]...),
			slots:  append([]int(nil), n.slots[mid:]...),
			next:   n.next,
		}
		n.keys = n.keys[:mid]
		n.slots = n.slots[:mid]
		n.next = newLeaf
		// A leaf's separator duplicates its own first key: the parent
		// routes keys >= sep into the new leaf, and the key still lives
		// there too.
		return newLeaf.keys[0], newLeaf, true
	}

	childIdx := n.childIndex(key)
	childSep, childRight, childSplit := n.children[childIdx].insert(key, slotID)
	if !childSplit {
		return 0, nil, false
	}

	n.keys = append(n.keys, 0)
	copy(n.keys[childIdx+1:], n.keys[childIdx:])
	n.keys[childIdx] = childSep

	n.children = append(n.children, nil)
	copy(n.children[childIdx+2:], n.children[childIdx+1:])
	n.children[childIdx+1] = childRight

	if len(n.keys) <= branchingFactor {
		return 0, nil, false
	}

	// n now holds L = branchingFactor+1 keys and L+1 children. Unlike the
	// leaf case, the median key is promoted and removed from both halves:
	// left keeps keys[:mid] with children[:mid+1]; right keeps
	// keys[mid+1:] with children[mid+1:].
	mid := len(n.keys) / 2
	promoted := n.keys[mid]
	newInternal := &bpNode{
		keys:     append([]uint32(nil), n.keys[mid+1:]...),
		children: append([]*bpNode(nil), n.children[mid+1:]...),
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]
	return promoted, newInternal, true
}

// childIndex picks the child to descend into: the first child whose
// separator key is greater than key, or the last child otherwise.
func (n *bpNode) childIndex(key uint32) int {
	for i, k := range n.keys {
		if key < k {
			return i
		}
	}
	return len(n.children) - 1
}

func (n *bpNode) search(key uint32) (int, bool) {
	if n.isLeaf {
		i := sort.Search(len(n.keys), func(i int) bool { return n.keys[i] >= key })
		if i < len(n.keys) && n.keys[i] == key {
			return n.slots[i], true
		}
		return 0, false
	}
	return n.children[n.childIndex(key)].search(key)
}
