package repository

import (
	"math"
	"math/rand/v2"
)

// ranking is an order-statistic treap over cappers.
//
// Ordering: score DESC, then seq ASC (earlier account first). "less" means
// ranks earlier, so an in-order traversal yields the leaderboard from best to
// worst. Subtree sizes give O(log n) rank lookups and page offsets.
// Not safe for concurrent use; Memory guards it with its mutex.

// scoreScale converts float scores to fixed point so equal rounded scores
// compare equal.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * scoreScale)
	if scaled > math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled < math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

type rankKey struct {
	score scoreFP
	seq   int64
}

// less returns true if a should appear before b on the leaderboard.
func (a rankKey) less(b rankKey) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.seq < b.seq
}

type node struct {
	id    string
	key   rankKey
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, key rankKey, prio uint64) *node {
	if n == nil {
		return &node{id: id, key: key, prio: prio, size: 1}
	}
	if key.less(n.key) {
		n.left = insert(n.left, id, key, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, key, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, key rankKey) *node {
	if n == nil {
		return nil
	}
	switch {
	case key == n.key:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, key)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, key)
		}
	case key.less(n.key):
		n.left = deleteNode(n.left, key)
	default:
		n.right = deleteNode(n.right, key)
	}
	fix(n)
	return n
}

// collectRange appends up to limit ids starting at in-order position offset.
func collectRange(n *node, offset, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	leftSize := nsize(n.left)
	if offset < leftSize {
		collectRange(n.left, offset, limit, out)
	}
	if len(*out) >= limit {
		return
	}
	if offset <= leftSize {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		next := offset - leftSize - 1
		if next < 0 {
			next = 0
		}
		collectRange(n.right, next, limit, out)
	}
}

type ranking struct {
	root *node
	keys map[string]rankKey
}

func newRanking() *ranking {
	return &ranking{keys: make(map[string]rankKey)}
}

// upsert places id at (score, seq), moving it if already present.
func (r *ranking) upsert(id string, score float64, seq int64) {
	key := rankKey{score: toFixedPoint(score), seq: seq}
	if old, ok := r.keys[id]; ok {
		if old == key {
			return
		}
		r.root = deleteNode(r.root, old)
	}
	r.keys[id] = key
	r.root = insert(r.root, id, key, rand.Uint64()) //nolint:gosec // treap priority
}

// rank returns the 1-based position of id.
func (r *ranking) rank(id string) (int, bool) {
	key, ok := r.keys[id]
	if !ok {
		return 0, false
	}
	pos := 0
	n := r.root
	for n != nil {
		switch {
		case key == n.key:
			return pos + nsize(n.left) + 1, true
		case key.less(n.key):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0, false
}

// window returns the ids at positions [offset, offset+limit).
func (r *ranking) window(offset, limit int) []string {
	if limit <= 0 || offset >= nsize(r.root) {
		return nil
	}
	out := make([]string, 0, limit)
	collectRange(r.root, offset, limit, &out)
	return out
}

func (r *ranking) len() int { return nsize(r.root) }
