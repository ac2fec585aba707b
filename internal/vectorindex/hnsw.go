// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package vectorindex

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// node is one stored point plus its graph links. Replaced and deleted
// points become tombstones; the graph keeps routing through them but they
// never appear in results.
type node struct {
	id        string
	productID string
	vec       []float32
	level     int
	neighbors [][]int
	deleted   bool
}

// collection is a single named vector space with an incrementally built
// HNSW graph. All access goes through the mutex; searches take the read
// lock, inserts the write lock.
type collection struct {
	mu   sync.RWMutex
	name string
	dim  int
	cfg  Config

	nodes     []*node
	byID      map[string]int
	byProduct map[string][]int

	entry     int // entry point node index, -1 while empty
	maxLevel  int
	levelMult float64
	rng       *rand.Rand
	live      int
}

func newCollection(name string, dim int, cfg Config) *collection {
	return &collection{
		name:      name,
		dim:       dim,
		cfg:       cfg,
		byID:      make(map[string]int),
		byProduct: make(map[string][]int),
		entry:     -1,
		levelMult: 1 / math.Log(float64(cfg.M)),
		rng:       rand.New(rand.NewSource(1)), //nolint:gosec // level assignment, not security
	}
}

func (c *collection) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

// upsert inserts a point. An existing point with the same ID is tombstoned
// and re-inserted so the graph links stay consistent.
func (c *collection) upsert(p Point) error {
	if len(p.Vector) != c.dim {
		return fmt.Errorf("dimension mismatch: got %d, want %d", len(p.Vector), c.dim)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.byID[p.ID]; ok {
		c.tombstone(idx)
	}

	level := c.randomLevel()
	n := &node{
		id:        p.ID,
		productID: p.ProductID,
		vec:       normalize(p.Vector),
		level:     level,
		neighbors: make([][]int, level+1),
	}

	idx := len(c.nodes)
	c.nodes = append(c.nodes, n)
	c.byID[p.ID] = idx
	c.byProduct[p.ProductID] = append(c.byProduct[p.ProductID], idx)
	c.live++

	if c.entry == -1 {
		c.entry = idx
		c.maxLevel = level
		return nil
	}

	c.link(idx)
	return nil
}

// link wires a freshly appended node into the graph.
func (c *collection) link(idx int) {
	n := c.nodes[idx]
	ep := c.entry

	// Greedy descent through the layers above the new node's level.
	for level := c.maxLevel; level > n.level; level-- {
		ep = c.greedyClosest(n.vec, ep, level)
	}

	// Insert at each level from min(maxLevel, n.level) down to 0.
	top := n.level
	if top > c.maxLevel {
		top = c.maxLevel
	}
	for level := top; level >= 0; level-- {
		candidates := c.searchLayer(n.vec, ep, c.cfg.EfConstruct, level)
		neighbors := c.selectNeighbors(candidates, c.maxNeighbors(level))
		n.neighbors[level] = neighbors

		for _, nb := range neighbors {
			other := c.nodes[nb]
			other.neighbors[level] = append(other.neighbors[level], idx)
			if maxN := c.maxNeighbors(level); len(other.neighbors[level]) > maxN {
				other.neighbors[level] = c.pruneNeighbors(other.vec, other.neighbors[level], maxN)
			}
		}

		if len(candidates) > 0 {
			ep = candidates[0].idx
		}
	}

	if n.level > c.maxLevel {
		c.maxLevel = n.level
		c.entry = idx
	}
}

func (c *collection) maxNeighbors(level int) int {
	if level == 0 {
		return 2 * c.cfg.M
	}
	return c.cfg.M
}

// randomLevel draws the node level from the standard HNSW geometric
// distribution.
func (c *collection) randomLevel() int {
	return int(math.Floor(-math.Log(c.rng.Float64()+1e-12) * c.levelMult))
}

// candidate pairs a node index with its similarity to the query.
type candidate struct {
	idx int
	sim float64
}

// greedyClosest walks one layer greedily toward the query.
func (c *collection) greedyClosest(query []float32, ep, level int) int {
	best := ep
	bestSim := dot(query, c.nodes[ep].vec)

	for {
		improved := false
		for _, nb := range c.nodes[best].neighbors[level] {
			if sim := dot(query, c.nodes[nb].vec); sim > bestSim {
				best, bestSim = nb, sim
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

// searchLayer runs the ef-bounded best-first search on one layer.
// Results come back sorted best first.
func (c *collection) searchLayer(query []float32, ep, ef, level int) []candidate {
	visited := map[int]bool{ep: true}
	start := candidate{idx: ep, sim: dot(query, c.nodes[ep].vec)}

	frontier := &simHeap{items: []candidate{start}, min: false}
	results := &simHeap{items: []candidate{start}, min: true}

	for frontier.Len() > 0 {
		cur := frontier.Pop()

		// The best unexplored candidate is already worse than the worst
		// kept result; the layer search has converged.
		if results.Len() >= ef && cur.sim < results.Peek().sim {
			break
		}

		for _, nb := range c.nodes[cur.idx].neighbors[level] {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			sim := dot(query, c.nodes[nb].vec)
			if results.Len() < ef || sim > results.Peek().sim {
				next := candidate{idx: nb, sim: sim}
				frontier.Push(next)
				results.Push(next)
				if results.Len() > ef {
					results.Pop()
				}
			}
		}
	}

	out := results.items
	sort.Slice(out, func(i, j int) bool { return out[i].sim > out[j].sim })
	return out
}

// selectNeighbors keeps the top-m candidates by similarity.
func (c *collection) selectNeighbors(candidates []candidate, m int) []int {
	if len(candidates) > m {
		candidates = candidates[:m]
	}
	out := make([]int, len(candidates))
	for i, cand := range candidates {
		out[i] = cand.idx
	}
	return out
}

// pruneNeighbors trims an over-full adjacency list back to the m links
// most similar to the node itself.
func (c *collection) pruneNeighbors(vec []float32, neighbors []int, m int) []int {
	cands := make([]candidate, len(neighbors))
	for i, nb := range neighbors {
		cands[i] = candidate{idx: nb, sim: dot(vec, c.nodes[nb].vec)}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].sim > cands[j].sim })
	return c.selectNeighbors(cands, m)
}

// search returns the top-limit live points for a query.
func (c *collection) search(query []float32, limit int) ([]SearchResult, error) {
	if len(query) != c.dim {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d", len(query), c.dim)
	}
	if limit <= 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.live == 0 {
		return nil, nil
	}

	q := normalize(query)

	var cands []candidate
	if c.live < c.cfg.FullScanThreshold {
		cands = c.fullScan(q)
	} else {
		ep := c.entry
		for level := c.maxLevel; level > 0; level-- {
			ep = c.greedyClosest(q, ep, level)
		}
		ef := c.cfg.EfSearch
		if ef < limit {
			ef = limit
		}
		cands = c.searchLayer(q, ep, ef, 0)
	}

	results := make([]SearchResult, 0, limit)
	for _, cand := range cands {
		n := c.nodes[cand.idx]
		if n.deleted {
			continue
		}
		if c.cfg.ScoreThreshold > 0 && cand.sim < c.cfg.ScoreThreshold {
			continue
		}
		results = append(results, SearchResult{ProductID: n.productID, Score: cand.sim})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// fullScan scores every live node, best first.
func (c *collection) fullScan(query []float32) []candidate {
	cands := make([]candidate, 0, c.live)
	for idx, n := range c.nodes {
		if n.deleted {
			continue
		}
		cands = append(cands, candidate{idx: idx, sim: dot(query, n.vec)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].sim > cands[j].sim })
	return cands
}

// deleteByProduct tombstones all points for a product.
func (c *collection) deleteByProduct(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, idx := range c.byProduct[productID] {
		if !c.nodes[idx].deleted {
			c.tombstone(idx)
			removed++
		}
	}
	delete(c.byProduct, productID)
	return removed
}

// tombstone marks a node dead. Must be called with the write lock held.
func (c *collection) tombstone(idx int) {
	n := c.nodes[idx]
	if n.deleted {
		return
	}
	n.deleted = true
	delete(c.byID, n.id)
	c.live--
}

// simHeap is a small binary heap over candidates. min selects a min-heap
// (used to track the worst kept result) versus a max-heap (the frontier).
type simHeap struct {
	items []candidate
	min   bool
}

func (h *simHeap) Len() int { return len(h.items) }

func (h *simHeap) less(i, j int) bool {
	if h.min {
		return h.items[i].sim < h.items[j].sim
	}
	return h.items[i].sim > h.items[j].sim
}

func (h *simHeap) Push(c candidate) {
	h.items = append(h.items, c)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *simHeap) Peek() candidate { return h.items[0] }

func (h *simHeap) Pop() candidate {
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]

	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < len(h.items) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.items) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return top
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
