package boost

import (
	"sort"
)

// Node is one tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Gain      float64 `json:"gain,omitempty"`
	Cover     float64 `json:"cover"`
}

// Tree is a regression tree over gradient statistics. Nodes[0] is the root.
// A row goes left when x[Feature] < Threshold.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// grower fits one tree to per-row gradient g and hessian h.
type grower struct {
	x      [][]float64
	g, h   []float64
	params Params
	nodes  []Node
}

func growTree(x [][]float64, g, h []float64, rows []int, p Params) *Tree {
	gr := &grower{x: x, g: g, h: h, params: p}
	gr.grow(rows, 0)
	return &Tree{Nodes: gr.nodes}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (gr *grower) sums(rows []int) (G, H float64) {
	for _, r := range rows {
		G += gr.g[r]
		H += gr.h[r]
	}
	return G, H
}

// grow appends the subtree for rows and returns its node index.
func (gr *grower) grow(rows []int, depth int) int {
	G, H := gr.sums(rows)
	idx := len(gr.nodes)
	gr.nodes = append(gr.nodes, Node{Feature: -1, Cover: H})

	if depth < gr.params.MaxDepth && len(rows) > 1 {
		if best, ok := gr.bestSplit(rows, G, H); ok {
			left := gr.grow(best.left, depth+1)
			right := gr.grow(best.right, depth+1)
			gr.nodes[idx] = Node{
				Feature:   best.feature,
				Threshold: best.threshold,
				Left:      left,
				Right:     right,
				Gain:      best.gain,
				Cover:     H,
			}
			return idx
		}
	}
	gr.nodes[idx].Value = -G / (H + gr.params.Lambda) * gr.params.LearningRate
	return idx
}

// bestSplit is the exact greedy search: every boundary between distinct
// sorted feature values is a candidate.
func (gr *grower) bestSplit(rows []int, G, H float64) (split, bool) {
	lambda := gr.params.Lambda
	parent := G * G / (H + lambda)
	best := split{gain: 0}
	found := false

	sorted := make([]int, len(rows))
	nFeatures := len(gr.x[rows[0]])
	for f := 0; f < nFeatures; f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return gr.x[sorted[a]][f] < gr.x[sorted[b]][f]
		})
		var GL, HL float64
		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			GL += gr.g[r]
			HL += gr.h[r]
			v, next := gr.x[r][f], gr.x[sorted[i+1]][f]
			if v == next {
				continue
			}
			GR, HR := G-GL, H-HL
			if HL < gr.params.MinChildWeight || HR < gr.params.MinChildWeight {
				continue
			}
			gain := 0.5*(GL*GL/(HL+lambda)+GR*GR/(HR+lambda)-parent) - gr.params.Gamma
			if gain > best.gain {
				best = split{feature: f, threshold: threshold(v, next), gain: gain}
				found = true
			}
		}
	}
	if !found {
		return best, false
	}
	for _, r := range rows {
		if gr.x[r][best.feature] < best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best, true
}

// threshold returns a cut with v < cut <= next. The midpoint of adjacent
// floats can round down to v, in which case next itself is used.
func threshold(v, next float64) float64 {
	mid := v + (next-v)/2
	if mid <= v {
		return next
	}
	return mid
}
