package searcher

import "math"

// Node is one candidate answer in the refinement tree. The root carries the
// initial answer; every child carries a critique-and-refine rewrite of its
// parent's answer at the time it was expanded.
type Node struct {
	OriginalPrompt string
	Answer         string
	Parent         *Node
	Children       []*Node
	Visits         int
	Value          float64
	Level          int

	maxChildren       int
	explorationWeight float64
}

func newNode(prompt, answer string, maxChildren int, explorationWeight float64, parent *Node) *Node {
	level := 0
	if parent != nil {
		level = parent.Level + 1
	}

	return &Node{
		OriginalPrompt: prompt,
		Answer:         answer,
		Parent:         parent,
		Children:       []*Node{},
		Visits:         1, // Creation counts as the first visit
		Value:          0,
		Level:          level,

		maxChildren:       maxChildren,
		explorationWeight: explorationWeight,
	}
}

// IsFullyExpanded reports whether the node has reached its expansion cap.
func (n *Node) IsFullyExpanded() bool {
	return len(n.Children) >= n.maxChildren
}

// BestChild returns the child with the maximum UCT score, breaking ties by
// insertion order.
func (n *Node) BestChild() *Node {
	if len(n.Children) == 0 {
		panic("node has no children")
	}

	lnVisits := math.Log(float64(n.Visits))

	maxIndex := 0
	maxScore := math.Inf(-1)
	for i, child := range n.Children {
		score := uct(child.Value, child.Visits, n.explorationWeight, lnVisits)
		if score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return n.Children[maxIndex]
}

// MostVisitedChild returns the child with the highest visit count, breaking
// ties by insertion order. Visit counts are more robust than value averages
// under noisy rewards, so this is the final-answer selection rule.
func (n *Node) MostVisitedChild() *Node {
	if len(n.Children) == 0 {
		panic("node has no children")
	}

	maxIndex := 0
	maxVisits := n.Children[0].Visits
	for i, child := range n.Children[1:] {
		if child.Visits > maxVisits {
			maxVisits = child.Visits
			maxIndex = i + 1
		}
	}
	return n.Children[maxIndex]
}

// AddChild appends child to the node's children. The caller is responsible
// for staying within the expansion cap.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// uct scores a child from its parent's perspective:
// value/visits + c*sqrt(ln(N)/visits), with N the parent's visit count.
func uct(value float64, visits int, explorationWeight, lnParentVisits float64) float64 {
	if visits == 0 { // Explore unvisited children first
		return math.Inf(1)
	}

	exploitation := value / float64(visits)
	exploration := explorationWeight * math.Sqrt(lnParentVisits/float64(visits))
	return exploitation + exploration
}
