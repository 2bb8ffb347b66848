package searcher

// Result carries the winning answer together with the artifacts of the
// search: the full tree via its root, and the path from the root to the
// winning node.
type Result struct {
	Answer    string
	Tree      *Node
	ValidPath []*Node
}
