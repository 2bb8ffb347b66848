package searcher

// Hyperparameters for the answer search

const DefaultIterations = 4

const DefaultMaxChildren = 2

// DefaultExplorationWeight is ~sqrt(2), the classic UCT constant.
const DefaultExplorationWeight = 1.41
