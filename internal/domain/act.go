package domain

// Act describes one statute's knowledge base: a stable id plus the
// human-readable name and description the planner uses as routing hints.
// Overlapping descriptions degrade routing accuracy, so descriptions
// should be discriminating.
type Act struct {
	ID          string
	Name        string
	Description string
}
