package domain

// Connection is a directed edge from a source node's output (right edge) to a
// target node's input (left edge). Endpoints are node ids, never pointers: a
// connection whose endpoint no longer exists is dangling and is not rendered.
type Connection struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// Group tags a set of nodes with a color. A node belongs to at most one group.
type Group struct {
	ID        string   `json:"id"`
	MemberIDs []string `json:"memberIds"`
	Color     string   `json:"color"`
}
