package domain

// NodeType is the closed set of generation node kinds that can live on a canvas.
type NodeType string

const (
	NodeTypeTextToImage  NodeType = "TEXT_TO_IMAGE"
	NodeTypeTextToVideo  NodeType = "TEXT_TO_VIDEO"
	NodeTypeCreativeDesc NodeType = "CREATIVE_DESC"
)

// MediaKind is the kind of output a node type produces.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaText  MediaKind = "text"
)

// NodeSpec is the static description of a node type: how it is drawn by
// default and what it produces.
type NodeSpec struct {
	Type     NodeType  `json:"type"`
	Title    string    `json:"title"`
	Icon     string    `json:"icon"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Produces MediaKind `json:"produces"`
}

// nodeSpecs is the lookup table for every NodeType. Adding a node kind means
// adding a constant above and a row here; nothing else switches on the type.
var nodeSpecs = map[NodeType]NodeSpec{
	NodeTypeTextToImage: {
		Type:     NodeTypeTextToImage,
		Title:    "Text to Image",
		Icon:     "image",
		Width:    320,
		Height:   360,
		Produces: MediaImage,
	},
	NodeTypeTextToVideo: {
		Type:     NodeTypeTextToVideo,
		Title:    "Text to Video",
		Icon:     "video",
		Width:    320,
		Height:   380,
		Produces: MediaVideo,
	},
	NodeTypeCreativeDesc: {
		Type:     NodeTypeCreativeDesc,
		Title:    "Creative Desc",
		Icon:     "file-text",
		Width:    300,
		Height:   260,
		Produces: MediaText,
	},
}

var nodeTypeOrder = []NodeType{NodeTypeTextToImage, NodeTypeTextToVideo, NodeTypeCreativeDesc}

// LookupNodeSpec returns the spec for t.
func LookupNodeSpec(t NodeType) (NodeSpec, bool) {
	s, ok := nodeSpecs[t]
	return s, ok
}

// NodeTypes lists every node type in palette order.
func NodeTypes() []NodeType {
	out := make([]NodeType, len(nodeTypeOrder))
	copy(out, nodeTypeOrder)
	return out
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	_, ok := nodeSpecs[t]
	return ok
}

// Node is a generation node placed on the canvas. Position and size are in
// world space.
type Node struct {
	ID     string   `json:"id"`
	Type   NodeType `json:"type"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Title  string   `json:"title"`
}
