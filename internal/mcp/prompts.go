package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_pipeline",
		mcp.WithPromptDescription("Guide through building a generation pipeline on the canvas"),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the pipeline should produce, e.g. 'a product teaser video'"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildPipelinePrompt)
}

func (s *Server) handleBuildPipelinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := req.Params.Arguments["goal"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a pipeline for: %s", goal),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a generation pipeline for "%s" on the canvas. Follow these steps:

1. Use create_workflow (or set_active_workflow) so the tools have a target
2. Add a CREATIVE_DESC node for the brief with add_node, titled after the goal
3. Add TEXT_TO_IMAGE nodes for key frames and a TEXT_TO_VIDEO node if motion is needed
4. Wire them with connect_nodes: description -> images -> video
5. Group related nodes with group_nodes and give the group a color with set_group_color
6. Finish with arrange_nodes (mode "flow") and navigate to the first node

Check get_canvas_state before and after to confirm the graph.`, goal),
				},
			},
		},
	}, nil
}
