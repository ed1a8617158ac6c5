package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	workflowsURI       = "nodeflow://workflows"
	workflowURIPrefix  = "nodeflow://workflow/"
	workflowGraphSuffix = "/graph"
)

func (s *Server) registerResources() {
	// ── nodeflow://workflows ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		workflowsURI,
		"All Workflows",
		mcp.WithMIMEType("application/json"),
	), s.handleWorkflowsResource)

	// ── nodeflow://workflow/{id}/graph ─────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			workflowURIPrefix+"{id}"+workflowGraphSuffix,
			"Workflow Graph",
			mcp.WithTemplateDescription("Nodes, connections and groups of one workflow"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleWorkflowGraphResource,
	)
}

func (s *Server) handleWorkflowsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workflows, err := s.workflows.List()
	if err != nil {
		return nil, err
	}

	type workflowSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	summaries := make([]workflowSummary, 0, len(workflows))
	for _, w := range workflows {
		summaries = append(summaries, workflowSummary{ID: w.ID, Name: w.Name})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      workflowsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleWorkflowGraphResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := workflowIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract workflow id from URI: %s", uri)
	}

	var g graphSummary
	if s.canvas.Workflow().ID == id {
		err := s.readWorkflow(func(string) error {
			var err error
			g, err = s.activeGraph()
			return err
		})
		if err != nil {
			return nil, err
		}
	} else {
		st, err := s.workflows.Inspect(id)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", id, err)
		}
		g = graphSummary{Workflow: st.Workflow, Nodes: st.Nodes, Connections: st.Connections, Groups: st.Groups}
	}

	data, _ := json.MarshalIndent(g, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// workflowIDFromURI extracts the id from "nodeflow://workflow/{id}/graph".
func workflowIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, workflowURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, workflowGraphSuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
