package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nodeflow/internal/domain"
	"nodeflow/internal/service"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <workflow>",
		Short: "Summarise a workflow's nodes, connections and groups",
		Long:  "Looks the workflow up by id, id prefix or name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeDB, err := openWorkflows()
			if err != nil {
				return err
			}
			defer closeDB()

			id, err := resolveWorkflow(ws, args[0])
			if err != nil {
				return err
			}
			st, err := ws.Inspect(id)
			if err != nil {
				return err
			}
			printWorkflow(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

// resolveWorkflow matches ref against ids, then names, then id prefixes.
func resolveWorkflow(ws *service.WorkflowService, ref string) (string, error) {
	list, err := ws.List()
	if err != nil {
		return "", err
	}
	return matchWorkflow(list, ref)
}

func matchWorkflow(list []domain.Workflow, ref string) (string, error) {
	for _, w := range list {
		if w.ID == ref {
			return w.ID, nil
		}
	}
	var byName, byPrefix []string
	for _, w := range list {
		if strings.EqualFold(w.Name, ref) {
			byName = append(byName, w.ID)
		}
		if strings.HasPrefix(w.ID, ref) {
			byPrefix = append(byPrefix, w.ID)
		}
	}
	for _, ids := range [][]string{byName, byPrefix} {
		switch len(ids) {
		case 0:
			continue
		case 1:
			return ids[0], nil
		default:
			return "", fmt.Errorf("%q matches %d workflows, use the id", ref, len(ids))
		}
	}
	return "", fmt.Errorf("no workflow matches %q", ref)
}

func printWorkflow(w io.Writer, st *domain.WorkflowState) {
	wf := st.Workflow
	fmt.Fprintf(w, "%s %s\n", Brand.Sprint(wf.Name), Subtle.Sprint(wf.ID))
	fmt.Fprintf(w, "  updated  %s\n", wf.UpdatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  viewport x=%.0f y=%.0f zoom=%.0f%%\n\n", wf.Viewport.X, wf.Viewport.Y, wf.Viewport.K*100)

	titles := make(map[string]string, len(st.Nodes))
	counts := map[domain.NodeType]int{}
	for _, n := range st.Nodes {
		titles[n.ID] = n.Title
		counts[n.Type]++
	}

	Info.Fprintf(w, "  %d nodes\n", len(st.Nodes))
	for _, t := range domain.NodeTypes() {
		if counts[t] > 0 {
			fmt.Fprintf(w, "    %-14s %d\n", t, counts[t])
		}
	}

	Info.Fprintf(w, "  %d connections\n", len(st.Connections))
	edges := make([]string, 0, len(st.Connections))
	for _, c := range st.Connections {
		edges = append(edges, fmt.Sprintf("    %s → %s", label(titles, c.SourceID), label(titles, c.TargetID)))
	}
	sort.Strings(edges)
	for _, e := range edges {
		fmt.Fprintln(w, e)
	}

	Info.Fprintf(w, "  %d groups\n", len(st.Groups))
	for _, g := range st.Groups {
		names := make([]string, 0, len(g.MemberIDs))
		for _, id := range g.MemberIDs {
			names = append(names, label(titles, id))
		}
		fmt.Fprintf(w, "    %s  %s\n", g.Color, strings.Join(names, ", "))
	}
}

func label(titles map[string]string, id string) string {
	if t, ok := titles[id]; ok && t != "" {
		return t
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
