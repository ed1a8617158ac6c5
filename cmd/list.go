package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"nodeflow/internal/domain"
	"nodeflow/internal/service"
	"nodeflow/internal/storage"
)

// openWorkflows opens the database read path used by the CLI commands.
func openWorkflows() (*service.WorkflowService, func(), error) {
	db, err := storage.New(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cs := service.NewCanvasService(nil, nil)
	ws := service.NewWorkflowService(storage.NewWorkflowStore(db), cs, nil, nil)
	return ws, func() { db.Close() }, nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeDB, err := openWorkflows()
			if err != nil {
				return err
			}
			defer closeDB()

			list, err := ws.List()
			if err != nil {
				return err
			}
			printWorkflowList(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func printWorkflowList(w io.Writer, list []domain.Workflow) {
	if len(list) == 0 {
		fmt.Fprintln(w, "  No workflows yet.")
		fmt.Fprintln(w, "  Start the editor with `nodeflow` to create one")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, wf := range list {
		rows = append(rows, []string{wf.Name, wf.ID, wf.UpdatedAt.Local().Format(time.DateTime)})
	}
	table(w, []string{"Name", "ID", "Updated"}, rows)
}
