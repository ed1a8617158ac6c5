package app

import (
	mcpserver "nodeflow/internal/mcp"
)

// ============================================================
// MCP approvals (standalone server writes, the app answers)
// ============================================================

func (a *App) PendingMCPApprovals() ([]mcpserver.PendingAction, error) {
	return mcpserver.PendingApprovals(a.db.Conn())
}

func (a *App) ApproveMCPAction(id string) error {
	return mcpserver.ResolveApproval(a.db.Conn(), id, true)
}

func (a *App) RejectMCPAction(id string) error {
	return mcpserver.ResolveApproval(a.db.Conn(), id, false)
}
