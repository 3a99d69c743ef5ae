package ingest

import "context"

// Approver decides whether the destructive replace of a destination table
// may proceed.
//
// Implementations:
//   - AutoApprover: approves silently (the default replace behaviour)
//   - InteractiveApprover: prompts the operator to type the table name
type Approver interface {
	// RequestApproval is called once per run, before the table is dropped.
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, tableName string) (bool, error)
}
