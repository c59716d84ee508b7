package domain

import "context"

// ScriptResult is the output of one transformation script run.
type ScriptResult struct {
	Records []Record `json:"records"`
	Console string   `json:"console"`
}

// ScriptExecutor runs a transformation script against a plain data snapshot.
// Implementations own their sandbox; callers only exchange plain data.
type ScriptExecutor interface {
	Execute(ctx context.Context, source string, data map[string][]map[string]any) (ScriptResult, error)
}
