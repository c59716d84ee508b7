package core

import (
	"context"
	"errors"
	"fmt"

	"dashcore/pkg/domain"

	"go.uber.org/zap"
)

// ErrNoExecutor is returned by RunScript when no executor is supplied.
var ErrNoExecutor = errors.New("script executor not configured")

// RunScript hands a deep copy of the current filtered view to exec and
// returns its result. The store never mutates state on behalf of a script.
func (s *Store) RunScript(ctx context.Context, exec domain.ScriptExecutor, name, source string) (domain.ScriptResult, error) {
	if exec == nil {
		return domain.ScriptResult{}, ErrNoExecutor
	}
	data := s.FilteredView().Plain()
	res, err := exec.Execute(ctx, source, data)
	if err != nil {
		s.metrics.scriptRan("error")
		s.logger.Warn("script failed", zap.String("script", name), zap.Error(err))
		return res, fmt.Errorf("run script %s: %w", name, err)
	}
	s.metrics.scriptRan("ok")
	s.logger.Debug("script completed",
		zap.String("script", name),
		zap.Int("records", len(res.Records)),
		zap.Int("console_bytes", len(res.Console)))
	return res, nil
}
