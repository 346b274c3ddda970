// Package middleware provides stock Interceptor implementations for
// repository chains.
package middleware

import (
	"context"

	"github.com/shrek82/jrepo/core"
	"github.com/shrek82/jrepo/logger"
)

// AuditLog logs every value passing through the chain, on both sides of
// the backing operation. Place one before the Sentinel, one after, to
// see inputs and outputs.
type AuditLog struct {
	Logger logger.Logger
}

func NewAuditLog(l logger.Logger) *AuditLog {
	return &AuditLog{Logger: l}
}

func (m *AuditLog) Apply(ctx context.Context, value any, r *core.Resolution) (any, error) {
	if m.Logger != nil {
		phase := "before"
		if r.Phase() == core.PhaseAfter {
			phase = "after"
		}
		m.Logger.Info("audit %s %s: %T %+v", phase, r.Op, value, value)
	}
	return value, nil
}
