package services

import (
	"context"

	"github.com/google/uuid"
)

type UsageReader interface {
	GetUsage(ctx context.Context, userID uuid.UUID) (*Usage, error)
}

// QuotaExceeded reports whether usage has reached its limit. A nil limit never gates.
func QuotaExceeded(u *Usage) bool {
	return u.QuotaLimit != nil && u.SMSSent >= *u.QuotaLimit
}

// QuotaGate is the pre-flight check run before an SMS send is attempted.
type QuotaGate struct {
	usage UsageReader
}

func NewQuotaGate(usage UsageReader) *QuotaGate {
	return &QuotaGate{usage: usage}
}

// Check returns the current usage, and ErrQuotaExceeded when no SMS may be sent.
func (g *QuotaGate) Check(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	u, err := g.usage.GetUsage(ctx, userID)
	if err != nil {
		return nil, err
	}
	if QuotaExceeded(u) {
		return u, ErrQuotaExceeded
	}
	return u, nil
}
