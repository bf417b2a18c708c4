package advisor

import (
	"context"
	"fmt"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// MockProvider — локальная заглушка советника для разработки и тестов.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Advise(ctx context.Context, e domain.Event) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if e.Label != domain.LabelAttack {
		return "No threat detected. Continue routine monitoring of this source.", nil
	}

	return fmt.Sprintf(
		"Detected %s activity from %s (port %d, %s). "+
			"Recommended actions: rate-limit the source, review firewall rules for port %d, "+
			"rotate credentials exposed to this segment and keep the source under watch.",
		e.Subtype, e.SourceIP, e.Port, e.Protocol, e.Port,
	), nil
}
