package advisor

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// Provider — контракт внешнего генеративного советника:
// advise(event) -> text. Вызов fallible и некритичный: его провал
// не влияет на персистентность Event.
type Provider interface {
	Advise(ctx context.Context, e domain.Event) (string, error)
}

// adviseMethod — полное имя метода советника. Контракт обеих сторон —
// structpb.Struct: поля события на входе, {"text": "..."} на выходе,
// поэтому сгенерированные стабы не нужны.
const adviseMethod = "/advisor.v1.AdvisorService/Advise"

type GRPCClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewGRPCClient(conn *grpc.ClientConn, timeout time.Duration) *GRPCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GRPCClient{conn: conn, timeout: timeout}
}

// Advise запрашивает у советника текст рекомендаций по событию.
func (c *GRPCClient) Advise(ctx context.Context, e domain.Event) (string, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"attack_type":    e.Subtype,
		"prediction":     string(e.Label),
		"source_ip":      e.SourceIP,
		"port":           e.Port,
		"protocol":       string(e.Protocol),
		"action":         string(e.Action),
		"packet_size":    e.PacketSize,
		"duration":       e.Duration,
		"login_attempts": e.LoginAttempts,
		"score":          e.Confidence,
	})
	if err != nil {
		return "", fmt.Errorf("advisor: build request: %w", err)
	}

	// Защитный таймаут на уровне вызова: даже если обертка надежности
	// имеет свой, адаптер должен иметь свой предел
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, adviseMethod, req, resp); err != nil {
		return "", fmt.Errorf("advisor: call failed: %w", err)
	}

	text := resp.Fields["text"].GetStringValue()
	if text == "" {
		return "", fmt.Errorf("advisor: empty response")
	}
	return text, nil
}
