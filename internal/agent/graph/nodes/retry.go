package nodes

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

const retryBackoff = 500 * time.Millisecond

// resilientModel bounds every model call with a per-attempt timeout and
// retries transient transport failures a fixed number of times.
type resilientModel struct {
	inner      einomodel.BaseChatModel
	name       string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

func newResilientModel(inner einomodel.BaseChatModel, name string, timeout time.Duration, maxRetries int) *resilientModel {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &resilientModel{inner: inner, name: name, timeout: timeout, maxRetries: maxRetries, backoff: retryBackoff}
}

func (m *resilientModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errx.WrapUpstream(ctx.Err())
			case <-time.After(m.backoff * time.Duration(attempt)):
			}
		}

		callCtx, cancel := m.attemptContext(ctx)
		out, err := m.inner.Generate(callCtx, input, opts...)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) {
			break
		}
		if attempt < m.maxRetries {
			logx.Warn().Err(err).Str("model", m.name).Int("attempt", attempt+1).Msg("transient model error, retrying")
		}
	}
	return nil, errx.WrapUpstream(lastErr)
}

// Stream is not retried: a partially consumed stream cannot be replayed.
func (m *resilientModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, err := m.inner.Stream(ctx, input, opts...)
	if err != nil {
		return nil, errx.WrapUpstream(err)
	}
	return sr, nil
}

func (m *resilientModel) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// IsCallbacksEnabled lets the wrapped model keep emitting its own callbacks.
func (m *resilientModel) IsCallbacksEnabled() bool {
	if c, ok := m.inner.(components.Checker); ok {
		return c.IsCallbacksEnabled()
	}
	return false
}

func (m *resilientModel) GetType() string {
	if t, ok := m.inner.(components.Typer); ok {
		return t.GetType()
	}
	return "Resilient"
}

// IsTransient reports whether err is worth another attempt: network errors,
// attempt deadlines, rate limiting and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
