package nodes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
)

type scriptedModel struct {
	errs  []error
	calls int
	block bool
}

func (m *scriptedModel) Generate(ctx context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if len(m.errs) >= m.calls && m.errs[m.calls-1] != nil {
		return nil, m.errs[m.calls-1]
	}
	return schema.AssistantMessage("ok", nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestModel(inner *scriptedModel, timeout time.Duration, retries int) *resilientModel {
	m := newResilientModel(inner, "fake", timeout, retries)
	m.backoff = time.Millisecond
	return m
}

func TestResilient_RetriesTransientOnce(t *testing.T) {
	inner := &scriptedModel{errs: []error{genai.APIError{Code: http.StatusServiceUnavailable}}}
	out, err := newTestModel(inner, time.Second, 1).Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "ok", out.Content)
	require.Equal(t, 2, inner.calls)
}

func TestResilient_GivesUpAfterBound(t *testing.T) {
	rateLimited := fmt.Errorf("generate: %w", genai.APIError{Code: http.StatusTooManyRequests})
	inner := &scriptedModel{errs: []error{rateLimited, rateLimited, rateLimited}}
	_, err := newTestModel(inner, time.Second, 1).Generate(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)
	require.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
}

func TestResilient_DoesNotRetryClientErrors(t *testing.T) {
	inner := &scriptedModel{errs: []error{genai.APIError{Code: http.StatusBadRequest}}}
	_, err := newTestModel(inner, time.Second, 3).Generate(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestResilient_PerAttemptTimeout(t *testing.T) {
	inner := &scriptedModel{block: true}
	_, err := newTestModel(inner, 20*time.Millisecond, 1).Generate(context.Background(), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, inner.calls)
}

func TestResilient_StopsWhenCallerCancels(t *testing.T) {
	inner := &scriptedModel{block: true}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := newTestModel(inner, time.Second, 5).Generate(ctx, nil)
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(genai.APIError{Code: 500}))
	require.True(t, IsTransient(context.DeadlineExceeded))
	require.False(t, IsTransient(genai.APIError{Code: 404}))
	require.False(t, IsTransient(errors.New("boom")))
	require.False(t, IsTransient(nil))
}
