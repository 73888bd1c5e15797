package sink

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSink is a testify mock of Sink.
type MockSink struct {
	mock.Mock
}

var _ Sink = (*MockSink)(nil)

func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSink) Publish(ctx context.Context, rec Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}
