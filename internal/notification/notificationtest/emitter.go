// Package notificationtest provides a recording Emitter for service tests.
package notificationtest

import (
	"context"

	"github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/stretchr/testify/mock"
)

type MockEmitter struct {
	mock.Mock
}

// NewMockEmitter accepts any Emit call.
func NewMockEmitter() *MockEmitter {
	m := &MockEmitter{}
	m.On("Emit", mock.Anything, mock.Anything).Return()
	return m
}

func (m *MockEmitter) Emit(ctx context.Context, drafts ...domain.Draft) {
	m.Called(ctx, drafts)
}

// Drafts flattens every draft received, in call order.
func (m *MockEmitter) Drafts() []domain.Draft {
	var out []domain.Draft
	for _, call := range m.Calls {
		if call.Method != "Emit" {
			continue
		}
		out = append(out, call.Arguments.Get(1).([]domain.Draft)...)
	}
	return out
}
