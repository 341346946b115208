package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Slot is a mock for slot.Slot.
type Slot struct {
	mock.Mock
}

func (m *Slot) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *Slot) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
