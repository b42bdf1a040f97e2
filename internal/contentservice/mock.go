package contentservice

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockFileJanitor struct {
	mock.Mock
}

func (m *MockFileJanitor) ScheduleDeletion(ctx context.Context, fileID, reason string) error {
	args := m.Called(fileID, reason)
	return args.Error(0)
}
