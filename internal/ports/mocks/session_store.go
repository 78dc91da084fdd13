package mocks

import (
	"context"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

var _ ports.SessionStore = (*MockSessionStore)(nil)

type MockSessionStore struct {
	mock.Mock
}

func NewMockSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionStore {
	m := &MockSessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionStore) Save(ctx context.Context, key domain.AccountID, snapshot domain.Snapshot) error {
	args := m.Called(ctx, key, snapshot)
	return args.Error(0)
}

func (m *MockSessionStore) List(ctx context.Context) ([]domain.Snapshot, error) {
	args := m.Called(ctx)
	snapshots, _ := args.Get(0).([]domain.Snapshot)
	return snapshots, args.Error(1)
}
