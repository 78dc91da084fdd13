package mocks

import (
	"context"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

var _ ports.IdentityStore = (*MockIdentityStore)(nil)

type MockIdentityStore struct {
	mock.Mock
}

func NewMockIdentityStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdentityStore {
	m := &MockIdentityStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIdentityStore) GetOrCreate(ctx context.Context, key domain.AccountID) (domain.Identity, error) {
	args := m.Called(ctx, key)
	identity, _ := args.Get(0).(domain.Identity)
	return identity, args.Error(1)
}
