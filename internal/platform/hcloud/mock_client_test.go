package hcloud

import (
	"context"

	"github.com/imamik/hacluster/internal/lifecycle"
)

// MockClient is a mock implementation of ServerAPI.
type MockClient struct {
	CreateServerFunc func(ctx context.Context, spec ServerSpec) (int64, error)
	DeleteServerFunc func(ctx context.Context, name string) error
	ServerExistsFunc func(ctx context.Context, name string) (bool, error)
	GetServerIPFunc  func(ctx context.Context, name string) (string, error)

	created []ServerSpec
}

func (m *MockClient) CreateServer(ctx context.Context, spec ServerSpec) (int64, error) {
	m.created = append(m.created, spec)
	if m.CreateServerFunc != nil {
		return m.CreateServerFunc(ctx, spec)
	}
	return 1, nil
}

func (m *MockClient) DeleteServer(ctx context.Context, name string) error {
	if m.DeleteServerFunc != nil {
		return m.DeleteServerFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) ServerExists(ctx context.Context, name string) (bool, error) {
	if m.ServerExistsFunc != nil {
		return m.ServerExistsFunc(ctx, name)
	}
	return false, nil
}

func (m *MockClient) GetServerIP(ctx context.Context, name string) (string, error) {
	if m.GetServerIPFunc != nil {
		return m.GetServerIPFunc(ctx, name)
	}
	return "203.0.113.1", nil
}

type mockUserData struct {
	data string
	err  error
}

func (m mockUserData) UserData(lifecycle.MachineSpec) (string, error) {
	return m.data, m.err
}

type mockRemote struct {
	commands []string
}

func (m *mockRemote) Execute(_ context.Context, machine, command string) (string, error) {
	m.commands = append(m.commands, machine+": "+command)
	return "ok", nil
}
