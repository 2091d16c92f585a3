package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/election"
)

type dispatcherFixture struct {
	dispatcher  *Dispatcher
	provisioner *mockProvisioner
	engine      *mockEngine
	storage     *mockStorage
	registry    *mockRegistry
	observer    *recordingObserver
	metrics     *Metrics
}

func newDispatcherFixture(t *testing.T, mutate ...func(*config.Config)) *dispatcherFixture {
	t.Helper()
	cfg := loadTestConfig(t, mutate...)
	f := &dispatcherFixture{
		provisioner: &mockProvisioner{},
		engine:      &mockEngine{},
		storage:     &mockStorage{},
		registry:    &mockRegistry{},
		metrics:     NewMetrics(),
	}
	planner, obs := newTestPlanner(t, cfg, f.registry)
	f.observer = obs
	executor := NewExecutor(f.provisioner, f.engine, f.storage, obs, f.metrics)
	f.dispatcher = NewDispatcher(planner, executor, obs, f.metrics)
	return f
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected Action
		wantErr  bool
	}{
		{input: "create", expected: ActionCreate},
		{input: "install", expected: ActionInstall},
		{input: "stop-except-master", expected: ActionStopExceptMaster},
		{input: "stop_except_master", expected: ActionStopExceptMaster},
		{input: "destroy", expected: ActionDestroy},
		{input: "upgrade", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			action, err := ParseAction(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, action)
		})
	}
}

func TestDispatcher_Plan_DoesNotTouchProvisioner(t *testing.T) {
	t.Parallel()
	f := newDispatcherFixture(t)

	for _, action := range Actions {
		_, err := f.dispatcher.Plan(context.Background(), action)
		require.NoError(t, err, action)
	}
	assert.Empty(t, f.provisioner.calls)
	assert.Empty(t, f.engine.converged)
	assert.Empty(t, f.storage.hosts)
}

func TestDispatcher_RunCreate(t *testing.T) {
	t.Parallel()
	f := newDispatcherFixture(t)
	f.registry.ExistsFunc = func(_ context.Context, name string) (bool, error) {
		return name == "be-a", nil
	}

	require.NoError(t, f.dispatcher.Run(context.Background(), ActionCreate))
	assert.Equal(t, []string{"create be-b", "create be-c", "create fe-d"}, f.provisioner.calls)
	assert.Len(t, f.observer.eventsOfType(EventActionCompleted), 1)
}

func TestDispatcher_RunInstall(t *testing.T) {
	t.Parallel()
	f := newDispatcherFixture(t)
	f.provisioner.MachineExistsFunc = func(context.Context, string) (bool, error) { return true, nil }

	require.NoError(t, f.dispatcher.Run(context.Background(), ActionInstall))
	assert.Equal(t, []string{"be-a", "be-b", "be-c"}, f.storage.hosts)
	require.Len(t, f.engine.converged, 7)
	assert.Equal(t, "fe-d", f.engine.converged[6].Name)
	assert.Empty(t, f.registry.calls)

	started := f.observer.eventsOfType(EventActionStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "install", started[0].Fields["action"])
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.actionDuration))
}

func TestDispatcher_RunStopFailsWithoutBootstrap(t *testing.T) {
	t.Parallel()
	f := newDispatcherFixture(t, func(c *config.Config) {
		c.VMConfig.Backends[0].Bootstrap = false
	})

	err := f.dispatcher.Run(context.Background(), ActionStopExceptMaster)
	require.Error(t, err)
	assert.ErrorIs(t, err, election.ErrNoBootstrap)
	assert.Empty(t, f.provisioner.calls)
	assert.Len(t, f.observer.eventsOfType(EventActionFailed), 1)
}

func TestDispatcher_RunDestroy(t *testing.T) {
	t.Parallel()
	f := newDispatcherFixture(t)

	require.NoError(t, f.dispatcher.Run(context.Background(), ActionDestroy))
	assert.Equal(t, []string{"delete be-a", "delete be-b", "delete be-c", "delete fe-d"}, f.provisioner.calls)
}

func TestDispatcher_RunActionsStopsAtFailure(t *testing.T) {
	t.Parallel()
	f := newDispatcherFixture(t)
	f.provisioner.CreateMachineFunc = func(context.Context, MachineSpec) error {
		return errors.New("quota exceeded")
	}

	err := f.dispatcher.RunActions(context.Background(), []Action{ActionCreate, ActionInstall})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, []string{"create be-a"}, f.provisioner.calls)
	assert.Empty(t, f.engine.converged)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.recordCommand(ActionDestroy, KindDelete, nil)

	path := filepath.Join(t.TempDir(), "hacluster.prom")
	require.NoError(t, m.WriteTextfile(path))
	assert.FileExists(t, path)

	var nilMetrics *Metrics
	assert.NoError(t, nilMetrics.WriteTextfile(path))
	nilMetrics.recordCommand(ActionDestroy, KindDelete, nil)
	nilMetrics.recordAction(ActionDestroy, 1)
}
