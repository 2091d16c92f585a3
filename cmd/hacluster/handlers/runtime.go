package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr/funcr"

	"github.com/imamik/hacluster/internal/attributes"
	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/platform/ec2"
	"github.com/imamik/hacluster/internal/platform/engine"
	"github.com/imamik/hacluster/internal/platform/hcloud"
	"github.com/imamik/hacluster/internal/platform/ssh"
	"github.com/imamik/hacluster/internal/registry"
	"github.com/imamik/hacluster/internal/storage"
)

// Options are the flags shared by all lifecycle commands.
type Options struct {
	ConfigPath  string
	DryRun      bool
	Package     string
	LogFormat   string
	MetricsFile string
}

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// remoteExecutor runs a command on a machine by name.
type remoteExecutor interface {
	Execute(ctx context.Context, machine, command string) (string, error)
}

// remoteRunner is what the SSH client offers to the engine and provisioners.
type remoteRunner interface {
	remoteExecutor
	ExecuteWithInput(ctx context.Context, machine, command string, stdin []byte) (string, error)
}

// userDataRenderer renders first-boot user data for a machine.
type userDataRenderer interface {
	UserData(spec lifecycle.MachineSpec) (string, error)
}

// machineProvider is a provider provisioner that can also resolve addresses.
type machineProvider interface {
	lifecycle.Provisioner
	Address(ctx context.Context, name string) (string, error)
}

// providerSet is everything a provider contributes to a run.
type providerSet struct {
	provisioner machineProvider
	volumes     storage.VolumeProvisioner
	setRemote   func(remote remoteExecutor)
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads the cluster definition.
	loadConfigFile = config.LoadFile

	// loadTimeouts reads timeouts from the environment.
	loadTimeouts = config.LoadTimeouts

	// newRegistry creates the node registry client.
	newRegistry = registry.NewFromConfig

	// newCredentialSource creates the default credential source for ec2.
	newCredentialSource = func(cloud config.CloudConfig) attributes.CredentialSource {
		return ec2.NewCredentialSource(cloud)
	}

	// newSSHClient creates the remote execution client.
	newSSHClient = func(cfg ssh.Config, resolver ssh.Resolver) (remoteRunner, error) {
		client, err := ssh.NewClient(cfg, resolver)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// newProvider creates the provisioner for cfg.Provider.
	newProvider = defaultProvider

	// newEC2Client creates an EC2 API client.
	newEC2Client = func(ctx context.Context, cloud config.CloudConfig) (ec2.API, error) {
		client, err := ec2.NewClient(ctx, cloud)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// newMetadataClient creates the instance metadata client.
	newMetadataClient = func() ec2.MetadataAPI {
		return ec2.NewMetadataClient()
	}

	// stdout receives plans and decisions.
	stdout io.Writer = os.Stdout

	// stderr receives JSON log lines.
	stderr io.Writer = os.Stderr
)

// newObserver returns the observer for a --log-format value.
func newObserver(format string) (lifecycle.Observer, error) {
	switch format {
	case "", LogFormatText:
		return lifecycle.NewConsoleObserver(), nil
	case LogFormatJSON:
		logger := funcr.NewJSON(func(obj string) {
			_, _ = fmt.Fprintln(stderr, obj)
		}, funcr.Options{})
		return lifecycle.NewLogrObserver(logger), nil
	default:
		return nil, fmt.Errorf("unknown log format %q: must be one of [%s %s]", format, LogFormatText, LogFormatJSON)
	}
}

// setup loads and validates the cluster definition and reports warnings.
func setup(opts Options) (*config.Config, lifecycle.Observer, error) {
	observer, err := newObserver(opts.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfigFile(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	for _, w := range cfg.Warnings() {
		lifecycle.LogValidationWarning(observer, w.Field, w.Message)
	}
	return cfg, observer, nil
}

// newPlanner wires the registry and the attribute composer.
func newPlanner(ctx context.Context, cfg *config.Config, opts Options, observer lifecycle.Observer) (*lifecycle.Planner, error) {
	var reg registry.Client
	if cfg.Provider == config.ProviderEC2 {
		var err error
		if reg, err = newRegistry(ctx, cfg.Registry, loadTimeouts().Registry); err != nil {
			return nil, fmt.Errorf("failed to create node registry client: %w", err)
		}
	}

	var creds attributes.CredentialSource
	if cfg.Provider == config.ProviderEC2 {
		creds = newCredentialSource(cfg.Cloud())
	}

	composer := attributes.NewComposer(cfg, creds, observer)
	return lifecycle.NewPlanner(cfg, composer, reg, observer).WithPackage(opts.Package), nil
}

// runtime is a fully wired run against real machines.
type runtime struct {
	metrics    *lifecycle.Metrics
	dispatcher *lifecycle.Dispatcher
	selector   *storage.Selector
}

// buildRuntime wires provider, SSH, engine, storage and the dispatcher.
func buildRuntime(ctx context.Context, cfg *config.Config, opts Options, observer lifecycle.Observer) (*runtime, error) {
	planner, err := newPlanner(ctx, cfg, opts, observer)
	if err != nil {
		return nil, err
	}

	key, err := cfg.ReadPrivateKey()
	if err != nil {
		return nil, err
	}
	timeouts := loadTimeouts()

	// The SSH client resolves addresses through the provisioner, which in
	// turn needs the engine for user data. The provisioner is bound below.
	var provisioner machineProvider
	resolver := ssh.ResolverFunc(func(ctx context.Context, machine string) (string, error) {
		return provisioner.Address(ctx, machine)
	})
	runner, err := newSSHClient(ssh.Config{
		Port:        cfg.SSH.Port,
		User:        cfg.SSH.User,
		PrivateKey:  key,
		DialTimeout: timeouts.SSHDialTimeout,
		MaxRetries:  timeouts.SSHMaxRetries,
		RetryDelay:  timeouts.SSHRetryDelay,
		Logger:      observer,
	}, resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH client: %w", err)
	}

	eng := engine.New(runner, cfg.Engine.Command, cfg.Engine.AttributesPath,
		engine.WithTimeout(timeouts.Converge),
		engine.WithLogger(observer))

	set, err := newProvider(ctx, cfg, eng, timeouts, observer)
	if err != nil {
		return nil, err
	}
	provisioner = set.provisioner
	set.setRemote(runner)

	selector := storage.NewSelector(cfg, storage.NewRemoteMarker(provisioner), set.volumes, provisioner, observer)
	metrics := lifecycle.NewMetrics()
	executor := lifecycle.NewExecutor(provisioner, eng, selector, observer, metrics)

	return &runtime{
		metrics:    metrics,
		dispatcher: lifecycle.NewDispatcher(planner, executor, observer, metrics),
		selector:   selector,
	}, nil
}

// defaultProvider builds the provisioner selected by cfg.Provider.
func defaultProvider(ctx context.Context, cfg *config.Config, userData userDataRenderer, timeouts *config.Timeouts, logger lifecycle.Logger) (*providerSet, error) {
	cloud := cfg.Cloud()
	switch cfg.Provider {
	case config.ProviderEC2:
		client, err := newEC2Client(ctx, cloud)
		if err != nil {
			return nil, err
		}
		keyPair, _ := cloud.Extra["keypair_name"].(string)
		p := ec2.NewProvisioner(client, cfg.Name, keyPair, userData, ec2.WithTimeouts(timeouts))
		return &providerSet{
			provisioner: p,
			volumes:     ec2.NewVolumeManager(client, cfg.Name, cloud, logger, ec2.WithTimeouts(timeouts)),
			setRemote:   func(remote remoteExecutor) { p.SetRemote(remote) },
		}, nil

	case config.ProviderHCloud:
		token := cloud.Token
		if token == "" {
			token = os.Getenv("HCLOUD_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("hcloud token is not set: use hcloud.token or HCLOUD_TOKEN")
		}
		p := hcloud.NewProvisioner(hcloud.NewRealClient(token, hcloud.WithTimeouts(timeouts)), cfg.Name, userData)
		return &providerSet{
			provisioner: p,
			setRemote:   func(remote remoteExecutor) { p.SetRemote(remote) },
		}, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// writeMetrics writes the run's metrics when a textfile path is set.
func writeMetrics(metrics *lifecycle.Metrics, path string, observer lifecycle.Observer) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		observer.Printf("Warning: failed to write metrics to %s: %v", path, err)
	}
}
