package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/platform/ec2"
	"github.com/imamik/hacluster/internal/storage"
)

// StorageApply runs the storage strategy selector for one host.
//
// In local mode the command runs on the host itself: the ready marker is
// read from the local filesystem, commands run through the local shell and
// the shared volume is attached to the instance found in the metadata
// service. Otherwise everything goes through the provider and SSH.
func StorageApply(ctx context.Context, host string, local bool, opts Options) error {
	cfg, observer, err := setup(opts)
	if err != nil {
		return err
	}
	if cfg.RoleOf(host) == "" {
		return fmt.Errorf("%w: %s", lifecycle.ErrMachineNotFound, host)
	}

	var selector *storage.Selector
	if local {
		if selector, err = localSelector(ctx, cfg, observer); err != nil {
			return err
		}
	} else {
		rt, err := buildRuntime(ctx, cfg, opts, observer)
		if err != nil {
			return err
		}
		selector = rt.selector
	}

	if opts.DryRun {
		decision, err := selector.Decide(ctx, host)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(stdout, renderDecision(host, decision))
		return nil
	}

	if err := selector.SelectAndApply(ctx, host); err != nil {
		return err
	}
	observer.Printf("[storage] %s: done", host)
	return nil
}

// localSelector wires a selector for on-host use.
func localSelector(ctx context.Context, cfg *config.Config, observer lifecycle.Observer) (*storage.Selector, error) {
	var volumes storage.VolumeProvisioner

	cloud := cfg.Cloud()
	if storage.UsesCloudStorage(cloud) {
		md := newMetadataClient()
		if cloud.Region == "" {
			region, err := ec2.LocalRegion(ctx, md)
			if err != nil {
				return nil, err
			}
			cloud.Region = region
		}

		client, err := newEC2Client(ctx, cloud)
		if err != nil {
			return nil, err
		}
		vm := ec2.NewVolumeManager(client, cfg.Name, cloud, observer, ec2.WithTimeouts(loadTimeouts()))
		vm.UseLocalInstance(md)
		volumes = vm
	}

	return storage.NewSelector(cfg, storage.NewLocalMarker(""), volumes, storage.LocalExecutor{}, observer), nil
}
