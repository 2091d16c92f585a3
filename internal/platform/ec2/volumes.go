package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/util/labels"
	"github.com/imamik/hacluster/internal/util/naming"
)

// Logger is the printf-style logger used by the volume manager.
type Logger interface {
	Printf(format string, v ...interface{})
}

// VolumeManager provisions the shared backend volume and attaches it to
// backend hosts. It implements storage.VolumeProvisioner.
type VolumeManager struct {
	api      API
	cluster  string
	cloud    config.CloudConfig
	timeouts *config.Timeouts
	logger   Logger
	resolve  func(ctx context.Context, host string) (*types.Instance, error)
}

// NewVolumeManager creates a volume manager that resolves hosts by their
// Name tag. logger may be nil.
func NewVolumeManager(api API, cluster string, cloud config.CloudConfig, logger Logger, opts ...Option) *VolumeManager {
	o := applyOptions(opts)
	v := &VolumeManager{
		api:      api,
		cluster:  cluster,
		cloud:    cloud,
		timeouts: o.timeouts,
		logger:   logger,
	}
	v.resolve = func(ctx context.Context, host string) (*types.Instance, error) {
		inst, err := findInstance(ctx, api, cluster, host)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, fmt.Errorf("instance not found: %s", host)
		}
		return inst, nil
	}
	return v
}

// UseLocalInstance makes the manager attach the volume to the instance it
// runs on, whatever host name it is given.
func (v *VolumeManager) UseLocalInstance(md MetadataAPI) {
	v.resolve = func(ctx context.Context, _ string) (*types.Instance, error) {
		id, err := LocalInstanceID(ctx, md)
		if err != nil {
			return nil, err
		}
		return instanceByID(ctx, v.api, id)
	}
}

// VolumeName is the Name tag of the cluster's shared volume.
func (v *VolumeManager) VolumeName() string {
	return naming.SharedVolume(v.cluster)
}

// EnsureSharedVolume makes sure the shared volume exists and is attached
// to host at the configured device.
func (v *VolumeManager) EnsureSharedVolume(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeouts.MachineCreate)
	defer cancel()

	inst, err := v.resolve(ctx, host)
	if err != nil {
		return err
	}
	instanceID := aws.ToString(inst.InstanceId)
	var zone string
	if inst.Placement != nil {
		zone = aws.ToString(inst.Placement.AvailabilityZone)
	}

	vol, err := v.findVolume(ctx)
	if err != nil {
		return err
	}
	if vol == nil {
		if vol, err = v.createVolume(ctx, zone); err != nil {
			return err
		}
	}
	volumeID := aws.ToString(vol.VolumeId)

	if volZone := aws.ToString(vol.AvailabilityZone); zone != "" && volZone != zone {
		return fmt.Errorf("volume %s is in %s but %s is in %s", volumeID, volZone, host, zone)
	}
	for _, att := range vol.Attachments {
		if aws.ToString(att.InstanceId) == instanceID {
			v.printf("Volume %s already attached to %s", volumeID, host)
			return nil
		}
	}

	v.printf("Attaching volume %s to %s at %s", volumeID, host, v.cloud.Device)
	_, err = v.api.AttachVolume(ctx, &ec2.AttachVolumeInput{
		Device:     aws.String(v.cloud.Device),
		InstanceId: aws.String(instanceID),
		VolumeId:   aws.String(volumeID),
	})
	if err != nil {
		if IsVolumeInUse(err) {
			return fmt.Errorf("volume %s is in use and cannot be attached to %s: %w", volumeID, host, err)
		}
		return wrapAPIError("attach volume "+volumeID, err)
	}
	return nil
}

func (v *VolumeManager) findVolume(ctx context.Context) (*types.Volume, error) {
	out, err := v.api.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
		Filters: []types.Filter{
			tagFilter(labels.KeyVolume, v.VolumeName()),
			tagFilter(labels.KeyCluster, v.cluster),
			{Name: aws.String("status"), Values: []string{"creating", "available", "in-use"}},
		},
	})
	if err != nil {
		return nil, wrapAPIError("describe volumes", err)
	}
	if len(out.Volumes) == 0 {
		return nil, nil
	}
	return &out.Volumes[0], nil
}

func (v *VolumeManager) createVolume(ctx context.Context, zone string) (*types.Volume, error) {
	if zone == "" {
		return nil, fmt.Errorf("cannot create volume %s: availability zone unknown", v.VolumeName())
	}

	volumeType := types.VolumeType(v.cloud.VolumeType)
	input := &ec2.CreateVolumeInput{
		AvailabilityZone: aws.String(zone),
		Size:             aws.Int32(v.cloud.VolumeSize),
		VolumeType:       volumeType,
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeVolume,
			Tags:         tags(v.VolumeName(), labels.NewLabelBuilder(v.cluster).WithVolume(v.VolumeName()).Build()),
		}},
	}
	switch volumeType {
	case types.VolumeTypeIo1, types.VolumeTypeIo2:
		input.Iops = aws.Int32(v.cloud.VolumeIOPS)
		input.MultiAttachEnabled = aws.Bool(true)
	case types.VolumeTypeGp3:
		input.Iops = aws.Int32(v.cloud.VolumeIOPS)
	}

	v.printf("Creating %s volume %s in %s", volumeType, v.VolumeName(), zone)
	out, err := v.api.CreateVolume(ctx, input)
	if err != nil {
		return nil, wrapAPIError("create volume "+v.VolumeName(), err)
	}

	waiter := ec2.NewVolumeAvailableWaiter(v.api)
	if err := waiter.Wait(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{aws.ToString(out.VolumeId)}}, waitFor(v.timeouts.MachineCreate)); err != nil {
		return nil, fmt.Errorf("volume %s did not become available: %w", aws.ToString(out.VolumeId), err)
	}

	return &types.Volume{
		VolumeId:         out.VolumeId,
		AvailabilityZone: out.AvailabilityZone,
	}, nil
}

func (v *VolumeManager) printf(format string, args ...interface{}) {
	if v.logger != nil {
		v.logger.Printf(format, args...)
	}
}
