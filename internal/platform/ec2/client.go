package ec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/hacluster/internal/config"
)

// API is the subset of the EC2 client used by this package.
type API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	CreateVolume(ctx context.Context, params *ec2.CreateVolumeInput, optFns ...func(*ec2.Options)) (*ec2.CreateVolumeOutput, error)
	AttachVolume(ctx context.Context, params *ec2.AttachVolumeInput, optFns ...func(*ec2.Options)) (*ec2.AttachVolumeOutput, error)
}

// LoadAWSConfig builds an AWS configuration from a provider section.
// Static keys take precedence over the profile and the default chain.
func LoadAWSConfig(ctx context.Context, cloud config.CloudConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cloud.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cloud.Region))
	}
	if cloud.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cloud.Profile))
	}
	if cloud.AccessKeyID != "" && cloud.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cloud.AccessKeyID, cloud.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewClient creates an EC2 client for a provider section.
func NewClient(ctx context.Context, cloud config.CloudConfig) (*ec2.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx, cloud)
	if err != nil {
		return nil, err
	}
	return ec2.NewFromConfig(awsCfg), nil
}

// Option configures the provisioner and the volume manager.
type Option func(*options)

type options struct {
	timeouts *config.Timeouts
}

// WithTimeouts overrides the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(o *options) {
		o.timeouts = t
	}
}

func applyOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeouts == nil {
		o.timeouts = config.LoadTimeouts()
	}
	return o
}

// waitFor returns the waiter budget for d, never zero.
func waitFor(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}
