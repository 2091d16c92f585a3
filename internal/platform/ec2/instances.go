package ec2

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hacluster/internal/util/labels"
)

// liveStates are the instance states that count as an existing machine.
var liveStates = []string{"pending", "running", "stopping", "stopped"}

func tagFilter(key, value string) types.Filter {
	return types.Filter{Name: aws.String("tag:" + key), Values: []string{value}}
}

// findInstance returns the live instance named name in cluster, or nil.
func findInstance(ctx context.Context, api API, cluster, name string) (*types.Instance, error) {
	out, err := api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			tagFilter("Name", name),
			tagFilter(labels.KeyCluster, cluster),
			{Name: aws.String("instance-state-name"), Values: liveStates},
		},
	})
	if err != nil {
		return nil, wrapAPIError("describe instance "+name, err)
	}
	return firstInstance(out), nil
}

// instanceByID returns the instance with id.
func instanceByID(ctx context.Context, api API, id string) (*types.Instance, error) {
	out, err := api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return nil, wrapAPIError("describe instance "+id, err)
	}
	if inst := firstInstance(out); inst != nil {
		return inst, nil
	}
	return nil, fmt.Errorf("instance not found: %s", id)
}

// tags converts a label map into EC2 tags, with Name first.
func tags(name string, set map[string]string) []types.Tag {
	out := make([]types.Tag, 0, len(set)+1)
	if name != "" {
		out = append(out, types.Tag{Key: aws.String("Name"), Value: aws.String(name)})
	}
	for _, key := range sortedKeys(set) {
		out = append(out, types.Tag{Key: aws.String(key), Value: aws.String(set[key])})
	}
	return out
}

func firstInstance(out *ec2.DescribeInstancesOutput) *types.Instance {
	for _, reservation := range out.Reservations {
		if len(reservation.Instances) > 0 {
			return &reservation.Instances[0]
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
