package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// DeleteOperation encapsulates get-then-delete for any hcloud resource.
// It succeeds if the resource does not exist.
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Delete removes the resource and returns the action to wait for
	Delete func(ctx context.Context, resource T) (*hcloud.Action, *hcloud.Response, error)
}

// Execute performs the delete operation within the client's delete timeout.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *RealClient) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeouts.Delete)
	defer cancel()

	resource, _, err := op.Get(ctx, op.Name)
	if err != nil {
		return fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, err)
	}
	if reflect.ValueOf(resource).IsNil() {
		return nil
	}

	action, _, err := op.Delete(ctx, resource)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %s %s: %w", op.ResourceType, op.Name, err)
	}
	if action != nil {
		if err := client.client.Action.WaitFor(ctx, action); err != nil {
			return fmt.Errorf("failed to wait for %s %s deletion: %w", op.ResourceType, op.Name, err)
		}
	}
	return nil
}
