package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerSpec describes a server to create.
type ServerSpec struct {
	Name       string
	Image      string
	ServerType string
	Location   string
	SSHKeys    []string
	Labels     map[string]string
	UserData   string
}

// CreateServer creates a server and waits for the create action. It
// returns the server ID.
func (c *RealClient) CreateServer(ctx context.Context, spec ServerSpec) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.MachineCreate)
	defer cancel()

	opts, err := c.buildServerCreateOpts(ctx, spec)
	if err != nil {
		return 0, err
	}

	result, _, err := c.client.Server.Create(ctx, opts)
	if err != nil {
		return 0, wrapCreateError(spec.Name, err)
	}
	if err := c.client.Action.WaitFor(ctx, result.Action); err != nil {
		return 0, fmt.Errorf("failed to wait for server %s creation: %w", spec.Name, err)
	}
	return result.Server.ID, nil
}

// buildServerCreateOpts resolves server type, image, SSH keys and location.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, spec ServerSpec) (hcloud.ServerCreateOpts, error) {
	if spec.ServerType == "" {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server %s: type is required", spec.Name)
	}
	if spec.Image == "" {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server %s: image is required", spec.Name)
	}

	serverType, _, err := c.client.ServerType.Get(ctx, spec.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", spec.ServerType)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, spec.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("image not found: %s", spec.Image)
	}

	var sshKeys []*hcloud.SSHKey
	for _, name := range spec.SSHKeys {
		key, _, err := c.client.SSHKey.Get(ctx, name)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get ssh key %s: %w", name, err)
		}
		if key == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("ssh key not found: %s", name)
		}
		sshKeys = append(sshKeys, key)
	}

	var location *hcloud.Location
	if spec.Location != "" {
		location, _, err = c.client.Location.Get(ctx, spec.Location)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get location %s: %w", spec.Location, err)
		}
		if location == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("location not found: %s", spec.Location)
		}
	}

	return hcloud.ServerCreateOpts{
		Name:       spec.Name,
		ServerType: serverType,
		Image:      image,
		SSHKeys:    sshKeys,
		Location:   location,
		Labels:     spec.Labels,
		UserData:   spec.UserData,
	}, nil
}

// DeleteServer deletes the server with the given name.
func (c *RealClient) DeleteServer(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Server]{
		Name:         name,
		ResourceType: "server",
		Get:          c.client.Server.Get,
		Delete: func(ctx context.Context, server *hcloud.Server) (*hcloud.Action, *hcloud.Response, error) {
			result, resp, err := c.client.Server.DeleteWithResult(ctx, server)
			if err != nil {
				return nil, resp, err
			}
			return result.Action, resp, nil
		},
	}).Execute(ctx, c)
}

// ServerExists reports whether a server with the given name exists.
func (c *RealClient) ServerExists(ctx context.Context, name string) (bool, error) {
	server, _, err := c.client.Server.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to get server: %w", err)
	}
	return server != nil, nil
}

// GetServerIP returns the public IPv4 address of the server.
func (c *RealClient) GetServerIP(ctx context.Context, name string) (string, error) {
	server, _, err := c.client.Server.Get(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return "", fmt.Errorf("server not found: %s", name)
	}
	ip := ServerIPv4(server)
	if ip == "" {
		return "", fmt.Errorf("server %s has no public IPv4", name)
	}
	return ip, nil
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}
