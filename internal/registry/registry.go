// Package registry answers whether a machine has already been provisioned,
// by asking the node inventory service.
//
// A machine exists once its node document carries a provisioner output
// with a server_id. A missing node document means the machine has not been
// created yet and is not an error; every other failure is.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/imamik/hacluster/internal/config"
)

// Client looks machines up in the node registry.
type Client interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// nodeDocument is the subset of a registry node document we read.
type nodeDocument struct {
	Normal struct {
		ProvisionerOutput map[string]any `json:"provisioner_output"`
	} `json:"normal"`
}

// provisioned reports whether the provisioner recorded a server id.
func (d nodeDocument) provisioned() bool {
	_, ok := d.Normal.ProvisionerOutput["server_id"]
	return ok
}

func decodeNode(name string, data []byte) (bool, error) {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("malformed node document for %s: %w", name, err)
	}
	return doc.provisioned(), nil
}

// NewFromConfig builds the registry client selected by cfg.Type.
func NewFromConfig(ctx context.Context, cfg config.RegistryConfig, timeout time.Duration) (Client, error) {
	switch cfg.Type {
	case config.RegistryHTTP, "":
		return NewHTTPClient(cfg.URL, WithToken(cfg.Token), WithTimeout(timeout)), nil
	case config.RegistryS3:
		return NewS3Client(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown registry type %q", cfg.Type)
	}
}
