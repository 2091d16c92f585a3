package engine

import (
	"encoding/json"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/util/naming"
)

type cloudConfig struct {
	Hostname   string      `yaml:"hostname,omitempty"`
	WriteFiles []writeFile `yaml:"write_files"`
	RunCmd     []string    `yaml:"runcmd,omitempty"`
}

type writeFile struct {
	Path        string `yaml:"path"`
	Permissions string `yaml:"permissions"`
	Content     string `yaml:"content"`
}

// UserData renders a cloud-init document for a new machine. It writes the
// attributes to the machine and, when spec has modules, runs the engine on
// first boot.
func (e *SSHEngine) UserData(spec lifecycle.MachineSpec) (string, error) {
	payload, err := json.MarshalIndent(spec.Attributes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode attributes for %s: %w", spec.Name, err)
	}

	doc := cloudConfig{
		WriteFiles: []writeFile{{
			Path:        e.attributesPath,
			Permissions: "0600",
			Content:     string(payload),
		}},
	}
	for _, m := range spec.Modules {
		if m == lifecycle.ModuleHostname {
			doc.Hostname = naming.Hostname(spec.Name)
		}
	}
	if len(spec.Modules) > 0 {
		doc.RunCmd = []string{
			"mkdir -p " + path.Dir(e.attributesPath),
			e.Command(spec),
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render user data for %s: %w", spec.Name, err)
	}
	return "#cloud-config\n" + string(out), nil
}
