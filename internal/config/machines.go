package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Machine is one entry of the backends or frontends map.
type Machine struct {
	Name      string
	Bootstrap bool

	// Extra holds every other per-machine setting verbatim.
	Extra map[string]any
}

// Machines is an ordered machine map. The order is the order in which the
// machines appear in the cluster definition.
type Machines []Machine

// UnmarshalYAML decodes a YAML mapping of machine name to settings,
// keeping document order.
func (m *Machines) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*m = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of machine names to settings", node.Line)
	}

	out := make(Machines, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var settings map[string]any
		if err := valueNode.Decode(&settings); err != nil {
			return fmt.Errorf("line %d: machine %q: %w", valueNode.Line, keyNode.Value, err)
		}

		machine := Machine{Name: keyNode.Value, Extra: make(map[string]any)}
		for key, value := range settings {
			if key != "bootstrap" {
				machine.Extra[key] = value
				continue
			}
			flag, ok := value.(bool)
			if !ok {
				return fmt.Errorf("line %d: machine %q: bootstrap must be a boolean, got %v", valueNode.Line, keyNode.Value, value)
			}
			machine.Bootstrap = flag
		}
		out = append(out, machine)
	}

	*m = out
	return nil
}

// MarshalJSON renders the machines as a JSON object with keys in order.
func (m Machines) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, machine := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(machine.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(machine.Settings())
		if err != nil {
			return nil, fmt.Errorf("machine %q: %w", machine.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Settings returns the machine settings as a plain map, including the
// bootstrap flag when it is set.
func (m Machine) Settings() map[string]any {
	settings := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		settings[k] = v
	}
	if m.Bootstrap {
		settings["bootstrap"] = true
	}
	return settings
}

// Names returns the machine names in order.
func (m Machines) Names() []string {
	names := make([]string, len(m))
	for i, machine := range m {
		names[i] = machine.Name
	}
	return names
}

// Contains reports whether a machine with the given name is present.
func (m Machines) Contains(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Get returns the machine with the given name.
func (m Machines) Get(name string) (Machine, bool) {
	for _, machine := range m {
		if machine.Name == name {
			return machine, true
		}
	}
	return Machine{}, false
}
