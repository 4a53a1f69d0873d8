package compose

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MergeFiles merges compose documents left to right. Services, networks and
// volumes are merged by name with later definitions replacing earlier ones;
// any other top-level key is taken from the later document. Key order is
// first-seen order.
func MergeFiles(base []byte, overlays ...[]byte) ([]byte, error) {
	root, err := parseMapping(base)
	if err != nil {
		return nil, err
	}
	for i, o := range overlays {
		m, err := parseMapping(o)
		if err != nil {
			return nil, fmt.Errorf("overlay %d: %w", i+1, err)
		}
		mergeTop(root, m)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encoding compose: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding compose: %w", err)
	}
	return buf.Bytes(), nil
}

func parseMapping(data []byte) (*yaml.Node, error) {
	empty := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(bytes.TrimSpace(data)) == 0 {
		return empty, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing compose YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return empty, nil
	}
	m := doc.Content[0]
	if m.Kind == yaml.ScalarNode && m.Tag == "!!null" {
		return empty, nil
	}
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("compose document is not a mapping")
	}
	return m, nil
}

func mergeTop(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		switch key.Value {
		case "services", "networks", "volumes":
			if val.Kind != yaml.MappingNode {
				continue
			}
			section := lookup(dst, key.Value)
			if section == nil || section.Kind != yaml.MappingNode {
				section = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
				set(dst, key, section)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				set(section, val.Content[j], val.Content[j+1])
			}
		default:
			set(dst, key, val)
		}
	}
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func set(m, key, val *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key.Value {
			m.Content[i+1] = val
			return
		}
	}
	m.Content = append(m.Content, key, val)
}

// Services returns the service names of a compose document in file order.
func Services(data []byte) ([]string, error) {
	root, err := parseMapping(data)
	if err != nil {
		return nil, err
	}
	services := lookup(root, "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil, nil
	}
	out := make([]string, 0, len(services.Content)/2)
	for i := 0; i+1 < len(services.Content); i += 2 {
		out = append(out, services.Content[i].Value)
	}
	return out, nil
}

// FindService returns the first service whose name contains match,
// case-insensitively.
func FindService(data []byte, match string) (string, error) {
	names, err := Services(data)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(match)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), needle) {
			return n, nil
		}
	}
	return "", fmt.Errorf("no service matching %q", match)
}

var portMapping = regexp.MustCompile(`(\d+)->(\d+)`)

// Port is a published container port.
type Port struct {
	Host      string
	Container string
}

// ParsePorts scans `docker ps --format "{{.Names}} {{.Ports}}"` output and
// returns the first published port of the first container whose name
// contains match.
func ParsePorts(psOutput, match string) (Port, error) {
	seen := false
	for _, line := range strings.Split(psOutput, "\n") {
		name, ports, _ := strings.Cut(strings.TrimSpace(line), " ")
		if name == "" || !strings.Contains(name, match) {
			continue
		}
		seen = true
		if m := portMapping.FindStringSubmatch(ports); m != nil {
			return Port{Host: m[1], Container: m[2]}, nil
		}
	}
	if seen {
		return Port{}, fmt.Errorf("container matching %q has no published ports", match)
	}
	return Port{}, fmt.Errorf("no running container matching %q", match)
}
