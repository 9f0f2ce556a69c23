// Package plugin runs external services as subprocesses. Each plugin is
// described by a YAML manifest and speaks a one-shot JSON protocol: a request
// object on stdin, a page object on stdout.
package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/registry"
)

// ManifestName is the file a plugin directory must contain
const ManifestName = "plugin.yaml"

// Manifest describes one plugin service
type Manifest struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Command      string   `yaml:"command"`
	Args         []string `yaml:"args"`
	Kinds        []string `yaml:"kinds"`
	SearchOrders []string `yaml:"search_orders"`
	Disabled     bool     `yaml:"disabled"`

	Dir string `yaml:"-"` // directory the manifest was loaded from
}

// LoadManifest reads and validates a manifest file. A relative command is
// resolved against the manifest's directory when such a file exists.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	if !filepath.IsAbs(m.Command) && strings.ContainsRune(m.Command, filepath.Separator) {
		m.Command = filepath.Join(m.Dir, m.Command)
	} else if !filepath.IsAbs(m.Command) {
		local := filepath.Join(m.Dir, m.Command)
		if _, err := os.Stat(local); err == nil {
			m.Command = local
		}
	}
	return &m, nil
}

// Validate checks required fields and resource kinds
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(m.Command) == "" {
		return errors.New("command is required")
	}
	for _, k := range m.Kinds {
		if !domain.ResourceKind(k).Valid() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, k)
		}
	}
	return nil
}

// Info converts the manifest into a registry descriptor
func (m *Manifest) Info() registry.ServiceInfo {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	kinds := make([]domain.ResourceKind, len(m.Kinds))
	for i, k := range m.Kinds {
		kinds[i] = domain.ResourceKind(k)
	}
	return registry.ServiceInfo{
		ID:           m.ID,
		Name:         name,
		Kinds:        kinds,
		SearchOrders: m.SearchOrders,
	}
}

// Discover loads every <dir>/*/plugin.yaml under dirs. Missing directories
// are skipped; invalid manifests are logged and skipped. Results are sorted
// by id.
func Discover(dirs []string, logger *slog.Logger) []*Manifest {
	if logger == nil {
		logger = slog.Default()
	}

	var manifests []*Manifest
	for _, dir := range dirs {
		paths, err := filepath.Glob(filepath.Join(expandPath(dir), "*", ManifestName))
		if err != nil {
			logger.Warn("bad plugin directory", "dir", dir, "error", err)
			continue
		}
		for _, path := range paths {
			m, err := LoadManifest(path)
			if err != nil {
				logger.Warn("skipping plugin", "path", path, "error", err)
				continue
			}
			manifests = append(manifests, m)
		}
	}

	sort.SliceStable(manifests, func(i, j int) bool { return manifests[i].ID < manifests[j].ID })
	return manifests
}

// Register adds a Backend for each enabled manifest. Duplicate ids are logged
// and skipped. It returns the number of plugins registered.
func Register(reg *registry.Registry, manifests []*Manifest, runner CmdRunner, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	n := 0
	for _, m := range manifests {
		if m.Disabled {
			logger.Debug("plugin disabled by manifest", "plugin", m.ID)
			continue
		}
		if err := reg.RegisterPlugin(m.Info(), New(m, runner, logger)); err != nil {
			logger.Warn("plugin not registered", "plugin", m.ID, "error", err)
			continue
		}
		n++
	}
	return n
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
