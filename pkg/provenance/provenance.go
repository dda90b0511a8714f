// Package provenance records which side won each reconciliation decision
// for a device pair, and what was repaired along the way.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/devmerge/pkg/constants"
)

// Side names the record a decision was taken from.
type Side string

// Sides.
const (
	SideFirst  Side = "device1"
	SideSecond Side = "device2"
	SideBoth   Side = "both"
)

// Provenance describes a single reconciliation decision.
type Provenance struct {
	Step          string    `yaml:"step"`            // repair, type, transport, value_convert, value_desc
	Table         string    `yaml:"table"`           // status_range, function, local_strategy
	Key           string    `yaml:"key"`             // datapoint code or dp id
	Field         string    `yaml:"field,omitempty"` // field written, e.g. "values"
	Winner        Side      `yaml:"winner"`          // side whose value was adopted
	Value         any       `yaml:"value,omitempty"`
	PreviousValue any       `yaml:"previous_value,omitempty"`
	Reason        string    `yaml:"reason,omitempty"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// Map tracks provenance for multiple devices.
type Map map[string][]Provenance // key is "deviceID:table:key"

// Tracker manages provenance tracking during reconciliation.
// Implementations are safe for concurrent use.
type Tracker interface {
	// Track records a decision for a device
	Track(deviceID string, p Provenance)

	// FindByKey retrieves decisions for one datapoint of a table
	FindByKey(deviceID, table, key string) []Provenance

	// FindByDevice retrieves all decisions for a device, keyed by "table:key"
	FindByDevice(deviceID string) map[string][]Provenance

	// Map returns a copy of the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	mu         sync.RWMutex
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records a decision.
func (p *tracker) Track(deviceID string, history Provenance) {
	if !p.enabled {
		return
	}
	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}

	key := makeKey(deviceID, history.Table, history.Key)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByKey retrieves decisions for one datapoint.
func (p *tracker) FindByKey(deviceID, table, key string) []Provenance {
	if !p.enabled {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Provenance(nil), p.provenance[makeKey(deviceID, table, key)]...)
}

// FindByDevice retrieves all decisions for a device.
func (p *tracker) FindByDevice(deviceID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string][]Provenance)
	prefix := deviceID + ":"
	for key, info := range p.provenance {
		if rest, found := strings.CutPrefix(key, prefix); found {
			result[rest] = append([]Provenance(nil), info...)
		}
	}
	return result
}

// Map returns the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provenance = make(Map)
}

func makeKey(deviceID, table, key string) string {
	return fmt.Sprintf("%s:%s:%s", deviceID, table, key)
}

// Report groups provenance per device and datapoint.
type Report struct {
	Devices map[string]DeviceProvenance `yaml:"devices"`
}

// DeviceProvenance contains the decisions taken for one device.
type DeviceProvenance struct {
	ID         string                  `yaml:"id"`
	Datapoints map[string][]Provenance `yaml:"datapoints"` // key is "table:key"
	Repairs    int                     `yaml:"repairs"`
}

// GenerateReport creates a report from a Map. Decisions are ordered oldest first.
func GenerateReport(provenance Map) *Report {
	report := &Report{Devices: make(map[string]DeviceProvenance)}

	for key, infos := range provenance {
		deviceID, datapoint, found := strings.Cut(key, ":")
		if !found {
			continue
		}

		dev, exists := report.Devices[deviceID]
		if !exists {
			dev = DeviceProvenance{
				ID:         deviceID,
				Datapoints: make(map[string][]Provenance),
			}
		}

		sorted := append([]Provenance(nil), infos...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})
		for _, info := range sorted {
			if info.Step == StepRepair {
				dev.Repairs++
			}
		}

		dev.Datapoints[datapoint] = sorted
		report.Devices[deviceID] = dev
	}

	return report
}

// Reconciliation steps recorded by the reconciler.
const (
	StepRepair       = "repair"
	StepType         = "type"
	StepTransport    = "transport"
	StepValueConvert = "value_convert"
	StepValueDesc    = "value_desc"
)

// String generates a human-readable rendering of the report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	ids := make([]string, 0, len(r.Devices))
	for id := range r.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		dev := r.Devices[id]
		fmt.Fprintf(&sb, "device: %s (%d repairs)\n", dev.ID, dev.Repairs)
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		keys := make([]string, 0, len(dev.Datapoints))
		for k := range dev.Datapoints {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s:\n", k)
			for _, info := range dev.Datapoints[k] {
				fmt.Fprintf(&sb, "    - %s: %s from %s", info.Step, fieldOrAll(info.Field), info.Winner)
				if info.Reason != "" {
					fmt.Fprintf(&sb, " (%s)", info.Reason)
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func fieldOrAll(field string) string {
	if field == "" {
		return "entry"
	}
	return field
}

// YAML renders the report as YAML.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// ProvenanceFile represents a provenance file stored on disk.
//
//nolint:revive // Name is intentionally descriptive for external clarity
type ProvenanceFile struct {
	Provenance Map `yaml:"provenance"`
}

// Save writes the map to a YAML file.
func Save(path string, provenance Map) error {
	data, err := yaml.Marshal(&ProvenanceFile{Provenance: provenance})
	if err != nil {
		return fmt.Errorf("failed to encode provenance: %w", err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return fmt.Errorf("failed to write provenance file: %w", err)
	}
	return nil
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (*ProvenanceFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read provenance file: %w", err)
	}

	var pf ProvenanceFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse provenance file: %w", err)
	}

	return &pf, nil
}
