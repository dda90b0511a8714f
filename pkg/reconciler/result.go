package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/devmerge/pkg/differ"
	"github.com/agentstation/devmerge/pkg/provenance"
)

// Result represents the outcome of reconciling one device pair.
type Result struct {
	// RunID identifies this reconciliation in logs.
	RunID    string
	DeviceID string

	// Diagnostics are the merge conflicts that were resolved left-wins.
	Diagnostics []string

	// Repairs lists every malformed value descriptor that was found.
	Repairs []Repair

	// Provenance holds the decisions taken, keyed by "table:key". Empty
	// unless provenance tracking is enabled.
	Provenance map[string][]provenance.Provenance

	// Changesets compare each device's pre-merge snapshot with its merged state.
	Changesets Changesets

	// Metadata
	Metadata ResultMetadata
}

// Changesets holds the changeset of both devices.
type Changesets struct {
	First  *differ.Changeset
	Second *differ.Changeset
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Stats     ResultStatistics
}

// ResultStatistics counts what each step did.
type ResultStatistics struct {
	TypesAligned      int
	TransportsAligned int
	ConvertersAligned int
	ValueDescsAligned int
	Repaired          int
	Quarantined       int
}

// RepairOutcome says how a malformed descriptor was handled.
type RepairOutcome string

// Repair outcomes.
const (
	// RepairCopied means the other side's clean descriptor was copied over.
	RepairCopied RepairOutcome = "copied"
	// RepairQuarantined means both sides were replaced by an error wrapper.
	RepairQuarantined RepairOutcome = "quarantined"
	// RepairUnresolved means the other side had nothing to offer.
	RepairUnresolved RepairOutcome = "unresolved"
)

// Repair records one malformed descriptor.
type Repair struct {
	Table    string
	Key      string
	Side     provenance.Side
	Outcome  RepairOutcome
	Original string
}

// HasDiagnostics returns true if any merge conflict was reported.
func (r *Result) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// HasChanges returns true if either device changed.
func (r *Result) HasChanges() bool {
	return (r.Changesets.First != nil && r.Changesets.First.HasChanges()) ||
		(r.Changesets.Second != nil && r.Changesets.Second.HasChanges())
}

// Summary returns a one-line description of the run.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	return fmt.Sprintf("device %s: %d diagnostics, %d repairs (%d quarantined), aligned types=%d transport=%d converters=%d value_desc=%d in %v",
		r.DeviceID, len(r.Diagnostics), s.Repaired, s.Quarantined,
		s.TypesAligned, s.TransportsAligned, s.ConvertersAligned, s.ValueDescsAligned, r.Metadata.Duration)
}
