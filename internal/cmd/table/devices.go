package table

import (
	"fmt"
	"strings"

	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/differ"
	"github.com/agentstation/devmerge/pkg/reconciler"
)

// ResultsToTableData converts reconciliation results to one row per device.
// ids fixes the row order.
func ResultsToTableData(ids []string, results map[string]*reconciler.Result) Data {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		res, ok := results[id]
		if !ok {
			continue
		}
		s := res.Metadata.Stats
		rows = append(rows, []string{
			id,
			fmt.Sprintf("%d", len(res.Diagnostics)),
			fmt.Sprintf("%d", s.Repaired),
			fmt.Sprintf("%d", s.Quarantined),
			fmt.Sprintf("%d", s.TypesAligned),
			fmt.Sprintf("%d", s.TransportsAligned),
			fmt.Sprintf("%d", s.ConvertersAligned),
			fmt.Sprintf("%d", s.ValueDescsAligned),
			changeSummary(res.Changesets.First),
		})
	}

	return Data{
		Headers: []string{"Device", "Diagnostics", "Repaired", "Quarantined", "Types", "Transport", "Converters", "Value Desc", "Changes"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,
			AlignRight,
			AlignRight,
			AlignRight,
			AlignRight,
			AlignRight,
			AlignRight,
			AlignRight,
			AlignLeft,
		},
	}
}

func changeSummary(c *differ.Changeset) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("+%d ~%d", c.Summary.Added, c.Summary.Updated)
}

// DiagnosticsToTableData lists every merge conflict, one row per message.
func DiagnosticsToTableData(ids []string, results map[string]*reconciler.Result) Data {
	var rows [][]string
	for _, id := range ids {
		res, ok := results[id]
		if !ok {
			continue
		}
		for _, msg := range res.Diagnostics {
			rows = append(rows, []string{id, msg})
		}
	}
	return Data{
		Headers: []string{"Device", "Diagnostic"},
		Rows:    rows,
	}
}

// ChangesetsToTableData flattens changesets into one row per changed field.
func ChangesetsToTableData(changesets []*differ.Changeset) Data {
	var rows [][]string
	for _, c := range changesets {
		if c == nil {
			continue
		}
		for _, t := range c.Tables {
			for _, key := range t.Added {
				rows = append(rows, []string{c.DeviceID, t.Table, key, "+", "", ""})
			}
			for _, update := range t.Updated {
				for _, change := range update.Changes {
					rows = append(rows, []string{c.DeviceID, t.Table, update.Key, change.Path, change.OldValue, change.NewValue})
				}
			}
			for _, key := range t.Removed {
				rows = append(rows, []string{c.DeviceID, t.Table, key, "-", "", ""})
			}
		}
		for _, change := range c.Fields {
			rows = append(rows, []string{c.DeviceID, "", "", change.Path, change.OldValue, change.NewValue})
		}
	}
	return Data{
		Headers: []string{"Device", "Table", "Key", "Field", "Old", "New"},
		Rows:    rows,
	}
}

// RoutesToTableData shows the transport chosen for each code of d.
func RoutesToTableData(d *device.Device, codes []string) Data {
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		dpid := "-"
		if id, ok := d.DPIDForCode(code); ok {
			dpid = id.String()
		}
		rows = append(rows, []string{code, dpid, d.Route(code).String()})
	}
	return Data{
		Headers:         []string{"Code", "DP ID", "Route"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft},
	}
}

// Truncate shortens s to n runes for narrow tables.
func Truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if n <= 3 || len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
