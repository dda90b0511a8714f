package smartmerge

import "fmt"

// Diagnostics collects conflict messages produced by Merge.
// A nil *Diagnostics discards everything.
type Diagnostics struct {
	messages []string
}

// NewDiagnostics returns an empty sink.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Addf appends a formatted message.
func (d *Diagnostics) Addf(format string, args ...any) {
	if d == nil {
		return
	}
	d.messages = append(d.messages, fmt.Sprintf(format, args...))
}

// Messages returns the collected messages in order.
func (d *Diagnostics) Messages() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.messages...)
}

// Len returns the number of collected messages.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.messages)
}

// Empty reports whether no messages were collected.
func (d *Diagnostics) Empty() bool {
	return d.Len() == 0
}
