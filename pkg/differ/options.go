package differ

// Option is a functional option for configuring Differ
type Option func(*differ)

// WithIgnoredFields skips tables ("status") or field paths ("values",
// "config_item.valueDesc") during comparison
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithValueLimit truncates rendered old/new values to n runes (0 disables)
func WithValueLimit(n int) Option {
	return func(d *differ) {
		d.valueLimit = n
	}
}
