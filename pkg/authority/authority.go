// Package authority decides which of two conflicting schema claims for a
// datapoint is more plausible, optionally using the datapoint's observed
// runtime value as evidence.
package authority

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// Preference is the verdict of a Resolver.
type Preference int

// Preferences.
const (
	NoPreference Preference = iota
	PreferFirst
	PreferSecond
)

func (p Preference) String() string {
	switch p {
	case PreferFirst:
		return "first"
	case PreferSecond:
		return "second"
	default:
		return "none"
	}
}

// Resolver picks the more plausible of two candidate records for field.
// Implementations must be safe for concurrent use.
type Resolver interface {
	MostPlausible(first, second map[string]any, field string, evidence any) Preference
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(first, second map[string]any, field string, evidence any) Preference

// MostPlausible calls f.
func (f ResolverFunc) MostPlausible(first, second map[string]any, field string, evidence any) Preference {
	return f(first, second, field, evidence)
}

// Family groups datapoint type names that accept the same runtime values.
type Family int

// Type families.
const (
	FamilyUnknown Family = iota
	FamilyBoolean
	FamilyNumeric
	FamilyText
	FamilyJSON
)

var families = map[string]Family{
	"boolean": FamilyBoolean,
	"bool":    FamilyBoolean,
	"integer": FamilyNumeric,
	"value":   FamilyNumeric,
	"bitmap":  FamilyNumeric,
	"enum":    FamilyText,
	"string":  FamilyText,
	"raw":     FamilyText,
	"json":    FamilyJSON,
}

// fold case-folds s. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// FamilyOf classifies a datapoint type name such as "Integer" or "value".
func FamilyOf(typeName string) Family {
	return families[fold(strings.TrimSpace(typeName))]
}

// Accepts reports whether a value observed at runtime fits the family.
func (f Family) Accepts(evidence any) bool {
	switch v := evidence.(type) {
	case bool:
		return f == FamilyBoolean
	case int, int32, int64, uint64, float64, json.Number:
		return f == FamilyNumeric
	case string:
		if f == FamilyText {
			return true
		}
		if f == FamilyJSON {
			var obj any
			return json.Unmarshal([]byte(v), &obj) == nil
		}
		return false
	case map[string]any, []any:
		return f == FamilyJSON
	default:
		return false
	}
}

// heuristic is the default Resolver.
//
// Identical claims (ignoring case) yield no preference. A missing claim loses
// to a present one. Otherwise the claim whose type family accepts the runtime
// evidence wins, if exactly one does.
type heuristic struct{}

// New returns the default type-plausibility resolver.
func New() Resolver {
	return heuristic{}
}

func (heuristic) MostPlausible(first, second map[string]any, field string, evidence any) Preference {
	a, _ := first[field].(string)
	b, _ := second[field].(string)

	switch {
	case fold(a) == fold(b):
		return NoPreference
	case a == "":
		return PreferSecond
	case b == "":
		return PreferFirst
	case evidence == nil:
		return NoPreference
	}

	okA := FamilyOf(a).Accepts(evidence)
	okB := FamilyOf(b).Accepts(evidence)
	switch {
	case okA && !okB:
		return PreferFirst
	case okB && !okA:
		return PreferSecond
	default:
		return NoPreference
	}
}
