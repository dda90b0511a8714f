package device

import (
	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// StatusRange describes the legal shape of a reported datapoint.
// Values holds plain text or a JSON object (min/max/step, enum range, ...).
type StatusRange struct {
	Code   string `json:"code" yaml:"code"`
	Type   string `json:"type" yaml:"type"`
	Values string `json:"values" yaml:"values"`
	DPID   DPID   `json:"dp_id,omitempty" yaml:"dp_id,omitempty"`
}

// Function describes a commandable datapoint.
type Function struct {
	Code   string `json:"code" yaml:"code"`
	Type   string `json:"type" yaml:"type"`
	Desc   string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Values string `json:"values" yaml:"values"`
	DPID   DPID   `json:"dp_id,omitempty" yaml:"dp_id,omitempty"`
}

var (
	statusRangeFields = []string{constants.FieldCode, constants.FieldType, constants.FieldValues, constants.FieldDPID}
	functionFields    = []string{constants.FieldCode, constants.FieldType, constants.FieldDesc, constants.FieldName, constants.FieldValues, constants.FieldDPID}
)

// FieldNames implements smartmerge.Record.
func (s *StatusRange) FieldNames() []string { return statusRangeFields }

// Field implements smartmerge.Record. Empty fields read as absent.
func (s *StatusRange) Field(name string) smartmerge.Value {
	switch name {
	case constants.FieldCode:
		return text(s.Code)
	case constants.FieldType:
		return text(s.Type)
	case constants.FieldValues:
		return text(s.Values)
	case constants.FieldDPID:
		return dpValue(s.DPID)
	}
	return nil
}

// SetField implements smartmerge.Record.
func (s *StatusRange) SetField(name string, v smartmerge.Value) {
	switch name {
	case constants.FieldCode:
		setText(&s.Code, v)
	case constants.FieldType:
		setText(&s.Type, v)
	case constants.FieldValues:
		setText(&s.Values, v)
	case constants.FieldDPID:
		setDP(&s.DPID, v)
	}
}

// Copy returns a copy of the descriptor.
func (s *StatusRange) Copy() *StatusRange {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// FieldNames implements smartmerge.Record.
func (f *Function) FieldNames() []string { return functionFields }

// Field implements smartmerge.Record. Empty fields read as absent.
func (f *Function) Field(name string) smartmerge.Value {
	switch name {
	case constants.FieldCode:
		return text(f.Code)
	case constants.FieldType:
		return text(f.Type)
	case constants.FieldDesc:
		return text(f.Desc)
	case constants.FieldName:
		return text(f.Name)
	case constants.FieldValues:
		return text(f.Values)
	case constants.FieldDPID:
		return dpValue(f.DPID)
	}
	return nil
}

// SetField implements smartmerge.Record.
func (f *Function) SetField(name string, v smartmerge.Value) {
	switch name {
	case constants.FieldCode:
		setText(&f.Code, v)
	case constants.FieldType:
		setText(&f.Type, v)
	case constants.FieldDesc:
		setText(&f.Desc, v)
	case constants.FieldName:
		setText(&f.Name, v)
	case constants.FieldValues:
		setText(&f.Values, v)
	case constants.FieldDPID:
		setDP(&f.DPID, v)
	}
}

// Copy returns a copy of the descriptor.
func (f *Function) Copy() *Function {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func text(s string) smartmerge.Value {
	if s == "" {
		return nil
	}
	return smartmerge.String(s)
}

func setText(dst *string, v smartmerge.Value) {
	if s, ok := v.(smartmerge.String); ok {
		*dst = string(s)
	}
}

func dpValue(id DPID) smartmerge.Value {
	if id == 0 {
		return nil
	}
	return smartmerge.Scalar{V: id}
}

func setDP(dst *DPID, v smartmerge.Value) {
	if s, ok := v.(smartmerge.Scalar); ok {
		if id, ok := s.V.(DPID); ok {
			*dst = id
		}
	}
}
