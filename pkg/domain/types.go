package domain

import (
	"reflect"
	"strings"
)

// TypeRef describes one declared parameter or result type.
// Go carries the live type when the description came from reflection; it is
// nil for descriptions read from documents.
type TypeRef struct {
	Name string       `json:"name" yaml:"name"`
	Go   reflect.Type `json:"-" yaml:"-"`

	// Error is set when the type satisfies the error interface.
	Error bool `json:"error,omitempty" yaml:"error,omitempty"`
	// Interface is set when the type is an interface (dynamic type decided at call time).
	Interface bool `json:"interface,omitempty" yaml:"interface,omitempty"`
	// Self is set when the type is the contract state type.
	Self bool `json:"self,omitempty" yaml:"self,omitempty"`
	// Context is set for a context.Context parameter.
	Context bool `json:"context,omitempty" yaml:"context,omitempty"`
	// Persist is set when the error type carries the persist-on-error marker.
	Persist bool `json:"persist,omitempty" yaml:"persist,omitempty"`
	// Result holds [T, E] when the type is literally a fallible result shape.
	Result []TypeRef `json:"result,omitempty" yaml:"result,omitempty"`
}

// IsUnit reports whether the reference denotes "no value".
func (t TypeRef) IsUnit() bool {
	return t.Name == "" && t.Go == nil
}

func (t TypeRef) String() string {
	if t.IsUnit() {
		return "()"
	}
	return t.Name
}

// Param is one declared method argument.
type Param struct {
	Name string  `json:"name" yaml:"name"`
	Type TypeRef `json:"type" yaml:"type"`
}

// MethodDescription is everything the classifier needs to know about a method.
type MethodDescription struct {
	Name     string       `json:"name" yaml:"name"`
	Receiver ReceiverForm `json:"receiver" yaml:"receiver"`
	Params   []Param      `json:"params,omitempty" yaml:"params,omitempty"`
	Results  []TypeRef    `json:"results,omitempty" yaml:"results,omitempty"`
	Markers  []Marker     `json:"markers,omitempty" yaml:"markers,omitempty"`
}

// ResultNames renders the declared results as a Go-like result list.
func (d MethodDescription) ResultNames() string {
	names := make([]string, len(d.Results))
	for i, r := range d.Results {
		names[i] = r.String()
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return "(" + strings.Join(names, ", ") + ")"
	}
}
