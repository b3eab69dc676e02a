package loam

import (
	"fmt"

	"github.com/aretw0/covenant/pkg/domain"
)

// MethodMetadata is the header of a method descriptor document.
// It uses "mapstructure" tags to match Frontmatter/YAML/JSON keys.
type MethodMetadata struct {
	// Name defaults to the document ID without extension.
	Name     string          `json:"name" mapstructure:"name"`
	Receiver string          `json:"receiver" mapstructure:"receiver"`
	Params   []ParamMetadata `json:"params" mapstructure:"params"`
	Results  []TypeMetadata  `json:"results" mapstructure:"results"`
	Markers  []string        `json:"markers" mapstructure:"markers"`
}

// ParamMetadata declares one argument.
type ParamMetadata struct {
	Name         string `json:"name" mapstructure:"name"`
	TypeMetadata `mapstructure:",squash"`
}

// TypeMetadata declares a parameter or result type.
// Result lists [T, E] for a literal fallible result.
type TypeMetadata struct {
	Type      string         `json:"type" mapstructure:"type"`
	Error     bool           `json:"error" mapstructure:"error"`
	Interface bool           `json:"interface" mapstructure:"interface"`
	Self      bool           `json:"self" mapstructure:"self"`
	Context   bool           `json:"context" mapstructure:"context"`
	Persist   bool           `json:"persist_on_error" mapstructure:"persist_on_error"`
	Result    []TypeMetadata `json:"result" mapstructure:"result"`
}

func (t TypeMetadata) ref() domain.TypeRef {
	builtin := t.Type == "error"
	ref := domain.TypeRef{
		Name:      t.Type,
		Error:     t.Error || builtin,
		Interface: t.Interface || builtin,
		Self:      t.Self,
		Context:   t.Context,
		Persist:   t.Persist,
	}
	for _, r := range t.Result {
		ref.Result = append(ref.Result, r.ref())
	}
	return ref
}

// Description converts the metadata into the classifier's input.
func (m MethodMetadata) Description(fallbackName string) (domain.MethodDescription, error) {
	recv, err := domain.ParseReceiverForm(m.Receiver)
	if err != nil {
		return domain.MethodDescription{}, err
	}
	desc := domain.MethodDescription{Name: m.Name, Receiver: recv}
	if desc.Name == "" {
		desc.Name = fallbackName
	}
	n := 0
	for _, p := range m.Params {
		ref := p.ref()
		name := p.Name
		switch {
		case ref.Context && name == "":
			name = "ctx"
		case !ref.Context:
			if name == "" {
				name = fmt.Sprintf("arg%d", n)
			}
			n++
		}
		desc.Params = append(desc.Params, domain.Param{Name: name, Type: ref})
	}
	for _, r := range m.Results {
		desc.Results = append(desc.Results, r.ref())
	}
	for _, mk := range m.Markers {
		desc.Markers = append(desc.Markers, domain.Marker(mk))
	}
	return desc, nil
}
