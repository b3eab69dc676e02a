// Package abi describes a bound contract for its callers: every entry
// point with its classification, argument and result schemas, and the error
// types its signatures can surface. A Document renders to JSON, to an
// OpenAPI 3 document and to Markdown.
package abi

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/aretw0/covenant/pkg/bind"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/envelope"
	"github.com/aretw0/covenant/pkg/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultVersion is used when a contract declares no version.
const DefaultVersion = "0.1.0"

// Document is the ABI of one contract.
type Document struct {
	Name       string                     `json:"name"`
	Version    string                     `json:"version"`
	StateCodec domain.SerializationChoice `json:"state_codec"`
	State      schema.Object              `json:"state"`
	Methods    []Method                   `json:"methods"`
	ErrorTypes []string                   `json:"error_types,omitempty"`
}

// Method is one entry point.
type Method struct {
	domain.ClassificationRecord
	Params    []Param       `json:"params"`
	Result    schema.Object `json:"result"`
	ErrorType string        `json:"error_type,omitempty"`

	// ResultJSON is the structured-text schema of the result, whatever the
	// result codec.
	ResultJSON *openapi3.SchemaRef `json:"-"`
}

// Param is one non-context argument.
type Param struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Schema schema.Object `json:"schema"`

	// JSON is the structured-text schema callers use over HTTP and MCP,
	// also for methods whose arguments travel in the binary codec.
	JSON *openapi3.SchemaRef `json:"-"`
}

// Build assembles the document of c. An empty version means DefaultVersion.
func Build(c *bind.Contract, version string) (*Document, error) {
	if version == "" {
		version = DefaultVersion
	}
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("abi: invalid version %q: %w", version, err)
	}

	doc := &Document{
		Name:       c.Name(),
		Version:    v.String(),
		StateCodec: c.StateCodec(),
		State:      c.StateSchema(),
	}
	seen := map[string]bool{}
	for _, e := range c.Entries() {
		m, err := method(e)
		if err != nil {
			return nil, fmt.Errorf("abi: method %s: %w", e.Name(), err)
		}
		if m.ErrorType != "" && !seen[m.ErrorType] {
			seen[m.ErrorType] = true
			doc.ErrorTypes = append(doc.ErrorTypes, m.ErrorType)
		}
		doc.Methods = append(doc.Methods, m)
	}
	slices.Sort(doc.ErrorTypes)
	return doc, nil
}

func method(e *bind.Entry) (Method, error) {
	m := Method{
		ClassificationRecord: e.Record,
		Result:               e.Result,
	}
	if e.Record.Kind != domain.Init {
		obj, err := schema.ForType(e.Shape.Success.Go, domain.StructuredText)
		if err != nil {
			return Method{}, err
		}
		m.ResultJSON = obj.JSON
	}
	if e.Shape.Fallible() && e.Shape.Error.Go != nil && !e.Shape.Error.Interface {
		m.ErrorType = envelope.TypeName(e.Shape.Error.Go)
	}

	types := e.ArgTypes()
	names := argNames(e.Description)
	for i, t := range types {
		obj, err := schema.ForType(t, domain.StructuredText)
		if err != nil {
			return Method{}, err
		}
		m.Params = append(m.Params, Param{
			Name:   names[i],
			Type:   t.String(),
			Schema: e.Args[i],
			JSON:   obj.JSON,
		})
	}
	return m, nil
}

func argNames(d domain.MethodDescription) []string {
	var names []string
	for _, p := range d.Params {
		if !p.Type.Context {
			names = append(names, p.Name)
		}
	}
	return names
}

// Method looks up a method by name.
func (d *Document) Method(name string) (Method, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// JSON renders the document, indented.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// RequestSchema is the structured-text schema of a call body: nothing for
// no arguments, the argument itself for one, an array otherwise.
func (m Method) RequestSchema() *openapi3.SchemaRef {
	switch len(m.Params) {
	case 0:
		return nil
	case 1:
		return m.Params[0].JSON
	default:
		arr := openapi3.NewArraySchema().
			WithMinItems(int64(len(m.Params))).
			WithMaxItems(int64(len(m.Params)))
		arr.Description = "positional arguments"
		return openapi3.NewSchemaRef("", arr)
	}
}

// ValidateArgs checks a decoded JSON body against the parameter schemas.
func (m Method) ValidateArgs(body any) error {
	switch len(m.Params) {
	case 0:
		if body != nil {
			return fmt.Errorf("method %s takes no arguments", m.Name)
		}
		return nil
	case 1:
		return visit(m.Params[0], body)
	}
	items, ok := body.([]any)
	if !ok || len(items) != len(m.Params) {
		return fmt.Errorf("method %s takes %d positional arguments", m.Name, len(m.Params))
	}
	for i, p := range m.Params {
		if err := visit(p, items[i]); err != nil {
			return err
		}
	}
	return nil
}

func visit(p Param, v any) error {
	if p.JSON == nil || p.JSON.Value == nil {
		return nil
	}
	if err := p.JSON.Value.VisitJSON(v); err != nil {
		return fmt.Errorf("argument %s: %w", p.Name, err)
	}
	return nil
}
