package abi

import (
	"fmt"
	"net/http"

	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
)

// BasePath is where the HTTP adapter mounts a contract's methods.
const BasePath = "/methods"

// OpenAPI renders the document as the HTTP surface served by the http
// adapter: one POST operation per method under BasePath.
//
// Request bodies are always structured text. Responses use the method's
// result codec; handled failures answer 422 with the error envelope and
// aborts answer 400 with the abort message.
func (d *Document) OpenAPI() *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       d.Name,
			Version:     d.Version,
			Description: fmt.Sprintf("Entry points of contract %s (state stored as %s).", d.Name, d.StateCodec),
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Envelope":   openapi3.NewSchemaRef("", envelopeSchema()),
				"Diagnostic": openapi3.NewSchemaRef("", diagnosticSchema()),
			},
		},
	}
	for _, m := range d.Methods {
		spec.Paths.Set(BasePath+"/"+m.Name, &openapi3.PathItem{Post: d.operation(m)})
	}
	return spec
}

func (d *Document) operation(m Method) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = m.Name
	op.Summary = fmt.Sprintf("%s method %s", m.Kind, m.Name)
	op.Tags = []string{m.Kind.String()}
	op.Parameters = openapi3.Parameters{
		{Value: openapi3.NewHeaderParameter("X-Account").WithSchema(openapi3.NewStringSchema()).WithRequired(true)},
		{Value: openapi3.NewHeaderParameter("X-Predecessor").WithSchema(openapi3.NewStringSchema())},
		{Value: openapi3.NewHeaderParameter("X-Deposit").WithSchema(openapi3.NewStringSchema().WithPattern(`^[0-9]+$`))},
	}

	if req := m.RequestSchema(); req != nil {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(req),
		}
	}

	ok := openapi3.NewResponse().WithDescription("committed")
	switch {
	case m.Kind == domain.Init || m.ResultJSON == nil:
		ok = openapi3.NewResponse().WithDescription("committed, no value")
	case m.Serialization == domain.CompactBinary:
		ok.WithContent(openapi3.NewContentWithSchema(
			openapi3.NewStringSchema().WithFormat("binary"),
			[]string{codec.Borsh().ContentType()},
		))
	default:
		ok.WithJSONSchemaRef(m.ResultJSON)
	}

	responses := openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: ok}),
		openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("aborted").WithContent(
				openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}),
			),
		}),
	)
	if m.Return.Kind == domain.ExplicitFallible {
		responses.Set(fmt.Sprint(http.StatusUnprocessableEntity), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("handled failure; the body is the error envelope").
				WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/Diagnostic", diagnosticSchema())),
		})
	}
	op.Responses = responses
	return op
}

func envelopeSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("error_type", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("value", openapi3.NewSchema())
	s.Required = []string{"error_type", "value"}
	return s
}

func diagnosticSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithPropertyRef("error", openapi3.NewSchemaRef("#/components/schemas/Envelope", envelopeSchema()))
	s.Required = []string{"error"}
	return s
}
