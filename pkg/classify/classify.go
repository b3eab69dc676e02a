// Package classify decides, from a method description alone, how a contract
// method is exposed: its call kind, payability, privacy, codecs and return
// handling policy.
//
// Classify is pure. It never touches state and returns the same record for
// the same description. Every problem found for a method is reported at once
// in a single *domain.BuildError.
package classify

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/shape"
)

// Classify produces the classification record of one method.
func Classify(desc domain.MethodDescription) (domain.ClassificationRecord, error) {
	c := &classifier{desc: desc, markers: domain.NewMarkerSet(desc.Markers)}
	rec := c.run()
	if len(c.reasons) > 0 {
		return domain.ClassificationRecord{}, &domain.BuildError{
			Kind:    domain.BuildTimeClassificationError,
			Method:  desc.Name,
			Reasons: c.reasons,
		}
	}
	return rec, nil
}

// Shape resolves and classifies at once, for callers that also need the
// matched shape (normalization and schema derivation).
func Shape(desc domain.MethodDescription) (domain.ClassificationRecord, shape.Shape, error) {
	rec, err := Classify(desc)
	if err != nil {
		return rec, shape.Shape{}, err
	}
	s, err := shape.Match(desc.Results)
	if err != nil {
		// unreachable: Classify already matched the same results
		return rec, shape.Shape{}, err
	}
	return rec, s, nil
}

type classifier struct {
	desc    domain.MethodDescription
	markers domain.MarkerSet
	reasons []string
}

func (c *classifier) fail(format string, args ...any) {
	c.reasons = append(c.reasons, fmt.Sprintf(format, args...))
}

func (c *classifier) run() domain.ClassificationRecord {
	rec := domain.ClassificationRecord{Name: c.desc.Name}

	c.checkMarkers()
	rec.Kind = c.kind()
	rec.Payable = c.markers.Has(domain.MarkerPayable)
	rec.Private = c.markers.Has(domain.MarkerPrivate)
	rec.IgnoresState = rec.Kind == domain.Init && c.markers.Has(domain.MarkerInitIgnoreState)
	rec.Serialization, rec.ArgsSerialization = c.serialization()
	rec.Return = c.returnPolicy(rec.Kind)
	c.checkParams()

	if rec.Payable && rec.Kind == domain.View {
		c.fail("payable is not allowed on a view method")
	}
	if rec.Private && rec.Kind == domain.Init {
		c.fail("private is not allowed on a constructor")
	}
	return rec
}

func (c *classifier) checkMarkers() {
	for _, m := range c.desc.Markers {
		if !m.Known() {
			c.fail("unknown marker %q", m)
		}
	}
	if c.markers.Has(domain.MarkerPersistOnError) {
		c.fail("persist_on_error belongs on the error type, not on a method")
	}
	if c.markers.Has(domain.MarkerPayable) && c.markers.Has(domain.MarkerNonPayable) {
		c.fail("conflicting markers payable and non_payable")
	}
	if c.markers.Has(domain.MarkerSerializerJSON) && c.markers.Has(domain.MarkerSerializerBorsh) {
		c.fail("conflicting markers serializer(json) and serializer(borsh)")
	}
	if c.markers.Has(domain.MarkerArgsJSON) && c.markers.Has(domain.MarkerArgsBorsh) {
		c.fail("conflicting markers args_serializer(json) and args_serializer(borsh)")
	}
}

func (c *classifier) kind() domain.MethodKind {
	isInit := c.markers.Has(domain.MarkerInit, domain.MarkerInitIgnoreState)
	selfReturn := c.returnsSelf()

	if c.desc.Receiver == domain.NoReceiver {
		switch {
		case !isInit && selfReturn:
			c.fail("self-return only valid as a constructor")
		case !isInit:
			c.fail("function without a receiver must be marked init")
		}
		if c.markers.Has(domain.MarkerView) {
			c.fail("view is not allowed on a function without a receiver")
		}
		return domain.Init
	}

	if isInit {
		c.fail("constructor must not take a receiver")
	}
	if selfReturn {
		c.fail("self-return only valid as a constructor")
	}
	if c.desc.Receiver == domain.PointerReceiver && !c.markers.Has(domain.MarkerView) {
		return domain.Call
	}
	return domain.View
}

func (c *classifier) returnsSelf() bool {
	for _, r := range c.desc.Results {
		if r.Self || (len(r.Result) == 2 && r.Result[0].Self) {
			return true
		}
	}
	return false
}

func (c *classifier) serialization() (result, args domain.SerializationChoice) {
	result = domain.StructuredText
	if c.markers.Has(domain.MarkerSerializerBorsh) && !c.markers.Has(domain.MarkerSerializerJSON) {
		result = domain.CompactBinary
	}
	args = result
	switch {
	case c.markers.Has(domain.MarkerArgsBorsh) && !c.markers.Has(domain.MarkerArgsJSON):
		args = domain.CompactBinary
	case c.markers.Has(domain.MarkerArgsJSON) && !c.markers.Has(domain.MarkerArgsBorsh):
		args = domain.StructuredText
	}
	return result, args
}

func (c *classifier) returnPolicy(kind domain.MethodKind) domain.ReturnPolicy {
	s, err := shape.Match(c.desc.Results)
	if err != nil {
		c.fail("%v", err)
		return domain.ReturnPolicy{}
	}

	handle := c.markers.Has(domain.MarkerHandleResult)
	policy := domain.ReturnPolicy{Kind: s.Kind(), Success: s.Success}

	switch {
	case s.Fallible() && !handle:
		c.fail("return type %s is fallible; mark the method handle_result", c.desc.ResultNames())
	case !s.Fallible() && handle:
		c.fail("handle_result requires a fallible return type, got %s", resultsOrUnit(c.desc))
	}
	if s.Fallible() {
		policy.Error = s.Error
		policy.PersistOnError = s.Error.Persist && !s.Error.Interface
		if s.Form != shape.FormResult && !nillable(s.Error) {
			c.fail("error type %s cannot be nil, so it can never signal success; return Result[%s, %s] instead",
				s.Error, successName(s), s.Error)
		}
	}

	if kind == domain.Init && c.markers.Has(domain.MarkerInit, domain.MarkerInitIgnoreState) && !policy.Success.Self {
		c.fail("constructor must return the state type, got %s", resultsOrUnit(c.desc))
	}
	return policy
}

func (c *classifier) checkParams() {
	for i, p := range c.desc.Params {
		if p.Type.Context && i != 0 {
			c.fail("context parameter %q must come first", p.Name)
		}
		if p.Type.Self {
			c.fail("parameter %q must not be the state type", p.Name)
		}
	}
}

func resultsOrUnit(desc domain.MethodDescription) string {
	if len(desc.Results) == 0 {
		return "()"
	}
	return desc.ResultNames()
}

// nillable reports whether a nil error value can mean success. Without a live
// type, only interfaces and pointer names qualify.
func nillable(ref domain.TypeRef) bool {
	if ref.Go != nil {
		return ref.Go.Kind() == reflect.Interface || ref.Go.Kind() == reflect.Pointer
	}
	return ref.Interface || strings.HasPrefix(ref.Name, "*")
}

func successName(s shape.Shape) string {
	if s.Success.IsUnit() {
		return "struct{}"
	}
	return s.Success.String()
}
