package domain

// Marker is an annotation attached to a method.
type Marker string

const (
	MarkerInit            Marker = "init"
	MarkerInitIgnoreState Marker = "init(ignore_state)"
	MarkerPayable         Marker = "payable"
	MarkerNonPayable      Marker = "non_payable"
	MarkerPrivate         Marker = "private"
	MarkerView            Marker = "view"
	MarkerHandleResult    Marker = "handle_result"
	MarkerSerializerJSON  Marker = "serializer(json)"
	MarkerSerializerBorsh Marker = "serializer(borsh)"
	MarkerArgsJSON        Marker = "args_serializer(json)"
	MarkerArgsBorsh       Marker = "args_serializer(borsh)"
	MarkerPersistOnError  Marker = "persist_on_error"
	MarkerSkip            Marker = "skip"
)

var knownMarkers = map[Marker]struct{}{
	MarkerInit:            {},
	MarkerInitIgnoreState: {},
	MarkerPayable:         {},
	MarkerNonPayable:      {},
	MarkerPrivate:         {},
	MarkerView:            {},
	MarkerHandleResult:    {},
	MarkerSerializerJSON:  {},
	MarkerSerializerBorsh: {},
	MarkerArgsJSON:        {},
	MarkerArgsBorsh:       {},
	MarkerPersistOnError:  {},
	MarkerSkip:            {},
}

// Known reports whether m is part of the marker vocabulary.
func (m Marker) Known() bool {
	_, ok := knownMarkers[m]
	return ok
}

// MarkerSet is an unordered view over a method's markers.
type MarkerSet map[Marker]struct{}

// NewMarkerSet collapses duplicates.
func NewMarkerSet(markers []Marker) MarkerSet {
	set := make(MarkerSet, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	return set
}

// Has reports whether any of the given markers is present.
func (s MarkerSet) Has(markers ...Marker) bool {
	for _, m := range markers {
		if _, ok := s[m]; ok {
			return true
		}
	}
	return false
}
