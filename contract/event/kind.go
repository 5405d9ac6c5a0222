package event

import "reflect"

// Kind describes one named event type and the payload type its events carry.
// Kinds are immutable values; construct them with NewKind or KindOf and
// register them on a Bus before publishing or subscribing.
type Kind struct {
	name    string
	payload reflect.Type
}

// NewKind builds a Kind whose payloads must be assignable to P.
func NewKind[P any](name string) Kind {
	return Kind{name: name, payload: reflect.TypeOf((*P)(nil)).Elem()}
}

// KindOf builds a Kind from a sample payload value, for callers that do not
// know the payload type at compile time.
func KindOf(name string, sample any) Kind {
	return Kind{name: name, payload: reflect.TypeOf(sample)}
}

// Name returns the unique kind name, e.g. "message.received".
func (k Kind) Name() string { return k.name }

// PayloadType returns the payload type events of this kind must carry.
func (k Kind) PayloadType() reflect.Type { return k.payload }

// Valid reports whether the kind has both a name and a payload type.
func (k Kind) Valid() bool { return k.name != "" && k.payload != nil }
