package schema

// Schema describes a type T: its shape and how to turn a structural value back into a T.
//
// Implementations are Of (reflection on a Go type) and FromJSONSchema (a JSON Schema document).
type Schema[T any] interface {
	// Shape returns the shape of T. The returned shape must not be modified.
	Shape() *Shape
	// Decode validates a structural value (as produced by encoding/json with UseNumber,
	// object nodes may be positional) and converts it into a T.
	// Validation failures wrap ErrShapeMismatch.
	Decode(raw any) (T, error)
}
