/*
Package schema describes the structure of values stored by the model package.

A Schema[T] exposes a Shape, the structural description of T with ordered field names for every
object node, and Decode, which validates a structural value and turns it into a T.
Two implementations exist:

  - Of[T] derives the shape from the Go type T via reflection (json tags are honored)
  - FromJSONSchema reads a JSON Schema document, values are generic map[string]any trees

Shapes can be exported as JSON Schema with Shape.JSONSchema.
*/
package schema
