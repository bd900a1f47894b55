/*
Package codec implements the positional encoding used for stored values.

Objects are written as JSON arrays of their field values in the order given by the shape,
field names are never stored:

	type user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	// {"id":"u-1","name":"alice"} is stored as ["u-1","alice"]

Arrays and maps are encoded element by element, maps keep their keys. Values of kind any are
stored unchanged (name-keyed). Unmarshal reverses the encoding with the help of a schema.Schema,
which re-attaches the names and validates the value.
*/
package codec
