// Package schema describes the values a contract method accepts and returns.
//
// Two descriptions exist per value, one per codec. The structured-text codec
// gets an OpenAPI schema generated from the Go type. The compact binary codec
// gets a layout built from this package's Type values:
//
//	u8 u16 u32 u64 u128 i8 i16 i32 i64 f32 f64 bool string bytes ()
//	[T]  [T;N]  Option<T>  Map<K,V>  structs (ordered fields)
//
// Layouts are derived from Go types with Layout and validate decoded values
// before they are re-encoded:
//
//	layout, err := schema.Layout(reflect.TypeFor[Transfer]())
//	if err != nil {
//	    // the type cannot travel in the binary codec
//	}
//	if err := layout.Validate(decoded); err != nil {
//	    // reject the call
//	}
//
// A Schema maps field names to layouts and is how struct layouts validate
// their fields:
//
//	s := schema.Schema{
//	    "owner":  schema.String(),
//	    "amount": schema.U128(),
//	    "memo":   schema.Option(schema.String()),
//	}
//
//	if err := schema.Validate(s, data); err != nil {
//	    // Handle validation errors
//	}
//
// Layout names parse back with ParseType and ParseTypeMap, so a Schema
// survives a JSON round trip as a map of field names to layout names.
//
// Derive is the entry point used when binding methods: it takes the shape
// matched for a method's return type and yields the schema of its success
// type. Types that cannot be represented in the requested codec produce a
// BuildTimeSchemaError.
package schema
