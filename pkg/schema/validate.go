package schema

// Schema maps field names to their layouts.
// Example: {"owner": String(), "amount": U128(), "memo": Option(String())}
type Schema map[string]Type

// Validate checks that every field of the schema is present in data and fits
// its layout. All failures are reported together.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	return ValidateFields(schema, data, fields...)
}

// ValidateFields validates only the named fields, in the given order.
// A field the schema does not define is an error.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	var errs []error

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "not defined in schema"})
			continue
		}

		value, present := data[fieldName]
		if !present {
			if _, optional := fieldType.(*OptionType); optional {
				continue
			}
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
