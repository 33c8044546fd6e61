package lookup

// Per-field defensive access over the decoded upstream object. Reddit omits,
// nulls, or re-types fields depending on the account and community, so every
// field read is an independent operation that yields the declared default
// instead of failing the whole lookup.

// numberField reports whether the key holds a JSON number
func numberField(data map[string]interface{}, key string) (float64, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func stringField(data map[string]interface{}, key, def string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func intField(data map[string]interface{}, key string, def int) int {
	f, ok := numberField(data, key)
	if !ok {
		return def
	}
	return int(f)
}

func floatField(data map[string]interface{}, key string, def float64) float64 {
	f, ok := numberField(data, key)
	if !ok {
		return def
	}
	return f
}

func boolField(data map[string]interface{}, key string, def bool) bool {
	v, ok := data[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// pointer variants for fields that serialize as null when upstream has no value

func stringPtrField(data map[string]interface{}, key string) *string {
	v, ok := data[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func intPtrField(data map[string]interface{}, key string) *int64 {
	f, ok := numberField(data, key)
	if !ok {
		return nil
	}
	n := int64(f)
	return &n
}

func floatPtrField(data map[string]interface{}, key string) *float64 {
	f, ok := numberField(data, key)
	if !ok {
		return nil
	}
	return &f
}

func mapField(data map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}
