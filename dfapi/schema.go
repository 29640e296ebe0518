package dfapi

// SysFields are the built-in bookkeeping columns present on every chain.
var SysFields = [][2]string{
	{"sys.id", "int"},
	{"sys.rand", "int"},
}

// SignalSchema is an ordered field-name to type-name mapping.
// It is derived from a dataset record, not stored independently:
// the stored feature schema wins, and inferred column types are the fallback.
type SignalSchema struct {
	keys   []string
	values map[string]string
}

func NewSignalSchema() *SignalSchema {
	return &SignalSchema{values: map[string]string{}}
}

// SignalSchemaFromPairs builds a schema preserving the order of pairs.
func SignalSchemaFromPairs(pairs [][2]string) *SignalSchema {
	s := NewSignalSchema()
	for _, p := range pairs {
		s.Set(p[0], p[1])
	}
	return s
}

// Set adds or replaces a field.  New fields append to the order.
func (s *SignalSchema) Set(field, typeName string) {
	if _, exists := s.values[field]; !exists {
		s.keys = append(s.keys, field)
	}
	s.values[field] = typeName
}

// FieldType returns the type of a field and whether it exists.
func (s *SignalSchema) FieldType(field string) (string, bool) {
	t, ok := s.values[field]
	return t, ok
}

// Fields returns field names in order.
func (s *SignalSchema) Fields() []string {
	return s.keys
}

func (s *SignalSchema) Len() int {
	return len(s.keys)
}

// Merge overlays other onto s, appending unknown fields in other's order.
func (s *SignalSchema) Merge(other *SignalSchema) {
	for _, k := range other.keys {
		s.Set(k, other.values[k])
	}
}

// DeriveSignalSchema computes the effective schema of a dataset record:
// the stored feature schema if present, otherwise the inferred column types,
// in both cases with the sys fields present.
func DeriveSignalSchema(ds *Dataset) *SignalSchema {
	s := NewSignalSchema()
	for _, p := range SysFields {
		s.Set(p[0], p[1])
	}
	switch {
	case ds.FeatureSchema != nil && len(ds.FeatureSchema.Keys) > 0:
		for _, k := range ds.FeatureSchema.Keys {
			s.Set(k, ds.FeatureSchema.Values[k])
		}
	case ds.ColumnTypes != nil:
		for _, k := range ds.ColumnTypes.Keys {
			s.Set(k, ds.ColumnTypes.Values[k])
		}
	}
	return s
}
