package schema

// Schema is an ordered set of FieldSpecs for one document type. Order is
// a contract on both sides: import coercion reads fields by name, export
// writes columns in declared order because consumers parse generated
// sheets positionally.
type Schema struct {
	name   string
	fields []FieldSpec
	index  map[string]int
}

// New builds a Schema from the given specs in declared order.
func New(name string, fields ...FieldSpec) *Schema {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return &Schema{name: name, fields: fields, index: index}
}

// Name returns the schema's identifier, used in log and error messages.
func (s *Schema) Name() string { return s.name }

// Len returns the number of declared fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns the specs in declared order. The slice is shared; do
// not modify it.
func (s *Schema) Fields() []FieldSpec { return s.fields }

// FieldNames returns the declared column order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the spec for a field name.
func (s *Schema) Lookup(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}
