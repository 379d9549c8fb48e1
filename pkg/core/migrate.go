package core

// FieldDefault retrofits one schema field: when Field is missing from a loaded
// document it is set to Default.
type FieldDefault struct {
	Field   string
	Default any
}

// DefaultMigrations is the current schema: documents written before the v1
// field existed get the absent-marker.
var DefaultMigrations = []FieldDefault{
	{Field: SchemaField, Default: AbsentMarker},
}

// Migrator normalizes documents read from the store to the current schema.
// Each rule is a single presence check applied once; there is no version chain.
type Migrator struct {
	rules []FieldDefault
}

// NewMigrator creates a Migrator. With no rules it uses DefaultMigrations.
func NewMigrator(rules ...FieldDefault) *Migrator {
	if len(rules) == 0 {
		rules = DefaultMigrations
	}
	return &Migrator{rules: rules}
}

// Normalize returns a copy of raw with every missing field defaulted.
// A nil raw document (nothing stored yet) goes through the same path and comes
// out as a document holding only the defaults. raw is never modified.
func (m *Migrator) Normalize(raw Document) Document {
	doc := raw.Clone()
	for _, rule := range m.rules {
		if !doc.Has(rule.Field) {
			doc[rule.Field] = rule.Default
		}
	}
	return doc
}

// Fields lists the fields the migrator tracks, in rule order.
func (m *Migrator) Fields() []string {
	fields := make([]string, 0, len(m.rules))
	for _, rule := range m.rules {
		fields = append(fields, rule.Field)
	}
	return fields
}
