package formstate

// Package formstate keeps the state of data-entry forms: current values,
// per-field validation errors and list-level errors, driven by a declarative
// Schema of rule chains.
//
// It provides:
//
// - Form for nested values with lists of objects, addressed by dotted paths
// - FlatForm for single-level forms and List for flat lists keyed by item identity
// - Copy-on-write value and error trees, so every snapshot stays unchanged
// - Deferred revalidation of list rules (Tick) only for lists already in error
// - Export of a Schema as JSON Schema, and Issues as a flat error view
//
// Rule chains live in package rules and messages in package i18n. Schemas can
// be declared in YAML with package schemafile; package snapshot moves state in
// and out of JSON. The formstate command validates value files from the shell.
//
// Typical usage:
//
//	item := formstate.NewSchema().
//		Field("sku", rules.New().Required()).
//		Field("qty", rules.New().Required().Min(1))
//	s := formstate.NewSchema().
//		Field("customer", rules.New().Required().MaxLength(40)).
//		List("lineItems", item, rules.New().MinArrayOptions(1))
//
//	f, err := formstate.New(s)
//	err = f.SetValue("customer", "Ada")
//	err = f.AddArrayItems("lineItems", map[string]any{"sku": "A-1"})
//	err = f.SetValue("lineItems.0.qty", 0)
//	msg, _ := f.ErrorMessage("lineItems.0.qty") // "Value cannot be less than 1"
//	f.Tick()
//	ok := f.ValidateAll()
