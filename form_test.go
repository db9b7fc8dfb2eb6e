package formstate_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/rules"
)

func newForm(t *testing.T, s *formstate.Schema, opts ...formstate.Option) *formstate.Form {
	t.Helper()
	f, err := formstate.New(s, opts...)
	require.NoError(t, err)
	return f
}

func errorAt(t *testing.T, f *formstate.Form, path any) string {
	t.Helper()
	msg, err := f.ErrorMessage(path)
	require.NoError(t, err)
	return msg
}

func valueAt(t *testing.T, f *formstate.Form, path any) any {
	t.Helper()
	v, err := f.Value(path)
	require.NoError(t, err)
	return v
}

func TestForm_NameScenario(t *testing.T) {
	s := formstate.NewSchema().Field("name", rules.New().Required().MaxLength(5))
	f := newForm(t, s)

	require.NoError(t, f.SetValue("name", ""))
	assert.Equal(t, "This field is required!", errorAt(t, f, "name"))

	require.NoError(t, f.SetValue("name", "Alexander"))
	assert.Equal(t, "Value cannot be longer than 5 characters", errorAt(t, f, "name"))

	require.NoError(t, f.SetValue("name", "Al"))
	assert.Equal(t, "", errorAt(t, f, "name"))
	assert.Nil(t, f.Errors()["name"], "a passing field stores nil")
	assert.Equal(t, "Al", valueAt(t, f, "name"))
}

func TestForm_SetValueReflectsChain(t *testing.T) {
	s, _ := orderSchema()
	f := newForm(t, s, formstate.WithInitialValues(map[string]any{
		"orders": []any{map[string]any{"lineItems": []any{map[string]any{"sku": "A"}}}},
	}))

	tests := []struct {
		path    string
		value   any
		wantErr bool
	}{
		{path: "customer", value: "", wantErr: true},
		{path: "customer", value: "Ada", wantErr: false},
		{path: "orders.0.lineItems.0.qty", value: 0, wantErr: true},
		{path: "orders.0.lineItems.0.qty", value: "abc", wantErr: true},
		{path: "orders.0.lineItems.0.qty", value: 3, wantErr: false},
		{path: "orders.0.lineItems.0.sku", value: "   ", wantErr: true},
		{path: "orders.0.lineItems.0.sku", value: "B", wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.NoError(t, f.SetValue(tt.path, tt.value))
			if tt.wantErr {
				assert.NotEmpty(t, errorAt(t, f, tt.path))
			} else {
				assert.Empty(t, errorAt(t, f, tt.path))
			}
		})
	}
}

func TestForm_EntityRules(t *testing.T) {
	after := func(v any, entity map[string]any) string {
		end, _ := v.(int)
		start, _ := entity["start"].(int)
		if end <= start {
			return "End must be after start"
		}
		return ""
	}
	slot := formstate.NewSchema().
		Field("start", nil).
		Field("end", rules.New().ValidateWithEntity(after))
	s := formstate.NewSchema().
		Field("password", nil).
		Field("confirm", rules.New().ValidateWithEntity(func(v any, e map[string]any) string {
			if v != e["password"] {
				return "Passwords do not match"
			}
			return ""
		})).
		List("slots", slot, nil)
	f := newForm(t, s, formstate.WithInitialValues(map[string]any{
		"password": "secret",
		"slots":    []any{map[string]any{"start": 9}, map[string]any{"start": 13}},
	}))

	require.NoError(t, f.SetValue("confirm", "secrets"))
	assert.Equal(t, "Passwords do not match", errorAt(t, f, "confirm"))
	require.NoError(t, f.SetValue("confirm", "secret"))
	assert.Empty(t, errorAt(t, f, "confirm"))

	// the entity is the enclosing list item, not the root
	require.NoError(t, f.SetValue("slots.1.end", 12))
	assert.Equal(t, "End must be after start", errorAt(t, f, "slots.1.end"))
	require.NoError(t, f.SetValue("slots.0.end", 12))
	assert.Empty(t, errorAt(t, f, "slots.0.end"))
}

func TestForm_InitialValuesAreNormalizedAndCopied(t *testing.T) {
	s, _ := orderSchema()
	initial := map[string]any{
		"customer": "Ada",
		"orders": []map[string]any{
			{"lineItems": []any{map[string]any{"sku": "A"}}},
		},
	}
	f := newForm(t, s, formstate.WithInitialValues(initial))

	assert.Equal(t, map[string]any{
		"customer": "Ada",
		"channels": []any{},
		"orders": []any{
			map[string]any{
				"ref":       nil,
				"lineItems": []any{map[string]any{"sku": "A", "qty": nil}},
			},
		},
	}, f.Values())
	assert.Equal(t, map[string]any{
		"customer": nil,
		"channels": nil,
		"orders": []any{
			map[string]any{
				"ref":       nil,
				"lineItems": []any{map[string]any{"sku": nil, "qty": nil}},
			},
		},
	}, f.Errors())

	initial["customer"] = "changed"
	assert.Equal(t, "Ada", valueAt(t, f, "customer"))
}

func TestForm_SnapshotsAreImmutable(t *testing.T) {
	s, _ := orderSchema()
	f := newForm(t, s)
	before := f.Values()
	beforeErrs := f.Errors()

	require.NoError(t, f.SetValue("customer", "Ada"))
	require.NoError(t, f.AddArrayItems("orders", map[string]any{"ref": "r1"}))

	assert.Nil(t, before["customer"])
	assert.Equal(t, []any{}, before["orders"])
	assert.Nil(t, beforeErrs["customer"])
	assert.Equal(t, []any{}, beforeErrs["orders"])
}

func TestForm_ResetIsIdempotent(t *testing.T) {
	s, _ := orderSchema()
	f := newForm(t, s)

	require.NoError(t, f.SetValue("customer", ""))
	require.NoError(t, f.AddArrayItems("orders", map[string]any{}, map[string]any{}))
	require.NoError(t, f.AddArrayItems("orders.1.lineItems", map[string]any{"sku": "x"}))
	f.ValidateAll()
	require.NoError(t, f.SetValue("orders.0.lineItems.0.sku", "y"))
	require.NotEmpty(t, f.Issues())
	require.NotEmpty(t, f.Pending())

	for i := 0; i < 2; i++ {
		f.Reset(nil)
		assert.Equal(t, s.Defaults(), f.Values())
		assert.Equal(t, map[string]any{"customer": nil, "channels": nil, "orders": []any{}}, f.Errors())
		assert.Empty(t, f.ListErrors())
		assert.Empty(t, f.Pending())
		assert.Empty(t, f.Issues())
		assert.NoError(t, f.Err())
	}
}

func TestForm_ImplicitItemCreation(t *testing.T) {
	item := formstate.NewSchema().Field("label", rules.New().Required()).Field("color", nil)
	s := formstate.NewSchema().List("tags", item, nil)
	f := newForm(t, s)

	require.NoError(t, f.SetValue("tags.3.label", "x"))

	assert.Equal(t, []any{map[string]any{"label": "x", "color": nil}}, f.Values()["tags"])
	assert.Equal(t, []any{map[string]any{"label": nil, "color": nil}}, f.Errors()["tags"])
	assert.Equal(t, "x", valueAt(t, f, "tags.0.label"))
}

func TestForm_SetWholeList(t *testing.T) {
	item := formstate.NewSchema().Field("label", rules.New().Required())
	s := formstate.NewSchema().List("tags", item, rules.New().MinArrayOptions(2, "Need two tags"))
	f := newForm(t, s)

	require.NoError(t, f.SetValue("tags", []any{map[string]any{"label": ""}}))
	assert.Equal(t, "This field is required!", errorAt(t, f, "tags.0.label"))
	msg, err := f.ListError("tags")
	require.NoError(t, err)
	assert.Equal(t, "Need two tags", msg)

	require.NoError(t, f.SetValue("tags", []any{map[string]any{"label": "a"}, map[string]any{"label": "b"}}))
	assert.Equal(t, []any{map[string]any{"label": nil}, map[string]any{"label": nil}}, f.Errors()["tags"])
	msg, err = f.ListError("tags")
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestForm_SetListItem(t *testing.T) {
	item := formstate.NewSchema().Field("label", rules.New().Required()).Field("color", nil)
	s := formstate.NewSchema().List("tags", item, nil)
	f := newForm(t, s, formstate.WithInitialValues(map[string]any{
		"tags": []any{map[string]any{"label": "a"}},
	}))

	require.NoError(t, f.SetValue("tags.0", map[string]any{"color": "red"}))
	assert.Equal(t, map[string]any{"label": nil, "color": "red"}, valueAt(t, f, "tags.0"))
	assert.Equal(t, "This field is required!", errorAt(t, f, "tags.0.label"))
}

func TestForm_WithoutValidationOnChange(t *testing.T) {
	s := formstate.NewSchema().Field("name", rules.New().Required())
	f := newForm(t, s, formstate.WithoutValidationOnChange())

	require.NoError(t, f.SetValue("name", ""))
	assert.Empty(t, errorAt(t, f, "name"))

	msg, err := f.ValidateField("name")
	require.NoError(t, err)
	assert.Equal(t, "This field is required!", msg)
	assert.Equal(t, msg, errorAt(t, f, "name"))
}

func TestForm_UsageErrors(t *testing.T) {
	s, _ := orderSchema()
	f := newForm(t, s)

	assert.ErrorIs(t, f.SetValue("orders..0", 1), formstate.ErrInvalidPath)
	assert.ErrorIs(t, f.SetValue(3.14, 1), formstate.ErrInvalidPath)
	assert.ErrorIs(t, f.SetValue("nope", 1), formstate.ErrSchemaMismatch)
	assert.ErrorIs(t, f.SetValue("orders.0.lineItems.0.nope", 1), formstate.ErrSchemaMismatch)

	_, err := f.ValidateField("orders")
	assert.ErrorIs(t, err, formstate.ErrSchemaMismatch)
	_, err = f.ValidateList("customer")
	assert.ErrorIs(t, err, formstate.ErrSchemaMismatch)
	_, err = f.ListError("customer")
	assert.ErrorIs(t, err, formstate.ErrSchemaMismatch)

	_, err = formstate.New(nil)
	assert.ErrorIs(t, err, formstate.ErrSchemaMismatch)
}

func TestForm_ValueOfMissingNodeLogsDiagnostic(t *testing.T) {
	s, _ := orderSchema()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newForm(t, s, formstate.WithLogger(log))

	v, err := f.Value("orders.4.ref")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Contains(t, buf.String(), "read through missing node")
	assert.Contains(t, buf.String(), "path=orders.4.ref")
}

func TestForm_MisshapenListValuesAreLogged(t *testing.T) {
	s, _ := orderSchema()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	f := newForm(t, s, formstate.WithLogger(log), formstate.WithInitialValues(map[string]any{
		"orders": []string{"a", "b"},
	}))
	assert.Equal(t, []any{}, valueAt(t, f, "orders"))
	assert.Contains(t, buf.String(), "list value is not a sequence")
	assert.Contains(t, buf.String(), "path=orders")

	buf.Reset()
	f.Reset(map[string]any{"orders": []any{map[string]any{"lineItems": 3}}})
	assert.Equal(t, []any{}, valueAt(t, f, "orders.0.lineItems"))
	assert.Contains(t, buf.String(), "path=orders.0.lineItems")

	buf.Reset()
	f.Reset(nil)
	assert.Empty(t, buf.String())
}

func TestForm_FieldErrorHelpers(t *testing.T) {
	s, _ := orderSchema()
	f := newForm(t, s, formstate.WithInitialValues(map[string]any{
		"orders": []any{map[string]any{}},
	}))

	require.NoError(t, f.SetFieldError("customer", "Taken"))
	require.NoError(t, f.SetFieldError("orders.0.lineItems", "Server says no"))
	assert.Equal(t, "Taken", errorAt(t, f, "customer"))
	assert.Equal(t, map[string]string{"orders.0.lineItems": "Server says no"}, f.ListErrors())

	assert.ErrorIs(t, f.SetFieldError("orders.3.ref", "x"), formstate.ErrInvalidPath)
	assert.ErrorIs(t, f.SetFieldError("orders.0", "x"), formstate.ErrSchemaMismatch)

	require.NoError(t, f.ClearError("customer"))
	assert.Empty(t, errorAt(t, f, "customer"))

	f.ClearErrors()
	assert.Empty(t, f.Issues())
}

func TestForm_ValidateAllAndIssues(t *testing.T) {
	s, _ := orderSchema()
	f := newForm(t, s, formstate.WithInitialValues(map[string]any{
		"orders": []any{
			map[string]any{"lineItems": []any{map[string]any{"sku": "A", "qty": 0}}},
			map[string]any{},
		},
	}))

	assert.False(t, f.ValidateAll())
	iss := f.Issues()
	assert.Equal(t, formstate.Issues{
		{Path: "customer", Code: formstate.CodeField, Message: "This field is required!"},
		{Path: "orders.0.lineItems.0.qty", Code: formstate.CodeField, Message: "Value cannot be less than 1"},
		{Path: "orders.1.lineItems", Code: formstate.CodeList, Message: "Add a line item"},
	}, iss)

	err := f.Err()
	require.Error(t, err)
	got, ok := formstate.AsIssues(err)
	require.True(t, ok)
	assert.True(t, got.Has("customer"))
	assert.Equal(t, []string{"Add a line item"}, got.Get("orders.1.lineItems"))
	assert.Contains(t, err.Error(), "customer: This field is required!")

	ok, err = f.ValidateList("orders.1.lineItems")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.SetValue("customer", "Ada"))
	require.NoError(t, f.SetValue("orders.0.lineItems.0.qty", 2))
	require.NoError(t, f.AddArrayItems("orders.1.lineItems", map[string]any{"sku": "B", "qty": 1}))
	assert.True(t, f.ValidateAll())
	assert.Empty(t, f.Pending(), "ValidateAll drops pending revalidations")
	assert.NoError(t, f.Err())
}

func TestIssues_ErrorSummary(t *testing.T) {
	iss := formstate.Issues{
		{Path: "a", Message: "1"},
		{Path: "b", Message: "2"},
		{Path: "c", Message: "3"},
		{Path: "d", Message: "4"},
	}
	assert.Equal(t, "a: 1; b: 2; c: 3; ... (total 4)", iss.Error())
	assert.Equal(t, "", formstate.Issues{}.Error())

	_, ok := formstate.AsIssues(nil)
	assert.False(t, ok)
}
