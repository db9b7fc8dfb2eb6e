package snapshot_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/rules"
	"github.com/reoring/formstate/snapshot"
)

func testSchema() *formstate.Schema {
	item := formstate.NewSchema().Field("label", rules.New().Required())
	return formstate.NewSchema().
		Field("name", rules.New().Required()).
		Field("age", rules.New().IsWholeNumber().Min(18)).
		List("tags", item, rules.New().MinArrayOptions(1, "Add a tag"))
}

func TestDecodeValues(t *testing.T) {
	v, err := snapshot.DecodeValues([]byte(`{"name":"Ada","age":36,"tags":[{"label":"x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("36"), v["age"])
	assert.Equal(t, []any{map[string]any{"label": "x"}}, v["tags"])

	_, err = snapshot.DecodeValues([]byte(`[1,2]`))
	assert.ErrorIs(t, err, snapshot.ErrNotObject)

	_, err = snapshot.DecodeValuesFrom(strings.NewReader(`{"name":`))
	assert.Error(t, err)
}

func TestDecodeValues_DuplicateKeys(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
		path string
	}{
		{name: "top level", doc: `{"name":"a","name":"b"}`, key: "name", path: "name"},
		{name: "inside list item", doc: `{"tags":[{"label":"a"},{"label":"b","label":"c"}]}`, key: "label", path: "tags.1.label"},
		{name: "after nested values", doc: `{"a":{"x":[1,{"y":2}]},"b":[],"a":3}`, key: "a", path: "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.DecodeValues([]byte(tt.doc))
			require.ErrorIs(t, err, snapshot.ErrDuplicateKey)
			var dup *snapshot.DuplicateKeyError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.key, dup.Key)
			assert.Equal(t, tt.path, dup.Path)
		})
	}

	// the same key in sibling objects is fine
	_, err := snapshot.DecodeValues([]byte(`{"tags":[{"label":"a"},{"label":"b"}],"label":"c"}`))
	assert.NoError(t, err)
}

func TestDecodedNumbersValidate(t *testing.T) {
	v, err := snapshot.DecodeValues([]byte(`{"name":"Ada","age":17.5,"tags":[{"label":"x"}]}`))
	require.NoError(t, err)
	f, err := formstate.New(testSchema(), formstate.WithInitialValues(v))
	require.NoError(t, err)

	assert.False(t, f.ValidateAll())
	msg, err := f.ErrorMessage("age")
	require.NoError(t, err)
	assert.Equal(t, "Value cannot be less than 18", msg)

	require.NoError(t, f.SetValue("age", json.Number("21")))
	assert.True(t, f.ValidateAll())
}

func TestCaptureRestore(t *testing.T) {
	f, err := formstate.New(testSchema(), formstate.WithInitialValues(map[string]any{
		"age":  "abc",
		"tags": []any{map[string]any{"label": ""}},
	}))
	require.NoError(t, err)
	f.ValidateAll()
	require.NoError(t, f.RemoveArrayItems("tags", 0))
	f.ValidateAll()

	st := snapshot.Capture(f)
	assert.False(t, st.Valid)
	assert.Equal(t, map[string]string{"tags": "Add a tag"}, st.ListErrors)

	data, err := snapshot.Marshal(st)
	require.NoError(t, err)
	decoded, err := snapshot.Unmarshal(data)
	require.NoError(t, err)

	g, err := formstate.New(testSchema())
	require.NoError(t, err)
	require.NoError(t, snapshot.Restore(g, decoded))

	assert.Equal(t, f.Values(), g.Values())
	assert.Equal(t, f.Errors(), g.Errors())
	assert.Equal(t, f.ListErrors(), g.ListErrors())
	assert.Equal(t, f.Issues(), g.Issues())
}

func TestRestore_SkipsStaleIssues(t *testing.T) {
	f, err := formstate.New(testSchema())
	require.NoError(t, err)

	st := snapshot.State{
		Values: map[string]any{"name": "Ada"},
		Issues: formstate.Issues{
			{Path: "name", Code: formstate.CodeField, Message: "Taken"},
			{Path: "removed", Code: formstate.CodeField, Message: "x"},
		},
	}
	err = snapshot.Restore(f, st)
	assert.ErrorIs(t, err, formstate.ErrSchemaMismatch)

	msg, _ := f.ErrorMessage("name")
	assert.Equal(t, "Taken", msg)
}

func TestWrite(t *testing.T) {
	f, err := formstate.New(testSchema(), formstate.WithInitialValues(map[string]any{
		"name": "Ada",
		"tags": []any{map[string]any{"label": "x"}},
	}))
	require.NoError(t, err)
	require.True(t, f.ValidateAll())

	var buf bytes.Buffer
	require.NoError(t, snapshot.Write(&buf, snapshot.Capture(f), false))
	assert.JSONEq(t, `{
		"values": {"name": "Ada", "age": null, "tags": [{"label": "x"}]},
		"errors": {"name": null, "age": null, "tags": [{"label": null}]},
		"valid": true
	}`, buf.String())

	buf.Reset()
	require.NoError(t, snapshot.Write(&buf, snapshot.Capture(f), true))
	assert.Contains(t, buf.String(), "\n  \"values\"")
}
