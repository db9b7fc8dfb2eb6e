package formstate_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formstate"
	js "github.com/reoring/formstate/jsonschema"
	"github.com/reoring/formstate/rules"
)

func TestSchema_JSONSchema(t *testing.T) {
	item := formstate.NewSchema().
		Field("label", rules.New().Required().LengthInRange(2, 20)).
		Field("weight", rules.New().IsWholeNumber().NumberInRange(0, 10))
	s := formstate.NewSchema().
		Field("email", rules.New().Required().ValidEmailAddress()).
		Field("nickname", rules.New().RequiredIf(false).Regex(`^[a-z]+$`)).
		Field("birthday", rules.New().MaxDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))).
		Field("note", rules.New().Custom(func(any) string { return "" })).
		Options("topics", rules.New().MinArrayOptions(1).MaxArrayOptions(3)).
		List("tags", item, rules.New().MaxArrayOptions(5))

	got, err := s.JSONSchema()
	require.NoError(t, err)

	assert.Equal(t, js.Draft, got.Schema)
	assert.Equal(t, "object", got.Type)
	assert.Equal(t, []string{"email"}, got.Required)

	assert.Equal(t, &js.Schema{Type: "string", Format: "email"}, got.Properties["email"])
	assert.Equal(t, &js.Schema{Type: "string", Pattern: `^[a-z]+$`}, got.Properties["nickname"])
	assert.Equal(t, &js.Schema{Type: "string", Format: "date"}, got.Properties["birthday"])
	assert.Equal(t, &js.Schema{}, got.Properties["note"], "custom rules have no keyword")
	assert.Equal(t, &js.Schema{Type: "array", MinItems: js.Int(1), MaxItems: js.Int(3)}, got.Properties["topics"])

	tags := got.Properties["tags"]
	require.NotNil(t, tags)
	assert.Equal(t, "array", tags.Type)
	assert.Equal(t, js.Int(5), tags.MaxItems)
	assert.Nil(t, tags.MinItems)
	require.NotNil(t, tags.Items)
	assert.Equal(t, []string{"label"}, tags.Items.Required)
	assert.Equal(t, &js.Schema{Type: "string", MinLength: js.Int(2), MaxLength: js.Int(20)}, tags.Items.Properties["label"])
	assert.Equal(t, &js.Schema{Type: "integer", Minimum: js.Float(0), Maximum: js.Float(10)}, tags.Items.Properties["weight"])
	assert.Empty(t, tags.Items.Schema, "only the root carries $schema")
}

func TestSchema_JSONSchemaEncoding(t *testing.T) {
	s := formstate.NewSchema().Field("age", rules.New().Required().Min(18))
	got, err := s.JSONSchema()
	require.NoError(t, err)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {"age": {"type": "number", "minimum": 18}},
		"required": ["age"]
	}`, string(b))
}
