package adapters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyparse/anyparse/internal/models"
)

func sampleTree() *models.Value {
	row1 := models.NewMapping()
	row1.Set("id", models.IntValue(1))
	row1.Set("name", models.StringValue("Alice"))
	row2 := models.NewMapping()
	row2.Set("id", models.IntValue(2))
	row2.Set("name", models.StringValue("Bob"))

	m := models.NewMapping()
	m.Set("zebra", models.IntValue(1))
	m.Set("apple", models.FloatValue(2.5))
	m.Set("users", models.SequenceValue(row1, row2))
	return m
}

func TestEncodeJSON_Compact(t *testing.T) {
	out, err := EncodeJSON(sampleTree(), 0)
	require.NoError(t, err)
	assert.Equal(t, `{"zebra":1,"apple":2.5,"users":[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]}`, out)
}

func TestEncodeJSON_Indented(t *testing.T) {
	m := models.NewMapping()
	m.Set("a", models.IntValue(1))
	m.Set("b", models.SequenceValue())

	out, err := EncodeJSON(m, 2)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": []\n}", out)
}

func TestEncodeJSON_RoundTrip(t *testing.T) {
	tree := sampleTree()
	out, err := EncodeJSON(tree, 0)
	require.NoError(t, err)

	res := ParseJSON(out, models.DefaultParseOptions())
	require.Empty(t, res.Errors)
	assert.True(t, models.Equal(tree, res.Data))
}

func TestEncodeJSON_Escaping(t *testing.T) {
	m := models.NewMapping()
	m.Set("s", models.StringValue("line\n\"quote\""))

	out, err := EncodeJSON(m, 0)
	require.NoError(t, err)
	assert.Equal(t, `{"s":"line\n\"quote\""}`, out)
}

func TestEncodeYAML_RoundTrip(t *testing.T) {
	tree := sampleTree()
	out, err := EncodeYAML(tree)
	require.NoError(t, err)

	// Key order must survive into the document text.
	zebra := strings.Index(out, "zebra")
	apple := strings.Index(out, "apple")
	users := strings.Index(out, "users")
	require.True(t, zebra >= 0 && apple > zebra && users > apple, "unexpected order:\n%s", out)

	res := ParseYAML(out, models.DefaultParseOptions())
	require.Empty(t, res.Errors)
	assert.True(t, models.Equal(tree, res.Data))
}

func TestEncodeCSV(t *testing.T) {
	tree := sampleTree()
	users, _ := tree.Get("users")

	out, err := EncodeCSV(users, ',')
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Alice\n2,Bob", out)
}

func TestEncodeCSV_UnwrapsSingleArrayMapping(t *testing.T) {
	row := models.NewMapping()
	row.Set("x", models.IntValue(1))
	m := models.NewMapping()
	m.Set("rows", models.SequenceValue(row))

	out, err := EncodeCSV(m, ';')
	require.NoError(t, err)
	assert.Equal(t, "x\n1", out)
}

func TestEncodeCSV_RejectsNestedRecords(t *testing.T) {
	inner := models.NewMapping()
	inner.Set("deep", models.IntValue(1))
	row := models.NewMapping()
	row.Set("nested", inner)

	_, err := EncodeCSV(models.SequenceValue(row), ',')
	assert.Error(t, err)

	_, err = EncodeCSV(models.StringValue("not records"), ',')
	assert.Error(t, err)

	_, err = EncodeCSV(models.SequenceValue(), ',')
	assert.Error(t, err)
}

func TestEncodeCSV_MissingFieldsEmpty(t *testing.T) {
	row1 := models.NewMapping()
	row1.Set("a", models.IntValue(1))
	row1.Set("b", models.IntValue(2))
	row2 := models.NewMapping()
	row2.Set("a", models.IntValue(3))

	out, err := EncodeCSV(models.SequenceValue(row1, row2), ',')
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,", out)
}
