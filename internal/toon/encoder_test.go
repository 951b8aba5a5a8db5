package toon

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyparse/anyparse/internal/models"
)

func TestEncode_InlineArray(t *testing.T) {
	m := models.NewMapping()
	m.Set("tags", models.SequenceValue(
		models.StringValue("a"),
		models.StringValue("b"),
		models.StringValue("c"),
	))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, "tags[3]: a,b,c", out)
}

func TestEncode_TabularArray(t *testing.T) {
	row := func(id int64, name string) *models.Value {
		r := models.NewMapping()
		r.Set("id", models.IntValue(id))
		r.Set("name", models.StringValue(name))
		return r
	}
	m := models.NewMapping()
	m.Set("users", models.SequenceValue(row(1, "Alice"), row(2, "Bob")))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"users[2]{id,name}:",
		"  1,Alice",
		"  2,Bob",
	}, "\n"), out)
}

func TestEncode_ListArrayForMixedElements(t *testing.T) {
	item := models.NewMapping()
	item.Set("name", models.StringValue("widget"))
	nested := models.NewMapping()
	nested.Set("kg", models.FloatValue(1.5))
	item.Set("weight", nested)

	m := models.NewMapping()
	m.Set("items", models.SequenceValue(item, models.StringValue("loose")))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"items[2]:",
		"  - name: widget",
		"    weight:",
		"      kg: 1.5",
		"  - loose",
	}, "\n"), out)
}

func TestEncode_ScalarTokens(t *testing.T) {
	m := models.NewMapping()
	m.Set("i", models.IntValue(42))
	m.Set("f", models.FloatValue(1))
	m.Set("b", models.BoolValue(true))
	m.Set("n", models.NullValue())
	m.Set("s", models.StringValue("plain text"))
	m.Set("q", models.StringValue("123"))
	m.Set("t", models.StringValue("true"))
	m.Set("e", models.StringValue(""))
	m.Set("c", models.StringValue("a,b"))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"i: 42",
		"f: 1.0",
		"b: true",
		"n: null",
		"s: plain text",
		`q: "123"`,
		`t: "true"`,
		`e: ""`,
		`c: "a,b"`,
	}, "\n"), out)
}

func TestEncode_Options(t *testing.T) {
	m := models.NewMapping()
	m.Set("tags", models.SequenceValue(models.StringValue("a"), models.StringValue("b")))

	marked, err := Encode(m, models.EncodeOptions{Indent: 2, Delimiter: models.Comma, LengthMarker: true})
	require.NoError(t, err)
	assert.Equal(t, "tags[#2]: a,b", marked)

	piped, err := Encode(m, models.EncodeOptions{Indent: 2, Delimiter: models.Pipe})
	require.NoError(t, err)
	assert.Equal(t, "tags[2|]: a|b", piped)

	nested := models.NewMapping()
	inner := models.NewMapping()
	inner.Set("x", models.IntValue(1))
	nested.Set("outer", inner)
	wide, err := Encode(nested, models.EncodeOptions{Indent: 4, Delimiter: models.Comma})
	require.NoError(t, err)
	assert.Equal(t, "outer:\n    x: 1", wide)
}

func TestEncode_EmptyContainers(t *testing.T) {
	m := models.NewMapping()
	m.Set("none", models.SequenceValue())
	m.Set("empty", models.NewMapping())

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, "none[0]:\nempty:", out)
}

func TestEncode_RootForms(t *testing.T) {
	seq := models.SequenceValue(models.IntValue(1), models.IntValue(2))
	out, err := Encode(seq, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, "[2]: 1,2", out)

	scalar, err := Encode(models.StringValue("just text"), models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, "just text", scalar)

	_, err = Encode(nil, models.DefaultEncodeOptions())
	assert.Error(t, err)
}

func TestEncode_QuotedKeys(t *testing.T) {
	m := models.NewMapping()
	m.Set("has space", models.IntValue(1))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, `"has space": 1`, out)
}

func TestEncode_LongScalarArrayFallsBackToList(t *testing.T) {
	vals := make([]*models.Value, 20)
	for i := range vals {
		vals[i] = models.StringValue(strings.Repeat("x", 10))
	}
	m := models.NewMapping()
	m.Set("long", models.SequenceValue(vals...))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "long[20]:", lines[0])
	assert.Len(t, lines, 21)
	assert.Equal(t, "  - "+strings.Repeat("x", 10), lines[1])
}

func TestEncode_BraceKeyFallsBackToList(t *testing.T) {
	// A '}' in a field name cannot survive a {fields} header even when
	// quoted, so uniform rows with such a key take list form instead.
	row := models.NewMapping()
	row.Set("{a}a", models.StringValue("1.0"))
	row.Set("123b", models.BoolValue(true))

	m := models.NewMapping()
	m.Set("items", models.SequenceValue(row))

	out, err := Encode(m, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"items[1]:",
		`  - "{a}a": "1.0"`,
		`    "123b": true`,
	}, "\n"), out)

	res := Parse(out, models.ParseOptions{Strict: true, Delimiter: models.Comma})
	require.Empty(t, res.Errors)
	require.True(t, models.Equal(m, res.Data), "round trip mismatch:\n%s", out)
}

func TestEncode_ParseRoundTripFixed(t *testing.T) {
	addr := models.NewMapping()
	addr.Set("street", models.StringValue("1 Main St"))
	addr.Set("zip", models.StringValue("02134"))

	user := models.NewMapping()
	user.Set("id", models.IntValue(7))
	user.Set("name", models.StringValue("Ada"))
	user.Set("score", models.FloatValue(99.5))
	user.Set("address", addr)
	user.Set("tags", models.SequenceValue(models.StringValue("a"), models.StringValue("b")))

	root := models.NewMapping()
	root.Set("user", user)
	root.Set("flags", models.SequenceValue(models.BoolValue(true), models.NullValue()))

	encoded, err := Encode(root, models.DefaultEncodeOptions())
	require.NoError(t, err)

	res := Parse(encoded, models.ParseOptions{Strict: true, Delimiter: models.Comma})
	require.Empty(t, res.Errors, "encoded form should parse cleanly:\n%s", encoded)
	require.True(t, models.Equal(root, res.Data), "round trip mismatch:\n%s", encoded)
}

func TestEncode_IsIdempotent(t *testing.T) {
	input := strings.Join([]string{
		"users[2]{id,name}:",
		"  1,Alice",
		"  2,Bob",
		"tags[3]: a,b,c",
	}, "\n")

	res := Parse(input, models.ParseOptions{Strict: true, Delimiter: models.Comma})
	require.Empty(t, res.Errors)

	out, err := Encode(res.Data, models.DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// randomKey mostly produces plain identifiers but occasionally a key that
// needs quoting or disqualifies tabular form.
func randomKey(rng *rand.Rand) string {
	hazards := []string{"{a}a", "a}b", "123b", "has space", "true"}
	if rng.Intn(8) == 0 {
		return hazards[rng.Intn(len(hazards))]
	}
	return string(rune('a'+rng.Intn(26))) + string(rune('a'+rng.Intn(26)))
}

// randomValue builds a bounded random tree: scalars plus sequences and
// mappings up to depth 3, strings drawn from a pool that includes every
// quoting hazard.
func randomValue(rng *rand.Rand, depth int) *models.Value {
	pool := []string{
		"plain", "two words", "", "true", "123", "4.5", "null",
		"a,b", "with: colon", "# not a comment", "- not a list",
		"[bracketed]", "{braced}", `quote " inside`, `back\slash`,
		"tab\there", " leading", "trailing ",
	}
	max := 8
	if depth <= 0 {
		max = 5
	}
	switch rng.Intn(max) {
	case 0:
		return models.NullValue()
	case 1:
		return models.BoolValue(rng.Intn(2) == 0)
	case 2:
		return models.IntValue(rng.Int63n(2000) - 1000)
	case 3:
		f := float64(rng.Int63n(1000)) / 8
		return models.FloatValue(f)
	case 4:
		return models.StringValue(pool[rng.Intn(len(pool))])
	case 5:
		n := rng.Intn(4)
		items := make([]*models.Value, n)
		for i := range items {
			items[i] = randomValue(rng, depth-1)
		}
		return models.SequenceValue(items...)
	default:
		m := models.NewMapping()
		n := rng.Intn(4)
		for i := 0; i < n; i++ {
			m.Set(randomKey(rng), randomValue(rng, depth-1))
		}
		return m
	}
}

func TestEncode_ParseRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	strict := models.ParseOptions{Strict: true, Delimiter: models.Comma}

	for i := 0; i < 200; i++ {
		root := models.NewMapping()
		n := 1 + rng.Intn(4)
		for j := 0; j < n; j++ {
			root.Set(randomKey(rng), randomValue(rng, 3))
		}

		encoded, err := Encode(root, models.DefaultEncodeOptions())
		require.NoError(t, err)

		res := Parse(encoded, strict)
		require.Empty(t, res.Errors, "iteration %d, input:\n%s", i, encoded)
		require.True(t, models.Equal(root, res.Data), "iteration %d mismatch, input:\n%s", i, encoded)

		again, err := Encode(res.Data, models.DefaultEncodeOptions())
		require.NoError(t, err)
		require.Equal(t, encoded, again, "iteration %d not idempotent", i)
	}
}
