package adapters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyparse/anyparse/internal/models"
)

func TestParseJSON_PreservesKeyOrder(t *testing.T) {
	res := ParseJSON(`{"zebra": 1, "apple": {"nested": true}, "mango": [1, 2.5, null]}`, models.DefaultParseOptions())
	require.Empty(t, res.Errors)
	require.Equal(t, models.FormatJSON, res.FormatType)

	assert.Equal(t, []string{"zebra", "apple", "mango"}, res.Data.Keys)

	mango, _ := res.Data.Get("mango")
	require.Len(t, mango.Seq, 3)
	assert.Equal(t, models.Int, mango.Seq[0].Kind)
	assert.Equal(t, models.Float, mango.Seq[1].Kind)
	assert.Equal(t, models.Null, mango.Seq[2].Kind)
}

func TestParseJSON_IntFloatDistinction(t *testing.T) {
	res := ParseJSON(`{"i": 7, "f": 7.0, "big": 9007199254740993}`, models.DefaultParseOptions())
	require.Empty(t, res.Errors)

	i, _ := res.Data.Get("i")
	assert.Equal(t, models.Int, i.Kind)
	f, _ := res.Data.Get("f")
	assert.Equal(t, models.Float, f.Kind)
	// Integers beyond float precision keep their exact value.
	big, _ := res.Data.Get("big")
	assert.Equal(t, int64(9007199254740993), big.Int)
}

func TestParseJSON_Invalid(t *testing.T) {
	res := ParseJSON(`{"a": `, models.DefaultParseOptions())
	require.NotEmpty(t, res.Errors)
	assert.False(t, res.IsSuccessful())
}

func TestParseJSON_TrailingContent(t *testing.T) {
	lenient := ParseJSON(`{"a": 1} trailing`, models.DefaultParseOptions())
	assert.Empty(t, lenient.Errors)
	assert.NotEmpty(t, lenient.Warnings)

	strict := ParseJSON(`{"a": 1} trailing`, models.ParseOptions{Strict: true})
	assert.NotEmpty(t, strict.Errors)
}

func TestParseYAML_PreservesKeyOrder(t *testing.T) {
	input := strings.Join([]string{
		"zebra: 1",
		"apple:",
		"  nested: true",
		"mango:",
		"  - 1",
		"  - 2.5",
		"  - null",
	}, "\n")

	res := ParseYAML(input, models.DefaultParseOptions())
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, res.Data.Keys)

	mango, _ := res.Data.Get("mango")
	require.Len(t, mango.Seq, 3)
	assert.Equal(t, models.Int, mango.Seq[0].Kind)
	assert.Equal(t, models.Float, mango.Seq[1].Kind)
	assert.Equal(t, models.Null, mango.Seq[2].Kind)
}

func TestParseYAML_Anchors(t *testing.T) {
	input := strings.Join([]string{
		"base: &base",
		"  retries: 3",
		"prod: *base",
	}, "\n")

	res := ParseYAML(input, models.DefaultParseOptions())
	require.Empty(t, res.Errors)

	prod, _ := res.Data.Get("prod")
	retries, ok := prod.Get("retries")
	require.True(t, ok)
	assert.Equal(t, int64(3), retries.Int)
}

func TestParseYAML_Invalid(t *testing.T) {
	res := ParseYAML("key: [unclosed", models.DefaultParseOptions())
	assert.NotEmpty(t, res.Errors)
}

func TestParseXML_ElementsAndAttributes(t *testing.T) {
	input := `<library name="central"><book id="1">Go</book><book id="2">TOON</book><empty/></library>`

	res := ParseXML(input, models.DefaultParseOptions())
	require.Empty(t, res.Errors)

	library, ok := res.Data.Get("library")
	require.True(t, ok)

	name, _ := library.Get("@name")
	assert.Equal(t, "central", name.Str)

	// Repeated elements collapse into a sequence.
	books, _ := library.Get("book")
	require.Equal(t, models.Sequence, books.Kind)
	require.Len(t, books.Seq, 2)

	id, _ := books.Seq[0].Get("@id")
	assert.Equal(t, int64(1), id.Int)
	text, _ := books.Seq[0].Get("#text")
	assert.Equal(t, "Go", text.Str)

	empty, _ := library.Get("empty")
	assert.Equal(t, models.Mapping, empty.Kind)
	assert.Equal(t, 0, empty.Len())
}

func TestParseXML_TextOnlyElement(t *testing.T) {
	res := ParseXML("<count>42</count>", models.DefaultParseOptions())
	require.Empty(t, res.Errors)

	count, _ := res.Data.Get("count")
	assert.Equal(t, models.Int, count.Kind)
	assert.Equal(t, int64(42), count.Int)
}

func TestParseXML_Invalid(t *testing.T) {
	res := ParseXML("<a><b></a>", models.DefaultParseOptions())
	assert.NotEmpty(t, res.Errors)
}

func TestParseCSV_TypedRows(t *testing.T) {
	input := strings.Join([]string{
		"id,name,score,active",
		"1,Alice,99.5,true",
		"2,Bob,87.0,false",
	}, "\n")

	res := ParseCSV(input, models.DefaultParseOptions())
	require.Empty(t, res.Errors)
	require.Equal(t, models.Sequence, res.Data.Kind)
	require.Len(t, res.Data.Seq, 2)

	first := res.Data.Seq[0]
	assert.Equal(t, []string{"id", "name", "score", "active"}, first.Keys)

	id, _ := first.Get("id")
	assert.Equal(t, models.Int, id.Kind)
	score, _ := first.Get("score")
	assert.Equal(t, models.Float, score.Kind)
	active, _ := first.Get("active")
	assert.True(t, active.Bool)
}

func TestParseCSV_RaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6"

	lenient := ParseCSV(input, models.DefaultParseOptions())
	require.Empty(t, lenient.Errors)
	assert.Len(t, lenient.Warnings, 2)
	require.Len(t, lenient.Data.Seq, 2)
	// Short rows pad with null, long rows truncate.
	c, _ := lenient.Data.Seq[0].Get("c")
	assert.Equal(t, models.Null, c.Kind)
	assert.Equal(t, 3, lenient.Data.Seq[1].Len())

	strict := ParseCSV(input, models.ParseOptions{Strict: true})
	assert.NotEmpty(t, strict.Errors)
}

func TestParseCSV_SnakeCaseHeaders(t *testing.T) {
	opts := models.DefaultParseOptions()
	opts.SnakeCaseHeaders = true

	res := ParseCSV("First Name,lastName\nAda,Lovelace", opts)
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"first_name", "last_name"}, res.Data.Seq[0].Keys)
}

func TestParseTSVAndPipe(t *testing.T) {
	tsv := ParseTSV("id\tname\n1\tAlice", models.DefaultParseOptions())
	require.Empty(t, tsv.Errors)
	assert.Equal(t, models.FormatTSV, tsv.FormatType)
	require.Len(t, tsv.Data.Seq, 1)

	pipe := ParsePipe("id|name\n1|Alice", models.DefaultParseOptions())
	require.Empty(t, pipe.Errors)
	name, _ := pipe.Data.Seq[0].Get("name")
	assert.Equal(t, "Alice", name.Str)
}

func TestParseINI(t *testing.T) {
	input := strings.Join([]string{
		"top = level",
		"",
		"[server]",
		"host = localhost",
		"port = 8080",
		"",
		"[flags]",
		"debug = true",
	}, "\n")

	res := ParseINI(input, models.DefaultParseOptions())
	require.Empty(t, res.Errors)

	top, ok := res.Data.Get("top")
	require.True(t, ok)
	assert.Equal(t, "level", top.Str)

	server, ok := res.Data.Get("server")
	require.True(t, ok)
	port, _ := server.Get("port")
	assert.Equal(t, int64(8080), port.Int)

	flags, _ := res.Data.Get("flags")
	debug, _ := flags.Get("debug")
	assert.True(t, debug.Bool)
}

func TestParseKeyValue(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"name = test",
		"count = 3",
		"",
		"broken line",
	}, "\n")

	lenient := ParseKeyValue(input, models.DefaultParseOptions())
	require.Empty(t, lenient.Errors)
	assert.Len(t, lenient.Warnings, 1)

	count, _ := lenient.Data.Get("count")
	assert.Equal(t, int64(3), count.Int)

	strict := ParseKeyValue(input, models.ParseOptions{Strict: true})
	assert.NotEmpty(t, strict.Errors)
}

func TestParseProperties(t *testing.T) {
	input := strings.Join([]string{
		"! legacy comment",
		"db.host=localhost",
		"db.port: 5432",
		"greeting=hello \\",
		"    world",
		"path=c\\:\\\\temp",
	}, "\n")

	res := ParseProperties(input, models.DefaultParseOptions())
	require.Empty(t, res.Errors)

	host, _ := res.Data.Get("db.host")
	assert.Equal(t, "localhost", host.Str)

	port, _ := res.Data.Get("db.port")
	assert.Equal(t, int64(5432), port.Int)

	greeting, _ := res.Data.Get("greeting")
	assert.Equal(t, "hello world", greeting.Str)

	path, _ := res.Data.Get("path")
	assert.Equal(t, "c:\\temp", path.Str)
}

func TestInferScalar(t *testing.T) {
	assert.Equal(t, models.Null, inferScalar("").Kind)
	assert.Equal(t, models.Null, inferScalar("null").Kind)
	assert.Equal(t, models.Bool, inferScalar("true").Kind)
	assert.Equal(t, models.Int, inferScalar("-42").Kind)
	assert.Equal(t, models.Float, inferScalar("3.14").Kind)
	assert.Equal(t, models.String, inferScalar("3.14.15").Kind)
	assert.Equal(t, models.String, inferScalar("hello").Kind)
}
