package kv3_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpkplaces/internal/kv3"
)

const sampleDocument = `<!-- kv3 encoding:text:version{e21c7f3c-8a33-41c5-9977-a76d3a32aa0d} format:generic:version{7412167c-06e9-4698-aff2-e63eb59037e7} -->
{
	// line comment
	name = "de_test"
	count = 3
	scale = -1.25
	enabled = true
	missing = null
	/* block
	   comment */
	model = resource:"models/props/crate.vmdl"
	"quoted key" = "a \"quoted\" value\\"
	blob = #[ 01 0a FF ]
	list =
	[
		1,
		2.5,
		"three",
	]
	text = """
first line
second line
"""
	nested =
	{
		inner = { deep = 7 }
	}
}
`

func TestDecodeDocument(t *testing.T) {
	hdr, root, err := kv3.Decode([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "text", hdr.Encoding)
	assert.Equal(t, "e21c7f3c-8a33-41c5-9977-a76d3a32aa0d", hdr.EncodingVersion)
	assert.Equal(t, "generic", hdr.Format)

	obj, ok := root.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"name", "count", "scale", "enabled", "missing", "model", "quoted key", "blob", "list", "text", "nested"}, obj.Keys())

	name, _ := obj.Get("name")
	s, ok := name.AsString()
	require.True(t, ok)
	assert.Equal(t, "de_test", s)

	count, _ := obj.Get("count")
	i, ok := count.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 3, i)
	f, ok := count.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 3.0, f)

	scale, _ := obj.Get("scale")
	f, ok = scale.AsFloat()
	require.True(t, ok)
	assert.Equal(t, -1.25, f)

	enabled, _ := obj.Get("enabled")
	b, ok := enabled.AsBool()
	require.True(t, ok)
	assert.True(t, b)

	missing, _ := obj.Get("missing")
	assert.Equal(t, kv3.KindNull, missing.Kind())

	model, _ := obj.Get("model")
	assert.Equal(t, "resource", model.Flag())
	s, _ = model.AsString()
	assert.Equal(t, "models/props/crate.vmdl", s)

	quoted, _ := obj.Get("quoted key")
	s, _ = quoted.AsString()
	assert.Equal(t, `a "quoted" value\`, s)

	blob, _ := obj.Get("blob")
	raw, ok := blob.AsBinary()
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x0a, 0xff}, raw)

	list, _ := obj.Get("list")
	items, ok := list.AsArray()
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Equal(t, kv3.KindInt, items[0].Kind())
	assert.Equal(t, kv3.KindFloat, items[1].Kind())
	assert.Equal(t, kv3.KindString, items[2].Kind())

	text, _ := obj.Get("text")
	s, _ = text.AsString()
	assert.Equal(t, "first line\nsecond line", s)

	deep, ok := obj.Lookup("nested", "inner", "deep")
	require.True(t, ok)
	i, _ = deep.AsInt()
	assert.EqualValues(t, 7, i)

	_, ok = obj.Lookup("nested", "nope")
	assert.False(t, ok)
}

func TestDecodeWithoutHeader(t *testing.T) {
	_, root, err := kv3.Decode([]byte(`{ a = 1 }`))
	require.NoError(t, err)
	obj, ok := root.AsObject()
	require.True(t, ok)
	assert.Equal(t, 1, obj.Len())
}

func TestDecodeSyntaxErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated object": `{ a = 1`,
		"missing equals":      `{ a 1 }`,
		"bad escape":          `{ a = "\q" }`,
		"odd blob":            `{ a = #[ 0 ] }`,
		"trailing data":       `{ } }`,
		"unknown identifier":  `{ a = maybe }`,
		"empty":               ``,
		"array separator":     `[ 1 2 ]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := kv3.Decode([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, _, err := kv3.Decode([]byte("{\n\ta = 1\n\tb 2\n}"))
	var serr *kv3.SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.Line)
}

func TestDecodeNestingLimit(t *testing.T) {
	inner := kv3.MaxDepth - 1
	doc := "{ a = " + strings.Repeat("[", inner) + strings.Repeat("]", inner) + " }"
	_, _, err := kv3.Decode([]byte(doc))
	require.NoError(t, err)

	doc = "{ a = " + strings.Repeat("[", inner+1) + strings.Repeat("]", inner+1) + " }"
	_, _, err = kv3.Decode([]byte(doc))
	var serr *kv3.SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Msg, "nesting exceeds")
}

func TestDecodeUnclosedDeepNesting(t *testing.T) {
	doc := "{ a = " + strings.Repeat("[", 8<<20)
	_, _, err := kv3.Decode([]byte(doc))
	var serr *kv3.SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Line)
}

func TestDecodeRejectsBinaryHeader(t *testing.T) {
	doc := `<!-- kv3 encoding:binary:version{1b860500-f7d8-40c1-ad82-75a48267e714} format:generic:version{7412167c-06e9-4698-aff2-e63eb59037e7} --> { }`
	_, _, err := kv3.Decode([]byte(doc))
	require.ErrorIs(t, err, kv3.ErrNotText)
}

func TestIsText(t *testing.T) {
	assert.True(t, kv3.IsText([]byte(sampleDocument)))
	assert.True(t, kv3.IsText([]byte("\xEF\xBB\xBF  <!-- kv3 encoding:text -->")))
	assert.False(t, kv3.IsText([]byte("VKV\x03binary")))
	assert.False(t, kv3.IsText([]byte("<!-- plain comment -->")))
}

func TestObjectRepeatedKeyKeepsFirstPosition(t *testing.T) {
	_, root, err := kv3.Decode([]byte(`{ a = 1 b = 2 a = 3 }`))
	require.NoError(t, err)
	obj, _ := root.AsObject()
	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	v, _ := obj.Get("a")
	i, _ := v.AsInt()
	assert.EqualValues(t, 3, i)
}
