package snapshot_test

import (
	"testing"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec_RoundTrip(t *testing.T) {
	codec := snapshot.NewJSONCodec()

	collections := map[string][]domain.Element{
		"empty": {},
		"single": {
			{ID: 1, Type: domain.TypeHeading, Content: "New Heading"},
		},
		"mixed": {
			{ID: 3, Type: domain.TypeList, Content: "one\ntwo\nthree"},
			{ID: 1, Type: domain.TypeImage, Content: "New Image"},
			{ID: 7, Type: domain.TypeParagraph, Content: `quotes " and \ backslashes`},
			{ID: 2, Type: "Quote", Content: "unknown tags survive"},
		},
	}

	for name, elements := range collections {
		t.Run(name, func(t *testing.T) {
			raw, err := codec.Encode(elements)
			require.NoError(t, err)

			loaded, err := codec.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, elements, loaded)
		})
	}
}

func TestJSONCodec_EncodeEmpty(t *testing.T) {
	codec := snapshot.NewJSONCodec()

	raw, err := codec.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestJSONCodec_EncodeWireFormat(t *testing.T) {
	codec := snapshot.NewJSONCodec()

	raw, err := codec.Encode([]domain.Element{{ID: 1, Type: domain.TypeHeading, Content: "New Heading"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"type":"Heading","content":"New Heading"}]`, raw)
}

func TestJSONCodec_EncodeRejectsInvalidUTF8(t *testing.T) {
	codec := snapshot.NewJSONCodec()

	_, err := codec.Encode([]domain.Element{{ID: 1, Type: domain.TypeParagraph, Content: "bad \xff byte"}})
	var serr *domain.SerializationError
	assert.ErrorAs(t, err, &serr)
}

func TestJSONCodec_DecodeErrors(t *testing.T) {
	codec := snapshot.NewJSONCodec()

	cases := map[string]string{
		"empty":           "",
		"whitespace":      "   ",
		"not json":        "not json",
		"null":            "null",
		"object":          `{"id":1,"type":"Heading","content":"x"}`,
		"array of scalar": `[1,2,3]`,
		"missing id":      `[{"type":"Heading","content":"x"}]`,
		"string id":       `[{"id":"1","type":"Heading","content":"x"}]`,
		"fractional id":   `[{"id":1.5,"type":"Heading","content":"x"}]`,
		"numeric content": `[{"id":1,"type":"Heading","content":42}]`,
		"truncated":       `[{"id":1,"type":"Heading"`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			elements, err := codec.Decode(raw)
			assert.Nil(t, elements)
			var derr *domain.DeserializationError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestJSONCodec_WithIndent(t *testing.T) {
	codec := snapshot.NewJSONCodec(snapshot.WithIndent("  "))

	raw, err := codec.Encode([]domain.Element{{ID: 1, Type: domain.TypeParagraph, Content: "p"}})
	require.NoError(t, err)
	assert.Contains(t, raw, "\n  {")

	loaded, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
