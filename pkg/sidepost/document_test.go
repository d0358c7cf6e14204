package sidepost

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationship_JSON(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		toMany bool
		count  int
	}{
		{"null", `{"data": null}`, false, 0},
		{"to-one", `{"data": {"type": "authors", "id": "1"}}`, false, 1},
		{"empty to-many", `{"data": []}`, true, 0},
		{"to-many", `{"data": [{"type": "tags", "id": "1"}, {"type": "tags", "temp-id": "x", "method": "create"}]}`, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rel Relationship
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &rel))
			assert.Equal(t, tt.toMany, rel.ToMany)
			assert.Len(t, rel.Identifiers(), tt.count)

			out, err := json.Marshal(&rel)
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(out))
		})
	}
}

func TestToMany_EncodesEmptyArray(t *testing.T) {
	out, err := json.Marshal(ToMany())
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": []}`, string(out))

	out, err = json.Marshal(&Relationship{ToMany: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": []}`, string(out))
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodNone, MethodCreate, MethodUpdate, MethodDestroy, MethodDisassociate} {
		got, err := ParseMethod(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMethod("delete")
	assert.Error(t, err)
}

func TestDocument_Find(t *testing.T) {
	doc, err := Decode([]byte(postWithTags))
	require.NoError(t, err)

	assert.Same(t, doc.Data, doc.Find(ResourceKey{Type: "posts", ID: "1"}))
	tag := doc.Find(ResourceKey{Type: "tags", ID: "3"})
	require.NotNil(t, tag)
	assert.Equal(t, "tag2", tag.Attributes["name"])
	assert.Nil(t, doc.Find(ResourceKey{Type: "tags", ID: "9"}))

	created := &Resource{Type: "tags", TempID: "abc"}
	assert.Equal(t, ResourceKey{Type: "tags", TempID: "abc"}, created.Key())
	assert.Equal(t, "tags:temp-abc", created.Key().String())
	assert.Equal(t, "tags:3", tag.Key().String())
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"included": []}`))
	assert.ErrorContains(t, err, "missing primary data")

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
