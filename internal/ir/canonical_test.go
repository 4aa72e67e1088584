package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"nested", IRObject{"z": IRObject{"b": IRInt(1), "a": IRInt(2)}, "a": IRInt(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html not escaped", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"newline and tab", "a\nb\tc", `"a\nb\tc"`},
		{"control char", "a\x01b", `"a\u0001b"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc normalized", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before U+FF61 in UTF-16 but after it in UTF-8.
	obj := IRObject{}
	obj["\uFF61"] = IRInt(1)
	obj["\U0001F600"] = IRInt(2)

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF61\":1}", string(result))
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"a": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null is forbidden")
}

func TestUnmarshalIRValueRejectsFloats(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`{"haste": 1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are not allowed")

	_, err = UnmarshalIRValue([]byte(`{"haste": null}`))
	require.Error(t, err)
}

func TestUnmarshalIRObjectRoundTrip(t *testing.T) {
	in := IRObject{"old_bp": IRInt(1000), "new_bp": IRInt(4300), "source": IRString("bloodlust")}
	data, err := in.MarshalJSON()
	require.NoError(t, err)

	out, err := UnmarshalIRObject(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	empty, err := UnmarshalIRObject(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFromAnyYAMLShapes(t *testing.T) {
	v, err := FromAny(map[string]any{"stacks": 3, "tags": []any{"a", true}})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"stacks": IRInt(3), "tags": IRArray{IRString("a"), IRBool(true)}}, v)

	_, err = FromAny(map[string]any{"ratio": 0.5})
	require.Error(t, err)
}

func TestSnapshotDigestDeterministic(t *testing.T) {
	a := IRObject{"casts": IRInt(3), "heals": IRInt(2)}
	b := IRObject{"heals": IRInt(2), "casts": IRInt(3)}

	assert.Equal(t, MustSnapshotDigest(a), MustSnapshotDigest(b))
	assert.Len(t, MustSnapshotDigest(a), 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, MustSnapshotDigest(a), MustSnapshotDigest(IRObject{"casts": IRInt(4), "heals": IRInt(2)}))
}

func TestSequenceDigestIgnoresRelations(t *testing.T) {
	events := []Event{
		{Kind: KindCast, Timestamp: 100, AbilityID: 48438, SourceID: 1, TargetID: 5},
		{Kind: KindHeal, Timestamp: 100, AbilityID: 48438, SourceID: 1, TargetID: 5, Amount: 900},
	}
	before, err := SequenceDigest(events)
	require.NoError(t, err)

	seq := NewSequence(events)
	seq.At(0).AddRelation("hit", seq.At(1))
	linked := []Event{*seq.At(0), *seq.At(1)}
	after, err := SequenceDigest(linked)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}
