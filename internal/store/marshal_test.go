package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/ir"
)

func TestMarshalObject_Canonical(t *testing.T) {
	got, err := marshalObject(ir.IRObject{"b": ir.IRInt(2), "a": ir.IRString("x")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, got)

	empty, err := marshalObject(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)
}

func TestUnmarshalObject_LargeInt(t *testing.T) {
	obj, err := unmarshalObject(`{"n":9007199254740993}`)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"n": ir.IRInt(9007199254740993)}, obj)

	_, err = unmarshalObject(`{"f":1.5}`)
	assert.Error(t, err, "floats are rejected")
}

func TestIDs(t *testing.T) {
	s, err := marshalIDs(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	ids, err := unmarshalIDs("[3,1]")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids)

	ids, err = unmarshalIDs("[]")
	require.NoError(t, err)
	assert.Nil(t, ids)
}
