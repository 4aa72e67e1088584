package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSequenceStableSort(t *testing.T) {
	seq := NewSequence([]Event{
		{Kind: KindHeal, Timestamp: 200, AbilityID: 1},
		{Kind: KindCast, Timestamp: 100, AbilityID: 2},
		{Kind: KindDamage, Timestamp: 200, AbilityID: 3},
		{Kind: KindHeal, Timestamp: 100, AbilityID: 4},
	})

	require.Equal(t, 4, seq.Len())
	var abilities []int64
	for i, ev := range seq.Events() {
		assert.Equal(t, int64(i), ev.Position)
		abilities = append(abilities, ev.AbilityID)
	}
	assert.Equal(t, []int64{2, 4, 1, 3}, abilities, "ties keep input order")
}

func TestNewSequenceCopiesInput(t *testing.T) {
	in := []Event{{Kind: KindCast, Timestamp: 1, AbilityID: 1, Payload: IRObject{"a": IRInt(1)}}}
	seq := NewSequence(in)

	seq.At(0).Payload["a"] = IRInt(2)
	assert.Equal(t, IRInt(1), in[0].Payload["a"])
}

func TestSequenceSearchFrom(t *testing.T) {
	seq := NewSequence([]Event{
		{Kind: KindCast, Timestamp: 100, AbilityID: 1},
		{Kind: KindCast, Timestamp: 100, AbilityID: 1},
		{Kind: KindCast, Timestamp: 300, AbilityID: 1},
	})

	assert.Equal(t, 0, seq.SearchFrom(0))
	assert.Equal(t, 0, seq.SearchFrom(100))
	assert.Equal(t, 2, seq.SearchFrom(101))
	assert.Equal(t, 3, seq.SearchFrom(301))
}

func TestSequenceSplice(t *testing.T) {
	seq := NewSequence([]Event{
		{Kind: KindCast, Timestamp: 100, AbilityID: 1},
		{Kind: KindCast, Timestamp: 300, AbilityID: 2},
	})

	placed, err := seq.Splice(1, Event{Kind: KindApplyBuff, Timestamp: 200, AbilityID: 9})
	require.NoError(t, err)
	assert.True(t, placed.Fabricated)
	assert.Equal(t, int64(1), placed.Position)
	assert.Equal(t, int64(2), seq.At(2).Position, "tail renumbered")
	assert.Equal(t, int64(2), seq.At(2).AbilityID)
}

func TestSequenceSpliceOutOfOrder(t *testing.T) {
	seq := NewSequence([]Event{
		{Kind: KindCast, Timestamp: 100, AbilityID: 1},
		{Kind: KindCast, Timestamp: 300, AbilityID: 2},
	})

	_, err := seq.Splice(1, Event{Kind: KindApplyBuff, Timestamp: 50, AbilityID: 9})
	require.ErrorIs(t, err, ErrSpliceOutOfOrder)

	_, err = seq.Splice(1, Event{Kind: KindApplyBuff, Timestamp: 400, AbilityID: 9})
	require.ErrorIs(t, err, ErrSpliceOutOfOrder)

	_, err = seq.Splice(5, Event{Kind: KindApplyBuff, Timestamp: 400, AbilityID: 9})
	require.Error(t, err)
	assert.Equal(t, 2, seq.Len(), "failed splice leaves sequence untouched")
}

func TestRelationQueries(t *testing.T) {
	seq := NewSequence([]Event{
		{Kind: KindCast, Timestamp: 100, AbilityID: 1},
		{Kind: KindHeal, Timestamp: 100, AbilityID: 1},
		{Kind: KindHeal, Timestamp: 120, AbilityID: 1},
	})
	cast, h1, h2 := seq.At(0), seq.At(1), seq.At(2)

	cast.AddRelation("hits", h2)
	cast.AddRelation("hits", h1)
	h1.AddRelation("source", cast)

	assert.Equal(t, []*Event{h2, h1}, RelatedEvents(cast, "hits"), "insertion order")
	assert.True(t, HasRelated(h1, "source"))
	assert.False(t, HasRelated(h2, "source"))

	none := RelatedEvents(h2, "source")
	assert.NotNil(t, none)
	assert.Empty(t, none)
	assert.False(t, HasRelated(nil, "hits"))

	edges := cast.Relations()
	edges[0].Name = "mutated"
	assert.True(t, HasRelated(cast, "hits"), "Relations returns a copy")
}

func TestKeyLess(t *testing.T) {
	assert.True(t, Key{100, 5, 0}.Less(Key{101, 0, 0}))
	assert.True(t, Key{100, 1, 9}.Less(Key{100, 2, 0}))
	assert.True(t, Key{100, 2, 0}.Less(Key{100, 2, 1}))
	assert.False(t, Key{100, 2, 1}.Less(Key{100, 2, 1}))
}
