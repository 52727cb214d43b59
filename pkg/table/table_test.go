package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCSV_Basic(t *testing.T) {
	text := "record_id,age,score\n1,12,10\n2,10,20\n3,8,30\n"

	tbl, err := FromCSV(text, "record_id")
	require.NoError(t, err)
	assert.False(t, tbl.Empty())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"record_id", "age", "score"}, tbl.Columns())
	assert.Equal(t, []string{"record_id"}, tbl.Index())

	ages, ok := tbl.Col("age")
	require.True(t, ok)
	assert.Equal(t, []string{"12", "10", "8"}, ages)

	assert.Equal(t, map[string]string{"record_id": "2", "age": "10", "score": "20"}, tbl.Row(1))
}

func TestFromCSV_EmptyInputIsEmptyTable(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n"} {
		tbl, err := FromCSV(text, "record_id")
		require.NoError(t, err)
		assert.True(t, tbl.Empty())
		assert.Equal(t, 0, tbl.Len())
	}
}

func TestFromCSV_UnknownIndexColumn(t *testing.T) {
	_, err := FromCSV("a,b\n1,2\n", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `index column "missing"`)
}

func TestFromCSV_ShortRowsReadAsBlank(t *testing.T) {
	tbl, err := FromCSV("a,b,c\n1,2\n")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": ""}, tbl.Row(0))
}

func TestFromCSV_LenientQuotes(t *testing.T) {
	tbl, err := FromCSV("a,b\nplain,say \"hi\" there\n")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestLookup_SingleKey(t *testing.T) {
	tbl, err := FromCSV("record_id,age\n1,12\n2,10\n1,13\n", "record_id")
	require.NoError(t, err)

	rows := tbl.Lookup("1")
	require.Len(t, rows, 2)
	assert.Equal(t, "12", rows[0]["age"])
	assert.Equal(t, "13", rows[1]["age"])

	assert.Empty(t, tbl.Lookup("9"))
}

func TestLookup_CompositeKey(t *testing.T) {
	text := "record_id,redcap_event_name,age\n1,visit_1,12\n1,visit_2,13\n2,visit_1,10\n"
	tbl, err := FromCSV(text, "record_id", "redcap_event_name")
	require.NoError(t, err)

	rows := tbl.Lookup("1", "visit_2")
	require.Len(t, rows, 1)
	assert.Equal(t, "13", rows[0]["age"])

	// Key arity must match the index arity.
	assert.Nil(t, tbl.Lookup("1"))
}

func TestLookup_NoIndexMatchesNothing(t *testing.T) {
	tbl, err := FromCSV("a,b\n1,2\n")
	require.NoError(t, err)
	assert.Nil(t, tbl.Lookup("1"))
}

func TestCol_Unknown(t *testing.T) {
	tbl, err := FromCSV("a\n1\n")
	require.NoError(t, err)
	_, ok := tbl.Col("zzz")
	assert.False(t, ok)
}
