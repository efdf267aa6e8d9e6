package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecords(t *testing.T) {
	tbl := FromRecords([]string{"a", "b", "c"}, [][]string{
		{"1", "2", "3"},
		{"4"},
		{"5", "6", "7", "extra"},
	})

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Header())

	want := [][]string{
		{"1", "2", "3"},
		{"4", "", ""},
		{"5", "6", "7"},
	}
	if diff := cmp.Diff(want, tbl.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
	for _, col := range tbl.Columns {
		assert.Equal(t, KindText, col.Kind)
	}
}

func TestFromRows(t *testing.T) {
	t.Run("wide records get positional names", func(t *testing.T) {
		tbl := FromRows([][]string{
			{"a", "b"},
			{"1", "2", "3"},
		})
		assert.Equal(t, []string{"a", "b", "Unnamed: 2"}, tbl.Header())
		assert.Equal(t, [][]string{{"1", "2", "3"}}, tbl.Records())
	})

	t.Run("empty input", func(t *testing.T) {
		tbl := FromRows(nil)
		assert.Equal(t, 0, tbl.Len())
		assert.Empty(t, tbl.Header())
	})

	t.Run("header only", func(t *testing.T) {
		tbl := FromRows([][]string{{"a", "b"}})
		assert.Equal(t, 0, tbl.Len())
		assert.Equal(t, []string{"a", "b"}, tbl.Header())
		assert.Empty(t, tbl.Records())
	})
}

func TestSelect(t *testing.T) {
	tbl := FromRecords([]string{"a", "b", "c", "d"}, [][]string{{"1", "2", "3", "4"}})

	tests := []struct {
		name        string
		indices     []int
		header      []string
		expectError bool
	}{
		{name: "in order", indices: []int{1, 2}, header: []string{"b", "c"}},
		{name: "reordered", indices: []int{3, 0}, header: []string{"d", "a"}},
		{name: "repeated", indices: []int{2, 2}, header: []string{"c", "c"}},
		{name: "out of range", indices: []int{1, 4}, expectError: true},
		{name: "negative", indices: []int{-1}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.Select(tt.indices)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "out of range")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.header, got.Header())
			assert.Equal(t, 1, got.Len())
		})
	}
}

func TestSelectCopiesValues(t *testing.T) {
	tbl := FromRecords([]string{"a", "b"}, [][]string{{" x, ", "y"}})

	got, err := tbl.Select([]int{0, 0})
	require.NoError(t, err)

	got.Columns[0].Values[0] = "changed"
	assert.Equal(t, " x, ", tbl.Columns[0].Values[0])
	assert.Equal(t, " x, ", got.Columns[1].Values[0])
}

func TestInferKinds(t *testing.T) {
	tbl := FromRecords(
		[]string{"id", "name", "tonnage", "blank", "mixed"},
		[][]string{
			{"1", "Granite", "12.5", "", "3"},
			{"2", "Basalt", "", "", "n/a"},
			{" 3 ", "Sand", "-7", "", ""},
		},
	)

	tbl.InferKinds()

	kinds := make(map[string]Kind)
	for _, col := range tbl.Columns {
		kinds[col.Name] = col.Kind
	}
	assert.Equal(t, map[string]Kind{
		"id":      KindNumber,
		"name":    KindText,
		"tonnage": KindNumber,
		"blank":   KindText,
		"mixed":   KindText,
	}, kinds)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "number", KindNumber.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
