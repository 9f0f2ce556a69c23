package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]*Store {
	t.Helper()
	disk, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	mem, err := Open("")
	require.NoError(t, err)
	return map[string]*Store{"disk": disk, "memory": mem}
}

func TestSearchHistory(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddSearch("youtube", "cats"))
			require.NoError(t, s.AddSearch("youtube", "dogs"))
			require.NoError(t, s.AddSearch("youtube", "  "))
			require.NoError(t, s.AddSearch("vimeo", "birds"))
			assert.Equal(t, []string{"dogs", "cats"}, s.Searches("youtube"))

			// Repeats move to the front
			require.NoError(t, s.AddSearch("youtube", "Cats"))
			assert.Equal(t, []string{"Cats", "dogs"}, s.Searches("youtube"))

			require.NoError(t, s.RemoveSearch("youtube", "DOGS"))
			assert.Equal(t, []string{"Cats"}, s.Searches("youtube"))
			assert.Equal(t, []string{"birds"}, s.Searches("vimeo"))

			require.NoError(t, s.ClearSearches("youtube"))
			assert.Empty(t, s.Searches("youtube"))
		})
	}
}

func TestSearchHistory_Capped(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)

	for i := 0; i < MaxSearches+10; i++ {
		require.NoError(t, s.AddSearch("youtube", fmt.Sprintf("q%d", i)))
	}
	history := s.Searches("youtube")
	assert.Len(t, history, MaxSearches)
	assert.Equal(t, fmt.Sprintf("q%d", MaxSearches+9), history[0])
}

func TestSuggest(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	for _, q := range []string{"golang tutorial", "cooking", "go", "gopher con"} {
		require.NoError(t, s.AddSearch("youtube", q))
	}

	assert.Equal(t, []string{"go", "gopher con", "golang tutorial"}, s.Suggest("youtube", "go", 0))
	assert.Equal(t, []string{"go"}, s.Suggest("youtube", "GO", 1))
	assert.Equal(t, []string{"gopher con", "go"}, s.Suggest("youtube", "", 2))
	assert.Empty(t, s.Suggest("youtube", "xyz", 5))
}

func TestSearchOrder(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.SearchOrder("youtube")
			assert.False(t, ok)

			require.NoError(t, s.SetSearchOrder("youtube", "date"))
			order, ok := s.SearchOrder("youtube")
			assert.True(t, ok)
			assert.Equal(t, "date", order)

			require.NoError(t, s.SetSearchOrder("youtube", ""))
			_, ok = s.SearchOrder("youtube")
			assert.False(t, ok)
		})
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.AddSearch("youtube", "cats"))
	require.NoError(t, s.SetSearchOrder("youtube", "viewCount"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, []string{"cats"}, s.Searches("youtube"))
	order, _ := s.SearchOrder("youtube")
	assert.Equal(t, "viewCount", order)
}

func TestInvalidateAll(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddSearch("youtube", "cats"))
			require.NoError(t, s.SetSearchOrder("youtube", "date"))

			require.NoError(t, s.InvalidateAll())
			assert.Empty(t, s.Searches("youtube"))
			_, ok := s.SearchOrder("youtube")
			assert.False(t, ok)

			require.NoError(t, s.AddSearch("youtube", "again"))
			assert.Equal(t, []string{"again"}, s.Searches("youtube"))
		})
	}
}
