package youtube

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PT1H2M3S", "1:02:03"},
		{"PT4M5S", "4:05"},
		{"PT45S", "0:45"},
		{"PT10M", "10:00"},
		{"PT2H", "2:00:00"},
		{"P1DT1M", "24:01:00"},
		{"P0D", "0:00"},
		{"", ""},
		{"P", ""},
		{"garbage", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "Invalid API key",
		ErrorString([]byte(`{"error": {"code": 400, "message": "Invalid API key"}}`), http.StatusBadRequest))
	assert.Equal(t, "keyInvalid",
		ErrorString([]byte(`{"error": {"errors": [{"reason": "keyInvalid"}]}}`), http.StatusBadRequest))
	assert.Equal(t, "Not Found", ErrorString([]byte("<html>"), http.StatusNotFound))
	assert.Equal(t, "status 799", ErrorString(nil, 799))
}

func TestMapItems_SearchKinds(t *testing.T) {
	items := []Resource{
		{ID: []byte(`{"kind": "youtube#playlist", "playlistId": "PL1"}`), Snippet: Snippet{Title: "Mix"}},
		{ID: []byte(`{"kind": "youtube#channel", "channelId": "UC1"}`), Snippet: Snippet{Title: "Chan"}},
		{ID: []byte(`{}`)},
	}

	playlists := MapItems("/search", "playlist", items[:1])
	assert.Equal(t, "PL1", playlists[0]["id"])
	assert.Equal(t, "PL1", playlists[0]["videosId"])

	users := MapItems("/search", "user", items[1:])
	assert.Len(t, users, 1, "records without an id are dropped")
	assert.Equal(t, "Chan", users[0]["username"])
}

func TestMapItems_PlaylistItems(t *testing.T) {
	items := []Resource{{
		ID:      []byte(`"item1"`),
		Snippet: Snippet{Title: "Clip", ResourceID: SearchID{VideoID: "vid9"}},
	}}

	out := MapItems("/playlistItems", "video", items)
	assert.Equal(t, "vid9", out[0]["id"])
	assert.Equal(t, "Clip", out[0]["title"])
}
