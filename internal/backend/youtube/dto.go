package youtube

import "encoding/json"

// ListResponse is the envelope shared by every Data API list endpoint
type ListResponse struct {
	NextPageToken string     `json:"nextPageToken"`
	PageInfo      PageInfo   `json:"pageInfo"`
	Items         []Resource `json:"items"`
}

type PageInfo struct {
	TotalResults   int `json:"totalResults"`
	ResultsPerPage int `json:"resultsPerPage"`
}

// Resource is a union of the video, playlist, channel, subscription and
// comment thread shapes. ID is a plain string except on /search, where it is
// an object naming the matched resource.
type Resource struct {
	Kind           string          `json:"kind"`
	ID             json.RawMessage `json:"id"`
	Snippet        Snippet         `json:"snippet"`
	ContentDetails ContentDetails  `json:"contentDetails"`
	Statistics     Statistics      `json:"statistics"`
}

// SearchID is the id object of a /search result
type SearchID struct {
	Kind       string `json:"kind"`
	VideoID    string `json:"videoId"`
	ChannelID  string `json:"channelId"`
	PlaylistID string `json:"playlistId"`
}

type Snippet struct {
	PublishedAt  string     `json:"publishedAt"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Thumbnails   Thumbnails `json:"thumbnails"`

	// playlistItems and subscriptions
	ResourceID SearchID `json:"resourceId"`

	// commentThreads and comments
	VideoID               string           `json:"videoId"`
	TopLevelComment       *CommentResource `json:"topLevelComment"`
	TotalReplyCount       int              `json:"totalReplyCount"`
	TextDisplay           string           `json:"textDisplay"`
	AuthorDisplayName     string           `json:"authorDisplayName"`
	AuthorProfileImageURL string           `json:"authorProfileImageUrl"`
	AuthorChannelID       struct {
		Value string `json:"value"`
	} `json:"authorChannelId"`
	ParentID string `json:"parentId"`
}

type CommentResource struct {
	ID      string  `json:"id"`
	Snippet Snippet `json:"snippet"`
}

type Thumbnails struct {
	Default Thumbnail `json:"default"`
	Medium  Thumbnail `json:"medium"`
	High    Thumbnail `json:"high"`
}

type Thumbnail struct {
	URL string `json:"url"`
}

type ContentDetails struct {
	Duration         string            `json:"duration"`
	ItemCount        int               `json:"itemCount"`
	VideoID          string            `json:"videoId"`
	RelatedPlaylists map[string]string `json:"relatedPlaylists"`
}

// Statistics counts are encoded as decimal strings by the API
type Statistics struct {
	ViewCount       string `json:"viewCount"`
	LikeCount       string `json:"likeCount"`
	CommentCount    string `json:"commentCount"`
	SubscriberCount string `json:"subscriberCount"`
	VideoCount      string `json:"videoCount"`
}

// ErrorResponse is the body of a failed API call
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Domain  string `json:"domain"`
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}
