package youtube

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/tubular/internal/domain"
)

const watchURL = "https://www.youtube.com/watch?v="

// MapItems flattens API resources into item records for kind. The record
// keys match the field names the domain item decoders expect.
func MapItems(resource string, kind domain.ResourceKind, items []Resource) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, r := range items {
		var rec map[string]any
		switch resource {
		case "/subscriptions":
			rec = mapSubscription(r)
		case "/commentThreads":
			rec = mapCommentThread(r)
		case "/comments":
			rec = mapComment(idString(r.ID), r.Snippet, "", 0)
		case "/playlistItems":
			rec = mapPlaylistItem(r)
		default:
			rec = mapByKind(kind, r)
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

func mapByKind(kind domain.ResourceKind, r Resource) map[string]any {
	id := resourceID(r.ID)
	if id == "" {
		return nil
	}
	switch kind {
	case domain.KindPlaylist:
		return mapPlaylist(id, r)
	case domain.KindUser:
		return mapUser(id, r)
	case domain.KindComment:
		return mapComment(id, r.Snippet, "", 0)
	default:
		return mapVideo(id, r)
	}
}

func mapVideo(id string, r Resource) map[string]any {
	s := r.Snippet
	return map[string]any{
		"id":                id,
		"title":             s.Title,
		"description":       s.Description,
		"date":              s.PublishedAt,
		"duration":          FormatDuration(r.ContentDetails.Duration),
		"thumbnailUrl":      thumbnail(s.Thumbnails),
		"largeThumbnailUrl": largeThumbnail(s.Thumbnails),
		"url":               watchURL + id,
		"userId":            s.ChannelID,
		"username":          s.ChannelTitle,
		"viewCount":         r.Statistics.ViewCount,
		"commentsId":        id,
		"relatedVideosId":   id,
	}
}

func mapPlaylistItem(r Resource) map[string]any {
	id := r.Snippet.ResourceID.VideoID
	if id == "" {
		id = r.ContentDetails.VideoID
	}
	if id == "" {
		return nil
	}
	return mapVideo(id, r)
}

func mapPlaylist(id string, r Resource) map[string]any {
	s := r.Snippet
	return map[string]any{
		"id":                id,
		"title":             s.Title,
		"description":       s.Description,
		"date":              s.PublishedAt,
		"thumbnailUrl":      thumbnail(s.Thumbnails),
		"largeThumbnailUrl": largeThumbnail(s.Thumbnails),
		"userId":            s.ChannelID,
		"username":          s.ChannelTitle,
		"videoCount":        r.ContentDetails.ItemCount,
		"videosId":          id,
	}
}

func mapUser(id string, r Resource) map[string]any {
	s := r.Snippet
	rec := map[string]any{
		"id":                id,
		"username":          s.Title,
		"description":       s.Description,
		"thumbnailUrl":      thumbnail(s.Thumbnails),
		"largeThumbnailUrl": largeThumbnail(s.Thumbnails),
		"subscriberCount":   r.Statistics.SubscriberCount,
		"viewCount":         r.Statistics.ViewCount,
	}
	if len(r.ContentDetails.RelatedPlaylists) > 0 {
		rec["relatedPlaylists"] = r.ContentDetails.RelatedPlaylists
	}
	return rec
}

// mapSubscription keys the record by the subscribed channel so it decodes
// as a User; the subscription id itself is kept for unsubscribing.
func mapSubscription(r Resource) map[string]any {
	id := idString(r.ID)
	channelID := r.Snippet.ResourceID.ChannelID
	if channelID == "" {
		return nil
	}
	s := r.Snippet
	return map[string]any{
		"id":                channelID,
		"channelId":         channelID,
		"subscriptionId":    id,
		"username":          s.Title,
		"description":       s.Description,
		"thumbnailUrl":      thumbnail(s.Thumbnails),
		"largeThumbnailUrl": largeThumbnail(s.Thumbnails),
		"subscribed":        true,
	}
}

func mapCommentThread(r Resource) map[string]any {
	top := r.Snippet.TopLevelComment
	if top == nil {
		return nil
	}
	videoID := r.Snippet.VideoID
	if videoID == "" {
		videoID = top.Snippet.VideoID
	}
	return mapComment(top.ID, top.Snippet, videoID, r.Snippet.TotalReplyCount)
}

func mapComment(id string, s Snippet, videoID string, replies int) map[string]any {
	if id == "" {
		return nil
	}
	if videoID == "" {
		videoID = s.VideoID
	}
	return map[string]any{
		"id":           id,
		"body":         s.TextDisplay,
		"date":         s.PublishedAt,
		"thumbnailUrl": s.AuthorProfileImageURL,
		"userId":       s.AuthorChannelID.Value,
		"username":     s.AuthorDisplayName,
		"videoId":      videoID,
		"parentId":     s.ParentID,
		"replyCount":   replies,
	}
}

// resourceID reads either a plain string id or a /search id object
func resourceID(raw json.RawMessage) string {
	if id := idString(raw); id != "" {
		return id
	}
	var sid SearchID
	if err := json.Unmarshal(raw, &sid); err != nil {
		return ""
	}
	switch {
	case sid.VideoID != "":
		return sid.VideoID
	case sid.PlaylistID != "":
		return sid.PlaylistID
	default:
		return sid.ChannelID
	}
}

func idString(raw json.RawMessage) string {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}

func thumbnail(t Thumbnails) string {
	switch {
	case t.Medium.URL != "":
		return t.Medium.URL
	case t.Default.URL != "":
		return t.Default.URL
	default:
		return t.High.URL
	}
}

func largeThumbnail(t Thumbnails) string {
	if t.High.URL != "" {
		return t.High.URL
	}
	return thumbnail(t)
}

var durationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatDuration renders an ISO-8601 duration ("PT1H2M3S") as a clock
// string ("1:02:03"). Minutes and seconds are zero padded after the leading
// field. Unparseable input yields "".
func FormatDuration(iso string) string {
	m := durationRe.FindStringSubmatch(iso)
	if m == nil || iso == "P" {
		return ""
	}
	field := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	days, h, mins, sec := field(m[1]), field(m[2]), field(m[3]), field(m[4])
	h += days * 24

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, sec)
	}
	return fmt.Sprintf("%d:%02d", mins, sec)
}

// ErrorString extracts a readable message from an API error body, falling
// back to the HTTP status text.
func ErrorString(body []byte, status int) string {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		if msg := strings.TrimSpace(resp.Error.Message); msg != "" {
			return msg
		}
		for _, e := range resp.Error.Errors {
			if e.Message != "" {
				return e.Message
			}
			if e.Reason != "" {
				return e.Reason
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// errorReason returns the first machine-readable reason in an error body
func errorReason(body []byte) string {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	for _, e := range resp.Error.Errors {
		if e.Reason != "" {
			return e.Reason
		}
	}
	return ""
}
