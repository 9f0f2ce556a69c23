package domain

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Item is the polymorphic interface for decoded records held by a collection.
type Item interface {
	// GetID returns the identifier, unique within service+kind
	GetID() string

	// GetTitle returns the display title/label
	GetTitle() string

	// GetService returns the id of the service the item was loaded from
	GetService() string

	// GetKind returns the resource kind
	GetKind() ResourceKind
}

// Playlist is a named, ordered set of videos
type Playlist struct {
	ID                string `mapstructure:"id"`
	Service           string `mapstructure:"service"`
	Title             string `mapstructure:"title"`
	Description       string `mapstructure:"description"`
	Date              string `mapstructure:"date"`
	ThumbnailURL      string `mapstructure:"thumbnailUrl"`
	LargeThumbnailURL string `mapstructure:"largeThumbnailUrl"`
	UserID            string `mapstructure:"userId"`
	Username          string `mapstructure:"username"`
	VideoCount        int    `mapstructure:"videoCount"`
	VideosID          string `mapstructure:"videosId"` // resource id that lists the playlist's videos
}

func (p *Playlist) GetID() string         { return p.ID }
func (p *Playlist) GetTitle() string      { return p.Title }
func (p *Playlist) GetService() string    { return p.Service }
func (p *Playlist) GetKind() ResourceKind { return KindPlaylist }

// GetDescription returns secondary info for display
func (p *Playlist) GetDescription() string {
	if p.VideoCount == 1 {
		return "1 video"
	}
	return fmt.Sprintf("%d videos", p.VideoCount)
}

// Video is a single playable upload
type Video struct {
	ID                string `mapstructure:"id"`
	Service           string `mapstructure:"service"`
	Title             string `mapstructure:"title"`
	Description       string `mapstructure:"description"`
	Date              string `mapstructure:"date"`
	Duration          string `mapstructure:"duration"` // display form, e.g. "3:04"
	ThumbnailURL      string `mapstructure:"thumbnailUrl"`
	LargeThumbnailURL string `mapstructure:"largeThumbnailUrl"`
	URL               string `mapstructure:"url"`
	UserID            string `mapstructure:"userId"`
	Username          string `mapstructure:"username"`
	ViewCount         int64  `mapstructure:"viewCount"`
	CommentsID        string `mapstructure:"commentsId"`
	RelatedVideosID   string `mapstructure:"relatedVideosId"`
	Downloadable      bool   `mapstructure:"downloadable"`
	Favourited        bool   `mapstructure:"favourited"`
	Liked             bool   `mapstructure:"liked"`
}

func (v *Video) GetID() string         { return v.ID }
func (v *Video) GetTitle() string      { return v.Title }
func (v *Video) GetService() string    { return v.Service }
func (v *Video) GetKind() ResourceKind { return KindVideo }

// GetDescription returns secondary info for display
func (v *Video) GetDescription() string {
	switch {
	case v.Username != "" && v.Duration != "":
		return v.Username + " · " + v.Duration
	case v.Username != "":
		return v.Username
	default:
		return v.Duration
	}
}

// Comment is a single comment on a video
type Comment struct {
	ID           string `mapstructure:"id"`
	Service      string `mapstructure:"service"`
	Body         string `mapstructure:"body"`
	Date         string `mapstructure:"date"`
	ThumbnailURL string `mapstructure:"thumbnailUrl"`
	UserID       string `mapstructure:"userId"`
	Username     string `mapstructure:"username"`
	VideoID      string `mapstructure:"videoId"`
	ParentID     string `mapstructure:"parentId"`
	ReplyCount   int    `mapstructure:"replyCount"`
}

func (c *Comment) GetID() string         { return c.ID }
func (c *Comment) GetTitle() string      { return c.Body }
func (c *Comment) GetService() string    { return c.Service }
func (c *Comment) GetKind() ResourceKind { return KindComment }

// User is a channel/account
type User struct {
	ID                string            `mapstructure:"id"`
	Service           string            `mapstructure:"service"`
	Username          string            `mapstructure:"username"`
	Description       string            `mapstructure:"description"`
	ThumbnailURL      string            `mapstructure:"thumbnailUrl"`
	LargeThumbnailURL string            `mapstructure:"largeThumbnailUrl"`
	SubscriberCount   int64             `mapstructure:"subscriberCount"`
	ViewCount         int64             `mapstructure:"viewCount"`
	Subscribed        bool              `mapstructure:"subscribed"`
	RelatedPlaylists  map[string]string `mapstructure:"relatedPlaylists"` // e.g. "uploads" -> playlist id
}

func (u *User) GetID() string         { return u.ID }
func (u *User) GetTitle() string      { return u.Username }
func (u *User) GetService() string    { return u.Service }
func (u *User) GetKind() ResourceKind { return KindUser }

// NewPlaylist decodes a raw record into a Playlist tagged with service
func NewPlaylist(service string, raw map[string]any) (*Playlist, error) {
	p := &Playlist{}
	if err := decodeItem(raw, p); err != nil {
		return nil, err
	}
	p.Service = service
	return p, nil
}

// NewVideo decodes a raw record into a Video tagged with service
func NewVideo(service string, raw map[string]any) (*Video, error) {
	v := &Video{}
	if err := decodeItem(raw, v); err != nil {
		return nil, err
	}
	v.Service = service
	return v, nil
}

// NewComment decodes a raw record into a Comment tagged with service
func NewComment(service string, raw map[string]any) (*Comment, error) {
	c := &Comment{}
	if err := decodeItem(raw, c); err != nil {
		return nil, err
	}
	c.Service = service
	return c, nil
}

// NewUser decodes a raw record into a User tagged with service
func NewUser(service string, raw map[string]any) (*User, error) {
	u := &User{}
	if err := decodeItem(raw, u); err != nil {
		return nil, err
	}
	u.Service = service
	return u, nil
}

// decodeItem maps raw fields onto the typed struct. Input is weakly typed
// because plugins and JSON decoding disagree on numbers ("12" vs 12.0).
func decodeItem(raw map[string]any, out any) error {
	if raw == nil {
		return fmt.Errorf("%w: nil item", ErrDecode)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
