package collection

import (
	"log/slog"

	"github.com/mmcdole/tubular/internal/domain"
)

// Playlists is a collection of playlists
type Playlists = Collection[*domain.Playlist]

// Videos is a collection of videos
type Videos = Collection[*domain.Video]

// Comments is a collection of comments
type Comments = Collection[*domain.Comment]

// Users is a collection of users
type Users = Collection[*domain.User]

func NewPlaylists(resolver Resolver, logger *slog.Logger) *Playlists {
	return New(domain.KindPlaylist, resolver, domain.NewPlaylist, logger)
}

func NewVideos(resolver Resolver, logger *slog.Logger) *Videos {
	return New(domain.KindVideo, resolver, domain.NewVideo, logger)
}

func NewComments(resolver Resolver, logger *slog.Logger) *Comments {
	return New(domain.KindComment, resolver, domain.NewComment, logger)
}

func NewUsers(resolver Resolver, logger *slog.Logger) *Users {
	return New(domain.KindUser, resolver, domain.NewUser, logger)
}
