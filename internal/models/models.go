package models

import "time"

// User represents an account within the VideoTube platform. Username and email
// are stored lowercased and are unique across the system.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicProfile strips credential material before a user record leaves the core.
func (u User) PublicProfile() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}

// Video is a published piece of content owned by a channel.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	DurationSecs float64
	Views        int64
	VideoFileURL string
	ThumbnailURL string
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is user-authored text attached to a video.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tweet is a short standalone post by a channel.
type Tweet struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Playlist is an ordered, duplicate-free set of videos curated by its owner.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LikeKind discriminates the entity a like points at.
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindComment LikeKind = "comment"
	LikeKindTweet   LikeKind = "tweet"
)

// Valid reports whether the kind is one of the supported like targets.
func (k LikeKind) Valid() bool {
	switch k {
	case LikeKindVideo, LikeKindComment, LikeKindTweet:
		return true
	}
	return false
}

// LikeTarget identifies exactly one likeable entity. Modelling the target as a
// tagged pair keeps a like from ever referencing two entities at once.
type LikeTarget struct {
	Kind LikeKind
	ID   string
}

// Like records that a user liked a single target entity.
type Like struct {
	ID        string
	LikedBy   string
	Target    LikeTarget
	CreatedAt time.Time
}

// Subscription is one row per (subscriber, channel) pair.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// WatchEntry records that a user watched a video.
type WatchEntry struct {
	UserID    string
	VideoID   string
	WatchedAt time.Time
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
