package domain

import "time"

// TokenSource enumerates where the active access token came from.
type TokenSource string

const (
	TokenSourceHash       TokenSource = "hash"
	TokenSourceCookie     TokenSource = "cookie"
	TokenSourceLocalStore TokenSource = "localStore"
	TokenSourceHeader     TokenSource = "header"
	TokenSourceNone       TokenSource = "none"
)

// Session carries the credential pair currently held by a client.
// Exactly one access token is authoritative at a time; Source records
// which backing store produced it.
type Session struct {
	AccessToken  string
	RefreshToken string
	Source       TokenSource
}

// Authenticated reports whether the session carries an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// ProfileCounts aggregates the public counters shown on a profile.
type ProfileCounts struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// Profile mirrors the persisted representation in the profiles table.
type Profile struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	FullName    string        `json:"full_name"`
	AvatarURL   string        `json:"avatar_url"`
	Bio         string        `json:"bio,omitempty"`
	IsFollowing *bool         `json:"is_following,omitempty"`
	Counts      ProfileCounts `json:"counts"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Identity is the resolved caller attached to authenticated requests.
type Identity struct {
	UserID string
	Email  string
}

// Post is the read-side view of a post as shown on profile pages.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content_text"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}
