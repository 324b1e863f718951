package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Privacy settings accepted by the privacy endpoint.
const (
	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
)

// Owner is the uploader embedded in a video or comment. The backend sends either a
// populated object or a bare id string.
type Owner struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// UnmarshalJSON accepts an object or an id string.
func (o *Owner) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*o = Owner{ID: id}
		return nil
	}

	type owner Owner
	var v owner
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	*o = Owner(v)
	return nil
}

// Video is one catalog entry.
type Video struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	VideoFile   string    `json:"videoFile,omitempty"`
	PreviewURL  string    `json:"previewUrl,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Duration    float64   `json:"duration,omitempty"`
	Views       int       `json:"views"`
	IsPublished bool      `json:"isPublished"`
	IsApproved  bool      `json:"isApproved"`
	Privacy     string    `json:"privacy,omitempty"`
	Owner       *Owner    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// OwnerName returns the uploader's username, or its id when the owner was not populated.
func (v Video) OwnerName() string {
	if v.Owner == nil {
		return ""
	}
	if v.Owner.Username != "" {
		return v.Owner.Username
	}
	return v.Owner.ID
}

// DurationString formats the duration in seconds as m:ss or h:mm:ss.
func (v Video) DurationString() string {
	total := int(v.Duration)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Comment is one comment on a video.
type Comment struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	User      *Owner    `json:"user,omitempty"`
	Video     string    `json:"video,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
