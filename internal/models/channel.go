package models

// Channel is a public profile as returned by users/c/{username}.
type Channel struct {
	ID                        string  `json:"_id"`
	Username                  string  `json:"username"`
	FullName                  string  `json:"fullName,omitempty"`
	Email                     string  `json:"email,omitempty"`
	Avatar                    string  `json:"avatar,omitempty"`
	CoverImage                string  `json:"coverImage,omitempty"`
	Description               string  `json:"description,omitempty"`
	SubscribersCount          int     `json:"subscribersCount"`
	ChannelsSubscribedToCount int     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool    `json:"isSubscribed"`
	VideosCount               int     `json:"videosCount"`
	UploadedVideos            []Video `json:"uploadedVideos,omitempty"`
	HasNextPage               bool    `json:"hasNextPage"`
	HasPreviousPage           bool    `json:"hasPreviousPage"`
}

// Subscription links the viewer to a channel.
type Subscription struct {
	ID      string `json:"_id"`
	Channel Owner  `json:"channel"`
}

// SubscriptionStatus is returned by subscriptions/status/{channelId}.
type SubscriptionStatus struct {
	IsSubscribed     bool `json:"isSubscribed"`
	SubscribersCount int  `json:"subscribersCount"`
}
