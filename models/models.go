package models

import (
	"time"
)

// Credentials holds the Reddit app credentials supplied by the caller on
// every request. They live for the duration of a single request and are
// never logged or persisted.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	UserAgent    string `json:"user_agent"`
}

// UserRequest is the body of POST /get-user
type UserRequest struct {
	Username    string      `json:"username"`
	Credentials Credentials `json:"credentials"`
}

// PostRequest is the body of POST /get-post
type PostRequest struct {
	PostURL     string      `json:"post_url"`
	Credentials Credentials `json:"credentials"`
}

// SubredditRequest is the body of POST /get-subreddit
type SubredditRequest struct {
	SubredditName string      `json:"subreddit_name"`
	Credentials   Credentials `json:"credentials"`
}

// UserSubreddit is the profile subreddit attached to a user account
type UserSubreddit struct {
	Subscribers       *int64 `json:"subscribers"`
	Title             string `json:"title"`
	PublicDescription string `json:"public_description"`
}

// UserStats holds statistics for a Reddit user.
// Optional upstream fields are pointers so a missing value serializes as null.
type UserStats struct {
	Name             string         `json:"name"`
	ID               string         `json:"id"`
	CreatedUTC       *float64       `json:"created_utc"`
	LinkKarma        int            `json:"link_karma"`
	CommentKarma     int            `json:"comment_karma"`
	TotalKarma       int            `json:"total_karma"`
	AwardeeKarma     int            `json:"awardee_karma"`
	AwarderKarma     int            `json:"awarder_karma"`
	IsGold           bool           `json:"is_gold"`
	IsMod            bool           `json:"is_mod"`
	HasVerifiedEmail bool           `json:"has_verified_email"`
	IconImg          string         `json:"icon_img"`
	SnoovatarImg     string         `json:"snoovatar_img"`
	AcceptFollowers  bool           `json:"accept_followers"`
	Subreddit        *UserSubreddit `json:"subreddit"`
}

// PostStats holds statistics for a single Reddit post
type PostStats struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Author              *string  `json:"author"`
	Subreddit           string   `json:"subreddit"`
	Score               int      `json:"score"`
	UpvoteRatio         float64  `json:"upvote_ratio"`
	NumComments         int      `json:"num_comments"`
	CreatedUTC          *float64 `json:"created_utc"`
	URL                 string   `json:"url"`
	Permalink           string   `json:"permalink"`
	IsSelf              bool     `json:"is_self"`
	SelfText            string   `json:"selftext"`
	Domain              string   `json:"domain"`
	Locked              bool     `json:"locked"`
	Stickied            bool     `json:"stickied"`
	Over18              bool     `json:"over_18"`
	Gilded              int      `json:"gilded"`
	TotalAwardsReceived int      `json:"total_awards_received"`
}

// SubredditInfo holds information about a subreddit
type SubredditInfo struct {
	Name              string   `json:"name"`
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	PublicDescription string   `json:"public_description"`
	Description       string   `json:"description"`
	Subscribers       *int64   `json:"subscribers"`
	AccountsActive    *int64   `json:"accounts_active"`
	CreatedUTC        *float64 `json:"created_utc"`
	Over18            bool     `json:"over18"`
	Lang              string   `json:"lang"`
	URL               string   `json:"url"`
	CommunityIcon     string   `json:"community_icon"`
	BannerImg         string   `json:"banner_img"`
	HeaderImg         string   `json:"header_img"`
	IconImg           string   `json:"icon_img"`
	SubmissionType    string   `json:"submission_type"`
	AllowImages       bool     `json:"allow_images"`
	AllowVideos       bool     `json:"allow_videos"`
	WikiEnabled       bool     `json:"wiki_enabled"`
	SubredditType     string   `json:"subreddit_type"`
	Quarantine        bool     `json:"quarantine"`
}

// ErrorResponse is the JSON envelope returned for every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// LookupRecord is one row of the lookup-usage journal. It carries lookup
// metadata only; credentials and response bodies are never written.
type LookupRecord struct {
	Kind       string    `json:"kind"`
	Target     string    `json:"target"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// UsageStats summarizes the lookup-usage journal
type UsageStats struct {
	TotalLookups    int            `json:"total_lookups"`
	LookupsByKind   map[string]int `json:"lookups_by_kind"`
	LookupsByStatus map[string]int `json:"lookups_by_status"`
	LastLookupAt    *time.Time     `json:"last_lookup_at"`
}
