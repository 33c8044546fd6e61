package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-lookup/api"
	"github.com/brettboylen/reddit-lookup/models"
)

// RedditClient is the slice of the upstream client the lookups need
type RedditClient interface {
	GetUserAbout(ctx context.Context, username string) (map[string]interface{}, error)
	GetSubredditAbout(ctx context.Context, name string) (map[string]interface{}, error)
	GetPostByID(ctx context.Context, subreddit, id string) (map[string]interface{}, error)
}

// ClientFactory builds a fresh upstream client from one request's credentials
type ClientFactory func(creds models.Credentials) (RedditClient, error)

// UsageRecorder appends lookup metadata to the usage journal
type UsageRecorder interface {
	RecordLookup(rec models.LookupRecord) error
}

// Service resolves lookup targets against Reddit and normalizes the results
// onto the fixed response records. A new upstream client is built for every
// call from the caller's credentials; nothing is shared between requests and
// nothing is cached.
type Service struct {
	newClient ClientFactory
	journal   UsageRecorder
	log       *logrus.Logger
}

// NewService creates a lookup service. journal may be nil, in which case
// usage recording is skipped.
func NewService(journal UsageRecorder, log *logrus.Logger) *Service {
	s := &Service{
		journal: journal,
		log:     log,
	}
	s.newClient = func(creds models.Credentials) (RedditClient, error) {
		return api.NewClient(creds.ClientID, creds.ClientSecret, creds.UserAgent, log)
	}
	return s
}

// GetUserStats looks up a Reddit user and maps the about object onto
// UserStats. A suspended account counts as not found.
func (s *Service) GetUserStats(ctx context.Context, creds models.Credentials, username string) (stats *models.UserStats, err error) {
	username = api.CleanUsername(username)

	start := time.Now()
	defer func() { s.record("user", username, start, err) }()

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", api.ErrValidation)
	}

	client, err := s.newClient(creds)
	if err != nil {
		return nil, err
	}

	data, err := client.GetUserAbout(ctx, username)
	if err != nil {
		return nil, err
	}

	if boolField(data, "is_suspended", false) {
		return nil, fmt.Errorf("%w: user %s is suspended", api.ErrNotFound, username)
	}

	s.log.WithField("username", username).Debug("Mapped user lookup")
	return mapUserStats(data), nil
}

// GetPostStats resolves a post URL and maps the post object onto PostStats.
// The post id is extracted from the URL before any client is built, so a
// malformed URL never causes network traffic.
func (s *Service) GetPostStats(ctx context.Context, creds models.Credentials, postURL string) (stats *models.PostStats, err error) {
	start := time.Now()
	defer func() { s.record("post", postURL, start, err) }()

	subreddit, id, err := api.ExtractPostID(postURL)
	if err != nil {
		return nil, err
	}

	client, err := s.newClient(creds)
	if err != nil {
		return nil, err
	}

	data, err := client.GetPostByID(ctx, subreddit, id)
	if err != nil {
		return nil, err
	}

	s.log.WithField("post_id", id).Debug("Mapped post lookup")
	return mapPostStats(data), nil
}

// GetSubredditInfo looks up a subreddit and maps the about object onto
// SubredditInfo. Private and banned communities count as not found.
func (s *Service) GetSubredditInfo(ctx context.Context, creds models.Credentials, name string) (info *models.SubredditInfo, err error) {
	name = api.CleanSubreddit(name)

	start := time.Now()
	defer func() { s.record("subreddit", name, start, err) }()

	if name == "" {
		return nil, fmt.Errorf("%w: subreddit_name is required", api.ErrValidation)
	}

	client, err := s.newClient(creds)
	if err != nil {
		return nil, err
	}

	data, err := client.GetSubredditAbout(ctx, name)
	if err != nil {
		return nil, err
	}

	s.log.WithField("subreddit", name).Debug("Mapped subreddit lookup")
	return mapSubredditInfo(data), nil
}

// record appends one usage-journal row. Journal failures are logged and never
// fail the lookup.
func (s *Service) record(kind, target string, start time.Time, err error) {
	if s.journal == nil {
		return
	}

	rec := models.LookupRecord{
		Kind:       kind,
		Target:     target,
		Status:     statusLabel(err),
		DurationMS: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now(),
	}

	if jerr := s.journal.RecordLookup(rec); jerr != nil {
		s.log.WithError(jerr).Warn("Failed to record lookup usage")
	}
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, api.ErrValidation):
		return "validation_error"
	case errors.Is(err, api.ErrAuthentication):
		return "authentication_error"
	case errors.Is(err, api.ErrNotFound):
		return "not_found"
	case errors.Is(err, api.ErrUpstream):
		return "upstream_error"
	default:
		return "internal_error"
	}
}

func mapUserStats(data map[string]interface{}) *models.UserStats {
	linkKarma, linkOK := numberField(data, "link_karma")
	commentKarma, commentOK := numberField(data, "comment_karma")

	// total karma is derived; the upstream field is only a fallback when one
	// of the parts is hidden
	totalKarma := intField(data, "total_karma", 0)
	if linkOK && commentOK {
		totalKarma = int(linkKarma) + int(commentKarma)
	}

	stats := &models.UserStats{
		Name:             stringField(data, "name", ""),
		ID:               stringField(data, "id", ""),
		CreatedUTC:       floatPtrField(data, "created_utc"),
		LinkKarma:        int(linkKarma),
		CommentKarma:     int(commentKarma),
		TotalKarma:       totalKarma,
		AwardeeKarma:     intField(data, "awardee_karma", 0),
		AwarderKarma:     intField(data, "awarder_karma", 0),
		IsGold:           boolField(data, "is_gold", false),
		IsMod:            boolField(data, "is_mod", false),
		HasVerifiedEmail: boolField(data, "has_verified_email", false),
		IconImg:          stringField(data, "icon_img", ""),
		SnoovatarImg:     stringField(data, "snoovatar_img", ""),
		AcceptFollowers:  boolField(data, "accept_followers", false),
	}

	if sub, ok := mapField(data, "subreddit"); ok {
		stats.Subreddit = &models.UserSubreddit{
			Subscribers:       intPtrField(sub, "subscribers"),
			Title:             stringField(sub, "title", ""),
			PublicDescription: stringField(sub, "public_description", ""),
		}
	}

	return stats
}

func mapPostStats(data map[string]interface{}) *models.PostStats {
	author := stringPtrField(data, "author")
	if author != nil && *author == "[deleted]" {
		author = nil
	}

	return &models.PostStats{
		ID:                  stringField(data, "id", ""),
		Title:               stringField(data, "title", ""),
		Author:              author,
		Subreddit:           stringField(data, "subreddit", ""),
		Score:               intField(data, "score", 0),
		UpvoteRatio:         floatField(data, "upvote_ratio", 0),
		NumComments:         intField(data, "num_comments", 0),
		CreatedUTC:          floatPtrField(data, "created_utc"),
		URL:                 stringField(data, "url", ""),
		Permalink:           stringField(data, "permalink", ""),
		IsSelf:              boolField(data, "is_self", false),
		SelfText:            stringField(data, "selftext", ""),
		Domain:              stringField(data, "domain", ""),
		Locked:              boolField(data, "locked", false),
		Stickied:            boolField(data, "stickied", false),
		Over18:              boolField(data, "over_18", false),
		Gilded:              intField(data, "gilded", 0),
		TotalAwardsReceived: intField(data, "total_awards_received", 0),
	}
}

func mapSubredditInfo(data map[string]interface{}) *models.SubredditInfo {
	return &models.SubredditInfo{
		Name:              stringField(data, "display_name", ""),
		ID:                stringField(data, "id", ""),
		Title:             stringField(data, "title", ""),
		PublicDescription: stringField(data, "public_description", ""),
		Description:       stringField(data, "description", ""),
		Subscribers:       intPtrField(data, "subscribers"),
		AccountsActive:    intPtrField(data, "accounts_active"),
		CreatedUTC:        floatPtrField(data, "created_utc"),
		Over18:            boolField(data, "over18", false),
		Lang:              stringField(data, "lang", ""),
		URL:               stringField(data, "url", ""),
		CommunityIcon:     stringField(data, "community_icon", ""),
		BannerImg:         stringField(data, "banner_img", ""),
		HeaderImg:         stringField(data, "header_img", ""),
		IconImg:           stringField(data, "icon_img", ""),
		SubmissionType:    stringField(data, "submission_type", ""),
		AllowImages:       boolField(data, "allow_images", false),
		AllowVideos:       boolField(data, "allow_videos", false),
		WikiEnabled:       boolField(data, "wiki_enabled", false),
		SubredditType:     stringField(data, "subreddit_type", ""),
		Quarantine:        boolField(data, "quarantine", false),
	}
}
