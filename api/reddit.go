package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://oauth.reddit.com"
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"

	requestTimeout = 30 * time.Second
)

var (
	// canonical post URL shape: .../comments/<id>/...
	postIDPattern  = regexp.MustCompile(`/comments/([A-Za-z0-9]+)`)
	subredditInURL = regexp.MustCompile(`/r/([^/]+)/`)
)

// Client is a Reddit API client scoped to one set of caller credentials.
// One instance is built per inbound request and discarded afterwards, so it
// holds no locks and must not be shared across goroutines. Authentication is
// lazy: the access token is fetched on the first lookup, which means bad
// credentials surface as an error from that lookup rather than from NewClient.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	httpClient   *http.Client
	baseURL      string
	authURL      string
	accessToken  string
	tokenExpiry  time.Time
	log          *logrus.Logger
}

// NewClient builds a client from caller-supplied credentials. All three
// fields must be non-empty; no network traffic happens here.
func NewClient(clientID, clientSecret, userAgent string, log *logrus.Logger) (*Client, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("%w: client_id is required", ErrValidation)
	}
	if strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("%w: client_secret is required", ErrValidation)
	}
	// User-Agent required per Reddit API etiquette; it has strict requirements
	if strings.TrimSpace(userAgent) == "" {
		return nil, fmt.Errorf("%w: user_agent is required", ErrValidation)
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		httpClient:   &http.Client{Timeout: requestTimeout},
		baseURL:      defaultBaseURL,
		authURL:      defaultAuthURL,
		log:          log,
	}, nil
}

// authenticate fetches an application-only access token using the
// client_credentials grant. Token-endpoint 401/403 means the app credentials
// were rejected (this includes revoked apps); 429 and 5xx from the token
// endpoint are upstream failures, not credential problems.
func (c *Client) authenticate(ctx context.Context) error {
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	c.log.Debug("Authenticating with Reddit API using application-only credentials")

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("%w: failed to create auth request: %v", ErrUpstream, err)
	}

	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: auth request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: Reddit rejected the app credentials", ErrAuthentication)
	default:
		return fmt.Errorf("%w: auth request failed with status %d", ErrUpstream, resp.StatusCode)
	}

	var authResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return fmt.Errorf("%w: failed to decode auth response: %v", ErrUpstream, err)
	}

	// Reddit answers 200 with an error body for some malformed credential
	// shapes, so an empty token is still a rejection
	if authResp.AccessToken == "" {
		return fmt.Errorf("%w: Reddit returned no access token", ErrAuthentication)
	}

	c.accessToken = authResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn) * time.Second)

	c.log.Debug("Successfully authenticated with Reddit API")
	return nil
}

// getJSON performs one authenticated GET against the API host and decodes
// the body into out. Status codes are mapped onto the error taxonomy here so
// every lookup shares the same translation.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUpstream, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: Reddit rejected the app credentials", ErrAuthentication)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		// 403 covers private and banned communities, which app-only auth
		// can never see; treat the same as missing
		return fmt.Errorf("%w: target does not exist or is not accessible", ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited by Reddit", ErrUpstream)
	default:
		return fmt.Errorf("%w: request failed with status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}

	return nil
}

// thing is the {kind, data} wrapper Reddit puts around single objects
type thing struct {
	Kind string                 `json:"kind"`
	Data map[string]interface{} `json:"data"`
}

// GetUserAbout fetches /user/{username}/about and returns the raw data object
func (c *Client) GetUserAbout(ctx context.Context, username string) (map[string]interface{}, error) {
	var t thing
	endpoint := fmt.Sprintf("/user/%s/about", url.PathEscape(username))
	if err := c.getJSON(ctx, endpoint, &t); err != nil {
		return nil, err
	}
	if t.Data == nil {
		return nil, fmt.Errorf("%w: unexpected response shape for user %s", ErrUpstream, username)
	}
	return t.Data, nil
}

// GetSubredditAbout fetches /r/{name}/about and returns the raw data object
func (c *Client) GetSubredditAbout(ctx context.Context, name string) (map[string]interface{}, error) {
	var t thing
	endpoint := fmt.Sprintf("/r/%s/about", url.PathEscape(name))
	if err := c.getJSON(ctx, endpoint, &t); err != nil {
		return nil, err
	}
	// /r/{name}/about for an unknown subreddit can answer 200 with a search
	// listing instead of a t5 thing
	if t.Data == nil || t.Kind == "Listing" {
		return nil, fmt.Errorf("%w: subreddit %s does not exist", ErrNotFound, name)
	}
	return t.Data, nil
}

// GetPostByID fetches the comments page for a post and returns the raw data
// object of the post itself. subreddit may be empty, in which case the
// unscoped /comments/{id} endpoint is used.
func (c *Client) GetPostByID(ctx context.Context, subreddit, id string) (map[string]interface{}, error) {
	var endpoint string
	if subreddit != "" {
		endpoint = fmt.Sprintf("/r/%s/comments/%s", url.PathEscape(subreddit), url.PathEscape(id))
	} else {
		endpoint = fmt.Sprintf("/comments/%s", url.PathEscape(id))
	}

	// the comments endpoint returns [post listing, comment listing]
	var listings []struct {
		Data struct {
			Children []struct {
				Data map[string]interface{} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, err
	}

	if len(listings) == 0 || len(listings[0].Data.Children) == 0 || listings[0].Data.Children[0].Data == nil {
		return nil, fmt.Errorf("%w: post %s does not exist", ErrNotFound, id)
	}

	return listings[0].Data.Children[0].Data, nil
}

// ExtractPostID pulls the post id (and the subreddit, when the URL carries
// one) out of a Reddit post URL. Only the canonical .../comments/<id>/...
// shape is accepted; anything else is a validation failure and never reaches
// the network.
func ExtractPostID(postURL string) (subreddit, id string, err error) {
	match := postIDPattern.FindStringSubmatch(postURL)
	if match == nil {
		return "", "", fmt.Errorf("%w: could not extract post id from URL: %s", ErrValidation, postURL)
	}
	id = match[1]

	if subMatch := subredditInURL.FindStringSubmatch(postURL); subMatch != nil {
		subreddit = subMatch[1]
	}

	return subreddit, id, nil
}

// CleanUsername strips the optional u/ prefix callers tend to include
func CleanUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "/u/")
	username = strings.TrimPrefix(username, "u/")
	return username
}

// CleanSubreddit strips the optional r/ prefix callers tend to include
func CleanSubreddit(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/r/")
	name = strings.TrimPrefix(name, "r/")
	return name
}
