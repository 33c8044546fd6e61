package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestClient builds a client pointed at a fake Reddit served by httptest
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient("test-id", "test-secret", "reddit-lookup-test/1.0", testLogger())
	require.NoError(t, err)

	client.authURL = srv.URL + "/api/v1/access_token"
	client.baseURL = srv.URL

	return client, srv
}

// tokenHandler answers the client_credentials grant with a fixed token
func tokenHandler(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "test-token", "expires_in": 3600, "token_type": "bearer"}`))
	})
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		userAgent    string
		wantErr      bool
	}{
		{
			name:         "All fields present",
			clientID:     "id",
			clientSecret: "secret",
			userAgent:    "agent/1.0",
		},
		{
			name:         "Empty client_id",
			clientSecret: "secret",
			userAgent:    "agent/1.0",
			wantErr:      true,
		},
		{
			name:      "Empty client_secret",
			clientID:  "id",
			userAgent: "agent/1.0",
			wantErr:   true,
		},
		{
			name:         "Empty user_agent",
			clientID:     "id",
			clientSecret: "secret",
			wantErr:      true,
		},
		{
			name:         "Whitespace-only client_id",
			clientID:     "   ",
			clientSecret: "secret",
			userAgent:    "agent/1.0",
			wantErr:      true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(tc.clientID, tc.clientSecret, tc.userAgent, testLogger())
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		wantSubreddit string
		wantID        string
		wantErr       bool
	}{
		{
			name:          "Canonical post URL",
			url:           "https://www.reddit.com/r/agency/comments/1mq1mn3/title/",
			wantSubreddit: "agency",
			wantID:        "1mq1mn3",
		},
		{
			name:          "No trailing slug",
			url:           "https://www.reddit.com/r/golang/comments/abc123",
			wantSubreddit: "golang",
			wantID:        "abc123",
		},
		{
			name:   "No subreddit in URL",
			url:    "https://www.reddit.com/comments/abc123/title/",
			wantID: "abc123",
		},
		{
			name:    "Profile URL is not a post",
			url:     "https://www.reddit.com/user/spez/",
			wantErr: true,
		},
		{
			name:    "Subreddit URL is not a post",
			url:     "https://www.reddit.com/r/golang/",
			wantErr: true,
		},
		{
			name:    "Not a URL at all",
			url:     "definitely not a post",
			wantErr: true,
		},
		{
			name:    "Empty string",
			url:     "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subreddit, id, err := ExtractPostID(tc.url)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.wantSubreddit, subreddit)
		})
	}
}

func TestCleanUsername(t *testing.T) {
	assert.Equal(t, "spez", CleanUsername("spez"))
	assert.Equal(t, "spez", CleanUsername("u/spez"))
	assert.Equal(t, "spez", CleanUsername("/u/spez"))
	assert.Equal(t, "spez", CleanUsername("  spez  "))
}

func TestCleanSubreddit(t *testing.T) {
	assert.Equal(t, "golang", CleanSubreddit("golang"))
	assert.Equal(t, "golang", CleanSubreddit("r/golang"))
	assert.Equal(t, "golang", CleanSubreddit("/r/golang"))
	assert.Equal(t, "golang", CleanSubreddit(" golang "))
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)

	// auth is lazy, so the rejection surfaces on the first lookup
	_, err := client.GetUserAbout(context.Background(), "spez")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticateEmptyToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "invalid_grant"}`))
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetUserAbout(context.Background(), "spez")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticateTokenEndpointOutage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetUserAbout(context.Background(), "spez")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGetUserAbout(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/user/spez/about", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "reddit-lookup-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "t2", "data": {"name": "spez", "link_karma": 1234}}`))
	})

	client, _ := newTestClient(t, mux)

	data, err := client.GetUserAbout(context.Background(), "spez")
	require.NoError(t, err)
	assert.Equal(t, "spez", data["name"])
	assert.Equal(t, float64(1234), data["link_karma"])
}

func TestGetUserAboutNotFound(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/user/doesnotexist/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetUserAbout(context.Background(), "doesnotexist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSubredditAbout(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/r/golang/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "t5", "data": {"display_name": "golang", "subscribers": 200000}}`))
	})

	client, _ := newTestClient(t, mux)

	data, err := client.GetSubredditAbout(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "golang", data["display_name"])
}

func TestGetSubredditAboutPrivate(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/r/secretclub/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetSubredditAbout(context.Background(), "secretclub")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSubredditAboutSearchListing(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/r/doesnotexist12345/about", func(w http.ResponseWriter, r *http.Request) {
		// unknown subreddits sometimes answer 200 with a search listing
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "Listing", "data": {"children": []}}`))
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetSubredditAbout(context.Background(), "doesnotexist12345")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPostByID(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/r/agency/comments/1mq1mn3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "1mq1mn3", "title": "test post", "subreddit": "agency", "score": 42}}]}},
			{"kind": "Listing", "data": {"children": []}}
		]`))
	})

	client, _ := newTestClient(t, mux)

	data, err := client.GetPostByID(context.Background(), "agency", "1mq1mn3")
	require.NoError(t, err)
	assert.Equal(t, "test post", data["title"])
	assert.Equal(t, "agency", data["subreddit"])
}

func TestGetPostByIDEmptyListing(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/comments/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"kind": "Listing", "data": {"children": []}}]`))
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetPostByID(context.Background(), "", "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRateLimitedRequest(t *testing.T) {
	mux := http.NewServeMux()
	tokenHandler(mux)
	mux.HandleFunc("/user/spez/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetUserAbout(context.Background(), "spez")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestTokenReusedAcrossLookups(t *testing.T) {
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "test-token", "expires_in": 3600, "token_type": "bearer"}`))
	})
	mux.HandleFunc("/user/spez/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "t2", "data": {"name": "spez"}}`))
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetUserAbout(context.Background(), "spez")
	require.NoError(t, err)
	_, err = client.GetUserAbout(context.Background(), "spez")
	require.NoError(t, err)

	assert.Equal(t, 1, tokenRequests)
}
