package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brettboylen/reddit-lookup/api"
	"github.com/brettboylen/reddit-lookup/models"
	"github.com/brettboylen/reddit-lookup/utils"
)

// lookupService is what the handlers need from the lookup layer
type lookupService interface {
	GetUserStats(ctx context.Context, creds models.Credentials, username string) (*models.UserStats, error)
	GetPostStats(ctx context.Context, creds models.Credentials, postURL string) (*models.PostStats, error)
	GetSubredditInfo(ctx context.Context, creds models.Credentials, name string) (*models.SubredditInfo, error)
}

// usageReader is what the usage endpoint needs from the journal
type usageReader interface {
	GetUsageStats() (*models.UsageStats, error)
}

// newEcho builds the HTTP server: middleware, routes and error translation
func newEcho(config *utils.Config, service lookupService, usage usageReader, log *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	requestsPerSecond := float64(config.Server.MaxRequestsPerMinute) / 60.0

	rateLimit := rate.Limit(requestsPerSecond * 0.95) // use 95% of the rate limit to be safe

	rateLimiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rateLimit,
				Burst:     1, // no burst capability
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:  "rate_limited",
				Detail: "Rate limit exceeded, please try again later",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:  "rate_limited",
				Detail: "Rate limit exceeded, please try again later",
			})
		},
	}
	e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig))

	e.GET("/", handleRoot(config))

	// health check endpoint; useful for k8s liveliness probes but not strictly required in this case
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "reddit-lookup",
		})
	})

	// the lookup endpoints require the service API key, presented as the
	// username of an HTTP Basic header (the password is ignored)
	protected := e.Group("", middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: "reddit-lookup",
		Validator: func(username, password string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(username), []byte(config.Auth.APIKey)) == 1, nil
		},
	}))

	protected.POST("/get-user", handleGetUser(service))
	protected.POST("/get-post", handleGetPost(service))
	protected.POST("/get-subreddit", handleGetSubreddit(service))
	protected.GET("/api/usage", handleUsage(usage, log))

	return e
}

// handleRoot serves API information for unauthenticated discovery
func handleRoot(config *utils.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": config.App.Name,
			"version": config.App.Version,
			"authentication": map[string]string{
				"type":   "HTTP Basic",
				"header": "Authorization: Basic {base64(api_key:)}",
				"note":   "API key goes in username field, password can be empty",
			},
			"endpoints": map[string]string{
				"get_user":      "/get-user",
				"get_post":      "/get-post",
				"get_subreddit": "/get-subreddit",
				"usage":         "/api/usage",
			},
		})
	}
}

func handleGetUser(service lookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.UserRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c)
		}

		stats, err := service.GetUserStats(c.Request().Context(), req.Credentials, req.Username)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, stats)
	}
}

func handleGetPost(service lookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.PostRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c)
		}

		stats, err := service.GetPostStats(c.Request().Context(), req.Credentials, req.PostURL)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, stats)
	}
}

func handleGetSubreddit(service lookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.SubredditRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c)
		}

		info, err := service.GetSubredditInfo(c.Request().Context(), req.Credentials, req.SubredditName)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, info)
	}
}

func handleUsage(usage usageReader, log *logrus.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := usage.GetUsageStats()
		if err != nil {
			log.WithError(err).Error("Failed to read usage journal")
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:  "internal_error",
				Detail: "failed to read usage statistics",
			})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:  "validation_error",
		Detail: "invalid request format or missing required fields",
	})
}

// writeError is the single point where the error taxonomy becomes HTTP.
// Unknown errors get a generic 500 body so internal detail never leaks.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, api.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:  "validation_error",
			Detail: err.Error(),
		})
	case errors.Is(err, api.ErrAuthentication):
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:  "authentication_error",
			Detail: err.Error(),
		})
	case errors.Is(err, api.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:  "not_found",
			Detail: err.Error(),
		})
	case errors.Is(err, api.ErrUpstream):
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:  "upstream_error",
			Detail: err.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:  "internal_error",
			Detail: "an unexpected error occurred",
		})
	}
}
