// Package x talks to the X (Twitter) v2 API with OAuth 1.0a user context.
package x

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	twitter "github.com/g8rswimmer/go-twitter/v2"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
)

const (
	serviceLabel = "x"

	DefaultHost    = "https://api.twitter.com"
	DefaultTimeout = 20 * time.Second

	minMentionResults = 5
	maxMentionResults = 100
)

type Config struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
	Host         string
	Timeout      time.Duration
}

// api is the part of the go-twitter client the bot uses.
type api interface {
	AuthUserLookup(ctx context.Context, opts twitter.UserLookupOpts) (*twitter.UserLookupResponse, error)
	UserMentionTimeline(ctx context.Context, userID string, opts twitter.UserMentionTimelineOpts) (*twitter.UserMentionTimelineResponse, error)
	CreateTweet(ctx context.Context, tweet twitter.CreateTweetRequest) (*twitter.CreateTweetResponse, error)
	UserLikes(ctx context.Context, userID, tweetID string) (*twitter.UserLikesResponse, error)
}

// Client implements domain.SocialClient.
type Client struct {
	api     api
	metrics *metrics.UpstreamMetrics
}

// oauth1 signs requests in the transport, so the go-twitter authorizer adds nothing.
type signedTransport struct{}

func (signedTransport) Add(*http.Request) {}

// NewClient builds an OAuth1-signed client. m may be nil.
func NewClient(cfg Config, m *metrics.UpstreamMetrics) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" || cfg.AccessToken == "" || cfg.AccessSecret == "" {
		return nil, errors.New("x API key, secret, access token and access secret are required")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := oauth1.NewConfig(cfg.APIKey, cfg.APISecret).
		Client(oauth1.NoContext, oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret))
	httpClient.Timeout = cfg.Timeout

	return &Client{
		api: &twitter.Client{
			Authorizer: signedTransport{},
			Client:     httpClient,
			Host:       cfg.Host,
		},
		metrics: m,
	}, nil
}

func (c *Client) Me(ctx context.Context) (domain.Account, error) {
	start := time.Now()
	resp, err := c.api.AuthUserLookup(ctx, twitter.UserLookupOpts{})
	c.observe("me", start, err)
	if err != nil {
		return domain.Account{}, wrap("look up authenticated user", err)
	}
	if resp == nil || resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil {
		return domain.Account{}, apperrors.UpstreamError("look up authenticated user", domain.ErrAccountNotFound)
	}

	user := resp.Raw.Users[0]
	return domain.Account{ID: user.ID, Username: user.UserName}, nil
}

// Mentions returns the newest mentions first, as the API orders them.
func (c *Client) Mentions(ctx context.Context, accountID string, limit int) ([]domain.Mention, error) {
	opts := twitter.UserMentionTimelineOpts{
		TweetFields: []twitter.TweetField{twitter.TweetFieldAuthorID},
		MaxResults:  clampLimit(limit),
	}

	start := time.Now()
	resp, err := c.api.UserMentionTimeline(ctx, accountID, opts)
	c.observe("mentions", start, err)
	if err != nil {
		return nil, wrap("list mentions", err).WithField("account_id", accountID)
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}
	return toMentions(resp.Raw.Tweets), nil
}

func (c *Client) Post(ctx context.Context, text string) (string, error) {
	return c.createTweet(ctx, "post", twitter.CreateTweetRequest{Text: text})
}

func (c *Client) Reply(ctx context.Context, inReplyToID, text string) (string, error) {
	return c.createTweet(ctx, "reply", twitter.CreateTweetRequest{
		Text:  text,
		Reply: &twitter.CreateTweetReply{InReplyToTweetID: inReplyToID},
	})
}

func (c *Client) Like(ctx context.Context, accountID, postID string) error {
	start := time.Now()
	_, err := c.api.UserLikes(ctx, accountID, postID)
	c.observe("like", start, err)
	if err != nil {
		return wrap("like post", err).WithField("post_id", postID)
	}
	return nil
}

func (c *Client) createTweet(ctx context.Context, operation string, req twitter.CreateTweetRequest) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateTweet(ctx, req)
	c.observe(operation, start, err)
	if err != nil {
		e := wrap(operation, err)
		if req.Reply != nil {
			e.WithField("in_reply_to", req.Reply.InReplyToTweetID)
		}
		return "", e
	}
	if resp == nil || resp.Tweet == nil || resp.Tweet.ID == "" {
		return "", apperrors.UpstreamError(operation, errors.New("response carried no tweet id"))
	}
	return resp.Tweet.ID, nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.Observe(serviceLabel, operation, time.Since(start).Seconds(), err)
	}
}

func toMentions(tweets []*twitter.TweetObj) []domain.Mention {
	mentions := make([]domain.Mention, 0, len(tweets))
	for _, tweet := range tweets {
		if tweet == nil || tweet.ID == "" {
			continue
		}
		mentions = append(mentions, domain.Mention{ID: tweet.ID, AuthorID: tweet.AuthorID, Text: tweet.Text})
	}
	return mentions
}

func clampLimit(limit int) int {
	switch {
	case limit < minMentionResults:
		return minMentionResults
	case limit > maxMentionResults:
		return maxMentionResults
	default:
		return limit
	}
}

// StatusCode extracts the HTTP status of an X API error, or 0.
func StatusCode(err error) int {
	var resp *twitter.ErrorResponse
	if errors.As(err, &resp) && resp != nil {
		return resp.StatusCode
	}
	return 0
}

func wrap(operation string, err error) *apperrors.Error {
	e := apperrors.UpstreamError(fmt.Sprintf("x %s failed", operation), err)
	if code := StatusCode(err); code != 0 {
		e.WithField("status", code)
	}
	return e
}

var _ domain.SocialClient = (*Client)(nil)
