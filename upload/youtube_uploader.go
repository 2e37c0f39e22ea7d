package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"codecast-bot/config"
)

// ErrNotAuthorized is returned when no usable credential exists. It is a
// guarded precondition, not an upload failure, and callers are expected to
// tell the user to run the authorization flow.
var ErrNotAuthorized = errors.New("youtube authorization missing")

// Manual desktop-app flow: the user authorizes in a browser and pastes the
// resulting localhost redirect URL back into the chat.
const redirectURL = "http://localhost"

// Client handles YouTube upload via Data API v3 with a durable local token.
type Client struct {
	cfg       *config.Config
	oauthConf *oauth2.Config
	token     *oauth2.Token
}

// NewClient builds the client from YOUTUBE_CLIENT_ID / YOUTUBE_CLIENT_SECRET
// and loads any previously stored token. Missing credentials or token just
// mean the client reports itself not authorized.
func NewClient(cfg *config.Config) *Client {
	c := &Client{
		cfg: cfg,
		oauthConf: &oauth2.Config{
			ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
			ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{youtube.YoutubeUploadScope},
		},
	}

	tok, err := loadToken(cfg.Upload.TokenFile)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("[upload] Warning: could not load stored token: %v", err)
	}
	c.token = tok
	return c
}

// IsAuthorized reports whether a usable credential exists: either a live
// access token, or an expired one carrying a refresh token that the oauth2
// TokenSource will refresh transparently before use.
func (c *Client) IsAuthorized() bool {
	if c.token == nil {
		return false
	}
	if c.token.Valid() {
		return true
	}
	return c.token.RefreshToken != "" && c.oauthConf.ClientID != ""
}

// InitiateAuthorization returns the URL the user must visit to grant access.
func (c *Client) InitiateAuthorization() (string, error) {
	if c.oauthConf.ClientID == "" || c.oauthConf.ClientSecret == "" {
		return "", fmt.Errorf("YOUTUBE_CLIENT_ID or YOUTUBE_CLIENT_SECRET not set")
	}
	return c.oauthConf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// CompleteAuthorization finishes the manual flow from the redirect URL the
// user pasted back, exchanges the code and persists the token.
func (c *Client) CompleteAuthorization(ctx context.Context, pastedURL string) error {
	u, err := url.Parse(strings.TrimSpace(pastedURL))
	if err != nil {
		return fmt.Errorf("parse callback url: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return fmt.Errorf("callback url carries no authorization code")
	}

	tok, err := c.oauthConf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	c.token = tok
	if err := saveToken(c.cfg.Upload.TokenFile, tok); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	log.Printf("[upload] Authorization stored at %s", c.cfg.Upload.TokenFile)
	return nil
}

// Upload sends one video to YouTube and returns the new video id.
func (c *Client) Upload(ctx context.Context, file, title, description string, tags []string, privacy string) (string, error) {
	if !c.IsAuthorized() {
		return "", ErrNotAuthorized
	}

	source := c.oauthConf.TokenSource(ctx, c.token)
	svc, err := youtube.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
			Tags:        tags,
			CategoryId:  c.cfg.Upload.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacy,
		},
	}

	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	log.Printf("[upload] Uploading %q", title)
	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}

	// The TokenSource may have refreshed the token mid-call; keep the
	// stored copy current so the next process start stays authorized.
	if tok, err := source.Token(); err == nil {
		c.token = tok
		if err := saveToken(c.cfg.Upload.TokenFile, tok); err != nil {
			log.Printf("[upload] Warning: could not persist refreshed token: %v", err)
		}
	}

	log.Printf("[upload] ✅ Uploaded, video id: %s", uploaded.Id)
	return uploaded.Id, nil
}

// WatchURL builds the public URL for an uploaded video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
