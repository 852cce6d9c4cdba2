// internal/telegram/client.go
package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tamzrod/lanwatch/internal/poller"
)

// maxBody bounds how much of a reply is read.
const maxBody = 4 << 20

// Config is the runtime config the client needs.
type Config struct {
	APIURL          string // e.g. https://api.telegram.org
	Token           string
	ChatID          int64
	LongPollTimeout time.Duration
	Limit           int
	RequestTimeout  time.Duration

	HTTPClient *http.Client // nil = new client with RequestTimeout
}

// Client talks to the Bot API over HTTPS. It implements poller.Fetcher and
// report.Sender.
type Client struct {
	cfg  Config
	http *http.Client
	base string
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: token required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram: chat id required")
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, errors.Wrap(err, "telegram: api url")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{
		cfg:  cfg,
		http: hc,
		base: strings.TrimRight(cfg.APIURL, "/") + "/bot" + cfg.Token + "/",
	}, nil
}

// FetchUpdates returns updates with ID greater than offset.
func (c *Client) FetchUpdates(ctx context.Context, offset int64) ([]poller.Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset+1, 10))
	if c.cfg.Limit > 0 {
		q.Set("limit", strconv.Itoa(c.cfg.Limit))
	}
	q.Set("timeout", strconv.Itoa(int(c.cfg.LongPollTimeout/time.Second)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"getUpdates?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "telegram: build getUpdates")
	}

	var resp apiResponse[[]update]
	if err := c.do(req, &resp); err != nil {
		return nil, errors.WithMessage(err, "getUpdates")
	}

	out := make([]poller.Update, 0, len(resp.Result))
	for _, u := range resp.Result {
		pu := poller.Update{ID: u.UpdateID}
		if m := u.Message; m != nil {
			pu.Text = m.Text
			if m.From != nil {
				pu.SenderID = m.From.ID
				pu.SenderName = m.From.Username
				if pu.SenderName == "" {
					pu.SenderName = m.From.FirstName
				}
			}
		}
		out = append(out, pu)
	}
	return out, nil
}

// SendMessage posts text to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(c.cfg.ChatID, 10))
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"sendMessage", strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "telegram: build sendMessage")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp apiResponse[json.RawMessage]
	return errors.WithMessage(c.do(req, &resp), "sendMessage")
}

// envelope is implemented by every apiResponse instantiation.
type envelope interface {
	status() (ok bool, description string)
}

func (r *apiResponse[T]) status() (bool, string) { return r.OK, r.Description }

// do executes req and decodes the reply into out.
func (c *Client) do(req *http.Request, out envelope) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(redact(err), "telegram: request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return errors.Wrap(err, "telegram: read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiResponse[json.RawMessage]
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Description != "" {
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        apiErr.ErrorCode,
				Description: apiErr.Description,
			}
		}
		return errors.Errorf("telegram: http %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(poller.ErrMalformedResponse, "telegram: decode: %v", err)
	}
	if ok, desc := out.status(); !ok {
		return errors.Wrapf(poller.ErrMalformedResponse, "telegram: ok=false: %s", desc)
	}
	return nil
}

// redact drops the request URL, which carries the bot token, from transport
// errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &url.Error{Op: uerr.Op, URL: "<redacted>", Err: uerr.Err}
	}
	return err
}
