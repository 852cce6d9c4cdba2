// internal/poller/poller.go
package poller

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/karlseguin/ccache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/state"
)

// Fetcher abstracts the long-poll API.
// It returns updates with ID > offset, or an error; it never panics on
// network failure.
type Fetcher interface {
	FetchUpdates(ctx context.Context, offset int64) ([]Update, error)
}

// Handler receives normalized command text from the authorized sender.
type Handler interface {
	Dispatch(ctx context.Context, text string, senderID int64) bool
}

// DefaultRejectLogWindow bounds how often one stranger shows up in the log.
const DefaultRejectLogWindow = 10 * time.Minute

// Config is the runtime config the poller needs.
type Config struct {
	PrincipalID     int64
	RejectLogWindow time.Duration

	Log     logging.Logger
	Metrics *metrics.Metrics
}

// Poller pulls updates strictly newer than the persisted offset and feeds
// authorized ones to the Handler.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	handler Handler
	state   *state.State

	// senders already logged as rejected, expiring after RejectLogWindow
	rejected *ccache.Cache
}

// New creates a poller. The state must already be loaded.
func New(cfg Config, fetcher Fetcher, handler Handler, st *state.State) (*Poller, error) {
	if cfg.PrincipalID == 0 {
		return nil, errors.New("poller: principal id required")
	}
	if fetcher == nil || handler == nil || st == nil {
		return nil, errors.New("poller: fetcher, handler and state required")
	}
	if cfg.RejectLogWindow <= 0 {
		cfg.RejectLogWindow = DefaultRejectLogWindow
	}
	if cfg.Log == nil {
		cfg.Log = logging.New("poller")
	}

	return &Poller{
		cfg:      cfg,
		fetcher:  fetcher,
		handler:  handler,
		state:    st,
		rejected: ccache.New(ccache.Configure().MaxSize(256).ItemsToPrune(32)),
	}, nil
}

// Close stops the rejection cache's background worker.
func (p *Poller) Close() {
	p.rejected.Stop()
}

// PollOnce performs exactly one fetch-and-process cycle.
// A failed fetch changes nothing and is retried on the next natural tick.
func (p *Poller) PollOnce(ctx context.Context) Result {
	res := Result{At: time.Now()}
	log := p.cfg.Log

	updates, err := p.fetcher.FetchUpdates(ctx, p.state.Offset())
	if err != nil {
		res.Err = err
		if errors.Is(err, ErrMalformedResponse) {
			p.cfg.Metrics.FetchError("malformed")
			log.WithError(err).Warn("discarding malformed update batch")
		} else {
			p.cfg.Metrics.FetchError("transient")
			log.WithError(err).Debug("fetch failed, retrying next tick")
		}
		return res
	}

	res.Fetched = len(updates)
	p.cfg.Metrics.UpdatesFetched(len(updates))

	sort.SliceStable(updates, func(i, j int) bool { return updates[i].ID < updates[j].ID })

	for _, u := range updates {
		if u.ID <= p.state.Offset() {
			res.Skipped++
			p.cfg.Metrics.UpdateSkipped()
			continue
		}

		// Persist before acting: a crash mid-command loses that command
		// rather than replaying it.
		if err := p.state.AdvanceOffset(u.ID); err != nil {
			log.WithError(err).WithField("update", u.ID).Error("offset not persisted")
		}
		p.cfg.Metrics.Offset(u.ID)

		if u.SenderID != p.cfg.PrincipalID {
			res.Rejected++
			p.cfg.Metrics.UpdateRejected()
			p.logRejected(u)
			continue
		}

		text := strings.ToLower(strings.TrimSpace(u.Text))
		if text == "" {
			continue
		}

		log.WithFields(logrus.Fields{
			"update": u.ID,
			"from":   u.SenderName,
		}).Debugf("dispatching %q", text)

		p.dispatch(ctx, u, text)
		res.Dispatched++
	}

	return res
}

// dispatch hands one command to the handler. A panic is logged and the
// update stays consumed.
func (p *Poller) dispatch(ctx context.Context, u Update, text string) {
	defer func() {
		if r := recover(); r != nil {
			p.cfg.Log.WithFields(logrus.Fields{
				"update": u.ID,
				"panic":  r,
			}).Error("command handler panicked")
		}
	}()

	p.handler.Dispatch(ctx, text, u.SenderID)
}

func (p *Poller) logRejected(u Update) {
	key := strconv.FormatInt(u.SenderID, 10)
	if item := p.rejected.Get(key); item != nil && !item.Expired() {
		return
	}
	p.rejected.Set(key, u.SenderName, p.cfg.RejectLogWindow)

	p.cfg.Log.WithFields(logrus.Fields{
		"sender": u.SenderID,
		"name":   u.SenderName,
	}).Info("ignoring update from unauthorized sender")
}
