package poller

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tamzrod/lanwatch/internal/logging/testoutput"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/state"
)

const principal int64 = 1001

// ---- fakes ----

// fakeFetcher replays scripted batches and records the offsets it was asked for.
// It does not filter by offset, so tests can check the poller's own guard.
type fakeFetcher struct {
	batches [][]Update
	errs    []error
	offsets []int64
}

func (f *fakeFetcher) FetchUpdates(_ context.Context, offset int64) ([]Update, error) {
	f.offsets = append(f.offsets, offset)
	i := len(f.offsets) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	return nil, nil
}

type dispatched struct {
	text     string
	sender   int64
	offsetAt int64 // persisted offset when the handler ran
}

type fakeHandler struct {
	store *state.MemStore
	calls []dispatched
}

func (h *fakeHandler) Dispatch(_ context.Context, text string, senderID int64) bool {
	h.calls = append(h.calls, dispatched{
		text:     text,
		sender:   senderID,
		offsetAt: h.store.Int(state.KeyLastUpdate, -1),
	})
	return true
}

func newTestPoller(t *testing.T, f *fakeFetcher) (*Poller, *fakeHandler, *state.State, *state.MemStore) {
	t.Helper()
	store := state.NewMemStore()
	st := state.Load(store, 0)
	h := &fakeHandler{store: store}

	p, err := New(Config{
		PrincipalID: principal,
		Log:         testoutput.Logger(t, "poller"),
		Metrics:     metrics.New(),
	}, f, h, st)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	return p, h, st, store
}

func upd(id int64, sender int64, text string) Update {
	return Update{ID: id, SenderID: sender, SenderName: "tester", Text: text}
}

// ---- tests ----

func TestNew_RequiresPrincipal(t *testing.T) {
	_, err := New(Config{}, &fakeFetcher{}, &fakeHandler{}, state.Load(state.NewMemStore(), 0))
	assert.Error(t, err)
}

func TestPollOnce_AdvancesOffsetToMaxID(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(3, principal, "status"), upd(4, principal, "help")},
		{upd(9, principal, "scan")},
	}}
	p, h, st, store := newTestPoller(t, f)

	r1 := p.PollOnce(context.Background())
	r2 := p.PollOnce(context.Background())
	p.PollOnce(context.Background())

	require.NoError(t, r1.Err)
	require.NoError(t, r2.Err)
	assert.Equal(t, int64(9), st.Offset())
	assert.Equal(t, int64(9), store.Int(state.KeyLastUpdate, 0))
	assert.Equal(t, []int64{0, 4, 9}, f.offsets, "each fetch asks for ids above the last processed one")
	assert.Len(t, h.calls, 3)
}

func TestPollOnce_RefetchedIDsAreNotRedispatched(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(5, principal, "status")},
		{upd(4, principal, "help"), upd(5, principal, "status"), upd(6, principal, "scan")},
	}}
	p, h, st, _ := newTestPoller(t, f)

	p.PollOnce(context.Background())
	res := p.PollOnce(context.Background())

	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Dispatched)
	assert.Equal(t, int64(6), st.Offset())
	require.Len(t, h.calls, 2)
	assert.Equal(t, "status", h.calls[0].text)
	assert.Equal(t, "scan", h.calls[1].text)
}

func TestPollOnce_DuplicateInBatchDispatchedOnce(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(7, principal, "status"), upd(7, principal, "status")},
	}}
	p, h, _, _ := newTestPoller(t, f)

	res := p.PollOnce(context.Background())

	assert.Equal(t, 1, res.Dispatched)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, h.calls, 1)
}

func TestPollOnce_ProcessesInAscendingOrder(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(12, principal, "c"), upd(10, principal, "a"), upd(11, principal, "b")},
	}}
	p, h, _, _ := newTestPoller(t, f)

	p.PollOnce(context.Background())

	require.Len(t, h.calls, 3)
	assert.Equal(t, "a", h.calls[0].text)
	assert.Equal(t, "b", h.calls[1].text)
	assert.Equal(t, "c", h.calls[2].text)
}

func TestPollOnce_OffsetPersistedBeforeDispatch(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(20, principal, "status"), upd(21, principal, "help")},
	}}
	p, h, _, _ := newTestPoller(t, f)

	p.PollOnce(context.Background())

	require.Len(t, h.calls, 2)
	assert.Equal(t, int64(20), h.calls[0].offsetAt)
	assert.Equal(t, int64(21), h.calls[1].offsetAt)
}

func TestPollOnce_UnauthorizedSenderDiscarded(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(30, 666, "scan"), upd(31, 666, "stoptelemetry"), upd(32, principal, "status")},
	}}
	p, h, st, _ := newTestPoller(t, f)

	res := p.PollOnce(context.Background())

	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, int64(32), st.Offset(), "rejected updates still consume their id")
	require.Len(t, h.calls, 1)
	assert.Equal(t, principal, h.calls[0].sender)
}

func TestPollOnce_NormalizesText(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(40, principal, "  /STATUS \n"), upd(41, principal, "   ")},
	}}
	p, h, st, _ := newTestPoller(t, f)

	p.PollOnce(context.Background())

	require.Len(t, h.calls, 1)
	assert.Equal(t, "/status", h.calls[0].text)
	assert.Equal(t, int64(41), st.Offset())
}

func TestPollOnce_FetchErrorLeavesOffset(t *testing.T) {
	f := &fakeFetcher{
		batches: [][]Update{{upd(50, principal, "status")}},
		errs:    []error{nil, errors.Wrap(ErrMalformedResponse, "telegram: decode"), errors.New("dial tcp: timeout")},
	}
	p, h, st, _ := newTestPoller(t, f)

	p.PollOnce(context.Background())
	malformed := p.PollOnce(context.Background())
	transient := p.PollOnce(context.Background())

	assert.ErrorIs(t, malformed.Err, ErrMalformedResponse)
	assert.Error(t, transient.Err)
	assert.NotErrorIs(t, transient.Err, ErrMalformedResponse)
	assert.Equal(t, int64(50), st.Offset())
	assert.Len(t, h.calls, 1)
	assert.Equal(t, []int64{0, 50, 50}, f.offsets)
}

func TestPollOnce_PersistFailureDoesNotReplay(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(60, principal, "status")},
		{upd(60, principal, "status")},
	}}
	p, h, st, store := newTestPoller(t, f)
	store.FailWith = errors.New("read-only filesystem")

	p.PollOnce(context.Background())
	p.PollOnce(context.Background())

	assert.Equal(t, int64(60), st.Offset())
	assert.Len(t, h.calls, 1)
}

type panickingHandler struct{ calls int }

func (h *panickingHandler) Dispatch(context.Context, string, int64) bool {
	h.calls++
	panic("handler bug")
}

func TestPollOnce_HandlerPanicDoesNotEscape(t *testing.T) {
	f := &fakeFetcher{batches: [][]Update{
		{upd(70, principal, "status"), upd(71, principal, "help")},
	}}
	st := state.Load(state.NewMemStore(), 0)
	h := &panickingHandler{}

	p, err := New(Config{PrincipalID: principal, Log: testoutput.Logger(t, "poller")}, f, h, st)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	var res Result
	require.NotPanics(t, func() { res = p.PollOnce(context.Background()) })

	assert.Equal(t, 2, h.calls, "later updates in the batch still run")
	assert.Equal(t, 2, res.Dispatched)
	assert.Equal(t, int64(71), st.Offset())
}
