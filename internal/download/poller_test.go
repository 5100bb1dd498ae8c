package download

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdmirror/pdmirror/internal/aria2"
)

const gid = "2089b05ecca3d829"

var statusLoc = Location{ChatID: 100, MessageID: 7}

func newTestPoller(d *fakeDaemon, m *fakeMessenger) (*Poller, *Tracker) {
	tr := NewTracker()
	tr.Register(gid, statusLoc)
	p := NewPoller(d, m, tr)
	p.PollInterval = time.Millisecond
	return p, tr
}

func watch(t *testing.T, p *Poller) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Watch(ctx, gid)
}

func TestWatch_EndToEnd(t *testing.T) {
	d := &fakeDaemon{tellStatus: script(
		reply{st: active(gid, 50, 100, 10)},
		reply{st: active(gid, 100, 100, 10)},
		reply{st: complete(gid, 100)},
	)}
	m := &fakeMessenger{}
	p, tr := newTestPoller(d, m)

	require.Equal(t, OutcomeCompleted, watch(t, p))

	edits := m.Edits()
	require.Len(t, edits, 2, "one active render and one completed render")
	assert.Contains(t, edits[0].text, "Downloaded : 50.00 B of 100.00 B")
	assert.Contains(t, edits[1].text, "Download completed.")
	assert.Equal(t, statusLoc, edits[1].loc)

	_, ok := tr.Lookup(gid)
	assert.False(t, ok)
	assert.Equal(t, 1, d.Count("removeDownloadResult"))
}

func TestWatch_RenderDedup(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &fakeDaemon{tellStatus: script(
		reply{st: active(gid, 10, 100, 5)},
		reply{st: active(gid, 10, 100, 5)},
		reply{err: notFound(gid)},
	)}
	m := &fakeMessenger{}
	p, _ := newTestPoller(d, m)
	p.RenderInterval = 0
	p.Now = func() time.Time { return fixed }

	require.Equal(t, OutcomeVanished, watch(t, p))
	assert.Equal(t, 1, m.EditsContaining("Name :"), "identical text must render once")
}

func TestWatch_RendersAgainAfterInterval(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &fakeDaemon{tellStatus: script(
		reply{st: active(gid, 10, 100, 5)},
		reply{st: active(gid, 20, 100, 5)},
		reply{st: active(gid, 30, 100, 5)},
		reply{st: complete(gid, 100)},
	)}
	m := &fakeMessenger{}
	p, _ := newTestPoller(d, m)
	calls := 0
	p.Now = func() time.Time {
		calls++
		return now.Add(time.Duration(calls) * 11 * time.Second)
	}

	require.Equal(t, OutcomeCompleted, watch(t, p))
	assert.Equal(t, 3, m.EditsContaining("Name :"))
}

func TestWatch_NotFoundStops(t *testing.T) {
	d := &fakeDaemon{tellStatus: script(reply{err: notFound(gid)})}
	m := &fakeMessenger{}
	p, tr := newTestPoller(d, m)

	require.Equal(t, OutcomeVanished, watch(t, p))

	assert.Equal(t, 1, d.Count("tellStatus"), "loop must stop after not found")
	require.Len(t, m.Edits(), 1)
	assert.Contains(t, m.Edits()[0].text, "not found (cancelled or removed)")
	_, ok := tr.Lookup(gid)
	assert.False(t, ok)
}

func TestWatch_RemovedStatusIsVanished(t *testing.T) {
	st := active(gid, 1, 2, 0)
	st.Status = "removed"
	d := &fakeDaemon{tellStatus: script(reply{st: st})}
	m := &fakeMessenger{}
	p, _ := newTestPoller(d, m)

	assert.Equal(t, OutcomeVanished, watch(t, p))
	assert.Equal(t, 1, m.EditsContaining("not found"))
}

func TestWatch_CancelWinsRace(t *testing.T) {
	m := &fakeMessenger{}
	d := &fakeDaemon{}
	p, tr := newTestPoller(d, m)
	d.tellStatus = func(string) (*aria2.Status, error) {
		// The canceller deregisters while this poll is in flight.
		tr.Deregister(gid)
		return nil, notFound(gid)
	}

	assert.Equal(t, OutcomeVanished, watch(t, p))
	assert.Empty(t, m.Edits(), "the loser of the deregister race must stay silent")
}

func TestWatch_DetachedWhenUntracked(t *testing.T) {
	d := &fakeDaemon{}
	m := &fakeMessenger{}
	p := NewPoller(d, m, NewTracker())
	p.PollInterval = time.Millisecond

	assert.Equal(t, OutcomeDetached, watch(t, p))
	assert.Empty(t, d.Calls())
	assert.Empty(t, m.Edits())
}

func TestWatch_TransientErrorContinues(t *testing.T) {
	d := &fakeDaemon{tellStatus: script(
		reply{err: errTransient},
		reply{err: errTransient},
		reply{st: complete(gid, 10)},
	)}
	m := &fakeMessenger{}
	p, _ := newTestPoller(d, m)

	assert.Equal(t, OutcomeCompleted, watch(t, p))
	assert.Equal(t, 3, d.Count("tellStatus"))
	assert.Equal(t, 1, m.EditsContaining("Download completed."))
}

func TestWatch_ErrorStatus(t *testing.T) {
	st := active(gid, 1, 2, 0)
	st.Status = "error"
	st.ErrorMessage = "Resource not found"
	d := &fakeDaemon{tellStatus: script(reply{st: st})}
	m := &fakeMessenger{}
	p, tr := newTestPoller(d, m)

	assert.Equal(t, OutcomeFailed, watch(t, p))
	assert.Equal(t, 1, m.EditsContaining("failed: Resource not found"))
	assert.Equal(t, 1, d.Count("removeDownloadResult"))
	_, ok := tr.Lookup(gid)
	assert.False(t, ok)
}

func TestWatch_ContextCancelKeepsTracking(t *testing.T) {
	d := &fakeDaemon{tellStatus: script(reply{st: active(gid, 1, 100, 1)})}
	m := &fakeMessenger{}
	p, tr := newTestPoller(d, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() { done <- p.Watch(ctx, gid) }()

	require.Eventually(t, func() bool { return d.Count("tellStatus") > 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case out := <-done:
		assert.Equal(t, OutcomeStopped, out)
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
	_, ok := tr.Lookup(gid)
	assert.True(t, ok, "stopping the loop must not deregister the download")
}

func TestWatch_EditFailureIsNotFatal(t *testing.T) {
	d := &fakeDaemon{tellStatus: script(
		reply{st: active(gid, 1, 100, 1)},
		reply{st: complete(gid, 100)},
	)}
	m := &fakeMessenger{editErr: errTransient}
	p, _ := newTestPoller(d, m)

	assert.Equal(t, OutcomeCompleted, watch(t, p))
	assert.Len(t, m.Edits(), 2)
}
