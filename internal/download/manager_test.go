package download

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SubmitWatchesUntilComplete(t *testing.T) {
	d := &fakeDaemon{
		addURI: func(string) (string, error) { return gid, nil },
		tellStatus: script(
			reply{st: active(gid, 50, 100, 10)},
			reply{st: active(gid, 100, 100, 10)},
			reply{st: complete(gid, 100)},
		),
	}
	m := &fakeMessenger{}
	mgr := NewManager(d, m, Config{PollInterval: time.Millisecond})

	got, err := mgr.Submit(context.Background(), 100, 3, "https://example.com/a.bin")
	require.NoError(t, err)
	assert.Equal(t, gid, got)

	mgr.Wait()

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Download added, GID : <code>"+gid+"</code>", sent[0].text)

	assert.Equal(t, 1, m.EditsContaining("Name :"))
	assert.Equal(t, 1, m.EditsContaining("Download completed."))
	_, ok := mgr.Tracker.Lookup(gid)
	assert.False(t, ok)
	assert.Zero(t, mgr.Watching())
}

func TestManager_SubmitDaemonError(t *testing.T) {
	d := &fakeDaemon{addURI: func(string) (string, error) { return "", errTransient }}
	m := &fakeMessenger{}
	mgr := NewManager(d, m, Config{})

	_, err := mgr.Submit(context.Background(), 1, 1, "https://example.com")

	assert.True(t, errors.Is(err, errTransient))
	assert.Empty(t, m.Sent())
	assert.Zero(t, mgr.Tracker.Len())
}

func TestManager_SubmitSendFailureWithdrawsJob(t *testing.T) {
	d := &fakeDaemon{addURI: func(string) (string, error) { return gid, nil }}
	m := &fakeMessenger{sendErr: errTransient}
	mgr := NewManager(d, m, Config{})

	got, err := mgr.Submit(context.Background(), 1, 1, "https://example.com/a.bin")

	assert.True(t, errors.Is(err, errTransient))
	assert.Equal(t, gid, got)
	assert.Equal(t, []string{"addUri", "remove", "removeDownloadResult"}, d.Calls())
	assert.Zero(t, mgr.Tracker.Len())
	assert.Zero(t, mgr.Watching())
}

func TestManager_SubmitDuplicateDeletesStrayMessage(t *testing.T) {
	d := &fakeDaemon{addURI: func(string) (string, error) { return gid, nil }}
	m := &fakeMessenger{}
	mgr := NewManager(d, m, Config{})
	first := Location{ChatID: 1, MessageID: 99}
	require.True(t, mgr.Tracker.Register(gid, first))

	_, err := mgr.Submit(context.Background(), 1, 1, "https://example.com/a.bin")

	assert.True(t, errors.Is(err, ErrAlreadyTracked))
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []Location{sent[0].loc}, m.Deletes())
	loc, ok := mgr.Tracker.Lookup(gid)
	require.True(t, ok)
	assert.Equal(t, first, loc)
	assert.Zero(t, d.Count("remove"))
	assert.Zero(t, mgr.Watching())
}

func TestManager_CancelDuringWatch(t *testing.T) {
	d := &fakeDaemon{
		addURI:     func(string) (string, error) { return gid, nil },
		tellStatus: script(reply{st: active(gid, 1, 100, 1)}),
	}
	m := &fakeMessenger{}
	mgr := NewManager(d, m, Config{PollInterval: time.Millisecond})

	_, err := mgr.Submit(context.Background(), 100, 3, "https://example.com/a.bin")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.EditsContaining("Name :") == 1 }, time.Second, time.Millisecond)

	_, err = mgr.Cancel(context.Background(), gid)
	require.NoError(t, err)
	mgr.Wait()

	var terminal []string
	for _, e := range m.Edits() {
		if !strings.HasPrefix(e.text, "Name :") {
			terminal = append(terminal, e.text)
		}
	}
	require.Len(t, terminal, 1, "exactly one terminal edit")
	assert.Contains(t, terminal[0], "Cancelled download")
}

func TestManager_ShutdownStopsLoopsOnly(t *testing.T) {
	d := &fakeDaemon{
		addURI:     func(string) (string, error) { return gid, nil },
		tellStatus: script(reply{st: active(gid, 1, 100, 1)}),
		tellActive: activeList,
	}
	m := &fakeMessenger{}
	mgr := NewManager(d, m, Config{PollInterval: time.Millisecond, StatusInterval: time.Millisecond})

	_, err := mgr.Submit(context.Background(), 100, 3, "https://example.com/a.bin")
	require.NoError(t, err)
	require.NoError(t, mgr.ShowStatus(context.Background(), 9, 100, 4))

	mgr.Shutdown()

	assert.Zero(t, mgr.Watching())
	assert.False(t, mgr.Board.Active(9))
	_, ok := mgr.Tracker.Lookup(gid)
	assert.True(t, ok)
	assert.Zero(t, d.Count("remove"))
}
