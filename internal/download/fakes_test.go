package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdmirror/pdmirror/internal/aria2"
)

var errTransient = errors.New("connection reset")

func notFound(gid string) error {
	return &aria2.RPCError{Code: 1, Message: fmt.Sprintf("GID %s is not found", gid)}
}

func active(gid string, done, total, speed int64) *aria2.Status {
	return &aria2.Status{
		GID:             gid,
		Status:          aria2.StatusActive,
		CompletedLength: done,
		TotalLength:     total,
		DownloadSpeed:   speed,
		Files:           []aria2.File{{Index: 1, Path: "/dl/" + gid + ".bin"}},
	}
}

func complete(gid string, total int64) *aria2.Status {
	st := active(gid, total, total, 0)
	st.Status = aria2.StatusComplete
	return st
}

type reply struct {
	st  *aria2.Status
	err error
}

// fakeDaemon records every call. Unset hooks return zero values.
type fakeDaemon struct {
	mu    sync.Mutex
	calls []string

	addURI       func(uri string) (string, error)
	tellStatus   func(gid string) (*aria2.Status, error)
	tellActive   func() ([]aria2.Status, error)
	remove       func(gid string) error
	removeResult func(gid string) error
	getFiles     func(gid string) ([]aria2.File, error)
}

func (d *fakeDaemon) record(name string) {
	d.mu.Lock()
	d.calls = append(d.calls, name)
	d.mu.Unlock()
}

func (d *fakeDaemon) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDaemon) Count(name string) int {
	n := 0
	for _, c := range d.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (d *fakeDaemon) AddURI(_ context.Context, uri string) (string, error) {
	d.record("addUri")
	if d.addURI == nil {
		return "", nil
	}
	return d.addURI(uri)
}

func (d *fakeDaemon) TellStatus(_ context.Context, gid string) (*aria2.Status, error) {
	d.record("tellStatus")
	if d.tellStatus == nil {
		return nil, notFound(gid)
	}
	return d.tellStatus(gid)
}

func (d *fakeDaemon) TellActive(context.Context) ([]aria2.Status, error) {
	d.record("tellActive")
	if d.tellActive == nil {
		return nil, nil
	}
	return d.tellActive()
}

func (d *fakeDaemon) Remove(_ context.Context, gid string) error {
	d.record("remove")
	if d.remove == nil {
		return nil
	}
	return d.remove(gid)
}

func (d *fakeDaemon) RemoveDownloadResult(_ context.Context, gid string) error {
	d.record("removeDownloadResult")
	if d.removeResult == nil {
		return nil
	}
	return d.removeResult(gid)
}

func (d *fakeDaemon) GetFiles(_ context.Context, gid string) ([]aria2.File, error) {
	d.record("getFiles")
	if d.getFiles == nil {
		return nil, nil
	}
	return d.getFiles(gid)
}

// script answers TellStatus with replies in order, repeating the last.
func script(replies ...reply) func(string) (*aria2.Status, error) {
	var mu sync.Mutex
	i := 0
	return func(string) (*aria2.Status, error) {
		mu.Lock()
		defer mu.Unlock()
		r := replies[i]
		if i < len(replies)-1 {
			i++
		}
		return r.st, r.err
	}
}

type edit struct {
	loc  Location
	text string
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []edit
	edits   []edit
	deletes []Location
	editErr error
	sendErr error
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, _ int, text string) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return Location{}, m.sendErr
	}
	m.nextID++
	loc := Location{ChatID: chatID, MessageID: m.nextID}
	m.sent = append(m.sent, edit{loc, text})
	return loc, nil
}

func (m *fakeMessenger) Edit(_ context.Context, loc Location, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, edit{loc, text})
	return m.editErr
}

func (m *fakeMessenger) Delete(_ context.Context, loc Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, loc)
	return nil
}

func (m *fakeMessenger) Edits() []edit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]edit(nil), m.edits...)
}

func (m *fakeMessenger) Sent() []edit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]edit(nil), m.sent...)
}

func (m *fakeMessenger) Deletes() []Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Location(nil), m.deletes...)
}

// EditsContaining counts edits whose text contains substr.
func (m *fakeMessenger) EditsContaining(substr string) int {
	n := 0
	for _, e := range m.Edits() {
		if strings.Contains(e.text, substr) {
			n++
		}
	}
	return n
}

// EditsTo counts edits of the message at loc.
func (m *fakeMessenger) EditsTo(loc Location) int {
	n := 0
	for _, e := range m.Edits() {
		if e.loc == loc {
			n++
		}
	}
	return n
}
