package session

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ts4z/clicktunes/board"
	"github.com/ts4z/clicktunes/manifest"
	"github.com/ts4z/clicktunes/soundmodel"
)

type stubStore struct {
	sounds  []*soundmodel.SoundRecord
	listErr error
}

func (s *stubStore) ListSounds(context.Context) ([]*soundmodel.SoundRecord, error) {
	return s.sounds, s.listErr
}

func (s *stubStore) RemoveSound(context.Context, int64) error {
	return nil
}

func key64(n int) string {
	return base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(n))
}

func newBakery(t *testing.T) *Bakery {
	t.Helper()
	b, err := NewBakery(clockwork.NewFakeClock(), key64(64), key64(32), false)
	require.NoError(t, err)
	return b
}

func newManager(t *testing.T, store *stubStore, size int) *Manager {
	t.Helper()
	builder := &Builder{
		Store:    store,
		Manifest: &manifest.Result{Entries: []manifest.Entry{{Name: "Boo", SoundPath: "boo.mp3"}}},
		Clock:    clockwork.NewFakeClock(),
	}
	m, err := NewManager(newBakery(t), size, builder.Build)
	require.NoError(t, err)
	return m
}

func TestBakeAndRead(t *testing.T) {
	b := newBakery(t)
	id := uuid.New()
	rec := httptest.NewRecorder()
	require.NoError(t, b.BakeCookie(rec, id))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got, err := b.ReadCookie(req)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestReadRejectsForeignCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, newBakery(t).BakeCookie(rec, uuid.New()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	_, err := newBakery(t).ReadCookie(req)
	assert.Error(t, err)

	_, err = newBakery(t).ReadCookie(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, http.ErrNoCookie)
}

func TestNewBakeryKeys(t *testing.T) {
	_, err := NewBakery(clockwork.NewFakeClock(), "", "", false)
	assert.NoError(t, err, "random keys when unconfigured")

	_, err = NewBakery(clockwork.NewFakeClock(), "!!!", "", false)
	assert.Error(t, err)

	_, err = NewBakery(clockwork.NewFakeClock(), key64(64), key64(7), false)
	assert.ErrorContains(t, err, "16, 24 or 32")
}

func TestManagerKeepsBoardPerSession(t *testing.T) {
	m := newManager(t, &stubStore{sounds: []*soundmodel.SoundRecord{{ID: 1, Name: "Kazoo"}}}, 10)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	b1, err := m.Board(rec, req)
	require.NoError(t, err)
	require.Len(t, b1.Buttons(), 2)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	b2, err := m.Board(rec, req)
	require.NoError(t, err)
	assert.Same(t, b1, b2)
	assert.Empty(t, rec.Result().Cookies(), "no new cookie for a known session")

	looked, ok := m.Lookup(req)
	require.True(t, ok)
	assert.Same(t, b1, looked)

	b3, err := m.Board(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotSame(t, b1, b3)
	assert.Equal(t, 2, m.Len())
}

func TestManagerEvicts(t *testing.T) {
	m := newManager(t, &stubStore{}, 1)
	a := m.BoardFor(context.Background(), uuid.New())
	m.BoardFor(context.Background(), uuid.New())
	assert.Equal(t, 1, m.Len())
	assert.NotNil(t, a)
}

func TestListFailureGivesManifestOnly(t *testing.T) {
	m := newManager(t, &stubStore{listErr: errors.New("disk gone")}, 10)
	b := m.BoardFor(context.Background(), uuid.New())
	buttons := b.Buttons()
	require.Len(t, buttons, 1)
	assert.Equal(t, board.FromManifest, buttons[0].Source)
}

func TestNotificationsReachEveryBoard(t *testing.T) {
	m := newManager(t, &stubStore{}, 10)
	a := m.BoardFor(context.Background(), uuid.New())
	b := m.BoardFor(context.Background(), uuid.New())

	m.SoundAdded(&soundmodel.SoundRecord{ID: 7, Name: "Kazoo"})
	assert.Len(t, a.Buttons(), 2)
	assert.Len(t, b.Buttons(), 2)

	m.SoundRemoved(7)
	assert.Len(t, a.Buttons(), 1)
	assert.Len(t, b.Buttons(), 1)
}

// racingStore commits a sound while a board is listing, after the listing's
// snapshot was taken.
type racingStore struct {
	stubStore
	commit func()
}

func (s *racingStore) ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error) {
	snapshot := s.sounds
	s.commit()
	return snapshot, nil
}

func TestSoundAddedWhileBoardIsBuilt(t *testing.T) {
	store := &racingStore{}
	builder := &Builder{
		Store:    store,
		Manifest: &manifest.Result{Entries: []manifest.Entry{{Name: "Boo", SoundPath: "boo.mp3"}}},
		Clock:    clockwork.NewFakeClock(),
	}
	m, err := NewManager(newBakery(t), 10, builder.Build)
	require.NoError(t, err)

	notified := make(chan struct{})
	store.commit = func() {
		go func() {
			m.SoundAdded(&soundmodel.SoundRecord{ID: 9, Name: "Kazoo"})
			close(notified)
		}()
		// Give the notification every chance to run before the board is
		// cached.
		select {
		case <-notified:
		case <-time.After(50 * time.Millisecond):
		}
	}

	b := m.BoardFor(context.Background(), uuid.New())
	select {
	case <-notified:
	case <-time.After(5 * time.Second):
		t.Fatal("notification never finished")
	}
	buttons := b.Buttons()
	require.Len(t, buttons, 2)
	assert.Equal(t, "Kazoo", buttons[1].Name)
	assert.Equal(t, board.FromStore, buttons[1].Source)
}
