/*
Package session knows which board belongs to which browser.

A browser is identified by a random session id carried in a signed,
encrypted cookie.  Boards live in a bounded cache; a browser whose board
was evicted gets a fresh one under the same id.
*/
package session

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

const (
	CookieName = "clicktunes-session"

	cookieMaxAge = 30 * 24 * time.Hour
)

type cookieData struct {
	ID     string
	Minted int64
}

type BakeryClock interface {
	Now() time.Time
}

// Bakery mints and reads session cookies.
type Bakery struct {
	clock  BakeryClock
	sc     *securecookie.SecureCookie
	secure bool
}

func decodeKey(name, key64 string) ([]byte, error) {
	if key64 == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(key64)
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", name, err)
	}
	return key, nil
}

// NewBakery builds a bakery from base64 keys.  Without a hash key, it
// makes up random keys, so sessions don't survive a restart.
func NewBakery(clock BakeryClock, hashKey64, blockKey64 string, secure bool) (*Bakery, error) {
	hashKey, err := decodeKey("cookie hash key", hashKey64)
	if err != nil {
		return nil, err
	}
	blockKey, err := decodeKey("cookie block key", blockKey64)
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		zap.S().Warnf("bakery: no cookie keys configured, using random keys")
		hashKey = securecookie.GenerateRandomKey(64)
		blockKey = securecookie.GenerateRandomKey(32)
	}
	switch len(blockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("cookie block key must be 16, 24 or 32 bytes, not %d", len(blockKey))
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(cookieMaxAge.Seconds()))
	return &Bakery{clock: clock, sc: sc, secure: secure}, nil
}

func (b *Bakery) ReadCookie(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("can't get cookie: %w", err)
	}
	c := &cookieData{}
	if err := b.sc.Decode(CookieName, cookie.Value, c); err != nil {
		return uuid.Nil, fmt.Errorf("can't validate cookie: %w", err)
	}
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("can't parse session id: %w", err)
	}
	return id, nil
}

func (b *Bakery) BakeCookie(w http.ResponseWriter, id uuid.UUID) error {
	encoded, err := b.sc.Encode(CookieName, &cookieData{ID: id.String(), Minted: b.clock.Now().Unix()})
	if err != nil {
		return fmt.Errorf("can't encrypt cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Secure:   b.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}
