package api

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// sessionJar keeps the Set-Cookie attributes the wrapped jar drops, so the
// session can be persisted with its expiry and restored later.
type sessionJar struct {
	http.CookieJar

	mu    sync.Mutex
	seen  map[string]*http.Cookie
	clock func() time.Time
}

func newSessionJar(jar http.CookieJar) *sessionJar {
	return &sessionJar{CookieJar: jar, seen: map[string]*http.Cookie{}, clock: time.Now}
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.CookieJar.SetCookies(u, cookies)
	now := j.clock()
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		cp := *c
		switch {
		case cp.MaxAge < 0:
			delete(j.seen, cp.Name)
			continue
		case cp.MaxAge > 0:
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		if !cp.Expires.IsZero() && !cp.Expires.After(now) {
			delete(j.seen, cp.Name)
			continue
		}
		j.seen[cp.Name] = &cp
	}
}

// attributed returns the jar's live cookies for u, carrying the attributes
// they arrived with when known.
func (j *sessionJar) attributed(u *url.URL) []*http.Cookie {
	live := j.CookieJar.Cookies(u)
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(live))
	for _, c := range live {
		if rec, ok := j.seen[c.Name]; ok {
			cp := *rec
			cp.Value = c.Value
			out = append(out, &cp)
			continue
		}
		out = append(out, c)
	}
	return out
}
