package luci

import "time"

// Session is a LuCI session token with a locally assumed lifetime.
//
// The router never tells us when the session expires. ExpiresAt is a guess of
// login time plus a fixed TTL; any 401/403 from the router overrides it.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Valid     bool
}

func newSession(token string, now time.Time, ttl time.Duration) Session {
	return Session{
		Token:     token,
		ExpiresAt: now.Add(ttl),
		Valid:     true,
	}
}

// ValidAt reports whether the session can be used at time now.
func (s Session) ValidAt(now time.Time) bool {
	return s.Valid && s.Token != "" && now.Before(s.ExpiresAt)
}

// invalidate forces the next operation to log in again.
func (s *Session) invalidate() {
	s.ExpiresAt = time.Time{}
	s.Valid = false
}
