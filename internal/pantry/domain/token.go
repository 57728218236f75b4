package domain

import "time"

// RevokedToken is a blacklist entry. Any session token whose jti appears
// here must be rejected regardless of its signature or expiry. Entries are
// never updated and never pruned.
type RevokedToken struct {
	JTI       string
	RevokedAt time.Time
}
