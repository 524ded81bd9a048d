package link

import (
	"fmt"
	"time"
)

// DefaultExpiryMinutes is how long a link stays redeemable after it is generated.
const DefaultExpiryMinutes = 1440

const (
	PurposeSetPassword   = "Set Password"
	PurposeResetPassword = "reset"
	PurposeWelcome       = "welcome"
)

// Link is a single-use record authorizing one follow-up action.
type Link struct {
	ID             string    `json:"id" db:"id"`
	GenerationTime time.Time `json:"generation_time" db:"generation_time"`
	HitCount       int       `json:"hit_count" db:"hit_count"`
	Purpose        string    `json:"purpose" db:"purpose"`
	// Email is the normalised address the link was issued for; nil leaves it unbound.
	Email *string `json:"email,omitempty" db:"email"`
}

// IssuedFor reports whether the link may set the secret of email, which must
// already be normalised. Unbound links accept any account.
func (l *Link) IssuedFor(email string) bool {
	return l.Email == nil || *l.Email == email
}

// IsUsed reports whether the link has already been redeemed.
func (l *Link) IsUsed() bool {
	return l.HitCount > 0
}

// IsExpired reports whether more than expiryMinutes whole minutes have elapsed since generation.
func (l *Link) IsExpired(now time.Time, expiryMinutes int) bool {
	elapsed := int(now.Sub(l.GenerationTime) / time.Minute)
	return elapsed > expiryMinutes
}

// Reason returns the invalidity message for the link, or "" if it can still be redeemed.
// The used check wins over the expiry check.
func (l *Link) Reason(now time.Time, expiryMinutes int) string {
	if l.IsUsed() {
		return UsedMessage(l.Purpose)
	}
	if l.IsExpired(now, expiryMinutes) {
		return ExpiredMessage
	}
	return ""
}

// MismatchMessage is shown when a bound link is presented for another account.
const MismatchMessage = "link was not issued for this account"

// ExpiredMessage is shown when a link outlived its expiry window.
const ExpiredMessage = "link expired, please request a new one"

// UsedMessage is shown when a link has already been redeemed.
func UsedMessage(purpose string) string {
	return fmt.Sprintf("link already used for %s", purpose)
}

// Cutoff returns the boundary for redeemable links at now: only links generated
// strictly after it are not expired.
func Cutoff(now time.Time, expiryMinutes int) time.Time {
	return now.Add(-time.Duration(expiryMinutes+1) * time.Minute)
}

// IssueLinkRequest represents the request to issue a link for a purpose
type IssueLinkRequest struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
}
