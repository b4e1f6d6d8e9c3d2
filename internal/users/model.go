package users

import (
	"strings"
	"time"
)

// GuestPrefix marks ids issued from the X-Guest-Id header. Guests have no
// stored profile.
const GuestPrefix = "guest:"

// User is a signed-in account. Its email doubles as the participant name on
// the notes it records.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	GivenName  string    `json:"givenName"`
	FamilyName string    `json:"familyName"`
	PictureURL string    `json:"pictureUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DisplayName prefers the full name, then given plus family name, then email.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.GivenName + " " + u.FamilyName); name != "" {
		return name
	}
	return u.Email
}

// IsGuest reports whether userID belongs to an anonymous caller.
func IsGuest(userID string) bool {
	return strings.HasPrefix(userID, GuestPrefix)
}
