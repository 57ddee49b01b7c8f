package model

import "strings"

// User is the identity profile projection stored at /users/{credentialId}
// on the remote mirror.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// FallbackDisplayName derives a display name from an email address when
// no stored profile carries one: the local part before the '@', or
// "User" when even that is empty.
func FallbackDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "User"
	}
	return local
}
