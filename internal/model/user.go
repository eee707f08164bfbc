package model

// PublicProfile is the subset of a user record that may be shown to a
// scanner at check-in.  No contact details are included.
type PublicProfile struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}
