package domain

const (
	DefaultUsername  = "Usuario"
	DefaultAuraColor = "#8B5CF6"
)

// User is the read-only view served by the user directory. It only decorates
// membership events and participant listings; identity issuance lives outside
// this service.
type User struct {
	ID        UserID `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	AuraColor string `json:"aura_color"`
}

// GuestUser is the fallback when the directory has no record for an id.
func GuestUser(id UserID) User {
	return User{ID: id, Username: DefaultUsername, AuraColor: DefaultAuraColor}
}
