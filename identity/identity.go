package identity

// Identity is the authenticated principal reconstructed from token claims.
// It is immutable once constructed; a fresh value is built on every validation.
type Identity struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the identity carries the given role name.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
