package identity

// Identity providers are not uniform in how they name claims: ADFS emits upn
// and groups, standard OIDC providers emit email and roles. Each field is
// resolved by a first-match-wins lookup over an ordered candidate list.
var (
	idClaims    = []string{"sub", "oid"}
	emailClaims = []string{"email", "upn"}
	nameClaims  = []string{"name", "given_name"}
	roleClaims  = []string{"roles", "groups", "role"}
)

// FromClaims builds an Identity from a decoded claim set. Missing fields are
// left zero; callers decide whether a partial identity is acceptable.
func FromClaims(claims map[string]any) Identity {
	return Identity{
		ID:    firstString(claims, idClaims),
		Email: firstString(claims, emailClaims),
		Name:  firstString(claims, nameClaims),
		Roles: firstStringSlice(claims, roleClaims),
	}
}

func firstString(claims map[string]any, candidates []string) string {
	for _, name := range candidates {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstStringSlice(claims map[string]any, candidates []string) []string {
	for _, name := range candidates {
		switch v := claims[name].(type) {
		case []string:
			if len(v) > 0 {
				return v
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			// Some providers collapse a single role into a bare string.
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}
