package principal

// Profile es la vista pública del principal (GET /v1/users/me).
type Profile struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	MFAEnabled  bool     `json:"mfa_enabled"`
}

// ToProfile nunca expone el secreto MFA. nil -> nil.
func ToProfile(p *Principal) *Profile {
	if p == nil {
		return nil
	}
	roles := p.Roles()
	if roles == nil {
		roles = []string{}
	}
	perms := p.Permissions()
	if perms == nil {
		perms = []string{}
	}
	return &Profile{
		ID:          p.ID(),
		Username:    p.Username(),
		Roles:       roles,
		Permissions: perms,
		MFAEnabled:  p.MFAEnabled(),
	}
}
