package ledger

// Session identifies the caller of a core operation. The presentation layer
// builds one per request from the verified identity and the stored profile.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	Role        Role
}

func (s Session) IsAdmin() bool { return s.UserID != "" && s.Role == RoleAdmin }

func (s Session) authenticated() error {
	if s.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

func (s Session) admin() error {
	if !s.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}
