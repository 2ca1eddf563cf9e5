package core

// RequestContext identifies the authenticated caller for the duration of one
// request. It is built once at the API boundary (from verified JWT claims)
// and passed explicitly into every service call; services never read ambient
// session state.
type RequestContext struct {
	UserID   string
	Role     Role
	SchoolID string
}

// CheckKnownRole bounces callers whose role is not in the closed Role set.
func (rctx RequestContext) CheckKnownRole() error {
	if !rctx.Role.IsKnown() {
		return ErrUnknownRole
	}
	return nil
}
