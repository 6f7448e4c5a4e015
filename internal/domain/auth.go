package domain

// Identity is the authenticated caller of a handler. It is resolved by the transport layer and
// passed explicitly into every service call.
type Identity struct {
	UserID string
	Role   Role
}

// IsAuthenticated reports whether the identity carries a user id and a known role.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != "" && i.Role.Valid()
}

// Capabilities returns the capability set granted by the caller's role.
func (i Identity) Capabilities() Capabilities {
	return i.Role.Capabilities()
}

// Is reports whether the identity belongs to userID.
func (i Identity) Is(userID string) bool {
	return i.UserID != "" && i.UserID == userID
}

// IsPtr is Is for optional references such as the assigned technician.
func (i Identity) IsPtr(userID *string) bool {
	return userID != nil && i.Is(*userID)
}
