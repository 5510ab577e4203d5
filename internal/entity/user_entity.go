package entity

// User is the read-only view of an account owned by the auth provider.
type User struct {
	Id    string
	Name  string
	Email string
}

// DisplayName is the name handed to the Integration Backend when minting a
// token on behalf of this user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Id
}
