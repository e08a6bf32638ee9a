package models

import (
	"encoding/json"
	"strings"
)

// User is the account a session is authenticated as.
type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u User) String() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// UserRef is an owner reference. Depending on the endpoint the API embeds
// the full user object or only an identifier string; UserRef decodes both.
type UserRef struct {
	User *User
	Name string
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Name)
	}
	r.User = &User{}
	return json.Unmarshal(data, r.User)
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(r.User)
	}
	return json.Marshal(r.Name)
}

func (r UserRef) String() string {
	if r.User != nil {
		return r.User.String()
	}
	return r.Name
}
