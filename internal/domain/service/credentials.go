package service

import "strings"

// Credentials is a parsed username/password pair for login-walled downloads.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no credentials were provided.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}

// ParseCredentials splits a raw credential string on the first colon.
// A string without a colon is treated as a bare username.
func ParseCredentials(raw string) Credentials {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credentials{}
	}
	username, password, found := strings.Cut(raw, ":")
	if !found {
		return Credentials{Username: strings.TrimSpace(raw)}
	}
	return Credentials{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}
}
