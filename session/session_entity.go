package session

import (
	"context"
	"time"

	"formflow/authority"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Context context.Context `json:"-"`

	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`

	SigningTime time.Time `json:"signingTime"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (i Identity) DisplayName() string {
	if i.Nickname != "" {
		return i.Nickname
	}
	return i.Name
}

func (s *Session) Clone() Session {
	c := *s
	if s.Perms != nil {
		c.Perms = append(authority.Permissions{}, s.Perms...)
	}
	return c
}

// Ctx never returns nil, background context is used for sessions built outside of a request
func (s *Session) Ctx() context.Context {
	if s == nil || s.Context == nil {
		return context.Background()
	}
	return s.Context
}
