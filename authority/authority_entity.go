package authority

import (
	"strings"
)

const (
	SystemAdmin    = "system:admin"
	WorkflowManage = "workflow:manage"
	FormManage     = "form:manage"
)

// Permissions capability codes granted to a session
type Permissions []string

// Has reports exact membership of a capability code
func (c Permissions) Has(code string) bool {
	for _, v := range c {
		if v == code {
			return true
		}
	}
	return false
}

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// HasManagePerm system administrators implicitly hold every management capability
func (c Permissions) HasManagePerm(code string) bool {
	return c.HasRole(SystemAdmin) || c.HasRole(code)
}
