package account

import "github.com/fundwit/go-commons/types"

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	Name   string   `json:"name" gorm:"unique_index:uni_user_name"`
	Secret string   `json:"-"`

	Nickname string `json:"nickname"`
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=32"`
	Secret   string `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname string `json:"nickname" binding:"omitempty,gte=1,lte=32"`
}

// RoleAssigning binds a user to a system role or a business role, exactly one of them is expected
type RoleAssigning struct {
	RoleID         string `json:"roleId"`
	BusinessRoleID string `json:"businessRoleId"`
}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

type Role struct {
	ID    string `json:"id" gorm:"primary_key"`
	Title string `json:"title"`
}

type UserRoleBinding struct {
	ID types.ID `json:"id" gorm:"primary_key;auto_increment:false"`

	UserID types.ID `json:"userId" gorm:"unique_index:uni_user_role"`
	RoleID string   `json:"roleId" gorm:"unique_index:uni_user_role"`
}

type Permission struct {
	ID    string `json:"id" gorm:"primary_key"`
	Title string `json:"title"`
}

type RolePermissionBinding struct {
	ID types.ID `json:"id" gorm:"primary_key;auto_increment:false"`

	RoleID       string `json:"roleId" gorm:"unique_index:uni_role_perm"`
	PermissionID string `json:"permissionId" gorm:"unique_index:uni_role_perm"`
}

// BusinessRoleBinding places a user in an organizational group such as "finance" or "hr_partner".
// Business roles carry no capability, they only address notifications.
type BusinessRoleBinding struct {
	ID types.ID `json:"id" gorm:"primary_key;auto_increment:false"`

	UserID         types.ID `json:"userId" gorm:"unique_index:uni_user_business_role"`
	BusinessRoleID string   `json:"businessRoleId" gorm:"unique_index:uni_user_business_role"`
}

// Models lists the tables of the account package
func Models() []interface{} {
	return []interface{}{&User{}, &Role{}, &UserRoleBinding{}, &Permission{}, &RolePermissionBinding{}, &BusinessRoleBinding{}}
}
