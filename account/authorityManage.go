package account

import (
	"context"
	"errors"
	"formflow/authority"
	"formflow/common"
	"formflow/persistence"
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	systemAdminRole       = Role{ID: "system-admin", Title: "System Administrator"}
	workflowDesignerRole  = Role{ID: "workflow-designer", Title: "Workflow Designer"}
	SystemAdminPermission = Permission{ID: authority.SystemAdmin, Title: "System Administration"}

	defaultPermissions = []Permission{
		SystemAdminPermission,
		{ID: authority.WorkflowManage, Title: "Workflow Management"},
		{ID: authority.FormManage, Title: "Form Management"},
	}
	defaultRoleBindings = []RolePermissionBinding{
		{ID: 1, RoleID: systemAdminRole.ID, PermissionID: authority.SystemAdmin},
		{ID: 2, RoleID: workflowDesignerRole.ID, PermissionID: authority.WorkflowManage},
		{ID: 3, RoleID: workflowDesignerRole.ID, PermissionID: authority.FormManage},
	}
)

var (
	LoadPermFunc = LoadPerms
)

func LoadPermFuncReset() {
	LoadPermFunc = LoadPerms
}

// DefaultSecurityConfiguration seeds the built-in roles and the initial administrator
func DefaultSecurityConfiguration(ctx context.Context) error {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		for _, role := range []Role{systemAdminRole, workflowDesignerRole} {
			if err := tx.Save(&role).Error; err != nil {
				return err
			}
		}
		for _, perm := range defaultPermissions {
			if err := tx.Save(&perm).Error; err != nil {
				return err
			}
		}
		for _, binding := range defaultRoleBindings {
			if err := tx.Save(&binding).Error; err != nil {
				return err
			}
		}

		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.ExpandEnv("${INITIAL_ADMIN_PASSWORD}")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			if err := tx.Create(&User{ID: 1, Name: "admin", Secret: HashSha256(initialAdminPassword)}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Save(&UserRoleBinding{ID: 1, UserID: 1, RoleID: systemAdminRole.ID}).Error
	})
}

// LoadPerms collects the capability codes granted through the system roles of the user
func LoadPerms(ctx context.Context, uid types.ID) (authority.Permissions, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)

	var roles []string
	if err := db.Model(&UserRoleBinding{}).Where(&UserRoleBinding{UserID: uid}).Pluck("role_id", &roles).Error; err != nil {
		return nil, err
	}
	perms := authority.Permissions{}
	if len(roles) == 0 {
		return perms, nil
	}

	var codes []string
	if err := db.Model(&RolePermissionBinding{}).Where("role_id IN (?)", roles).Order("permission_id ASC").
		Pluck("permission_id", &codes).Error; err != nil {
		return nil, err
	}
	for _, code := range codes {
		if !perms.Has(code) {
			perms = append(perms, code)
		}
	}
	return perms, nil
}

// GrantPermission binds a capability code to a role, unknown permissions are declared on the fly
func GrantPermission(ctx context.Context, roleID, permissionCode string) error {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Role{ID: roleID}).First(&Role{}).Error; err != nil {
			return err
		}
		if err := tx.Where(Permission{ID: permissionCode}).Attrs(Permission{Title: permissionCode}).
			FirstOrCreate(&Permission{}).Error; err != nil {
			return err
		}
		var count int
		if err := tx.Model(&RolePermissionBinding{}).Where(&RolePermissionBinding{RoleID: roleID, PermissionID: permissionCode}).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&RolePermissionBinding{ID: common.NextId(idWorker), RoleID: roleID, PermissionID: permissionCode}).Error
	})
}
