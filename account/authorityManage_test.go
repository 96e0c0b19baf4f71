package account_test

import (
	"context"
	"formflow/account"
	"formflow/authority"
	"formflow/persistence"
	"formflow/testinfra"
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("AuthorityManage", func() {
	var (
		testDatabase *testinfra.TestDatabase
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("formflow")
		persistence.ActiveDataSourceManager = testDatabase.DS
		Expect(testDatabase.DS.GormDB(context.TODO()).AutoMigrate(account.Models()...).Error).To(BeNil())
		account.LoadPermFuncReset()
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("DefaultSecurityConfiguration", func() {
		It("should be able to prepare default security configuration correctly", func() {
			Expect(account.DefaultSecurityConfiguration(context.TODO())).To(BeNil())
			// idempotent
			Expect(account.DefaultSecurityConfiguration(context.TODO())).To(BeNil())

			var users []account.User
			var roles []account.Role
			var perms []account.Permission
			var userRoles []account.UserRoleBinding
			var rolePerms []account.RolePermissionBinding

			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Find(&users).Error).To(BeNil())
			Expect(users).To(Equal([]account.User{{ID: 1, Name: "admin", Secret: account.HashSha256("admin123")}}))

			Expect(db.Order("id ASC").Find(&roles).Error).To(BeNil())
			Expect(roles).To(Equal([]account.Role{{ID: "system-admin", Title: "System Administrator"},
				{ID: "workflow-designer", Title: "Workflow Designer"}}))

			Expect(db.Order("id ASC").Find(&perms).Error).To(BeNil())
			Expect(len(perms)).To(Equal(3))
			Expect(perms[0]).To(Equal(account.Permission{ID: authority.FormManage, Title: "Form Management"}))

			Expect(db.Find(&userRoles).Error).To(BeNil())
			Expect(userRoles).To(Equal([]account.UserRoleBinding{{ID: 1, UserID: 1, RoleID: "system-admin"}}))

			Expect(db.Order("id ASC").Find(&rolePerms).Error).To(BeNil())
			Expect(len(rolePerms)).To(Equal(3))
			Expect(rolePerms[0]).To(Equal(account.RolePermissionBinding{ID: 1, RoleID: "system-admin", PermissionID: authority.SystemAdmin}))
		})

		It("should take the initial admin password from environment", func() {
			origin, had := os.LookupEnv("INITIAL_ADMIN_PASSWORD")
			Expect(os.Setenv("INITIAL_ADMIN_PASSWORD", "s3cret!")).To(BeNil())
			defer func() {
				if had {
					_ = os.Setenv("INITIAL_ADMIN_PASSWORD", origin)
				} else {
					_ = os.Unsetenv("INITIAL_ADMIN_PASSWORD")
				}
			}()

			Expect(account.DefaultSecurityConfiguration(context.TODO())).To(BeNil())
			admin := account.User{}
			Expect(testDatabase.DS.GormDB(context.TODO()).Where(&account.User{ID: 1}).First(&admin).Error).To(BeNil())
			Expect(admin.Secret).To(Equal(account.HashSha256("s3cret!")))
		})
	})

	Describe("LoadPerms", func() {
		It("should collect permissions of every role held by the user", func() {
			Expect(account.DefaultSecurityConfiguration(context.TODO())).To(BeNil())
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.User{ID: 10, Name: "designer"}).Error).To(BeNil())
			Expect(db.Save(&account.Role{ID: "approver", Title: "Approver"}).Error).To(BeNil())
			Expect(db.Save(&account.UserRoleBinding{ID: 10, UserID: 10, RoleID: "workflow-designer"}).Error).To(BeNil())
			Expect(db.Save(&account.UserRoleBinding{ID: 11, UserID: 10, RoleID: "approver"}).Error).To(BeNil())
			Expect(account.GrantPermission(context.TODO(), "approver", "expense:approve")).To(BeNil())
			Expect(account.GrantPermission(context.TODO(), "approver", "expense:approve")).To(BeNil())
			Expect(account.GrantPermission(context.TODO(), "approver", authority.FormManage)).To(BeNil())
			Expect(account.GrantPermission(context.TODO(), "ghost", "expense:approve")).ToNot(BeNil())

			perms, err := account.LoadPerms(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(perms).To(Equal(authority.Permissions{"expense:approve", authority.FormManage, authority.WorkflowManage}))

			perms, err = account.LoadPerms(context.TODO(), 1)
			Expect(err).To(BeNil())
			Expect(perms).To(Equal(authority.Permissions{authority.SystemAdmin}))

			perms, err = account.LoadPerms(context.TODO(), 404)
			Expect(err).To(BeNil())
			Expect(perms).To(Equal(authority.Permissions{}))
		})
	})
})
