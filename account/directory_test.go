package account_test

import (
	"context"
	"formflow/account"
	"formflow/domain/notify"
	"formflow/persistence"
	"formflow/testinfra"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Directory", func() {
	var (
		testDatabase *testinfra.TestDatabase
		directory    *account.Directory
		ctx          = context.TODO()
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("formflow")
		persistence.ActiveDataSourceManager = testDatabase.DS
		db := testDatabase.DS.GormDB(ctx)
		Expect(db.AutoMigrate(account.Models()...).Error).To(BeNil())

		Expect(db.Save(&account.User{ID: 1, Name: "ann", Nickname: "Ann"}).Error).To(BeNil())
		Expect(db.Save(&account.User{ID: 2, Name: "bob"}).Error).To(BeNil())
		Expect(db.Save(&account.User{ID: 3, Name: "carol"}).Error).To(BeNil())
		Expect(db.Save(&account.Role{ID: "manager"}).Error).To(BeNil())
		Expect(db.Save(&account.Role{ID: "auditor"}).Error).To(BeNil())
		Expect(db.Save(&account.UserRoleBinding{ID: 1, UserID: 3, RoleID: "manager"}).Error).To(BeNil())
		Expect(db.Save(&account.UserRoleBinding{ID: 2, UserID: 2, RoleID: "manager"}).Error).To(BeNil())
		Expect(db.Save(&account.UserRoleBinding{ID: 3, UserID: 2, RoleID: "auditor"}).Error).To(BeNil())
		Expect(db.Save(&account.RolePermissionBinding{ID: 1, RoleID: "manager", PermissionID: "expense:approve"}).Error).To(BeNil())
		Expect(db.Save(&account.RolePermissionBinding{ID: 2, RoleID: "auditor", PermissionID: "expense:approve"}).Error).To(BeNil())
		Expect(db.Save(&account.BusinessRoleBinding{ID: 1, UserID: 1, BusinessRoleID: "finance"}).Error).To(BeNil())

		directory = account.NewDirectory(time.Minute)
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	It("should tell whether users exist", func() {
		for id, expected := range map[notify.UserID]bool{"1": true, "3": true, "4": false, "abc": false, "": false, "0": false} {
			exists, err := directory.UserExists(ctx, id)
			Expect(err).To(BeNil())
			Expect(exists).To(Equal(expected), string(id))
		}
	})

	It("should compute display names", func() {
		name, err := directory.DisplayName(ctx, "1")
		Expect(err).To(BeNil())
		Expect(name).To(Equal("Ann"))
		name, err = directory.DisplayName(ctx, "2")
		Expect(err).To(BeNil())
		Expect(name).To(Equal("bob"))
		name, err = directory.DisplayName(ctx, "404")
		Expect(err).To(BeNil())
		Expect(name).To(BeEmpty())
	})

	It("should find users by role, business role and permission", func() {
		ids, err := directory.UsersWithRole(ctx, "manager")
		Expect(err).To(BeNil())
		Expect(ids).To(Equal([]notify.UserID{"2", "3"}))

		ids, err = directory.UsersWithRole(ctx, "nobody")
		Expect(err).To(BeNil())
		Expect(ids).To(BeEmpty())

		ids, err = directory.UsersWithBusinessRole(ctx, "finance")
		Expect(err).To(BeNil())
		Expect(ids).To(Equal([]notify.UserID{"1"}))

		ids, err = directory.UsersWithPermission(ctx, "expense:approve")
		Expect(err).To(BeNil())
		Expect(ids).To(Equal([]notify.UserID{"2", "3"}))

		ids, err = directory.UsersWithPermission(ctx, "ghost:perm")
		Expect(err).To(BeNil())
		Expect(ids).To(BeEmpty())
	})

	It("should serve cached answers until flushed", func() {
		ids, err := directory.UsersWithBusinessRole(ctx, "finance")
		Expect(err).To(BeNil())
		Expect(ids).To(HaveLen(1))
		exists, _ := directory.UserExists(ctx, "9")
		Expect(exists).To(BeFalse())

		db := testDatabase.DS.GormDB(ctx)
		Expect(db.Save(&account.BusinessRoleBinding{ID: 2, UserID: 2, BusinessRoleID: "finance"}).Error).To(BeNil())
		Expect(db.Save(&account.User{ID: 9, Name: "newcomer"}).Error).To(BeNil())

		ids, _ = directory.UsersWithBusinessRole(ctx, "finance")
		Expect(ids).To(HaveLen(1))
		exists, _ = directory.UserExists(ctx, "9")
		Expect(exists).To(BeFalse())

		directory.Flush()
		ids, _ = directory.UsersWithBusinessRole(ctx, "finance")
		Expect(ids).To(Equal([]notify.UserID{"1", "2"}))
		exists, _ = directory.UserExists(ctx, "9")
		Expect(exists).To(BeTrue())
	})

	It("should feed the notification resolver", func() {
		resolver := notify.NewResolver(directory)
		rule := notify.NotificationRule{Recipients: []notify.RecipientSpec{
			notify.ToPermission("expense:approve"), notify.ToBusinessRole("finance"), notify.ToUser("404"), notify.ToRole("manager"),
		}}
		Expect(resolver.ResolveRule(ctx, rule, notify.ResolveContext{})).To(Equal([]notify.UserID{"2", "3", "1"}))
	})
})
