package account_test

import (
	"context"
	"formflow/account"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/persistence"
	"formflow/session"
	"formflow/testinfra"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("userManage", func() {
	var (
		testDatabase *testinfra.TestDatabase
		admin        *session.Session
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("formflow")
		persistence.ActiveDataSourceManager = testDatabase.DS
		Expect(testDatabase.DS.GormDB(context.TODO()).AutoMigrate(account.Models()...).Error).To(BeNil())
		admin = testinfra.BuildSession(1, authority.SystemAdmin)
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("UpdateBasicAuthSecret", func() {
		It("should be able to update basic auth secret correctly", func() {
			sec := session.Session{Identity: session.Identity{ID: 1}}
			Expect(testDatabase.DS.GormDB(context.TODO()).Save(&account.User{ID: 1, Name: "aaa", Secret: account.HashSha256("123456")}).Error).To(BeNil())
			Expect(account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{OriginalSecret: "234567", NewSecret: "654321"}, &sec)).To(Equal(bizerror.ErrInvalidPassword))
			Expect(account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{OriginalSecret: "123456", NewSecret: "654321"}, &sec)).To(BeNil())

			user := account.User{}
			Expect(testDatabase.DS.GormDB(context.TODO()).Model(&account.User{}).Where(&account.User{ID: sec.Identity.ID}).First(&user).Error).To(BeNil())
			Expect(user.Secret).To(Equal(account.HashSha256("654321")))
		})
	})

	Describe("DisplayName", func() {
		It("should be able to compute display name", func() {
			Expect(account.User{Name: "test", Nickname: "Test"}.DisplayName()).To(Equal("Test"))
			Expect(account.User{Name: "test"}.DisplayName()).To(Equal("test"))
			Expect(account.UserInfo{Name: "test", Nickname: "Test"}.DisplayName()).To(Equal("Test"))
			Expect(account.UserInfo{Name: "test"}.DisplayName()).To(Equal("test"))
		})
	})

	Describe("QueryUsers", func() {
		It("should be able to query users correctly", func() {
			Expect(testDatabase.DS.GormDB(context.TODO()).Save(&account.User{ID: 1, Name: "aaa", Secret: account.HashSha256("123456")}).Error).To(BeNil())

			users, err := account.QueryUsers(admin)
			Expect(err).To(BeNil())
			Expect(*users).To(Equal([]account.UserInfo{{ID: 1, Name: "aaa"}}))
		})
	})

	Describe("CreateUser", func() {
		It("should be blocked when user lack of permission", func() {
			u, err := account.CreateUser(&account.UserCreation{Name: "test", Secret: "123456"}, testinfra.BuildSession(1))
			Expect(err).To(Equal(bizerror.ErrForbidden))
			Expect(u).To(BeNil())
		})

		It("should be able to create users with unique names", func() {
			u, err := account.CreateUser(&account.UserCreation{Name: "test", Nickname: "Test User", Secret: "123456"}, admin)
			Expect(err).To(BeNil())
			Expect(u.ID).ToNot(BeZero())
			Expect(*u).To(Equal(account.UserInfo{ID: u.ID, Name: "test", Nickname: "Test User"}))

			user := account.User{}
			Expect(testDatabase.DS.GormDB(context.TODO()).Where(&account.User{ID: u.ID}).First(&user).Error).To(BeNil())
			Expect(user).To(Equal(account.User{ID: u.ID, Name: "test", Nickname: "Test User", Secret: account.HashSha256("123456")}))

			_, err = account.CreateUser(&account.UserCreation{Name: "test", Secret: "abcdef"}, admin)
			Expect(err).To(Equal(bizerror.ErrUserExisted))
		})
	})

	Describe("AssignRole", func() {
		It("should bind system roles and business roles idempotently", func() {
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.User{ID: 7, Name: "u7"}).Error).To(BeNil())
			Expect(db.Save(&account.Role{ID: "approver", Title: "Approver"}).Error).To(BeNil())

			Expect(account.AssignRole(7, &account.RoleAssigning{RoleID: "approver"}, testinfra.BuildSession(2))).To(Equal(bizerror.ErrForbidden))
			Expect(account.AssignRole(7, &account.RoleAssigning{}, admin)).To(HaveOccurred())
			Expect(account.AssignRole(7, &account.RoleAssigning{RoleID: "a", BusinessRoleID: "b"}, admin)).To(HaveOccurred())
			Expect(account.AssignRole(8, &account.RoleAssigning{RoleID: "approver"}, admin)).To(Equal(gorm.ErrRecordNotFound))
			Expect(account.AssignRole(7, &account.RoleAssigning{RoleID: "ghost"}, admin)).To(Equal(gorm.ErrRecordNotFound))

			Expect(account.AssignRole(7, &account.RoleAssigning{RoleID: "approver"}, admin)).To(BeNil())
			Expect(account.AssignRole(7, &account.RoleAssigning{RoleID: "approver"}, admin)).To(BeNil())
			Expect(account.AssignRole(7, &account.RoleAssigning{BusinessRoleID: "finance"}, admin)).To(BeNil())
			Expect(account.AssignRole(7, &account.RoleAssigning{BusinessRoleID: "finance"}, admin)).To(BeNil())

			var roleBindings []account.UserRoleBinding
			Expect(db.Find(&roleBindings).Error).To(BeNil())
			Expect(len(roleBindings)).To(Equal(1))
			Expect(roleBindings[0].RoleID).To(Equal("approver"))

			var businessBindings []account.BusinessRoleBinding
			Expect(db.Find(&businessBindings).Error).To(BeNil())
			Expect(len(businessBindings)).To(Equal(1))
			Expect(businessBindings[0].BusinessRoleID).To(Equal("finance"))
		})
	})

	Describe("Authenticate", func() {
		It("should match name and secret", func() {
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.User{ID: 3, Name: "ann", Nickname: "Ann", Secret: account.HashSha256("123456")}).Error).To(BeNil())

			identity, err := account.Authenticate(db, "ann", "123456")
			Expect(err).To(BeNil())
			Expect(*identity).To(Equal(session.Identity{ID: 3, Name: "ann", Nickname: "Ann"}))

			_, err = account.Authenticate(db, "ann", "654321")
			Expect(err).To(Equal(bizerror.ErrUnauthenticated))
			_, err = account.Authenticate(db, "bob", "123456")
			Expect(err).To(Equal(bizerror.ErrUnauthenticated))
		})
	})
})
