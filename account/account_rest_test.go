package account_test

import (
	"bytes"
	"fmt"
	"formflow/account"
	"formflow/bizerror"
	"formflow/session"
	"formflow/testinfra"
	"net/http"
	"net/http/httptest"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("AccountRestApi", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		account.RegisterUsersHandler(router)
	})
	AfterEach(func() {
		account.UpdateBasicAuthSecretFunc = account.UpdateBasicAuthSecret
		account.QueryUsersFunc = account.QueryUsers
		account.CreateUserFunc = account.CreateUser
		account.AssignRoleFunc = account.AssignRole
	})

	Describe("HandleUpdateBaseAuth", func() {
		It("should return 200 when update successful", func() {
			var payload *account.BasicAuthUpdating
			account.UpdateBasicAuthSecretFunc = func(u *account.BasicAuthUpdating, sec *session.Session) error {
				payload = u
				return nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
				bytes.NewReader([]byte(`{"originalSecret": "123456", "newSecret": "654321"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(BeEmpty())
			Expect(*payload).To(Equal(account.BasicAuthUpdating{OriginalSecret: "123456", NewSecret: "654321"}))
		})

		It("should return 400 when new secret is too short", func() {
			req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
				bytes.NewReader([]byte(`{"originalSecret": "123456", "newSecret": "654"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("should return 400 when original secret is wrong", func() {
			account.UpdateBasicAuthSecretFunc = func(u *account.BasicAuthUpdating, sec *session.Session) error {
				return bizerror.ErrInvalidPassword
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
				bytes.NewReader([]byte(`{"originalSecret": "000000", "newSecret": "654321"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"security.invalid_password","message":"invalid password","data":null}`))
		})
	})

	Describe("HandleQueryUsers", func() {
		It("should return users", func() {
			account.QueryUsersFunc = func(sec *session.Session) (*[]account.UserInfo, error) {
				return &[]account.UserInfo{{ID: 1, Name: "ann", Nickname: "Ann"}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id":"1","name":"ann","nickname":"Ann"}]`))
		})
	})

	Describe("HandleCreateUser", func() {
		It("should create user", func() {
			account.CreateUserFunc = func(c *account.UserCreation, sec *session.Session) (*account.UserInfo, error) {
				return &account.UserInfo{ID: 5, Name: c.Name, Nickname: c.Nickname}, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte(`{"name":"bob","secret":"123456"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(MatchJSON(`{"id":"5","name":"bob","nickname":""}`))
		})

		It("should return 409 when name is taken", func() {
			account.CreateUserFunc = func(c *account.UserCreation, sec *session.Session) (*account.UserInfo, error) {
				return nil, bizerror.ErrUserExisted
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte(`{"name":"bob","secret":"123456"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusConflict))
			Expect(body).To(MatchJSON(`{"code":"account.user_existed","message":"user existed","data":null}`))
		})
	})

	Describe("HandleAssignRole", func() {
		It("should pass the assignment to service", func() {
			var userID types.ID
			var payload *account.RoleAssigning
			account.AssignRoleFunc = func(id types.ID, c *account.RoleAssigning, sec *session.Session) error {
				userID, payload = id, c
				return nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/users/12/roles", bytes.NewReader([]byte(`{"businessRoleId":"finance"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNoContent))
			Expect(userID).To(Equal(types.ID(12)))
			Expect(*payload).To(Equal(account.RoleAssigning{BusinessRoleID: "finance"}))
		})

		It("should reject bad user id", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/users/abc/roles", bytes.NewReader([]byte(`{"roleId":"x"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("should return 403 when forbidden", func() {
			account.AssignRoleFunc = func(id types.ID, c *account.RoleAssigning, sec *session.Session) error {
				return fmt.Errorf("assign role: %w", bizerror.ErrForbidden)
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/users/12/roles", bytes.NewReader([]byte(`{"roleId":"x"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusForbidden))
		})
	})
})
