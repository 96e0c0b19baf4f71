package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/common"
	"formflow/persistence"
	"formflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var idWorker = common.NewIdWorker()

var (
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
	QueryUsersFunc            = QueryUsers
	CreateUserFunc            = CreateUser
	AssignRoleFunc            = AssignRole
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	query := db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Updates(map[string]interface{}{"secret": HashSha256(u.NewSecret)})
	if err := query.Error; err != nil {
		return err
	}
	if query.RowsAffected != 1 {
		return bizerror.ErrInvalidPassword
	}
	return nil
}

func QueryUsers(sec *session.Session) (*[]UserInfo, error) {
	users := []UserInfo{}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Model(&User{}).Order("id ASC").Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func CreateUser(c *UserCreation, sec *session.Session) (*UserInfo, error) {
	if !sec.Perms.HasRole(authority.SystemAdmin) {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: common.NextId(idWorker), Name: c.Name, Nickname: c.Nickname, Secret: HashSha256(c.Secret)}
	err := persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&User{}).Where(&User{Name: c.Name}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrUserExisted
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname}, nil
}

// AssignRole binds the user to a declared system role or to a business role, assigning twice is a no-op
func AssignRole(userID types.ID, c *RoleAssigning, sec *session.Session) error {
	if !sec.Perms.HasRole(authority.SystemAdmin) {
		return bizerror.ErrForbidden
	}
	if (c.RoleID == "") == (c.BusinessRoleID == "") {
		return &bizerror.ErrBadParam{Cause: errors.New("exactly one of roleId and businessRoleId is required")}
	}

	return persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&User{ID: userID}).First(&User{}).Error; err != nil {
			return err
		}
		if c.RoleID != "" {
			if err := tx.Where(&Role{ID: c.RoleID}).First(&Role{}).Error; err != nil {
				return err
			}
			binding := UserRoleBinding{}
			err := tx.Where(&UserRoleBinding{UserID: userID, RoleID: c.RoleID}).First(&binding).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(&UserRoleBinding{ID: common.NextId(idWorker), UserID: userID, RoleID: c.RoleID}).Error
			}
			return err
		}

		binding := BusinessRoleBinding{}
		err := tx.Where(&BusinessRoleBinding{UserID: userID, BusinessRoleID: c.BusinessRoleID}).First(&binding).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&BusinessRoleBinding{ID: common.NextId(idWorker), UserID: userID, BusinessRoleID: c.BusinessRoleID}).Error
		}
		return err
	})
}

// Authenticate returns the identity of the user owning the name and secret
func Authenticate(db *gorm.DB, name, secret string) (*session.Identity, error) {
	user := User{}
	if err := db.Where(&User{Name: name, Secret: HashSha256(secret)}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrUnauthenticated
		}
		return nil, err
	}
	return &session.Identity{ID: user.ID, Name: user.Name, Nickname: user.Nickname}, nil
}
