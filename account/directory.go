package account

import (
	"context"
	"formflow/domain/notify"
	"formflow/persistence"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/patrickmn/go-cache"
)

// Directory answers recipient lookups from the account tables.
// Answers are cached for a short while, bindings changed meanwhile become visible after expiration.
type Directory struct {
	cache *cache.Cache
}

var _ notify.UserDirectory = (*Directory)(nil)

func NewDirectory(ttl time.Duration) *Directory {
	return &Directory{cache: cache.New(ttl, 2*ttl)}
}

// Flush drops every cached answer
func (d *Directory) Flush() {
	d.cache.Flush()
}

func (d *Directory) UserExists(ctx context.Context, id notify.UserID) (bool, error) {
	user, err := d.user(ctx, id)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (d *Directory) DisplayName(ctx context.Context, id notify.UserID) (string, error) {
	user, err := d.user(ctx, id)
	if err != nil || user == nil {
		return "", err
	}
	return user.DisplayName(), nil
}

func (d *Directory) UsersWithRole(ctx context.Context, roleID string) ([]notify.UserID, error) {
	return d.cachedIDs("role:"+roleID, func() ([]types.ID, error) {
		var ids []types.ID
		err := persistence.ActiveDataSourceManager.GormDB(ctx).Model(&UserRoleBinding{}).
			Where(&UserRoleBinding{RoleID: roleID}).Order("user_id ASC").Pluck("user_id", &ids).Error
		return ids, err
	})
}

func (d *Directory) UsersWithBusinessRole(ctx context.Context, businessRoleID string) ([]notify.UserID, error) {
	return d.cachedIDs("business_role:"+businessRoleID, func() ([]types.ID, error) {
		var ids []types.ID
		err := persistence.ActiveDataSourceManager.GormDB(ctx).Model(&BusinessRoleBinding{}).
			Where(&BusinessRoleBinding{BusinessRoleID: businessRoleID}).Order("user_id ASC").Pluck("user_id", &ids).Error
		return ids, err
	})
}

// UsersWithPermission finds the users holding one of the roles the permission is granted to
func (d *Directory) UsersWithPermission(ctx context.Context, permissionCode string) ([]notify.UserID, error) {
	return d.cachedIDs("permission:"+permissionCode, func() ([]types.ID, error) {
		db := persistence.ActiveDataSourceManager.GormDB(ctx)
		var roles []string
		if err := db.Model(&RolePermissionBinding{}).Where(&RolePermissionBinding{PermissionID: permissionCode}).
			Pluck("role_id", &roles).Error; err != nil {
			return nil, err
		}
		if len(roles) == 0 {
			return nil, nil
		}
		var ids []types.ID
		err := db.Model(&UserRoleBinding{}).Where("role_id IN (?)", roles).Order("user_id ASC").
			Pluck("DISTINCT user_id", &ids).Error
		return ids, err
	})
}

func (d *Directory) user(ctx context.Context, id notify.UserID) (*UserInfo, error) {
	key := "user:" + string(id)
	if cached, found := d.cache.Get(key); found {
		return cached.(*UserInfo), nil
	}
	uid, err := types.ParseID(string(id))
	if err != nil || uid == 0 {
		return nil, nil
	}

	var users []UserInfo
	if err := persistence.ActiveDataSourceManager.GormDB(ctx).Model(&User{}).Where("id = ?", uid).Scan(&users).Error; err != nil {
		return nil, err
	}
	var user *UserInfo
	if len(users) > 0 {
		user = &users[0]
	}
	d.cache.SetDefault(key, user)
	return user, nil
}

func (d *Directory) cachedIDs(key string, load func() ([]types.ID, error)) ([]notify.UserID, error) {
	if cached, found := d.cache.Get(key); found {
		return cached.([]notify.UserID), nil
	}
	ids, err := load()
	if err != nil {
		return nil, err
	}
	result := make([]notify.UserID, 0, len(ids))
	for _, id := range ids {
		result = append(result, notify.UserID(id.String()))
	}
	d.cache.SetDefault(key, result)
	return result, nil
}
