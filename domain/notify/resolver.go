package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// UserDirectory is the user, role and permission lookup the resolver depends on
type UserDirectory interface {
	UserExists(ctx context.Context, id UserID) (bool, error)
	UsersWithRole(ctx context.Context, roleID string) ([]UserID, error)
	UsersWithBusinessRole(ctx context.Context, businessRoleID string) ([]UserID, error)
	UsersWithPermission(ctx context.Context, permissionCode string) ([]UserID, error)
	DisplayName(ctx context.Context, id UserID) (string, error)
}

// ResolveContext carries the per-submission facts recipients may refer to
type ResolveContext struct {
	SubmitterID UserID
	ApproverID  UserID
	FormData    map[string]interface{}
}

// Delivery is one rendered notification for one recipient
type Delivery struct {
	Recipient UserID    `json:"recipient"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Priority  Priority  `json:"priority"`
	Channels  []Channel `json:"channels"`
}

type Resolver struct {
	directory UserDirectory
}

func NewResolver(directory UserDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve maps one recipient spec to concrete user ids.
// Unknown users, unknown types and lookup failures resolve to nothing.
func (r *Resolver) Resolve(ctx context.Context, spec RecipientSpec, rc ResolveContext) []UserID {
	switch recipient := spec.Recipient.(type) {
	case UserRecipient:
		if recipient.UserID == "" {
			return nil
		}
		if r.exists(ctx, recipient.UserID) {
			return []UserID{recipient.UserID}
		}
		return nil
	case RoleRecipient:
		ids, err := r.directory.UsersWithRole(ctx, recipient.RoleID)
		return r.settle(ids, err, spec)
	case BusinessRoleRecipient:
		ids, err := r.directory.UsersWithBusinessRole(ctx, recipient.BusinessRoleID)
		return r.settle(ids, err, spec)
	case PermissionRecipient:
		ids, err := r.directory.UsersWithPermission(ctx, recipient.PermissionCode)
		return r.settle(ids, err, spec)
	case FieldValueRecipient:
		value, ok := LookupPath(rc.FormData, recipient.Field)
		if !ok {
			return nil
		}
		id, isString := value.(string)
		if !isString || id == "" {
			return nil
		}
		if r.exists(ctx, UserID(id)) {
			return []UserID{UserID(id)}
		}
		return nil
	case SubmitterRecipient:
		if rc.SubmitterID == "" {
			return nil
		}
		return []UserID{rc.SubmitterID}
	case ApproverRecipient:
		if rc.ApproverID == "" {
			return nil
		}
		return []UserID{rc.ApproverID}
	default:
		return nil
	}
}

// ResolveRule unions the recipients of a rule, each user once, in first-seen order
func (r *Resolver) ResolveRule(ctx context.Context, rule NotificationRule, rc ResolveContext) []UserID {
	seen := map[UserID]bool{}
	result := []UserID{}
	for _, spec := range rule.Recipients {
		for _, id := range r.Resolve(ctx, spec, rc) {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}

// Compose renders the rule once per resolved recipient.
// vars is extended with recipient and recipient_id for each delivery.
func (r *Resolver) Compose(ctx context.Context, rule NotificationRule, rc ResolveContext, vars Variables) []Delivery {
	rule = rule.Normalized()
	recipients := r.ResolveRule(ctx, rule, rc)
	deliveries := make([]Delivery, 0, len(recipients))
	for _, id := range recipients {
		v := vars.With("recipient_id", string(id)).With("recipient", r.DisplayName(ctx, id))
		deliveries = append(deliveries, Delivery{
			Recipient: id,
			Title:     Render(rule.TitleTemplate, v),
			Body:      Render(rule.BodyTemplate, v),
			Priority:  rule.Priority,
			Channels:  append([]Channel{}, rule.Channels...),
		})
	}
	return deliveries
}

func (r *Resolver) exists(ctx context.Context, id UserID) bool {
	ok, err := r.directory.UserExists(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("userId", id).Warn("failed to check user existence, recipient dropped")
		return false
	}
	return ok
}

func (r *Resolver) settle(ids []UserID, err error, spec RecipientSpec) []UserID {
	if err != nil {
		logrus.WithError(err).WithField("recipientType", spec.Type()).Warn("failed to resolve recipient, dropped")
		return nil
	}
	return ids
}

// DisplayName falls back to the id when the directory has no name for the user
func (r *Resolver) DisplayName(ctx context.Context, id UserID) string {
	if id == "" {
		return ""
	}
	name, err := r.directory.DisplayName(ctx, id)
	if err != nil || name == "" {
		return string(id)
	}
	return name
}
