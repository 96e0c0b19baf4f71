package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type UserID string

type RecipientType string

const (
	RecipientUser         RecipientType = "user"
	RecipientRole         RecipientType = "role"
	RecipientBusinessRole RecipientType = "business_role"
	RecipientPermission   RecipientType = "permission"
	RecipientFieldValue   RecipientType = "field_value"
	RecipientSubmitter    RecipientType = "submitter"
	RecipientApprover     RecipientType = "approver"
)

// Recipient is one variant of the recipient tagged union
type Recipient interface {
	Type() RecipientType
}

type UserRecipient struct {
	UserID UserID
}

type RoleRecipient struct {
	RoleID string
}

type BusinessRoleRecipient struct {
	BusinessRoleID string
}

type PermissionRecipient struct {
	PermissionCode string
}

// FieldValueRecipient names a form field whose submitted value is a user id
type FieldValueRecipient struct {
	Field string
}

type SubmitterRecipient struct{}

type ApproverRecipient struct{}

// UnknownRecipient keeps a type tag this version does not understand, it never resolves to anyone
type UnknownRecipient struct {
	RawType string
}

func (UserRecipient) Type() RecipientType         { return RecipientUser }
func (RoleRecipient) Type() RecipientType         { return RecipientRole }
func (BusinessRoleRecipient) Type() RecipientType { return RecipientBusinessRole }
func (PermissionRecipient) Type() RecipientType   { return RecipientPermission }
func (FieldValueRecipient) Type() RecipientType   { return RecipientFieldValue }
func (SubmitterRecipient) Type() RecipientType    { return RecipientSubmitter }
func (ApproverRecipient) Type() RecipientType     { return RecipientApprover }
func (r UnknownRecipient) Type() RecipientType    { return RecipientType(r.RawType) }

// RecipientSpec is the wire form of a Recipient: {"type": "...", "value" | "role_id" | "business_role_id" | "permission_code": ...}
type RecipientSpec struct {
	Recipient
}

func ToUser(id UserID) RecipientSpec     { return RecipientSpec{UserRecipient{UserID: id}} }
func ToRole(roleID string) RecipientSpec { return RecipientSpec{RoleRecipient{RoleID: roleID}} }
func ToBusinessRole(id string) RecipientSpec {
	return RecipientSpec{BusinessRoleRecipient{BusinessRoleID: id}}
}
func ToPermission(code string) RecipientSpec {
	return RecipientSpec{PermissionRecipient{PermissionCode: code}}
}
func ToFieldValue(field string) RecipientSpec {
	return RecipientSpec{FieldValueRecipient{Field: field}}
}
func ToSubmitter() RecipientSpec { return RecipientSpec{SubmitterRecipient{}} }
func ToApprover() RecipientSpec  { return RecipientSpec{ApproverRecipient{}} }

type recipientWire struct {
	Type           RecipientType `json:"type"`
	Value          flexString    `json:"value,omitempty"`
	RoleID         flexString    `json:"role_id,omitempty"`
	BusinessRoleID flexString    `json:"business_role_id,omitempty"`
	PermissionCode string        `json:"permission_code,omitempty"`
}

func (s RecipientSpec) MarshalJSON() ([]byte, error) {
	if s.Recipient == nil {
		return []byte("null"), nil
	}
	w := recipientWire{Type: s.Recipient.Type()}
	switch r := s.Recipient.(type) {
	case UserRecipient:
		w.Value = flexString(r.UserID)
	case RoleRecipient:
		w.RoleID = flexString(r.RoleID)
	case BusinessRoleRecipient:
		w.BusinessRoleID = flexString(r.BusinessRoleID)
	case PermissionRecipient:
		w.PermissionCode = r.PermissionCode
	case FieldValueRecipient:
		w.Value = flexString(r.Field)
	}
	return json.Marshal(&w)
}

func (s *RecipientSpec) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		s.Recipient = nil
		return nil
	}
	w := recipientWire{}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case RecipientUser:
		s.Recipient = UserRecipient{UserID: UserID(w.Value)}
	case RecipientRole:
		s.Recipient = RoleRecipient{RoleID: string(w.RoleID)}
	case RecipientBusinessRole:
		s.Recipient = BusinessRoleRecipient{BusinessRoleID: string(w.BusinessRoleID)}
	case RecipientPermission:
		s.Recipient = PermissionRecipient{PermissionCode: w.PermissionCode}
	case RecipientFieldValue:
		s.Recipient = FieldValueRecipient{Field: string(w.Value)}
	case RecipientSubmitter:
		s.Recipient = SubmitterRecipient{}
	case RecipientApprover:
		s.Recipient = ApproverRecipient{}
	default:
		s.Recipient = UnknownRecipient{RawType: string(w.Type)}
	}
	return nil
}

// flexString accepts both JSON strings and numbers, ids are numeric in some authoring tools
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %s", string(data))
	}
	*f = flexString(n.String())
	return nil
}
