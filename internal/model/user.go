package model

// User is a CRM operator account.
type User struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"fullName"`
	RoleID   *int64 `json:"roleId,omitempty"`
	RoleName string `json:"roleName,omitempty"`
}

// Role groups permissions assigned to users.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

// Session is the authenticated user together with the permission names
// the server granted them.
type Session struct {
	User        User     `json:"user"`
	Permissions []string `json:"permissions"`
}

// Permission names checked by the client before offering an action.
const (
	PermBidCreate       = "bid_create"
	PermBidEdit         = "bid_edit"
	PermBidDelete       = "bid_delete"
	PermClientCreate    = "client_create"
	PermObjectCreate    = "client_object_create"
	PermEquipmentCreate = "equipment_create"
	PermEquipmentEdit   = "equipment_edit"
	PermEquipmentDelete = "equipment_delete"
)
