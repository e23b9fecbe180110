package models

import (
	"time"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleShopkeeper Role = "shopkeeper"
)

// View identifies which screen a browser client should render.
type View string

const (
	ViewLanding             View = "landing"
	ViewClientLogin         View = "client-login"
	ViewShopkeeperLogin     View = "shopkeeper-login"
	ViewClientDashboard     View = "client-dashboard"
	ViewShopkeeperDashboard View = "shopkeeper-dashboard"
)

type SessionRecord struct {
	Role Role `json:"role"`

	// Client fields
	QueueID      string    `json:"queue_id,omitempty"`
	CustomerID   string    `json:"customer_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	JoinTime     time.Time `json:"join_time,omitzero"`

	// Shopkeeper fields
	ShopID    string    `json:"shop_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	LoginTime time.Time `json:"login_time,omitzero"`
}

// ResolveView maps a session record to the initial screen. Missing or
// unrecognized records always land on the landing page.
func ResolveView(rec *SessionRecord) View {
	if rec == nil {
		return ViewLanding
	}
	switch rec.Role {
	case RoleClient:
		return ViewClientDashboard
	case RoleShopkeeper:
		return ViewShopkeeperDashboard
	default:
		return ViewLanding
	}
}
