package model

import "time"

// Placeholders written when a new client leaves optional contact fields blank.
// Downstream consumers match on these exact strings.
const (
	PlaceholderEmail = "no-email@placeholder.com"
	PlaceholderPhone = "N/A"
)

// Client is the restaurant that owns submissions.
type Client struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthUserID     *string   `gorm:"index;type:varchar(64)" json:"auth_user_id,omitempty"` // set when the submitter was logged in
	RestaurantName string    `gorm:"index;not null" json:"restaurant_name"`
	SubmitterName  string    `json:"submitter_name"`
	Email          string    `gorm:"not null" json:"email"`
	Phone          string    `gorm:"type:varchar(30);not null" json:"phone"`
	IsLead         bool      `gorm:"default:false;index" json:"is_lead"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}
