package model

import "time"

// SubmissionStatus tracks a submission through the image pipeline.
type SubmissionStatus string

const (
	// SubmissionStatusPending is the status every new row starts with.
	SubmissionStatusPending    SubmissionStatus = "pending"
	SubmissionStatusProcessing SubmissionStatus = "processing"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
)

// Submission is one dish sent for image generation.
type Submission struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	ClientID       string `gorm:"index;type:varchar(36);not null" json:"client_id"`
	RestaurantName string `gorm:"index" json:"restaurant_name"`
	SubmitterName  string `json:"submitter_name"`

	ItemType     string `gorm:"not null" json:"item_type"`
	ItemName     string `gorm:"not null" json:"item_name"`
	Description  string `gorm:"type:text" json:"description"`
	SpecialNotes string `gorm:"type:text" json:"special_notes"`

	Category      string `json:"category"`
	Style         string `json:"style"`
	CustomStyle   string `gorm:"type:text" json:"custom_style"`
	StyleComments string `gorm:"type:text" json:"style_comments"`

	OriginalImageURLs    StringArray `gorm:"type:text" json:"original_image_urls"`
	BrandingMaterialURLs StringArray `gorm:"type:text" json:"branding_material_urls"`
	ReferenceExampleURLs StringArray `gorm:"type:text" json:"reference_example_urls"`

	Status    SubmissionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}
