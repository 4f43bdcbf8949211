// Package form holds the in-progress submission record shared by every wizard step,
// the per-dish sub-records, and the step validators that run against them.
package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// File kinds accepted by dishes and by the legacy flat record.
const (
	KindReferenceImages   = "referenceImages"
	KindBrandingMaterials = "brandingMaterials"
	KindReferenceExamples = "referenceExamples"
)

// ItemTypeOther switches a dish into custom item type mode.
const ItemTypeOther = "other"

// PredefinedItemTypes are the item types offered before "other".
var PredefinedItemTypes = []string{"appetizer", "main", "dessert", "drink", "side"}

// IsFileKind reports whether kind names one of the file lists.
func IsFileKind(kind string) bool {
	switch kind {
	case KindReferenceImages, KindBrandingMaterials, KindReferenceExamples:
		return true
	}
	return false
}

// File is an uploaded file held for the life of the session. Data is never serialized.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// CustomStyleRecord is the structured form of a custom style.
type CustomStyleRecord struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CustomStyle is either free text or a CustomStyleRecord.
type CustomStyle struct {
	Text   string
	Record *CustomStyleRecord
}

// Label is safe on a nil receiver.
func (s *CustomStyle) Label() string {
	if s == nil {
		return ""
	}
	if s.Record != nil {
		if s.Record.Description == "" {
			return s.Record.Name
		}
		return fmt.Sprintf("%s: %s", s.Record.Name, s.Record.Description)
	}
	return s.Text
}

func (s CustomStyle) MarshalJSON() ([]byte, error) {
	if s.Record != nil {
		return json.Marshal(s.Record)
	}
	return json.Marshal(s.Text)
}

func (s *CustomStyle) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*s = CustomStyle{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*s = CustomStyle{Text: text}
		return nil
	default:
		var rec CustomStyleRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return fmt.Errorf("customStyle must be a string or an object: %w", err)
		}
		*s = CustomStyle{Record: &rec}
		return nil
	}
}

// DishRecord is one dish within a submission.
type DishRecord struct {
	ID                string `json:"id"`
	ItemType          string `json:"itemType"`
	IsCustomItemType  bool   `json:"isCustomItemType"`
	CustomItemType    string `json:"customItemType"`
	ItemName          string `json:"itemName"`
	Description       string `json:"description"`
	SpecialNotes      string `json:"specialNotes"`
	ReferenceImages   []File `json:"referenceImages"`
	BrandingMaterials []File `json:"brandingMaterials"`
	ReferenceExamples []File `json:"referenceExamples"`
	QualityConfirmed  bool   `json:"qualityConfirmed"`
}

// Touched reports whether the user has started filling in this dish.
func (d DishRecord) Touched() bool {
	return !isBlank(d.ItemName) || !isBlank(d.ItemType) || !isBlank(d.Description)
}

// Files returns the list for kind, or nil for an unknown kind.
func (d DishRecord) Files(kind string) []File {
	switch kind {
	case KindReferenceImages:
		return d.ReferenceImages
	case KindBrandingMaterials:
		return d.BrandingMaterials
	case KindReferenceExamples:
		return d.ReferenceExamples
	}
	return nil
}

func (d *DishRecord) setFiles(kind string, files []File) bool {
	switch kind {
	case KindReferenceImages:
		d.ReferenceImages = files
	case KindBrandingMaterials:
		d.BrandingMaterials = files
	case KindReferenceExamples:
		d.ReferenceExamples = files
	default:
		return false
	}
	return true
}

func (d DishRecord) clone() DishRecord {
	d.ReferenceImages = cloneFiles(d.ReferenceImages)
	d.BrandingMaterials = cloneFiles(d.BrandingMaterials)
	d.ReferenceExamples = cloneFiles(d.ReferenceExamples)
	return d
}

// FormRecord is the single source of truth for one in-progress submission.
type FormRecord struct {
	RestaurantName string `json:"restaurantName"`
	SubmitterName  string `json:"submitterName"`
	ContactEmail   string `json:"contactEmail,omitempty"`
	ContactPhone   string `json:"contactPhone,omitempty"`
	// IsNewBusiness is nil until the user answers.
	IsNewBusiness *bool `json:"isNewBusiness"`
	IsLead        bool  `json:"isLead"`

	// Legacy single-item fields.
	ItemName        string `json:"itemName"`
	ItemType        string `json:"itemType"`
	Description     string `json:"description"`
	SpecialNotes    string `json:"specialNotes"`
	ReferenceImages []File `json:"referenceImages"`

	Dishes []DishRecord `json:"dishes"`

	SelectedCategory string       `json:"selectedCategory,omitempty"`
	SelectedStyle    string       `json:"selectedStyle,omitempty"`
	CustomStyle      *CustomStyle `json:"customStyle,omitempty"`
	StyleComments    string       `json:"styleComments,omitempty"`

	BrandingMaterials []File `json:"brandingMaterials"`
	ReferenceExamples []File `json:"referenceExamples"`
}

// Files returns a legacy flat file list, or nil for an unknown kind.
func (r FormRecord) Files(kind string) []File {
	switch kind {
	case KindReferenceImages:
		return r.ReferenceImages
	case KindBrandingMaterials:
		return r.BrandingMaterials
	case KindReferenceExamples:
		return r.ReferenceExamples
	}
	return nil
}

func (r *FormRecord) setFiles(kind string, files []File) bool {
	switch kind {
	case KindReferenceImages:
		r.ReferenceImages = files
	case KindBrandingMaterials:
		r.BrandingMaterials = files
	case KindReferenceExamples:
		r.ReferenceExamples = files
	default:
		return false
	}
	return true
}

// HasDishes reports whether the record is in multi-dish mode.
func (r FormRecord) HasDishes() bool {
	return len(r.Dishes) > 0
}

// TouchedDishes returns the dishes the user has started, in display order.
func (r FormRecord) TouchedDishes() []DishRecord {
	var touched []DishRecord
	for _, d := range r.Dishes {
		if d.Touched() {
			touched = append(touched, d)
		}
	}
	return touched
}

func (r FormRecord) clone() FormRecord {
	out := r
	if r.IsNewBusiness != nil {
		v := *r.IsNewBusiness
		out.IsNewBusiness = &v
	}
	if r.CustomStyle != nil {
		cs := *r.CustomStyle
		if cs.Record != nil {
			rec := *cs.Record
			cs.Record = &rec
		}
		out.CustomStyle = &cs
	}
	out.ReferenceImages = cloneFiles(r.ReferenceImages)
	out.BrandingMaterials = cloneFiles(r.BrandingMaterials)
	out.ReferenceExamples = cloneFiles(r.ReferenceExamples)
	if r.Dishes != nil {
		out.Dishes = make([]DishRecord, len(r.Dishes))
		for i, d := range r.Dishes {
			out.Dishes[i] = d.clone()
		}
	}
	return out
}

func newDish(id string) DishRecord {
	return DishRecord{
		ID:                id,
		ReferenceImages:   []File{},
		BrandingMaterials: []File{},
		ReferenceExamples: []File{},
	}
}

// DefaultRecord is the record a fresh wizard starts with.
func DefaultRecord() FormRecord {
	return FormRecord{
		ReferenceImages:   []File{},
		BrandingMaterials: []File{},
		ReferenceExamples: []File{},
		Dishes:            []DishRecord{newDish("1")},
	}
}

// cloneFiles copies the slice header only; file contents stay shared.
func cloneFiles(files []File) []File {
	if files == nil {
		return nil
	}
	out := make([]File, len(files))
	copy(out, files)
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
