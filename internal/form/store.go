package form

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"
)

// FormPatch is a partial FormRecord. Nil fields are left untouched.
// Dishes and the file lists can only be replaced from Go code, never from JSON.
type FormPatch struct {
	RestaurantName *string `json:"restaurantName,omitempty"`
	SubmitterName  *string `json:"submitterName,omitempty"`
	ContactEmail   *string `json:"contactEmail,omitempty"`
	ContactPhone   *string `json:"contactPhone,omitempty"`
	IsNewBusiness  *bool   `json:"isNewBusiness,omitempty"`
	IsLead         *bool   `json:"isLead,omitempty"`

	ItemName     *string `json:"itemName,omitempty"`
	ItemType     *string `json:"itemType,omitempty"`
	Description  *string `json:"description,omitempty"`
	SpecialNotes *string `json:"specialNotes,omitempty"`

	SelectedCategory *string      `json:"selectedCategory,omitempty"`
	SelectedStyle    *string      `json:"selectedStyle,omitempty"`
	CustomStyle      *CustomStyle `json:"customStyle,omitempty"`
	StyleComments    *string      `json:"styleComments,omitempty"`

	// ClearCustomStyle is set when the body carried an explicit "customStyle": null.
	ClearCustomStyle bool `json:"-"`

	Dishes            *[]DishRecord `json:"-"`
	ReferenceImages   *[]File       `json:"-"`
	BrandingMaterials *[]File       `json:"-"`
	ReferenceExamples *[]File       `json:"-"`
}

// UnmarshalJSON keeps an explicit null customStyle apart from an absent one.
func (p *FormPatch) UnmarshalJSON(data []byte) error {
	type plain FormPatch
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["customStyle"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		out.ClearCustomStyle = true
		out.CustomStyle = nil
	}
	*p = FormPatch(out)
	return nil
}

// Store owns one FormRecord. All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	record FormRecord
	// lastDishID is the highest dish id ever issued since the last reset.
	lastDishID int
}

// NewStore returns a store holding DefaultRecord.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Get returns a snapshot. Slices are copied so callers cannot mutate the store.
func (s *Store) Get() FormRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.clone()
}

// Update shallow-merges p into the record. No validation is performed.
func (s *Store) Update(p FormPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &s.record
	assign(&r.RestaurantName, p.RestaurantName)
	assign(&r.SubmitterName, p.SubmitterName)
	assign(&r.ContactEmail, p.ContactEmail)
	assign(&r.ContactPhone, p.ContactPhone)
	if p.IsNewBusiness != nil {
		v := *p.IsNewBusiness
		r.IsNewBusiness = &v
	}
	assign(&r.IsLead, p.IsLead)
	assign(&r.ItemName, p.ItemName)
	assign(&r.ItemType, p.ItemType)
	assign(&r.Description, p.Description)
	assign(&r.SpecialNotes, p.SpecialNotes)
	assign(&r.SelectedCategory, p.SelectedCategory)
	assign(&r.SelectedStyle, p.SelectedStyle)
	if p.ClearCustomStyle {
		r.CustomStyle = nil
	} else if p.CustomStyle != nil {
		cs := *p.CustomStyle
		r.CustomStyle = &cs
	}
	assign(&r.StyleComments, p.StyleComments)

	if p.Dishes != nil {
		dishes := make([]DishRecord, len(*p.Dishes))
		for i, d := range *p.Dishes {
			dishes[i] = d.clone()
		}
		r.Dishes = dishes
		s.bumpCounter()
	}
	if p.ReferenceImages != nil {
		r.ReferenceImages = cloneFiles(*p.ReferenceImages)
	}
	if p.BrandingMaterials != nil {
		r.BrandingMaterials = cloneFiles(*p.BrandingMaterials)
	}
	if p.ReferenceExamples != nil {
		r.ReferenceExamples = cloneFiles(*p.ReferenceExamples)
	}
}

// SetBusinessStatus records the registration answer. A business that is not
// registered yet is a lead.
func (s *Store) SetBusinessStatus(isNew bool) {
	s.Update(FormPatch{IsNewBusiness: &isNew, IsLead: &isNew})
}

// Reset replaces the record with DefaultRecord and restarts dish numbering.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = DefaultRecord()
	s.lastDishID = 1
}

// AttachFiles appends files to a legacy flat list.
func (s *Store) AttachFiles(kind string, files ...File) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.record.Files(kind)
	return s.record.setFiles(kind, append(cloneFiles(current), files...))
}

// DetachFile removes the file at index from a legacy flat list.
func (s *Store) DetachFile(kind string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.record.Files(kind)
	if index < 0 || index >= len(files) {
		return false
	}
	out := make([]File, 0, len(files)-1)
	out = append(out, files[:index]...)
	out = append(out, files[index+1:]...)
	return s.record.setFiles(kind, out)
}

// bumpCounter keeps lastDishID at or above every numeric id present.
// Must be called with mu held.
func (s *Store) bumpCounter() {
	for _, d := range s.record.Dishes {
		if n, err := strconv.Atoi(d.ID); err == nil && n > s.lastDishID {
			s.lastDishID = n
		}
	}
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
