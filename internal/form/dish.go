package form

import "strconv"

// DishPatch is a partial DishRecord. Nil fields are left untouched.
type DishPatch struct {
	ItemType         *string `json:"itemType,omitempty"`
	IsCustomItemType *bool   `json:"isCustomItemType,omitempty"`
	CustomItemType   *string `json:"customItemType,omitempty"`
	ItemName         *string `json:"itemName,omitempty"`
	Description      *string `json:"description,omitempty"`
	SpecialNotes     *string `json:"specialNotes,omitempty"`
	QualityConfirmed *bool   `json:"qualityConfirmed,omitempty"`

	ReferenceImages   *[]File `json:"-"`
	BrandingMaterials *[]File `json:"-"`
	ReferenceExamples *[]File `json:"-"`
}

// AddDish appends an empty dish and returns its id.
func (s *Store) AddDish() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bumpCounter()
	s.lastDishID++
	id := strconv.Itoa(s.lastDishID)
	s.record.Dishes = append(s.record.Dishes, newDish(id))
	return id
}

// RemoveDish deletes the dish with id. It never removes the last remaining dish.
func (s *Store) RemoveDish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.record.Dishes) <= 1 {
		return
	}
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	dishes := make([]DishRecord, 0, len(s.record.Dishes)-1)
	dishes = append(dishes, s.record.Dishes[:i]...)
	dishes = append(dishes, s.record.Dishes[i+1:]...)
	s.record.Dishes = dishes
}

// UpdateDish shallow-merges p into the dish with id. Unknown ids are ignored.
// In custom mode CustomItemType is mirrored into ItemType.
func (s *Store) UpdateDish(id string, p DishPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	d := &s.record.Dishes[i]
	assign(&d.ItemType, p.ItemType)
	assign(&d.IsCustomItemType, p.IsCustomItemType)
	assign(&d.CustomItemType, p.CustomItemType)
	assign(&d.ItemName, p.ItemName)
	assign(&d.Description, p.Description)
	assign(&d.SpecialNotes, p.SpecialNotes)
	assign(&d.QualityConfirmed, p.QualityConfirmed)
	if d.IsCustomItemType && (p.IsCustomItemType != nil || p.CustomItemType != nil) {
		d.ItemType = d.CustomItemType
	}
	if p.ReferenceImages != nil {
		d.ReferenceImages = cloneFiles(*p.ReferenceImages)
	}
	if p.BrandingMaterials != nil {
		d.BrandingMaterials = cloneFiles(*p.BrandingMaterials)
	}
	if p.ReferenceExamples != nil {
		d.ReferenceExamples = cloneFiles(*p.ReferenceExamples)
	}
}

// GetDish looks a dish up by id.
func (s *Store) GetDish(id string) (DishRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return DishRecord{}, false
	}
	return s.record.Dishes[i].clone(), true
}

// SelectItemType applies a choice from the item type picker. "other" switches the
// dish to custom mode and clears the predefined type; anything else leaves custom mode.
func (s *Store) SelectItemType(id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	d := &s.record.Dishes[i]
	if value == ItemTypeOther {
		d.IsCustomItemType = true
		d.ItemType = d.CustomItemType
		return
	}
	d.IsCustomItemType = false
	d.CustomItemType = ""
	d.ItemType = value
}

// SetCustomItemType records free text for a dish in custom mode and mirrors it to ItemType.
func (s *Store) SetCustomItemType(id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || !s.record.Dishes[i].IsCustomItemType {
		return
	}
	s.record.Dishes[i].CustomItemType = value
	s.record.Dishes[i].ItemType = value
}

// AttachDishFiles appends files to one of the dish's lists.
func (s *Store) AttachDishFiles(id, kind string, files ...File) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	d := &s.record.Dishes[i]
	return d.setFiles(kind, append(cloneFiles(d.Files(kind)), files...))
}

// DetachDishFile removes the file at index from one of the dish's lists.
func (s *Store) DetachDishFile(id, kind string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	d := &s.record.Dishes[i]
	files := d.Files(kind)
	if index < 0 || index >= len(files) {
		return false
	}
	out := make([]File, 0, len(files)-1)
	out = append(out, files[:index]...)
	out = append(out, files[index+1:]...)
	return d.setFiles(kind, out)
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i, d := range s.record.Dishes {
		if d.ID == id {
			return i
		}
	}
	return -1
}
