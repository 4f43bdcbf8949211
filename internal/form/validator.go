package form

import "fmt"

const (
	// MinDishImages applies to each started dish in the multi-dish flow.
	MinDishImages = 4
	// MinPublicImages applies to the public single-item flow.
	MinPublicImages = 1
	MaxImages       = 10
	// MaxLeadDishes caps how many dishes a business that is not registered yet may send.
	MaxLeadDishes = 3
)

const (
	MsgBusinessStatusRequired = "Please tell us whether your business is already registered"
	MsgRestaurantNameRequired = "Restaurant name is required"
	MsgSubmitterNameRequired  = "Your name is required"
	MsgContactEmailRequired   = "Contact email is required for new businesses"
	MsgContactPhoneRequired   = "Contact phone is required for new businesses"
	MsgLeadDishLimit          = "A new lead may upload at most 3 dishes"
	MsgItemNameRequired       = "Item name is required"
	MsgItemTypeRequired       = "Item type is required"
	MsgDescriptionRequired    = "Description is required"
	MsgTooManyImages          = "You can upload at most 10 images"
	MsgQualityNotConfirmed    = "Please confirm your photos meet the quality guidelines"
)

// Field keys used outside the per-dish namespace.
const (
	FieldIsNewBusiness   = "isNewBusiness"
	FieldRestaurantName  = "restaurantName"
	FieldSubmitterName   = "submitterName"
	FieldContactEmail    = "contactEmail"
	FieldContactPhone    = "contactPhone"
	FieldDishCount       = "dishCount"
	FieldItemName        = "itemName"
	FieldItemType        = "itemType"
	FieldDescription     = "description"
	FieldReferenceImages = "referenceImages"
	FieldQuality         = "qualityConfirmed"
)

// Errors maps a field key to a human readable message. An empty map means valid.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Merge copies every entry of others into e and returns e.
func (e Errors) Merge(others ...Errors) Errors {
	for _, o := range others {
		for k, v := range o {
			e[k] = v
		}
	}
	return e
}

// DishField returns the key for a per-dish field, e.g. dish_2_itemName.
func DishField(dishID, field string) string {
	return fmt.Sprintf("dish_%s_%s", dishID, field)
}

// MissingImagesMessage is the message for a list below its minimum.
func MissingImagesMessage(min int) string {
	if min == 1 {
		return "Please upload at least 1 image"
	}
	return fmt.Sprintf("Please upload at least %d images", min)
}

// ValidateRestaurantDetails checks the business details step.
func ValidateRestaurantDetails(r FormRecord) Errors {
	errs := Errors{}
	if r.IsNewBusiness == nil {
		errs[FieldIsNewBusiness] = MsgBusinessStatusRequired
	}
	if isBlank(r.RestaurantName) {
		errs[FieldRestaurantName] = MsgRestaurantNameRequired
	}
	if isBlank(r.SubmitterName) {
		errs[FieldSubmitterName] = MsgSubmitterNameRequired
	}
	if r.IsNewBusiness != nil && *r.IsNewBusiness {
		if isBlank(r.ContactEmail) {
			errs[FieldContactEmail] = MsgContactEmailRequired
		}
		if isBlank(r.ContactPhone) {
			errs[FieldContactPhone] = MsgContactPhoneRequired
		}
	}
	return errs
}

// ValidateItemDetails checks dish details, or the legacy flat item fields when
// the record has no dishes.
func ValidateItemDetails(r FormRecord) Errors {
	errs := Errors{}
	if !r.HasDishes() {
		if isBlank(r.ItemName) {
			errs[FieldItemName] = MsgItemNameRequired
		}
		if r.ItemType == "" {
			errs[FieldItemType] = MsgItemTypeRequired
		}
		if isBlank(r.Description) {
			errs[FieldDescription] = MsgDescriptionRequired
		}
		return errs
	}

	if r.IsLead && len(r.Dishes) > MaxLeadDishes {
		errs[FieldDishCount] = MsgLeadDishLimit
	}
	for _, d := range r.Dishes {
		if !d.Touched() {
			continue
		}
		if isBlank(d.ItemName) {
			errs[DishField(d.ID, FieldItemName)] = MsgItemNameRequired
		}
		if isBlank(d.ItemType) {
			errs[DishField(d.ID, FieldItemType)] = MsgItemTypeRequired
		}
		if isBlank(d.Description) {
			errs[DishField(d.ID, FieldDescription)] = MsgDescriptionRequired
		}
	}
	return errs
}

// ValidateImageUpload is the multi-dish image rule: every started dish needs
// MinDishImages to MaxImages reference images and a quality confirmation.
// Legacy records are held to the same minimum.
func ValidateImageUpload(r FormRecord) Errors {
	if !r.HasDishes() {
		return validateFlatImages(r, MinDishImages)
	}
	errs := Errors{}
	for _, d := range r.Dishes {
		if !d.Touched() {
			continue
		}
		if msg := imageCountMessage(len(d.ReferenceImages), MinDishImages); msg != "" {
			errs[DishField(d.ID, FieldReferenceImages)] = msg
		}
		if !d.QualityConfirmed {
			errs[DishField(d.ID, FieldQuality)] = MsgQualityNotConfirmed
		}
	}
	return errs
}

// ValidatePublicItemDetails checks the flat item fields only. The public form
// never uses the dish list.
func ValidatePublicItemDetails(r FormRecord) Errors {
	r.Dishes = nil
	return ValidateItemDetails(r)
}

// ValidatePublicImageUpload is the public single-item rule on the flat list.
func ValidatePublicImageUpload(r FormRecord) Errors {
	return validateFlatImages(r, MinPublicImages)
}

// ValidateReview is the final gate for the multi-dish flow.
func ValidateReview(r FormRecord) Errors {
	return Errors{}.Merge(
		ValidateRestaurantDetails(r),
		ValidateItemDetails(r),
		ValidateImageUpload(r),
	)
}

// ValidatePublicReview is the final gate for the public single-item flow.
func ValidatePublicReview(r FormRecord) Errors {
	return Errors{}.Merge(
		ValidateRestaurantDetails(r),
		ValidatePublicItemDetails(r),
		ValidatePublicImageUpload(r),
	)
}

func validateFlatImages(r FormRecord, min int) Errors {
	errs := Errors{}
	if msg := imageCountMessage(len(r.ReferenceImages), min); msg != "" {
		errs[FieldReferenceImages] = msg
	}
	return errs
}

func imageCountMessage(n, min int) string {
	switch {
	case n < min:
		return MissingImagesMessage(min)
	case n > MaxImages:
		return MsgTooManyImages
	}
	return ""
}
