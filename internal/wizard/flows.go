package wizard

import "github.com/ikkim/dishshot-intake/internal/form"

// Flow names accepted when a session starts.
const (
	FlowDishes = "dishes"
	FlowPublic = "public"
)

// Flow is an ordered list of steps. The last step is the review step.
type Flow struct {
	Name  string
	Steps []Step
}

func (f Flow) indexOf(id int) int {
	for i, s := range f.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// StepIDs lists the step ids in order.
func (f Flow) StepIDs() []int {
	ids := make([]int, len(f.Steps))
	for i, s := range f.Steps {
		ids[i] = s.ID
	}
	return ids
}

func (f Flow) First() Step {
	return f.Steps[0]
}

// Review runs the validator of the terminal step.
func (f Flow) Review(r form.FormRecord) form.Errors {
	return f.Steps[len(f.Steps)-1].check(r)
}

// FirstFailing returns the earliest non-terminal step whose validator rejects r.
func (f Flow) FirstFailing(r form.FormRecord) (Step, bool) {
	for _, s := range f.Steps[:len(f.Steps)-1] {
		if !s.check(r).Valid() {
			return s, true
		}
	}
	return Step{}, false
}

// MultiDishFlow collects several dishes with their own images.
func MultiDishFlow() Flow {
	return Flow{
		Name: FlowDishes,
		Steps: []Step{
			{ID: 1, Name: "business", Validate: form.ValidateRestaurantDetails},
			{ID: 2, Name: "dishes", Validate: form.ValidateItemDetails},
			{ID: 3, Name: "images", Validate: form.ValidateImageUpload},
			{ID: 4, Name: "review", Validate: form.ValidateReview},
		},
	}
}

// PublicFlow is the single-item public form. Item details and images share step 2.
func PublicFlow() Flow {
	return Flow{
		Name: FlowPublic,
		Steps: []Step{
			{ID: 1, Name: "business", Validate: form.ValidateRestaurantDetails},
			{ID: 2, Name: "item", Validate: func(r form.FormRecord) form.Errors {
				return form.Errors{}.Merge(form.ValidatePublicItemDetails(r), form.ValidatePublicImageUpload(r))
			}},
			{ID: 4, Name: "review", Validate: form.ValidatePublicReview},
		},
	}
}

// FlowByName resolves a flow name.
func FlowByName(name string) (Flow, bool) {
	switch name {
	case FlowDishes, "":
		return MultiDishFlow(), true
	case FlowPublic:
		return PublicFlow(), true
	}
	return Flow{}, false
}
