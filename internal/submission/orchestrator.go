package submission

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/ikkim/dishshot-intake/internal/metrics"
	"github.com/ikkim/dishshot-intake/pkg/logger"
	"gorm.io/gorm"
)

type Orchestrator struct {
	storage     ObjectStorage
	clients     ClientRepository
	submissions SubmissionRepository
	notifier    Notifier
	guard       Guard

	now   func() time.Time
	newID func() string
}

func NewOrchestrator(storage ObjectStorage, clients ClientRepository, submissions SubmissionRepository, notifier Notifier, guard Guard) *Orchestrator {
	if storage == nil || clients == nil || submissions == nil || notifier == nil || guard == nil {
		panic("submission: orchestrator collaborators must not be nil")
	}
	return &Orchestrator{
		storage:     storage,
		clients:     clients,
		submissions: submissions,
		notifier:    notifier,
		guard:       guard,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// item is one row to insert together with the files that feed it.
type item struct {
	dishID            string
	itemType          string
	itemName          string
	description       string
	specialNotes      string
	referenceImages   []form.File
	brandingMaterials []form.File
	referenceExamples []form.File
}

type uploaded struct {
	originals []string
	branding  []string
	examples  []string
}

func itemsFor(r form.FormRecord) []item {
	if !r.HasDishes() {
		return []item{{
			itemType:          r.ItemType,
			itemName:          r.ItemName,
			description:       r.Description,
			specialNotes:      r.SpecialNotes,
			referenceImages:   r.ReferenceImages,
			brandingMaterials: r.BrandingMaterials,
			referenceExamples: r.ReferenceExamples,
		}}
	}

	var items []item
	for _, d := range r.TouchedDishes() {
		itemType := d.ItemType
		if d.IsCustomItemType && strings.TrimSpace(d.CustomItemType) != "" {
			itemType = d.CustomItemType
		}
		items = append(items, item{
			dishID:            d.ID,
			itemType:          itemType,
			itemName:          d.ItemName,
			description:       d.Description,
			specialNotes:      d.SpecialNotes,
			referenceImages:   d.ReferenceImages,
			brandingMaterials: d.BrandingMaterials,
			referenceExamples: d.ReferenceExamples,
		})
	}
	return items
}

func (o *Orchestrator) acquire(ctx context.Context, key string) error {
	ok, err := o.guard.Acquire(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadySubmitting
	}
	return nil
}

func (o *Orchestrator) fail(flow string, phase Phase, err error, fields map[string]interface{}) error {
	fields["phase"] = string(phase)
	fields["flow"] = flow
	logger.Error("Submission aborted", err, fields)
	metrics.SubmissionsFailed.WithLabelValues(flow, string(phase)).Inc()
	return &PhaseError{Phase: phase, Err: err}
}

// SubmitDishes runs upload, owner resolution, insert and notify for every touched dish,
// or for the flat fields of a record without dishes. Phases run strictly in that
// order and the first failure aborts the rest. Files already uploaded stay in storage.
func (o *Orchestrator) SubmitDishes(ctx context.Context, req Request) (*Result, error) {
	items := itemsFor(req.Record)
	if len(items) == 0 {
		return nil, ErrNothingToSubmit
	}
	if err := o.acquire(ctx, req.Key); err != nil {
		return nil, err
	}
	defer o.guard.Release(ctx, req.Key)

	flow := req.Flow
	if flow == "" {
		flow = "dishes"
	}
	start := o.now()
	rec := req.Record

	logger.Info("Submission started", map[string]interface{}{
		"flow":            flow,
		"restaurant_name": rec.RestaurantName,
		"items":           len(items),
	})

	ownerKey := req.AuthUserID
	if ownerKey == "" {
		ownerKey = rec.RestaurantName
	}

	files := make([]uploaded, len(items))
	for i, it := range items {
		var err error
		if files[i].originals, err = o.uploadDishFiles(ctx, ownerKey, it.itemType, form.KindReferenceImages, it.referenceImages); err != nil {
			return nil, o.fail(flow, PhaseUpload, err, map[string]interface{}{"dish_id": it.dishID})
		}
		if files[i].branding, err = o.uploadDishFiles(ctx, ownerKey, it.itemType, form.KindBrandingMaterials, it.brandingMaterials); err != nil {
			return nil, o.fail(flow, PhaseUpload, err, map[string]interface{}{"dish_id": it.dishID})
		}
		if files[i].examples, err = o.uploadDishFiles(ctx, ownerKey, it.itemType, form.KindReferenceExamples, it.referenceExamples); err != nil {
			return nil, o.fail(flow, PhaseUpload, err, map[string]interface{}{"dish_id": it.dishID})
		}
	}

	client, err := o.resolveOwner(ctx, req)
	if err != nil {
		return nil, o.fail(flow, PhaseOwner, err, map[string]interface{}{"restaurant_name": rec.RestaurantName})
	}

	rows := make([]model.Submission, len(items))
	for i, it := range items {
		rows[i] = model.Submission{
			ClientID:             client.ID,
			RestaurantName:       rec.RestaurantName,
			SubmitterName:        rec.SubmitterName,
			ItemType:             it.itemType,
			ItemName:             it.itemName,
			Description:          it.description,
			SpecialNotes:         it.specialNotes,
			Category:             rec.SelectedCategory,
			Style:                rec.SelectedStyle,
			CustomStyle:          rec.CustomStyle.Label(),
			StyleComments:        rec.StyleComments,
			OriginalImageURLs:    model.StringArray(files[i].originals),
			BrandingMaterialURLs: model.StringArray(files[i].branding),
			ReferenceExampleURLs: model.StringArray(files[i].examples),
			Status:               model.SubmissionStatusPending,
		}
	}
	if err := o.submissions.CreateBatch(ctx, rows); err != nil {
		return nil, o.fail(flow, PhaseInsert, err, map[string]interface{}{"client_id": client.ID})
	}

	o.notifier.Notify(ctx, rec)

	metrics.SubmissionsCompleted.WithLabelValues(flow).Inc()
	metrics.SubmissionDuration.WithLabelValues(flow).Observe(o.now().Sub(start).Seconds())
	logger.Info("Submission stored", map[string]interface{}{
		"flow":      flow,
		"client_id": client.ID,
		"rows":      len(rows),
	})

	return &Result{ClientID: client.ID, Submissions: rows}, nil
}

// uploadDishFiles returns the public URLs in input order.
func (o *Orchestrator) uploadDishFiles(ctx context.Context, ownerKey, itemType, kind string, files []form.File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := DishImagePath(ownerKey, itemType, kind, o.newID(), Extension(f))
		if err := o.storage.Upload(ctx, key, f); err != nil {
			return nil, err
		}
		metrics.FilesUploaded.WithLabelValues(kind).Inc()
		urls = append(urls, o.storage.PublicURL(key))
	}
	return urls, nil
}

func (o *Orchestrator) resolveOwner(ctx context.Context, req Request) (*model.Client, error) {
	rec := req.Record

	var existing *model.Client
	var err error
	if req.AuthUserID != "" {
		existing, err = o.clients.FindByAuthUserID(ctx, req.AuthUserID)
	} else {
		existing, err = o.clients.FindByRestaurantName(ctx, rec.RestaurantName)
	}
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	client := &model.Client{
		ID:             o.newID(),
		RestaurantName: rec.RestaurantName,
		SubmitterName:  rec.SubmitterName,
		Email:          placeholder(rec.ContactEmail, placeholder(req.AuthEmail, model.PlaceholderEmail)),
		Phone:          placeholder(rec.ContactPhone, model.PlaceholderPhone),
		IsLead:         rec.IsLead,
	}
	if req.AuthUserID != "" {
		authID := req.AuthUserID
		client.AuthUserID = &authID
	}
	if err := o.clients.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func placeholder(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// SubmitPublicItem runs the public single-item flow: upload the flat reference images,
// then hand everything to the public submission procedure.
func (o *Orchestrator) SubmitPublicItem(ctx context.Context, req Request) (*Result, error) {
	if err := o.acquire(ctx, req.Key); err != nil {
		return nil, err
	}
	defer o.guard.Release(ctx, req.Key)

	flow := req.Flow
	if flow == "" {
		flow = "public"
	}
	start := o.now()
	rec := req.Record

	logger.Info("Public submission started", map[string]interface{}{
		"restaurant_name": rec.RestaurantName,
		"images":          len(rec.ReferenceImages),
	})

	// Timestamps advance per file so same-named files never share a key.
	base := start.UnixMilli()
	urls := make([]string, 0, len(rec.ReferenceImages))
	for i, f := range rec.ReferenceImages {
		key := PublicImagePath(PublicScope, rec.RestaurantName, base+int64(i), f.Name)
		if err := o.storage.Upload(ctx, key, f); err != nil {
			return nil, o.fail(flow, PhaseUpload, err, map[string]interface{}{"key": key})
		}
		metrics.FilesUploaded.WithLabelValues(form.KindReferenceImages).Inc()
		urls = append(urls, o.storage.PublicURL(key))
	}

	sub, err := o.submissions.PublicSubmitItemByRestaurantName(ctx, repository.PublicItem{
		RestaurantName: rec.RestaurantName,
		ItemType:       rec.ItemType,
		ItemName:       rec.ItemName,
		Description:    rec.Description,
		Notes:          rec.SpecialNotes,
		ImageURLs:      urls,
	})
	if err != nil {
		return nil, o.fail(flow, PhaseRPC, err, map[string]interface{}{"restaurant_name": rec.RestaurantName})
	}

	o.notifier.Notify(ctx, rec)

	metrics.SubmissionsCompleted.WithLabelValues(flow).Inc()
	metrics.SubmissionDuration.WithLabelValues(flow).Observe(o.now().Sub(start).Seconds())

	return &Result{ClientID: sub.ClientID, Submissions: []model.Submission{*sub}}, nil
}
