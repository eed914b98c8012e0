package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/menu"
	"cmsadmin/internal/model"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/screen"

	"go.uber.org/zap"
)

// RecordService serves list pages and the record actions that have no
// editor: deletes, applicant review, promotion activation and metadata
// publishing.
type RecordService struct {
	client *backend.Client
	bus    EventBus
	log    *zap.Logger
}

func NewRecordService(client *backend.Client, bus EventBus, log *zap.Logger) *RecordService {
	return &RecordService{client: client, bus: bus, log: log}
}

// resources without an editor screen
var listOnly = map[string]menu.Permission{
	backend.Services: menu.ManageCatalog,
}

// permFor returns the permission guarding a backend resource
func permFor(resource string) (menu.Permission, error) {
	if p, ok := listOnly[resource]; ok {
		return p, nil
	}
	for _, name := range screen.Names() {
		sc, _ := screen.Lookup(name)
		if sc.Resource == resource {
			return sc.Perm, nil
		}
	}
	return "", fmt.Errorf("%w: %s", screen.ErrUnknownScreen, resource)
}

func (s *RecordService) resource(actor Actor, name string) (*backend.Resource[json.RawMessage], error) {
	perm, err := permFor(name)
	if err != nil {
		return nil, err
	}
	if err := actor.can(perm); err != nil {
		return nil, err
	}
	return backend.NewResource[json.RawMessage](s.client, name), nil
}

// List fetches one page of a resource. q is passed through, page included.
func (s *RecordService) List(ctx context.Context, actor Actor, resource string, q url.Values) (backend.Envelope[[]json.RawMessage], error) {
	res, err := s.resource(actor, resource)
	if err != nil {
		return backend.Envelope[[]json.RawMessage]{}, err
	}
	return res.List(ctx, q)
}

func (s *RecordService) Detail(ctx context.Context, actor Actor, resource, id string) (json.RawMessage, error) {
	res, err := s.resource(actor, resource)
	if err != nil {
		return nil, err
	}
	return res.Detail(ctx, id)
}

func (s *RecordService) Delete(ctx context.Context, actor Actor, resource, id string) error {
	res, err := s.resource(actor, resource)
	if err != nil {
		return err
	}
	if err := res.Delete(ctx, id); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to Delete Data: "+err.Error())
		return err
	}
	s.done(ctx, actor, "Success Delete Data", resource, id, "delete")
	return nil
}

func (s *RecordService) Applicants(ctx context.Context, actor Actor, careerID string, q url.Values) (backend.Envelope[[]model.Applicant], error) {
	if err := actor.can(menu.ManageCareers); err != nil {
		return backend.Envelope[[]model.Applicant]{}, err
	}
	return s.client.Applicants(ctx, careerID, q)
}

func (s *RecordService) Applicant(ctx context.Context, actor Actor, id string) (model.Applicant, error) {
	if err := actor.can(menu.ManageCareers); err != nil {
		return model.Applicant{}, err
	}
	return s.client.Applicant(ctx, id)
}

// SetApplicantStatus moves an applicant through the review pipeline
func (s *RecordService) SetApplicantStatus(ctx context.Context, actor Actor, id string, status model.ApplicantStatus) error {
	if err := actor.can(menu.ManageCareers); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.client.SetApplicantStatus(ctx, id, status); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to update applicant status: "+err.Error())
		return err
	}
	s.done(ctx, actor, "Success Update Applicant Status", "applicant", id, "update")
	return nil
}

func (s *RecordService) DeleteApplicant(ctx context.Context, actor Actor, id string) error {
	if err := actor.can(menu.ManageCareers); err != nil {
		return err
	}
	if err := s.client.DeleteApplicant(ctx, id); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to Delete Data: "+err.Error())
		return err
	}
	s.done(ctx, actor, "Success Delete Data", "applicant", id, "delete")
	return nil
}

// ActivatePromotion shows or hides a promotion on the public site
func (s *RecordService) ActivatePromotion(ctx context.Context, actor Actor, id string, active bool) error {
	if err := actor.can(screen.Promotion.Perm); err != nil {
		return err
	}
	if err := s.client.SetPromotionActive(ctx, id, active); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to update promotion: "+err.Error())
		return err
	}
	msg := "Success Deactivate Promotion"
	if active {
		msg = "Success Activate Promotion"
	}
	s.done(ctx, actor, msg, screen.Promotion.Name, id, "update")
	return nil
}

func (s *RecordService) MetadataByPage(ctx context.Context, actor Actor, page string) (model.Metadata, error) {
	if err := actor.can(screen.Metadata.Perm); err != nil {
		return model.Metadata{}, err
	}
	return s.client.MetadataByPage(ctx, page)
}

func (s *RecordService) PublishMetadata(ctx context.Context, actor Actor, id string) error {
	if err := actor.can(screen.Metadata.Perm); err != nil {
		return err
	}
	if err := s.client.PublishMetadata(ctx, id); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to publish metadata: "+err.Error())
		return err
	}
	s.done(ctx, actor, "Success Publish Metadata", screen.Metadata.Name, id, "publish")
	return nil
}

// UpdateAssetURL points an asset at already uploaded files
func (s *RecordService) UpdateAssetURL(ctx context.Context, actor Actor, id, mainURL, fallbackURL string) error {
	if err := actor.can(screen.Asset.Perm); err != nil {
		return err
	}
	if mainURL == "" && fallbackURL == "" {
		return fmt.Errorf("%w: asset %s needs a url", ErrInvalidValues, id)
	}
	if err := s.client.UpdateAssetURL(ctx, id, mainURL, fallbackURL); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to update asset: "+err.Error())
		return err
	}
	s.done(ctx, actor, "Success Update Asset", screen.Asset.Name, id, "update")
	return nil
}

func (s *RecordService) done(ctx context.Context, actor Actor, msg, channel, id, action string) {
	s.notify(ctx, actor, pubsub.Success, msg)
	if err := s.bus.Changed(ctx, channel, id, action); err != nil {
		s.log.Warn("failed to publish change", zap.String("screen", channel), zap.Error(err))
	}
}

func (s *RecordService) notify(ctx context.Context, actor Actor, level pubsub.Level, msg string) {
	if err := s.bus.Notify(ctx, actor.UserID, level, msg); err != nil {
		s.log.Warn("failed to publish notification", zap.String("user_id", actor.UserID), zap.Error(err))
	}
}
