package usecase

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
	"dms/pkg/logger"
)

type ReviewPolicy string

const (
	ReviewOneStep ReviewPolicy = "one-step"
	ReviewTwoStep ReviewPolicy = "two-step"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// WorkflowUseCase enforces the device, distribution, defect and return state
// machines. Every transition validates against a fresh read under the locker
// and commits through a single Store.Apply.
type WorkflowUseCase struct {
	store     repository.Store
	directory repository.Directory
	locker    repository.Locker
	validate  *validator.Validate
	review    ReviewPolicy
	now       func() time.Time
	newID     func() string
}

type WorkflowOption func(*WorkflowUseCase)

func WithReviewPolicy(p ReviewPolicy) WorkflowOption {
	return func(uc *WorkflowUseCase) {
		if p == ReviewOneStep || p == ReviewTwoStep {
			uc.review = p
		}
	}
}

func WithClock(now func() time.Time) WorkflowOption {
	return func(uc *WorkflowUseCase) { uc.now = now }
}

func WithIDGenerator(newID func() string) WorkflowOption {
	return func(uc *WorkflowUseCase) { uc.newID = newID }
}

func NewWorkflowUseCase(
	store repository.Store,
	directory repository.Directory,
	locker repository.Locker,
	opts ...WorkflowOption,
) *WorkflowUseCase {
	uc := &WorkflowUseCase{
		store:     store,
		directory: directory,
		locker:    locker,
		validate:  NewInputValidator(),
		review:    ReviewOneStep,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *WorkflowUseCase) ReviewPolicy() ReviewPolicy {
	return uc.review
}

// NewInputValidator returns a validator that reports fields by their json name.
func NewInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func (uc *WorkflowUseCase) check(input interface{}) error {
	return errors.FromValidator(uc.validate.Struct(input))
}

func authorize(by *entity.Actor, operation policy.Operation) error {
	if by == nil {
		return errors.Unauthorized("Authentication required", nil)
	}
	if !policy.Allowed(by.Role, operation) {
		return errors.Authorization(fmt.Sprintf("Role %s is not allowed to perform %s", by.Role, operation))
	}
	return nil
}

// found folds a repository lookup into (exists, err), treating NotFound as absent.
func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// present is found for lookups whose value is not needed.
func present[T any](_ T, err error) (bool, error) {
	return found(err)
}

func (uc *WorkflowUseCase) lock(ctx context.Context, keys ...string) (func(), error) {
	return uc.locker.Lock(ctx, keys...)
}

func deviceKeys(ids []string, extra ...string) []string {
	keys := make([]string, 0, len(ids)+len(extra))
	for _, id := range ids {
		keys = append(keys, "device:"+id)
	}
	return append(keys, extra...)
}

func (uc *WorkflowUseCase) commit(ctx context.Context, cs *repository.Changeset) error {
	if err := uc.store.Apply(ctx, cs); err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.Internal("Failed to persist changes", err)
	}
	return nil
}

func (uc *WorkflowUseCase) event(device *entity.Device, action string, before entity.DeviceStatus, from, reference string, by *entity.Actor, at time.Time) *entity.DeviceEvent {
	return &entity.DeviceEvent{
		ID:           uc.newID(),
		DeviceID:     device.ID,
		Action:       action,
		FromHolder:   from,
		ToHolder:     device.CurrentHolder,
		StatusBefore: before,
		StatusAfter:  device.Status,
		Location:     device.CurrentLocation,
		Reference:    reference,
		PerformedBy:  by.ID,
		At:           at,
	}
}

func (uc *WorkflowUseCase) notify(recipient, category, title, message, link string, at time.Time) *entity.Notification {
	return &entity.Notification{
		ID:        uc.newID(),
		Recipient: recipient,
		Title:     title,
		Message:   message,
		Category:  category,
		Link:      link,
		CreatedAt: at,
	}
}

func (uc *WorkflowUseCase) holder(name, field string) (*entity.Holder, error) {
	h, err := uc.directory.Holder(name)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Field(field, fmt.Sprintf("unknown holder %q", name))
		}
		return nil, err
	}
	return h, nil
}

// supervises reports whether holder is name itself or sits directly beneath it.
func (uc *WorkflowUseCase) supervises(name, holder string) bool {
	if name == holder {
		return true
	}
	h, err := uc.directory.Holder(holder)
	if err != nil {
		return false
	}
	return h.Parent == name
}

func logTransition(kind entity.EntityType, id, action string, by *entity.Actor) {
	logger.Transition(string(kind), id, action, by.ID)
}
