package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

type CreateDistributionInput struct {
	FromDistributor string   `json:"fromDistributor" validate:"required"`
	ToDistributor   string   `json:"toDistributor" validate:"required"`
	DeviceIDs       []string `json:"deviceIds" validate:"required,min=1,dive,required"`
	BatchID         string   `json:"batchId" validate:"max=64"`
	Notes           string   `json:"notes" validate:"max=1000"`
}

func (uc *WorkflowUseCase) CreateDistribution(ctx context.Context, input CreateDistributionInput, by *entity.Actor) (*entity.Distribution, error) {
	if err := authorize(by, policy.OpCreateDistribution); err != nil {
		return nil, err
	}

	input.BatchID = strings.TrimSpace(input.BatchID)
	if err := uc.check(input); err != nil {
		return nil, err
	}
	if input.FromDistributor == input.ToDistributor {
		return nil, errors.Field("toDistributor", "toDistributor must differ from fromDistributor")
	}

	from, err := uc.holder(input.FromDistributor, "fromDistributor")
	if err != nil {
		return nil, err
	}
	to, err := uc.holder(input.ToDistributor, "toDistributor")
	if err != nil {
		return nil, err
	}
	if err := uc.checkDirection(by, from, to); err != nil {
		return nil, err
	}

	deviceIDs := dedupe(input.DeviceIDs)

	keys := deviceKeys(deviceIDs)
	if input.BatchID != "" {
		keys = append(keys, "batch:"+input.BatchID)
	} else {
		keys = append(keys, "batch-sequence")
	}
	unlock, err := uc.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := uc.now()
	batchID := input.BatchID
	if batchID == "" {
		if batchID, err = uc.nextBatchID(ctx, now.Year()); err != nil {
			return nil, err
		}
	} else {
		exists, err := present(uc.store.FindDistributionByBatchID(ctx, batchID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.Field("batchId", "batch id is already in use")
		}
	}

	inFlight, err := uc.store.ListDistributions(ctx, repository.DistributionFilter{
		Statuses: []entity.DistributionStatus{entity.DistributionPending, entity.DistributionInTransit},
		Holder:   from.Name,
	})
	if err != nil {
		return nil, err
	}
	shipping := make(map[string]string)
	for _, d := range inFlight {
		for _, id := range d.Devices {
			shipping[id] = d.BatchID
		}
	}

	var problems []string
	for _, id := range deviceIDs {
		device, err := uc.store.GetDevice(ctx, id)
		if ok, err := found(err); err != nil {
			return nil, err
		} else if !ok {
			problems = append(problems, fmt.Sprintf("device %s does not exist", id))
			continue
		}
		switch {
		case device.CurrentHolder != from.Name:
			problems = append(problems, fmt.Sprintf("device %s is not held by %s", id, from.Name))
		case device.Status == entity.DeviceDefective:
			problems = append(problems, fmt.Sprintf("device %s is defective", id))
		case device.Status == entity.DeviceReturned:
			problems = append(problems, fmt.Sprintf("device %s has been returned", id))
		case shipping[id] != "":
			problems = append(problems, fmt.Sprintf("device %s is already in batch %s", id, shipping[id]))
		}
	}
	if len(problems) > 0 {
		return nil, errors.Field("deviceIds", strings.Join(problems, "; "))
	}

	dist := &entity.Distribution{
		ID:              uc.newID(),
		BatchID:         batchID,
		FromDistributor: from.Name,
		ToDistributor:   to.Name,
		Devices:         deviceIDs,
		DeviceCount:     len(deviceIDs),
		Status:          entity.DistributionPending,
		Notes:           input.Notes,
		CreatedBy:       by.ID,
		CreatedByRole:   by.Role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	cs := &changeset{}
	cs.distribution(dist)
	cs.notifications(uc.notify(to.Name, entity.CategoryDistribution,
		"Incoming distribution",
		fmt.Sprintf("Batch %s with %d device(s) from %s awaits your approval", batchID, dist.DeviceCount, from.Name),
		"/distributions/"+dist.ID, now))
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDistribution, dist.ID, "create", by)
	return dist, nil
}

// checkDirection scopes the sender: distributors ship out of Main Distribution,
// sub-distributors ship their own stock to operators beneath them.
func (uc *WorkflowUseCase) checkDirection(by *entity.Actor, from, to *entity.Holder) error {
	switch by.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleDistributor:
		if from.Name != entity.MainDistribution {
			return errors.Authorization("Distributors may only ship from " + entity.MainDistribution)
		}
		return nil
	case entity.RoleSubDistributor:
		if from.Name != by.Holder {
			return errors.Authorization("Sub-distributors may only ship devices they hold")
		}
		if to.Tier != entity.LocationOperator || to.Parent != from.Name {
			return errors.Authorization("Sub-distributors may only ship to their own operators")
		}
		return nil
	}
	return errors.Authorization(fmt.Sprintf("Role %s cannot create distributions", by.Role))
}

func (uc *WorkflowUseCase) nextBatchID(ctx context.Context, year int) (string, error) {
	all, err := uc.store.ListDistributions(ctx, repository.DistributionFilter{})
	if err != nil {
		return "", err
	}

	prefix := fmt.Sprintf("BATCH-%d-", year)
	highest := 0
	for _, d := range all {
		if !strings.HasPrefix(d.BatchID, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(d.BatchID, prefix)); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

// lockDistribution reads the distribution to learn its devices, then locks the
// distribution together with every device and reads it again.
func (uc *WorkflowUseCase) lockDistribution(ctx context.Context, id string) (*entity.Distribution, func(), error) {
	peek, err := uc.store.GetDistribution(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	keys := append(deviceKeys(peek.Devices), "distribution:"+id)
	unlock, err := uc.lock(ctx, keys...)
	if err != nil {
		return nil, nil, err
	}

	dist, err := uc.store.GetDistribution(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return dist, unlock, nil
}

// checkRecipient requires the approver role of the recipient tier, acting for
// the recipient holder.
func (uc *WorkflowUseCase) checkRecipient(by *entity.Actor, dist *entity.Distribution) error {
	to, err := uc.directory.Holder(dist.ToDistributor)
	if err != nil {
		return errors.InvalidState(fmt.Sprintf("Recipient %s is not in the directory", dist.ToDistributor))
	}
	approver, ok := policy.RecipientApprover(to.Tier)
	if !ok || by.Role != approver {
		return errors.Authorization(fmt.Sprintf("Distributions to %s are decided by the %s role", to.Name, approver))
	}
	if by.Holder != to.Name {
		return errors.Authorization("Only the recipient may decide this distribution")
	}
	return nil
}

func (uc *WorkflowUseCase) ApproveDistribution(ctx context.Context, id, notes string, by *entity.Actor) (*entity.Distribution, error) {
	if err := authorize(by, policy.OpDecideDistribution); err != nil {
		return nil, err
	}

	dist, unlock, err := uc.lockDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !dist.Approvable() {
		return nil, errors.InvalidState(fmt.Sprintf("Distribution is %s and can no longer be approved", dist.Status))
	}
	if err := uc.checkRecipient(by, dist); err != nil {
		return nil, err
	}

	to, err := uc.directory.Holder(dist.ToDistributor)
	if err != nil {
		return nil, err
	}

	devices := make([]*entity.Device, 0, len(dist.Devices))
	for _, deviceID := range dist.Devices {
		device, err := uc.store.GetDevice(ctx, deviceID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return nil, errors.InvalidState(fmt.Sprintf("Device %s no longer exists", deviceID))
			}
			return nil, err
		}
		if device.CurrentHolder != dist.FromDistributor {
			return nil, errors.InvalidState(fmt.Sprintf("Device %s is no longer held by %s", deviceID, dist.FromDistributor))
		}
		if device.Status == entity.DeviceDefective {
			return nil, errors.InvalidState(fmt.Sprintf("Device %s is defective", deviceID))
		}
		if device.Status == entity.DeviceReturned {
			return nil, errors.InvalidState(fmt.Sprintf("Device %s has been returned", deviceID))
		}
		devices = append(devices, device)
	}

	now := uc.now()
	cs := &changeset{}
	for _, device := range devices {
		before := device.Status
		device.CurrentHolder = to.Name
		device.CurrentLocation = to.Tier
		if device.Status == entity.DevicePending {
			device.Status = entity.DeviceActive
		}
		device.UpdatedAt = now
		cs.device(device)
		cs.events(uc.event(device, entity.EventDistributed, before, dist.FromDistributor, dist.BatchID, by, now))
	}

	dist.Status = entity.DistributionApproved
	dist.ApprovedAt = &now
	dist.ApprovedBy = by.ID
	if notes != "" {
		dist.Notes = strings.TrimSpace(strings.Join([]string{dist.Notes, notes}, "\n"))
	}
	dist.UpdatedAt = now
	cs.distribution(dist)
	cs.notifications(uc.notify(dist.FromDistributor, entity.CategoryDistribution,
		"Distribution approved",
		fmt.Sprintf("Batch %s was accepted by %s", dist.BatchID, dist.ToDistributor),
		"/distributions/"+dist.ID, now))

	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDistribution, dist.ID, "approve", by)
	return dist, nil
}

func (uc *WorkflowUseCase) RejectDistribution(ctx context.Context, id, reason string, by *entity.Actor) (*entity.Distribution, error) {
	if err := authorize(by, policy.OpDecideDistribution); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Field("reason", "reason is required")
	}

	dist, unlock, err := uc.lockDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !dist.Approvable() {
		return nil, errors.InvalidState(fmt.Sprintf("Distribution is %s and can no longer be rejected", dist.Status))
	}
	if err := uc.checkRecipient(by, dist); err != nil {
		return nil, err
	}

	now := uc.now()
	dist.Status = entity.DistributionRejected
	dist.RejectedAt = &now
	dist.RejectedBy = by.ID
	dist.RejectionReason = reason
	dist.UpdatedAt = now

	cs := &changeset{}
	cs.distribution(dist)
	cs.notifications(uc.notify(dist.FromDistributor, entity.CategoryDistribution,
		"Distribution rejected",
		fmt.Sprintf("Batch %s was rejected by %s: %s", dist.BatchID, dist.ToDistributor, reason),
		"/distributions/"+dist.ID, now))
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDistribution, dist.ID, "reject", by)
	return dist, nil
}

// DispatchDistribution marks a pending batch as shipped. Devices stay with the
// sender until the recipient approves.
func (uc *WorkflowUseCase) DispatchDistribution(ctx context.Context, id string, by *entity.Actor) (*entity.Distribution, error) {
	if err := authorize(by, policy.OpCreateDistribution); err != nil {
		return nil, err
	}

	dist, unlock, err := uc.lockDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if by.Role != entity.RoleAdmin && by.Holder != dist.FromDistributor {
		return nil, errors.Authorization("Only the sender may dispatch this distribution")
	}
	if dist.Status != entity.DistributionPending {
		return nil, errors.InvalidState(fmt.Sprintf("Distribution is %s and cannot be dispatched", dist.Status))
	}

	now := uc.now()
	dist.Status = entity.DistributionInTransit
	dist.DispatchedAt = &now
	dist.UpdatedAt = now

	cs := &changeset{}
	cs.distribution(dist)
	cs.notifications(uc.notify(dist.ToDistributor, entity.CategoryDistribution,
		"Distribution dispatched",
		fmt.Sprintf("Batch %s from %s is on its way", dist.BatchID, dist.FromDistributor),
		"/distributions/"+dist.ID, now))
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDistribution, dist.ID, "dispatch", by)
	return dist, nil
}

func (uc *WorkflowUseCase) CancelDistribution(ctx context.Context, id string, by *entity.Actor) (*entity.Distribution, error) {
	if err := authorize(by, policy.OpCancelDistribution); err != nil {
		return nil, err
	}

	dist, unlock, err := uc.lockDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if by.Role != entity.RoleAdmin && by.ID != dist.CreatedBy {
		return nil, errors.Authorization("Only the creator may cancel this distribution")
	}
	if dist.Status != entity.DistributionPending {
		return nil, errors.InvalidState(fmt.Sprintf("Distribution is %s and cannot be cancelled", dist.Status))
	}

	now := uc.now()
	dist.Status = entity.DistributionCancelled
	dist.UpdatedAt = now

	cs := &changeset{}
	cs.distribution(dist)
	cs.notifications(uc.notify(dist.ToDistributor, entity.CategoryDistribution,
		"Distribution cancelled",
		fmt.Sprintf("Batch %s from %s was cancelled", dist.BatchID, dist.FromDistributor),
		"/distributions/"+dist.ID, now))
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDistribution, dist.ID, "cancel", by)
	return dist, nil
}

func (uc *WorkflowUseCase) GetDistribution(ctx context.Context, id string, by *entity.Actor) (*entity.Distribution, error) {
	if err := authorize(by, policy.OpReadDistributions); err != nil {
		return nil, err
	}
	return uc.store.GetDistribution(ctx, id)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
