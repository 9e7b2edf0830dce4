package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

type InitiateReturnInput struct {
	DeviceID        string                 `json:"deviceId" validate:"required"`
	Reason          string                 `json:"reason" validate:"required,max=200"`
	RequestedAction entity.RequestedAction `json:"requestedAction" validate:"required,oneof=Replace Repair Refund"`
	DefectReportID  string                 `json:"defectReportId"`
	Notes           string                 `json:"notes" validate:"max=1000"`
}

var openReturnStatuses = []entity.ReturnStatus{entity.ReturnPending, entity.ReturnUnderReview}

func (uc *WorkflowUseCase) InitiateReturn(ctx context.Context, input InitiateReturnInput, by *entity.Actor) (*entity.ReturnRequest, error) {
	if err := authorize(by, policy.OpInitiateReturn); err != nil {
		return nil, err
	}
	input.Reason = strings.TrimSpace(input.Reason)
	input.DefectReportID = strings.TrimSpace(input.DefectReportID)
	if err := uc.check(input); err != nil {
		return nil, err
	}

	chain := entity.ChainFor(by.Role)
	if len(chain) == 0 {
		return nil, errors.Authorization(fmt.Sprintf("Role %s cannot initiate returns", by.Role))
	}

	keys := deviceKeys([]string{input.DeviceID})
	if input.DefectReportID != "" {
		keys = append(keys, "defect:"+input.DefectReportID)
	}
	unlock, err := uc.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	device, err := uc.store.GetDevice(ctx, input.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.CurrentHolder != by.Holder {
		return nil, errors.Authorization("Returns can only be initiated by the current holder of the device")
	}
	if device.Status == entity.DeviceReturned {
		return nil, errors.InvalidState("Device has already been returned")
	}

	open, err := uc.store.ListReturnRequests(ctx, repository.ReturnRequestFilter{
		Statuses: openReturnStatuses,
		DeviceID: device.ID,
	})
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, errors.InvalidState("Device already has an open return request")
	}

	var linked *entity.DefectReport
	if input.DefectReportID != "" {
		if linked, err = uc.linkableDefect(ctx, input.DefectReportID, device.ID); err != nil {
			return nil, err
		}
	}

	now := uc.now()
	req := &entity.ReturnRequest{
		ID:              uc.newID(),
		DeviceID:        device.ID,
		InitiatedBy:     by.ID,
		InitiatorRole:   by.Role,
		Holder:          by.Holder,
		Reason:          input.Reason,
		DefectReportID:  input.DefectReportID,
		RequestedAction: input.RequestedAction,
		Status:          entity.ReturnPending,
		ApprovalChain:   chain,
		CurrentStep:     0,
		CurrentApprover: chain[0].Role,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	cs := &changeset{}
	cs.returnRequest(req)
	if linked != nil {
		linked.ReturnRequestID = req.ID
		linked.UpdatedAt = now
		cs.defect(linked)
	}
	cs.notifications(uc.returnNotice(req, req.CurrentApprover, "Return request awaiting approval", now)...)
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityReturnRequest, req.ID, "initiate", by)
	return req, nil
}

// linkableDefect checks that a defect report may back a return: same device,
// resolved, and not already linked to another return.
func (uc *WorkflowUseCase) linkableDefect(ctx context.Context, id, deviceID string) (*entity.DefectReport, error) {
	report, err := uc.store.GetDefectReport(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Field("defectReportId", "defect report does not exist")
		}
		return nil, err
	}
	switch {
	case report.DeviceID != deviceID:
		return nil, errors.Field("defectReportId", "defect report belongs to a different device")
	case report.Status != entity.DefectResolved:
		return nil, errors.Field("defectReportId", fmt.Sprintf("defect report must be resolved, it is %s", report.Status))
	case report.ReturnRequestID != "":
		return nil, errors.Field("defectReportId", "defect report is already linked to a return request")
	}
	return report, nil
}

// returnNotice addresses the role that has to act next and, for operator
// initiated requests waiting on a sub-distributor, that operator's parent.
func (uc *WorkflowUseCase) returnNotice(req *entity.ReturnRequest, approver entity.Role, title string, at time.Time) []*entity.Notification {
	msg := fmt.Sprintf("Return of device %s (%s) from %s", req.DeviceID, req.RequestedAction, req.Holder)
	link := "/returns/" + req.ID

	if approver == entity.RoleSubDistributor {
		if h, err := uc.directory.Holder(req.Holder); err == nil && h.Parent != "" {
			return []*entity.Notification{uc.notify(h.Parent, entity.CategoryReturn, title, msg, link, at)}
		}
	}
	return []*entity.Notification{uc.notify(approver.Recipient(), entity.CategoryReturn, title, msg, link, at)}
}

func (uc *WorkflowUseCase) lockReturn(ctx context.Context, id string) (*entity.ReturnRequest, func(), error) {
	peek, err := uc.store.GetReturnRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	keys := deviceKeys([]string{peek.DeviceID}, "return:"+id)
	if peek.DefectReportID != "" {
		keys = append(keys, "defect:"+peek.DefectReportID)
	}
	unlock, err := uc.lock(ctx, keys...)
	if err != nil {
		return nil, nil, err
	}

	req, err := uc.store.GetReturnRequest(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return req, unlock, nil
}

// AdvanceReturn decides the current step of the approval chain. Approvals
// must come in chain order; any rejection ends the request.
func (uc *WorkflowUseCase) AdvanceReturn(ctx context.Context, id string, decision Decision, comments string, by *entity.Actor) (*entity.ReturnRequest, error) {
	if err := authorize(by, policy.OpAdvanceReturn); err != nil {
		return nil, err
	}
	if !decision.Valid() {
		return nil, errors.Field("decision", "decision must be one of: approve reject")
	}
	comments = strings.TrimSpace(comments)
	if decision == DecisionReject && comments == "" {
		return nil, errors.Field("comments", "comments are required when rejecting")
	}

	req, unlock, err := uc.lockReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.Terminal() {
		return nil, errors.InvalidState(fmt.Sprintf("Return request is %s", req.Status))
	}
	if !req.InChain(by.Role) {
		return nil, errors.Authorization(fmt.Sprintf("Role %s is not part of this approval chain", by.Role))
	}
	if req.CurrentApprover != by.Role {
		return nil, errors.InvalidState(fmt.Sprintf("Return request is waiting on %s", req.CurrentApprover))
	}
	if by.Role == entity.RoleSubDistributor && !uc.supervises(by.Holder, req.Holder) {
		return nil, errors.Authorization("Sub-distributors may only decide returns from their own operators")
	}

	now := uc.now()
	cs := &changeset{}
	action := "reject"

	if decision == DecisionReject {
		req.RejectStep(by.ID, comments, now)
		if err := uc.unlinkDefect(ctx, cs, req, now); err != nil {
			return nil, err
		}
		cs.notifications(uc.notify(req.Holder, entity.CategoryReturn, "Return request rejected",
			fmt.Sprintf("Your return of device %s was rejected: %s", req.DeviceID, comments),
			"/returns/"+req.ID, now))
	} else if req.ApproveStep(by.ID, comments, now) {
		action = "complete"

		device, err := uc.store.GetDevice(ctx, req.DeviceID)
		if err != nil {
			return nil, err
		}
		before, from := device.Status, device.CurrentHolder
		device.Status = entity.DeviceReturned
		device.CurrentHolder = entity.MainDistribution
		device.CurrentLocation = entity.LocationMainDistribution
		device.UpdatedAt = now
		cs.device(device)
		cs.events(uc.event(device, entity.EventReturned, before, from, req.ID, by, now))
		cs.notifications(uc.notify(req.Holder, entity.CategoryReturn, "Return request approved",
			fmt.Sprintf("Your return of device %s was approved", req.DeviceID),
			"/returns/"+req.ID, now))
	} else {
		action = "approve-step"
		cs.notifications(uc.returnNotice(req, req.CurrentApprover, "Return request awaiting approval", now)...)
	}

	cs.returnRequest(req)
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityReturnRequest, req.ID, action, by)
	return req, nil
}

// CancelReturn withdraws a request before any approver has acted on it.
func (uc *WorkflowUseCase) CancelReturn(ctx context.Context, id string, by *entity.Actor) (*entity.ReturnRequest, error) {
	if err := authorize(by, policy.OpInitiateReturn); err != nil {
		return nil, err
	}

	req, unlock, err := uc.lockReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.InitiatedBy != by.ID {
		return nil, errors.Authorization("Only the initiator may cancel this return request")
	}
	if req.Status != entity.ReturnPending || req.CurrentStep != 0 {
		return nil, errors.InvalidState(fmt.Sprintf("Return request is %s and cannot be cancelled", req.Status))
	}

	now := uc.now()
	req.Status = entity.ReturnCancelled
	req.CurrentApprover = ""
	req.CompletedAt = &now
	req.UpdatedAt = now

	cs := &changeset{}
	cs.returnRequest(req)
	if err := uc.unlinkDefect(ctx, cs, req, now); err != nil {
		return nil, err
	}
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityReturnRequest, req.ID, "cancel", by)
	return req, nil
}

// unlinkDefect frees the linked defect report so it can back a new request.
func (uc *WorkflowUseCase) unlinkDefect(ctx context.Context, cs *changeset, req *entity.ReturnRequest, now time.Time) error {
	if req.DefectReportID == "" {
		return nil
	}
	report, err := uc.store.GetDefectReport(ctx, req.DefectReportID)
	if ok, err := found(err); err != nil {
		return err
	} else if ok && report.ReturnRequestID == req.ID {
		report.ReturnRequestID = ""
		report.UpdatedAt = now
		cs.defect(report)
	}
	return nil
}

func (uc *WorkflowUseCase) GetReturnRequest(ctx context.Context, id string, by *entity.Actor) (*entity.ReturnRequest, error) {
	if err := authorize(by, policy.OpReadReturns); err != nil {
		return nil, err
	}
	return uc.store.GetReturnRequest(ctx, id)
}
