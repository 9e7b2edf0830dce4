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

type FileDefectInput struct {
	DeviceID    string            `json:"deviceId" validate:"required"`
	DefectType  entity.DefectType `json:"defectType" validate:"required,oneof=Hardware Software Cosmetic Other"`
	Severity    entity.Severity   `json:"severity" validate:"required,oneof=critical high medium low"`
	Description string            `json:"description" validate:"required,max=2000"`
	Photos      []string          `json:"photos" validate:"max=10,dive,required"`
}

func (uc *WorkflowUseCase) FileDefectReport(ctx context.Context, input FileDefectInput, by *entity.Actor) (*entity.DefectReport, error) {
	if err := authorize(by, policy.OpFileDefect); err != nil {
		return nil, err
	}
	input.Description = strings.TrimSpace(input.Description)
	if err := uc.check(input); err != nil {
		return nil, err
	}

	unlock, err := uc.lock(ctx, deviceKeys([]string{input.DeviceID})...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	device, err := uc.store.GetDevice(ctx, input.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.CurrentHolder != by.Holder {
		return nil, errors.Authorization("Defects can only be filed by the current holder of the device")
	}

	open, err := uc.store.ListDefectReports(ctx, repository.DefectReportFilter{
		Statuses: []entity.DefectStatus{entity.DefectOpen, entity.DefectUnderReview},
		DeviceID: device.ID,
	})
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, errors.InvalidState("Device already has an open defect report")
	}
	if device.Status == entity.DeviceReturned {
		return nil, errors.InvalidState("Device has been returned")
	}

	now := uc.now()
	before := device.Status
	report := &entity.DefectReport{
		ID:                 uc.newID(),
		DeviceID:           device.ID,
		ReportedBy:         by.ID,
		ReporterRole:       by.Role,
		Holder:             by.Holder,
		DefectType:         input.DefectType,
		Severity:           input.Severity,
		Description:        input.Description,
		Photos:             append([]string{}, input.Photos...),
		Status:             entity.DefectOpen,
		DeviceStatusBefore: before,
		ReportedAt:         now,
		UpdatedAt:          now,
	}

	device.Status = entity.DeviceDefective
	device.UpdatedAt = now

	cs := &changeset{}
	cs.defect(report)
	cs.device(device)
	cs.events(uc.event(device, entity.EventDefectReported, before, "", report.ID, by, now))
	cs.notifications(uc.defectNotices(report, device, now)...)
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDefectReport, report.ID, "file", by)
	return report, nil
}

func (uc *WorkflowUseCase) defectNotices(report *entity.DefectReport, device *entity.Device, at time.Time) []*entity.Notification {
	msg := fmt.Sprintf("%s defect (%s) reported on %s by %s", report.DefectType, report.Severity, device.SerialNumber, report.Holder)
	link := "/defects/" + report.ID

	notices := []*entity.Notification{
		uc.notify(entity.RoleDistributor.Recipient(), entity.CategoryDefect, "New defect report", msg, link, at),
	}
	if h, err := uc.directory.Holder(report.Holder); err == nil && h.Parent != "" && h.Parent != entity.MainDistribution {
		notices = append(notices, uc.notify(h.Parent, entity.CategoryDefect, "New defect report", msg, link, at))
	}
	return notices
}

// ReviewDefectReport decides an open report. Under the two-step policy an
// approval first moves the report to under-review, a second one resolves it.
// Rejection closes the report and restores the device status it had before.
func (uc *WorkflowUseCase) ReviewDefectReport(ctx context.Context, id string, decision Decision, comments string, by *entity.Actor) (*entity.DefectReport, error) {
	if err := authorize(by, policy.OpReviewDefect); err != nil {
		return nil, err
	}
	if !decision.Valid() {
		return nil, errors.Field("decision", "decision must be one of: approve reject")
	}
	comments = strings.TrimSpace(comments)
	if decision == DecisionReject && comments == "" {
		return nil, errors.Field("comments", "comments are required when rejecting")
	}

	peek, err := uc.store.GetDefectReport(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock, err := uc.lock(ctx, deviceKeys([]string{peek.DeviceID}, "defect:"+id)...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report, err := uc.store.GetDefectReport(ctx, id)
	if err != nil {
		return nil, err
	}

	reviewable := report.Status == entity.DefectOpen ||
		(uc.review == ReviewTwoStep && report.Status == entity.DefectUnderReview)
	if !reviewable {
		return nil, errors.InvalidState(fmt.Sprintf("Defect report is %s and cannot be reviewed", report.Status))
	}
	if by.Role == entity.RoleSubDistributor && !uc.supervises(by.Holder, report.Holder) {
		return nil, errors.Authorization("Sub-distributors may only review reports from their own operators")
	}

	now := uc.now()
	report.ReviewedBy = by.ID
	report.ReviewedAt = &now
	if comments != "" {
		report.ReviewComments = comments
	}
	report.UpdatedAt = now

	cs := &changeset{}
	action := "review"
	switch {
	case decision == DecisionReject:
		report.Status = entity.DefectClosed
		action = "close"

		device, err := uc.store.GetDevice(ctx, report.DeviceID)
		if err != nil {
			return nil, err
		}
		if device.Status == entity.DeviceDefective && report.DeviceStatusBefore != "" {
			device.Status = report.DeviceStatusBefore
			device.UpdatedAt = now
			cs.device(device)
			cs.events(uc.event(device, entity.EventDefectClosed, entity.DeviceDefective, "", report.ID, by, now))
		}
	case uc.review == ReviewTwoStep && report.Status == entity.DefectOpen:
		report.Status = entity.DefectUnderReview
	default:
		report.Status = entity.DefectResolved
		action = "resolve"
	}

	cs.defect(report)
	cs.notifications(uc.notify(report.Holder, entity.CategoryDefect,
		"Defect report "+string(report.Status),
		fmt.Sprintf("Your defect report was marked %s", report.Status),
		"/defects/"+report.ID, now))
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logTransition(entity.EntityDefectReport, report.ID, action, by)
	return report, nil
}

func (uc *WorkflowUseCase) GetDefectReport(ctx context.Context, id string, by *entity.Actor) (*entity.DefectReport, error) {
	if err := authorize(by, policy.OpReadDefects); err != nil {
		return nil, err
	}
	return uc.store.GetDefectReport(ctx, id)
}
