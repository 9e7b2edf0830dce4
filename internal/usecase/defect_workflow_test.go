package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

func TestFileDefectRequiresHolder(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)

	_, err := f.uc.FileDefectReport(f.ctx, FileDefectInput{
		DeviceID:    d.ID,
		DefectType:  entity.DefectSoftware,
		Severity:    entity.SeverityLow,
		Description: "Reboots",
	}, opTwo)
	requireCode(t, err, errors.CodeAuthorization)
	assert.Equal(t, entity.DeviceActive, f.device(t, d.ID).Status)

	_, err = f.uc.FileDefectReport(f.ctx, FileDefectInput{
		DeviceID:    d.ID,
		DefectType:  entity.DefectSoftware,
		Severity:    entity.SeverityLow,
		Description: "Reboots",
	}, distributor)
	requireCode(t, err, errors.CodeAuthorization)
}

func TestFileDefectValidation(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)

	_, err := f.uc.FileDefectReport(f.ctx, FileDefectInput{
		DeviceID:    d.ID,
		DefectType:  "Electrical",
		Severity:    "urgent",
		Description: "   ",
	}, opOne)
	requireCode(t, err, errors.CodeValidation)

	appErr, _ := errors.As(err)
	assert.Contains(t, appErr.Fields, "defectType")
	assert.Contains(t, appErr.Fields, "severity")
	assert.Contains(t, appErr.Fields, "description")
}

func TestFileDefectMarksDeviceDefective(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)

	report := f.fileDefect(t, d, opOne)
	assert.Equal(t, entity.DefectOpen, report.Status)
	assert.Equal(t, operatorOne, report.Holder)
	assert.Equal(t, entity.DeviceActive, report.DeviceStatusBefore)
	assert.Equal(t, entity.DeviceDefective, f.device(t, d.ID).Status)

	_, err := f.uc.FileDefectReport(f.ctx, FileDefectInput{
		DeviceID:    d.ID,
		DefectType:  entity.DefectCosmetic,
		Severity:    entity.SeverityLow,
		Description: "Scratched casing",
	}, opOne)
	requireCode(t, err, errors.CodeInvalidState)

	toDistributors, err := f.store.ListNotifications(f.ctx, []string{entity.RoleDistributor.Recipient()}, "")
	require.NoError(t, err)
	assert.Len(t, toDistributors, 1)

	toParent, err := f.store.ListNotifications(f.ctx, []string{alpha}, "")
	require.NoError(t, err)
	var defectNotices int
	for _, n := range toParent {
		if n.Category == entity.CategoryDefect {
			defectNotices++
		}
	}
	assert.Equal(t, 1, defectNotices)
}

func TestReviewDefectOneStep(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)

	_, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", opOne)
	requireCode(t, err, errors.CodeAuthorization)

	_, err = f.uc.ReviewDefectReport(f.ctx, report.ID, "maybe", "", distributor)
	requireCode(t, err, errors.CodeValidation)

	resolved, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "Replace unit", distributor)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectResolved, resolved.Status)
	assert.Equal(t, distributor.ID, resolved.ReviewedBy)
	assert.Equal(t, "Replace unit", resolved.ReviewComments)
	require.NotNil(t, resolved.ReviewedAt)

	_, err = f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", distributor)
	requireCode(t, err, errors.CodeInvalidState)

	stored, err := f.store.GetDefectReport(f.ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectResolved, stored.Status)
	assert.Equal(t, "Replace unit", stored.ReviewComments)
	assert.Equal(t, entity.DeviceDefective, f.device(t, d.ID).Status)
}

func TestRejectDefectRestoresDeviceStatus(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)

	_, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionReject, "", distributor)
	requireCode(t, err, errors.CodeValidation)

	closed, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionReject, "Works on inspection", distributor)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectClosed, closed.Status)
	assert.Equal(t, entity.DeviceActive, f.device(t, d.ID).Status)

	events, err := f.store.ListDeviceEvents(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EventDefectClosed, events[0].Action)

	again := f.fileDefect(t, d, opOne)
	assert.Equal(t, entity.DefectOpen, again.Status, "a closed report no longer blocks a new one")
}

func TestReviewDefectTwoStep(t *testing.T) {
	f := newFixture(t, WithReviewPolicy(ReviewTwoStep))
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)

	first, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", subAlpha)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectUnderReview, first.Status)

	pending, err := f.uc.ListPendingApprovals(f.ctx, entity.RoleDistributor)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, report.ID, pending[0].EntityID)

	second, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "Confirmed", distributor)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectResolved, second.Status)

	_, err = f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", distributor)
	requireCode(t, err, errors.CodeInvalidState)
}

func TestReviewDefectSubDistributorScope(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)

	_, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", subBeta)
	requireCode(t, err, errors.CodeAuthorization)

	got, err := f.uc.GetDefectReport(f.ctx, report.ID, manager)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectOpen, got.Status)

	resolved, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", subAlpha)
	require.NoError(t, err)
	assert.Equal(t, entity.DefectResolved, resolved.Status)
}

func TestFileDefectOnReturnedDevice(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)

	returned := f.device(t, d.ID)
	returned.Status = entity.DeviceReturned
	require.NoError(t, f.store.Apply(f.ctx, &repository.Changeset{Devices: []*entity.Device{returned}}))

	_, err := f.uc.FileDefectReport(f.ctx, FileDefectInput{
		DeviceID:    d.ID,
		DefectType:  entity.DefectOther,
		Severity:    entity.SeverityMedium,
		Description: "Late report",
	}, opOne)
	requireCode(t, err, errors.CodeInvalidState)
}
