package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms/internal/domain/entity"
	"dms/pkg/errors"
)

func (f *fixture) initiate(t *testing.T, device *entity.Device, by *entity.Actor, defectID string) *entity.ReturnRequest {
	t.Helper()
	req, err := f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID:        device.ID,
		Reason:          entity.ReasonDefective,
		RequestedAction: entity.ActionReplace,
		DefectReportID:  defectID,
	}, by)
	require.NoError(t, err)
	return req
}

func TestReturnChainDependsOnInitiator(t *testing.T) {
	f := newFixture(t)
	atOperator, atSub := f.register(t), f.register(t)
	f.toOperatorOne(t, atOperator)
	f.toAlpha(t, atSub)

	fromOperator := f.initiate(t, atOperator, opOne, "")
	require.Len(t, fromOperator.ApprovalChain, 2)
	assert.Equal(t, entity.RoleSubDistributor, fromOperator.ApprovalChain[0].Role)
	assert.Equal(t, entity.RoleDistributor, fromOperator.ApprovalChain[1].Role)
	assert.Equal(t, entity.RoleSubDistributor, fromOperator.CurrentApprover)
	assert.Equal(t, entity.ReturnPending, fromOperator.Status)

	fromSub := f.initiate(t, atSub, subAlpha, "")
	require.Len(t, fromSub.ApprovalChain, 1)
	assert.Equal(t, entity.RoleDistributor, fromSub.CurrentApprover)

	_, err := f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID: f.register(t).ID, Reason: "Surplus", RequestedAction: entity.ActionRefund,
	}, distributor)
	requireCode(t, err, errors.CodeAuthorization)
}

func TestInitiateReturnChecks(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)

	_, err := f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID: d.ID, Reason: "Surplus", RequestedAction: entity.ActionRefund,
	}, opTwo)
	requireCode(t, err, errors.CodeAuthorization)

	_, err = f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID: d.ID, Reason: "", RequestedAction: "Exchange",
	}, opOne)
	requireCode(t, err, errors.CodeValidation)

	f.initiate(t, d, opOne, "")
	_, err = f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID: d.ID, Reason: "Again", RequestedAction: entity.ActionRefund,
	}, opOne)
	requireCode(t, err, errors.CodeInvalidState)
}

func TestInitiateReturnRequiresResolvedDefect(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)

	_, err := f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID:        d.ID,
		Reason:          entity.ReasonDefective,
		RequestedAction: entity.ActionReplace,
		DefectReportID:  report.ID,
	}, opOne)
	requireCode(t, err, errors.CodeValidation)
	appErr, _ := errors.As(err)
	assert.Contains(t, appErr.Fields, "defectReportId")

	_, err = f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID:        d.ID,
		Reason:          entity.ReasonDefective,
		RequestedAction: entity.ActionReplace,
		DefectReportID:  "missing",
	}, opOne)
	requireCode(t, err, errors.CodeValidation)

	_, err = f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", distributor)
	require.NoError(t, err)

	req := f.initiate(t, d, opOne, report.ID)
	assert.Equal(t, report.ID, req.DefectReportID)

	linked, err := f.store.GetDefectReport(f.ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, linked.ReturnRequestID)
}

func TestAdvanceReturnFullChain(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)
	_, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", distributor)
	require.NoError(t, err)
	req := f.initiate(t, d, opOne, report.ID)

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", distributor)
	requireCode(t, err, errors.CodeInvalidState)

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", subBeta)
	requireCode(t, err, errors.CodeAuthorization)

	step, err := f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "Checked", subAlpha)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnUnderReview, step.Status)
	assert.Equal(t, 1, step.CurrentStep)
	assert.Equal(t, entity.RoleDistributor, step.CurrentApprover)
	assert.Equal(t, entity.StepApproved, step.ApprovalChain[0].Status)
	assert.Equal(t, subAlpha.ID, step.ApprovalChain[0].By)
	assert.Equal(t, operatorOne, f.device(t, d.ID).CurrentHolder, "device stays put until the final step")

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", subAlpha)
	requireCode(t, err, errors.CodeInvalidState)

	done, err := f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", distributor)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnApproved, done.Status)
	assert.Empty(t, done.CurrentApprover)
	require.NotNil(t, done.CompletedAt)

	returned := f.device(t, d.ID)
	assert.Equal(t, entity.DeviceReturned, returned.Status)
	assert.Equal(t, entity.MainDistribution, returned.CurrentHolder)
	assert.Equal(t, entity.LocationMainDistribution, returned.CurrentLocation)

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", distributor)
	requireCode(t, err, errors.CodeInvalidState)

	_, err = f.uc.InitiateReturn(f.ctx, InitiateReturnInput{
		DeviceID: d.ID, Reason: "Again", RequestedAction: entity.ActionRefund,
	}, opOne)
	requireCode(t, err, errors.CodeAuthorization)
}

func TestRejectReturnIsTerminal(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	req := f.initiate(t, d, opOne, "")

	_, err := f.uc.AdvanceReturn(f.ctx, req.ID, DecisionReject, "", subAlpha)
	requireCode(t, err, errors.CodeValidation)

	rejected, err := f.uc.AdvanceReturn(f.ctx, req.ID, DecisionReject, "Not eligible", subAlpha)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnRejected, rejected.Status)
	assert.Equal(t, entity.StepRejected, rejected.ApprovalChain[0].Status)
	assert.Equal(t, entity.StepPending, rejected.ApprovalChain[1].Status)

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", distributor)
	requireCode(t, err, errors.CodeInvalidState)

	assert.Equal(t, operatorOne, f.device(t, d.ID).CurrentHolder)

	again := f.initiate(t, d, opOne, "")
	assert.Equal(t, entity.ReturnPending, again.Status, "a rejected request no longer blocks a new one")
}

func TestRejectReturnReleasesDefectLink(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)
	_, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", distributor)
	require.NoError(t, err)
	req := f.initiate(t, d, opOne, report.ID)

	linked, err := f.store.GetDefectReport(f.ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, req.ID, linked.ReturnRequestID)

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionReject, "Repair on site", subAlpha)
	require.NoError(t, err)

	unlinked, err := f.store.GetDefectReport(f.ctx, report.ID)
	require.NoError(t, err)
	assert.Empty(t, unlinked.ReturnRequestID)

	next := f.initiate(t, d, opOne, report.ID)
	assert.Equal(t, report.ID, next.DefectReportID)
}

func TestAdvanceReturnRoleOutsideChain(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toAlpha(t, d)
	req := f.initiate(t, d, subAlpha, "")

	_, err := f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", subBeta)
	requireCode(t, err, errors.CodeAuthorization)

	_, err = f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", opOne)
	requireCode(t, err, errors.CodeAuthorization)

	done, err := f.uc.AdvanceReturn(f.ctx, req.ID, DecisionApprove, "", distributor)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnApproved, done.Status)
}

func TestCancelReturn(t *testing.T) {
	f := newFixture(t)
	d := f.register(t)
	f.toOperatorOne(t, d)
	report := f.fileDefect(t, d, opOne)
	_, err := f.uc.ReviewDefectReport(f.ctx, report.ID, DecisionApprove, "", distributor)
	require.NoError(t, err)
	req := f.initiate(t, d, opOne, report.ID)

	_, err = f.uc.CancelReturn(f.ctx, req.ID, subAlpha)
	requireCode(t, err, errors.CodeAuthorization)

	cancelled, err := f.uc.CancelReturn(f.ctx, req.ID, opOne)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnCancelled, cancelled.Status)

	unlinked, err := f.store.GetDefectReport(f.ctx, report.ID)
	require.NoError(t, err)
	assert.Empty(t, unlinked.ReturnRequestID)

	_, err = f.uc.CancelReturn(f.ctx, req.ID, opOne)
	requireCode(t, err, errors.CodeInvalidState)

	next := f.initiate(t, d, opOne, report.ID)
	_, err = f.uc.AdvanceReturn(f.ctx, next.ID, DecisionApprove, "", subAlpha)
	require.NoError(t, err)

	_, err = f.uc.CancelReturn(f.ctx, next.ID, opOne)
	requireCode(t, err, errors.CodeInvalidState)
}
