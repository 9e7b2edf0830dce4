package usecase

import (
	"context"
	"sort"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
)

// ListPendingApprovals gathers everything waiting on forRole: distributions
// whose recipient tier maps to it, defect reports when it is a reviewer role,
// and return requests currently assigned to it. Newest first, ties by id.
func (uc *WorkflowUseCase) ListPendingApprovals(ctx context.Context, forRole entity.Role) ([]*entity.PendingApproval, error) {
	items := make([]*entity.PendingApproval, 0)

	dists, err := uc.store.ListDistributions(ctx, repository.DistributionFilter{
		Statuses: []entity.DistributionStatus{entity.DistributionPending, entity.DistributionInTransit},
	})
	if err != nil {
		return nil, err
	}
	for _, d := range dists {
		to, err := uc.directory.Holder(d.ToDistributor)
		if err != nil {
			continue
		}
		if approver, ok := policy.RecipientApprover(to.Tier); ok && approver == forRole {
			items = append(items, &entity.PendingApproval{
				EntityType:  entity.EntityDistribution,
				EntityID:    d.ID,
				RequestedAt: d.CreatedAt,
				Entity:      d,
			})
		}
	}

	if isReviewer(forRole) {
		statuses := []entity.DefectStatus{entity.DefectOpen}
		if uc.review == ReviewTwoStep {
			statuses = append(statuses, entity.DefectUnderReview)
		}
		reports, err := uc.store.ListDefectReports(ctx, repository.DefectReportFilter{Statuses: statuses})
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			items = append(items, &entity.PendingApproval{
				EntityType:  entity.EntityDefectReport,
				EntityID:    r.ID,
				RequestedAt: r.ReportedAt,
				Entity:      r,
			})
		}
	}

	returns, err := uc.store.ListReturnRequests(ctx, repository.ReturnRequestFilter{
		Statuses:        openReturnStatuses,
		CurrentApprover: forRole,
	})
	if err != nil {
		return nil, err
	}
	for _, r := range returns {
		items = append(items, &entity.PendingApproval{
			EntityType:  entity.EntityReturnRequest,
			EntityID:    r.ID,
			RequestedAt: r.CreatedAt,
			Entity:      r,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].RequestedAt.Equal(items[j].RequestedAt) {
			return items[i].RequestedAt.After(items[j].RequestedAt)
		}
		return items[i].EntityID < items[j].EntityID
	})
	return items, nil
}

// PendingApprovals is ListPendingApprovals for an authenticated actor, narrowed
// to the items that actor's holder may decide.
func (uc *WorkflowUseCase) PendingApprovals(ctx context.Context, by *entity.Actor) ([]*entity.PendingApproval, error) {
	if err := authorize(by, policy.OpViewApprovals); err != nil {
		return nil, err
	}
	items, err := uc.ListPendingApprovals(ctx, by.Role)
	if err != nil {
		return nil, err
	}
	mine := items[:0]
	for _, item := range items {
		if uc.actionable(by, item) {
			mine = append(mine, item)
		}
	}
	return mine, nil
}

// actionable applies the holder checks the decide operations enforce, so an
// actor only sees items it could act on.
func (uc *WorkflowUseCase) actionable(by *entity.Actor, item *entity.PendingApproval) bool {
	switch e := item.Entity.(type) {
	case *entity.Distribution:
		return e.ToDistributor == by.Holder
	case *entity.DefectReport:
		return by.Role != entity.RoleSubDistributor || uc.supervises(by.Holder, e.Holder)
	case *entity.ReturnRequest:
		return by.Role != entity.RoleSubDistributor || uc.supervises(by.Holder, e.Holder)
	}
	return true
}

func isReviewer(role entity.Role) bool {
	for _, r := range policy.ReviewerRoles() {
		if r == role {
			return true
		}
	}
	return false
}
