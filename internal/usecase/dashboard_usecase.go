package usecase

import (
	"context"
	"fmt"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
	lowStockThreshold    = 10
)

// DashboardUseCase builds the per-role landing view. Admins and managers see
// the whole network; everyone else sees their holder and the holders directly
// beneath it.
type DashboardUseCase struct {
	store    repository.Store
	workflow *WorkflowUseCase
}

func NewDashboardUseCase(store repository.Store, workflow *WorkflowUseCase) *DashboardUseCase {
	return &DashboardUseCase{
		store:    store,
		workflow: workflow,
	}
}

func systemWide(actor *entity.Actor) bool {
	return actor.Role == entity.RoleAdmin || actor.Role == entity.RoleManager
}

func (uc *DashboardUseCase) Stats(ctx context.Context, by *entity.Actor) (*entity.DashboardStats, error) {
	if err := authorize(by, policy.OpViewDashboard); err != nil {
		return nil, err
	}

	stats := &entity.DashboardStats{
		Devices:        map[string]int{},
		Distributions:  map[string]int{},
		DefectReports:  map[string]int{},
		ReturnRequests: map[string]int{},
	}
	all := systemWide(by)
	deviceFilter := repository.DeviceFilter{}
	distFilter := repository.DistributionFilter{}
	if !all {
		stats.Scope = by.Holder
		deviceFilter.Holder = by.Holder
		distFilter.Holder = by.Holder
	}
	visible := func(holder string) bool {
		return all || uc.workflow.supervises(by.Holder, holder)
	}

	devices, err := uc.store.ListDevices(ctx, deviceFilter)
	if err != nil {
		return nil, err
	}
	stats.TotalDevices = len(devices)
	for _, d := range devices {
		stats.Devices[string(d.Status)]++
	}

	dists, err := uc.store.ListDistributions(ctx, distFilter)
	if err != nil {
		return nil, err
	}
	for _, d := range dists {
		stats.Distributions[string(d.Status)]++
		if d.FromDistributor == by.Holder {
			stats.DistributionsSent++
		}
		if d.ToDistributor == by.Holder {
			stats.DistributionsReceived++
		}
	}

	defects, err := uc.store.ListDefectReports(ctx, repository.DefectReportFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range defects {
		if visible(r.Holder) {
			stats.DefectReports[string(r.Status)]++
		}
	}

	returns, err := uc.store.ListReturnRequests(ctx, repository.ReturnRequestFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range returns {
		if visible(r.Holder) {
			stats.ReturnRequests[string(r.Status)]++
		}
	}

	pending, err := uc.workflow.PendingApprovals(ctx, by)
	if err != nil {
		return nil, err
	}
	stats.PendingApprovals = len(pending)
	return stats, nil
}

// RecentActivities returns the latest device events, limited to events the
// actor performed or that moved stock in or out of its holder.
func (uc *DashboardUseCase) RecentActivities(ctx context.Context, by *entity.Actor, limit int) ([]*entity.DeviceEvent, error) {
	if err := authorize(by, policy.OpViewDashboard); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	filter := repository.DeviceEventFilter{Limit: limit}
	if !systemWide(by) {
		filter.Holder = by.Holder
		filter.PerformedBy = by.ID
	}
	return uc.store.ListRecentDeviceEvents(ctx, filter)
}

// Alerts flags conditions that need a manager's attention. Other roles get an
// empty list.
func (uc *DashboardUseCase) Alerts(ctx context.Context, by *entity.Actor) ([]*entity.Alert, error) {
	if err := authorize(by, policy.OpViewDashboard); err != nil {
		return nil, err
	}
	alerts := make([]*entity.Alert, 0)
	if !systemWide(by) {
		return alerts, nil
	}

	defects, err := uc.store.ListDefectReports(ctx, repository.DefectReportFilter{
		Statuses: []entity.DefectStatus{entity.DefectOpen, entity.DefectUnderReview},
	})
	if err != nil {
		return nil, err
	}
	critical := 0
	for _, r := range defects {
		if r.Severity == entity.SeverityCritical {
			critical++
		}
	}
	if critical > 0 {
		alerts = append(alerts, &entity.Alert{
			Level:   entity.AlertError,
			Title:   "Critical Defects",
			Message: fmt.Sprintf("%d critical defect(s) require attention", critical),
			Link:    "/defects?severity=critical",
		})
	}

	dists, err := uc.store.ListDistributions(ctx, repository.DistributionFilter{
		Statuses: []entity.DistributionStatus{entity.DistributionPending, entity.DistributionInTransit},
	})
	if err != nil {
		return nil, err
	}
	returns, err := uc.store.ListReturnRequests(ctx, repository.ReturnRequestFilter{Statuses: openReturnStatuses})
	if err != nil {
		return nil, err
	}
	if open := len(dists) + len(defects) + len(returns); open > 0 {
		alerts = append(alerts, &entity.Alert{
			Level:   entity.AlertWarning,
			Title:   "Pending Approvals",
			Message: fmt.Sprintf("%d request(s) waiting for approval", open),
			Link:    "/approvals",
		})
	}

	stock, err := uc.store.ListDevices(ctx, repository.DeviceFilter{
		Holder: entity.MainDistribution,
		Status: entity.DeviceActive,
	})
	if err != nil {
		return nil, err
	}
	if len(stock) < lowStockThreshold {
		alerts = append(alerts, &entity.Alert{
			Level:   entity.AlertWarning,
			Title:   "Low Device Stock",
			Message: fmt.Sprintf("Only %d devices available at %s", len(stock), entity.MainDistribution),
			Link:    "/devices",
		})
	}
	return alerts, nil
}
