package usecase

import (
	"context"
	"sort"
	"time"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
	"dms/pkg/logger"
)

const (
	summaryMonths = 6
	topRecipients = 5
)

type ReportUseCase struct {
	store    repository.Store
	exporter InventoryExporter
	now      func() time.Time
}

func NewReportUseCase(store repository.Store, exporter InventoryExporter) *ReportUseCase {
	return &ReportUseCase{
		store:    store,
		exporter: exporter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ReportUseCase) Inventory(ctx context.Context, by *entity.Actor) (*entity.InventoryReport, error) {
	if err := authorize(by, policy.OpReadReports); err != nil {
		return nil, err
	}
	report, _, err := uc.build(ctx)
	return report, err
}

// ExportInventory renders the inventory summary and device list as a workbook.
func (uc *ReportUseCase) ExportInventory(ctx context.Context, by *entity.Actor) ([]byte, error) {
	if err := authorize(by, policy.OpExportReports); err != nil {
		return nil, err
	}

	report, devices, err := uc.build(ctx)
	if err != nil {
		return nil, err
	}

	data, err := uc.exporter.InventoryWorkbook(report, devices)
	if err != nil {
		return nil, errors.Internal("Failed to export inventory", err)
	}
	logger.Info("Inventory exported by %s (%d devices)", by.ID, len(devices))
	return data, nil
}

func (uc *ReportUseCase) build(ctx context.Context) (*entity.InventoryReport, []*entity.Device, error) {
	devices, err := uc.store.ListDevices(ctx, repository.DeviceFilter{})
	if err != nil {
		return nil, nil, err
	}
	dists, err := uc.store.ListDistributions(ctx, repository.DistributionFilter{})
	if err != nil {
		return nil, nil, err
	}
	defects, err := uc.store.ListDefectReports(ctx, repository.DefectReportFilter{})
	if err != nil {
		return nil, nil, err
	}
	returns, err := uc.store.ListReturnRequests(ctx, repository.ReturnRequestFilter{})
	if err != nil {
		return nil, nil, err
	}

	report := &entity.InventoryReport{
		TotalDevices:   len(devices),
		ByStatus:       map[string]int{},
		ByLocation:     map[string]int{},
		ByHolder:       map[string]int{},
		Distributions:  map[string]int{},
		DefectReports:  map[string]int{},
		ReturnRequests: map[string]int{},
		GeneratedAt:    uc.now(),
	}
	for _, d := range devices {
		report.ByStatus[string(d.Status)]++
		report.ByLocation[string(d.CurrentLocation)]++
		report.ByHolder[d.CurrentHolder]++
	}
	for _, d := range dists {
		report.Distributions[string(d.Status)]++
	}
	for _, r := range defects {
		report.DefectReports[string(r.Status)]++
	}
	for _, r := range returns {
		report.ReturnRequests[string(r.Status)]++
	}
	return report, devices, nil
}

// monthly tallies timestamps into the trailing calendar months ending at now.
type monthly struct {
	buckets []entity.MonthCount
	index   map[string]int
}

func newMonthly(now time.Time, n int) *monthly {
	m := &monthly{buckets: make([]entity.MonthCount, n), index: make(map[string]int, n)}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		key := first.AddDate(0, i-(n-1), 0).Format("2006-01")
		m.buckets[i] = entity.MonthCount{Month: key}
		m.index[key] = i
	}
	return m
}

func (m *monthly) add(t time.Time) {
	if i, ok := m.index[t.UTC().Format("2006-01")]; ok {
		m.buckets[i].Count++
	}
}

func (uc *ReportUseCase) DistributionSummary(ctx context.Context, by *entity.Actor) (*entity.DistributionSummary, error) {
	if err := authorize(by, policy.OpReadReports); err != nil {
		return nil, err
	}
	dists, err := uc.store.ListDistributions(ctx, repository.DistributionFilter{})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	months := newMonthly(now, summaryMonths)
	summary := &entity.DistributionSummary{
		Total:       len(dists),
		ByStatus:    map[string]int{},
		GeneratedAt: now,
	}
	received := map[string]int{}
	for _, d := range dists {
		summary.ByStatus[string(d.Status)]++
		months.add(d.CreatedAt)
		if d.Status == entity.DistributionApproved {
			received[d.ToDistributor] += d.DeviceCount
		}
	}
	summary.ByMonth = months.buckets

	top := make([]entity.HolderCount, 0, len(received))
	for holder, n := range received {
		top = append(top, entity.HolderCount{Holder: holder, Devices: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Devices != top[j].Devices {
			return top[i].Devices > top[j].Devices
		}
		return top[i].Holder < top[j].Holder
	})
	if len(top) > topRecipients {
		top = top[:topRecipients]
	}
	summary.TopRecipients = top
	return summary, nil
}

func (uc *ReportUseCase) DefectSummary(ctx context.Context, by *entity.Actor) (*entity.DefectSummary, error) {
	if err := authorize(by, policy.OpReadReports); err != nil {
		return nil, err
	}
	reports, err := uc.store.ListDefectReports(ctx, repository.DefectReportFilter{})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	months := newMonthly(now, summaryMonths)
	summary := &entity.DefectSummary{
		Total:       len(reports),
		ByStatus:    map[string]int{},
		BySeverity:  map[string]int{},
		ByType:      map[string]int{},
		GeneratedAt: now,
	}
	for _, r := range reports {
		summary.ByStatus[string(r.Status)]++
		summary.BySeverity[string(r.Severity)]++
		summary.ByType[string(r.DefectType)]++
		months.add(r.ReportedAt)
	}
	summary.ByMonth = months.buckets
	return summary, nil
}

func (uc *ReportUseCase) ReturnSummary(ctx context.Context, by *entity.Actor) (*entity.ReturnSummary, error) {
	if err := authorize(by, policy.OpReadReports); err != nil {
		return nil, err
	}
	returns, err := uc.store.ListReturnRequests(ctx, repository.ReturnRequestFilter{})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	months := newMonthly(now, summaryMonths)
	summary := &entity.ReturnSummary{
		Total:       len(returns),
		ByStatus:    map[string]int{},
		ByAction:    map[string]int{},
		GeneratedAt: now,
	}
	for _, r := range returns {
		summary.ByStatus[string(r.Status)]++
		summary.ByAction[string(r.RequestedAction)]++
		months.add(r.CreatedAt)
	}
	summary.ByMonth = months.buckets
	return summary, nil
}
