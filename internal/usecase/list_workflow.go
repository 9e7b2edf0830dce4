package usecase

import (
	"context"
	"strconv"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
	"dms/pkg/utils"
)

// ListQuery is the shared shape of list requests. Sort takes comma separated
// fields, a leading "-" sorts descending.
type ListQuery struct {
	Status   string
	Location string
	Holder   string
	DeviceID string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

type Page[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

func paginate[T any](items []T, q ListQuery) *Page[T] {
	p := utils.NewPaginationParams(q.Page, q.PageSize)
	return &Page[T]{
		Items:    utils.Paginate(items, p),
		Total:    int64(len(items)),
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

func filterSearch[T any](items []T, query string, fields func(T) []string) []T {
	if query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if utils.MatchesSearch(query, fields(item)...) {
			out = append(out, item)
		}
	}
	return out
}

var deviceSortFields = map[string]bool{
	"macAddress": true, "serialNumber": true, "model": true, "manufacturer": true,
	"status": true, "currentLocation": true, "currentHolder": true, "registeredAt": true, "updatedAt": true,
}

func deviceField(d *entity.Device, field string) string {
	switch field {
	case "macAddress":
		return d.MACAddress
	case "serialNumber":
		return d.SerialNumber
	case "model":
		return d.Model
	case "manufacturer":
		return d.Manufacturer
	case "status":
		return string(d.Status)
	case "currentLocation":
		return string(d.CurrentLocation)
	case "currentHolder":
		return d.CurrentHolder
	case "registeredAt":
		return utils.TimeKey(d.RegisteredAt)
	case "updatedAt":
		return utils.TimeKey(d.UpdatedAt)
	}
	return ""
}

func (uc *WorkflowUseCase) ListDevices(ctx context.Context, q ListQuery, by *entity.Actor) (*Page[*entity.Device], error) {
	if err := authorize(by, policy.OpReadDevices); err != nil {
		return nil, err
	}

	devices, err := uc.store.ListDevices(ctx, repository.DeviceFilter{
		Status:   entity.DeviceStatus(q.Status),
		Location: entity.Location(q.Location),
		Holder:   q.Holder,
	})
	if err != nil {
		return nil, err
	}

	devices = filterSearch(devices, q.Search, func(d *entity.Device) []string {
		return []string{d.MACAddress, d.SerialNumber, d.Model, d.Manufacturer, d.CurrentHolder}
	})
	utils.SortBy(devices, utils.ParseSort(q.Sort, deviceSortFields), deviceField)
	return paginate(devices, q), nil
}

var distributionSortFields = map[string]bool{
	"batchId": true, "fromDistributor": true, "toDistributor": true, "status": true,
	"deviceCount": true, "createdAt": true, "updatedAt": true,
}

func distributionField(d *entity.Distribution, field string) string {
	switch field {
	case "batchId":
		return d.BatchID
	case "fromDistributor":
		return d.FromDistributor
	case "toDistributor":
		return d.ToDistributor
	case "status":
		return string(d.Status)
	case "deviceCount":
		return padInt(d.DeviceCount)
	case "createdAt":
		return utils.TimeKey(d.CreatedAt)
	case "updatedAt":
		return utils.TimeKey(d.UpdatedAt)
	}
	return ""
}

func (uc *WorkflowUseCase) ListDistributions(ctx context.Context, q ListQuery, by *entity.Actor) (*Page[*entity.Distribution], error) {
	if err := authorize(by, policy.OpReadDistributions); err != nil {
		return nil, err
	}

	filter := repository.DistributionFilter{Holder: q.Holder}
	if q.Status != "" {
		filter.Statuses = []entity.DistributionStatus{entity.DistributionStatus(q.Status)}
	}
	dists, err := uc.store.ListDistributions(ctx, filter)
	if err != nil {
		return nil, err
	}

	dists = filterSearch(dists, q.Search, func(d *entity.Distribution) []string {
		return []string{d.BatchID, d.FromDistributor, d.ToDistributor, d.Notes}
	})
	utils.SortBy(dists, utils.ParseSort(q.Sort, distributionSortFields), distributionField)
	return paginate(dists, q), nil
}

var defectSortFields = map[string]bool{
	"severity": true, "defectType": true, "status": true, "holder": true, "reportedAt": true, "updatedAt": true,
}

var severityRank = map[entity.Severity]string{
	entity.SeverityCritical: "0",
	entity.SeverityHigh:     "1",
	entity.SeverityMedium:   "2",
	entity.SeverityLow:      "3",
}

func defectField(r *entity.DefectReport, field string) string {
	switch field {
	case "severity":
		return severityRank[r.Severity]
	case "defectType":
		return string(r.DefectType)
	case "status":
		return string(r.Status)
	case "holder":
		return r.Holder
	case "reportedAt":
		return utils.TimeKey(r.ReportedAt)
	case "updatedAt":
		return utils.TimeKey(r.UpdatedAt)
	}
	return ""
}

func (uc *WorkflowUseCase) ListDefectReports(ctx context.Context, q ListQuery, by *entity.Actor) (*Page[*entity.DefectReport], error) {
	if err := authorize(by, policy.OpReadDefects); err != nil {
		return nil, err
	}

	filter := repository.DefectReportFilter{DeviceID: q.DeviceID, Holder: q.Holder}
	if q.Status != "" {
		filter.Statuses = []entity.DefectStatus{entity.DefectStatus(q.Status)}
	}
	reports, err := uc.store.ListDefectReports(ctx, filter)
	if err != nil {
		return nil, err
	}

	reports = filterSearch(reports, q.Search, func(r *entity.DefectReport) []string {
		return []string{r.Description, r.Holder, string(r.DefectType), r.DeviceID}
	})
	utils.SortBy(reports, utils.ParseSort(q.Sort, defectSortFields), defectField)
	return paginate(reports, q), nil
}

var returnSortFields = map[string]bool{
	"status": true, "requestedAction": true, "holder": true, "currentApprover": true, "createdAt": true, "updatedAt": true,
}

func returnField(r *entity.ReturnRequest, field string) string {
	switch field {
	case "status":
		return string(r.Status)
	case "requestedAction":
		return string(r.RequestedAction)
	case "holder":
		return r.Holder
	case "currentApprover":
		return string(r.CurrentApprover)
	case "createdAt":
		return utils.TimeKey(r.CreatedAt)
	case "updatedAt":
		return utils.TimeKey(r.UpdatedAt)
	}
	return ""
}

func (uc *WorkflowUseCase) ListReturnRequests(ctx context.Context, q ListQuery, by *entity.Actor) (*Page[*entity.ReturnRequest], error) {
	if err := authorize(by, policy.OpReadReturns); err != nil {
		return nil, err
	}

	filter := repository.ReturnRequestFilter{DeviceID: q.DeviceID, Holder: q.Holder}
	if q.Status != "" {
		filter.Statuses = []entity.ReturnStatus{entity.ReturnStatus(q.Status)}
	}
	returns, err := uc.store.ListReturnRequests(ctx, filter)
	if err != nil {
		return nil, err
	}

	returns = filterSearch(returns, q.Search, func(r *entity.ReturnRequest) []string {
		return []string{r.Reason, r.Holder, r.DeviceID, r.Notes}
	})
	utils.SortBy(returns, utils.ParseSort(q.Sort, returnSortFields), returnField)
	return paginate(returns, q), nil
}

func padInt(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}
