package repository

import "dms/internal/domain/entity"

func (f DeviceFilter) Match(d *entity.Device) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Location != "" && d.CurrentLocation != f.Location {
		return false
	}
	if f.Holder != "" && d.CurrentHolder != f.Holder {
		return false
	}
	return true
}

func (f DeviceEventFilter) Match(e *entity.DeviceEvent) bool {
	if f.Holder == "" && f.PerformedBy == "" {
		return true
	}
	if f.Holder != "" && (e.FromHolder == f.Holder || e.ToHolder == f.Holder) {
		return true
	}
	return f.PerformedBy != "" && e.PerformedBy == f.PerformedBy
}

// Truncate applies Limit to an already sorted slice.
func (f DeviceEventFilter) Truncate(events []*entity.DeviceEvent) []*entity.DeviceEvent {
	if f.Limit > 0 && len(events) > f.Limit {
		return events[:f.Limit]
	}
	return events
}

func (f DistributionFilter) Match(d *entity.Distribution) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, d.Status) {
		return false
	}
	if f.Holder != "" && d.FromDistributor != f.Holder && d.ToDistributor != f.Holder {
		return false
	}
	return true
}

func (f DefectReportFilter) Match(r *entity.DefectReport) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if f.DeviceID != "" && r.DeviceID != f.DeviceID {
		return false
	}
	if f.Holder != "" && r.Holder != f.Holder {
		return false
	}
	return true
}

func (f ReturnRequestFilter) Match(r *entity.ReturnRequest) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if f.DeviceID != "" && r.DeviceID != f.DeviceID {
		return false
	}
	if f.Holder != "" && r.Holder != f.Holder {
		return false
	}
	if f.CurrentApprover != "" && r.CurrentApprover != f.CurrentApprover {
		return false
	}
	return true
}

func containsStatus[S ~string](list []S, s S) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// StatusStrings converts typed statuses for store query builders.
func StatusStrings[S ~string](list []S) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}
