package entity

import "time"

type EntityType string

const (
	EntityDistribution  EntityType = "distribution"
	EntityDefectReport  EntityType = "defect-report"
	EntityReturnRequest EntityType = "return-request"
)

// PendingApproval is one row of the unified approvals queue.
type PendingApproval struct {
	EntityType  EntityType  `json:"entityType"`
	EntityID    string      `json:"entityId"`
	RequestedAt time.Time   `json:"requestedAt"`
	Entity      interface{} `json:"entity"`
}
