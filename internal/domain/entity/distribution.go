package entity

import "time"

type DistributionStatus string

const (
	DistributionPending   DistributionStatus = "pending"
	DistributionInTransit DistributionStatus = "in-transit"
	DistributionApproved  DistributionStatus = "approved"
	DistributionRejected  DistributionStatus = "rejected"
	DistributionCancelled DistributionStatus = "cancelled"
)

// Distribution is a batch transfer of devices between two holders.
type Distribution struct {
	ID              string             `json:"id" firestore:"id" bson:"_id"`
	BatchID         string             `json:"batchId" firestore:"batchId" bson:"batchId"`
	FromDistributor string             `json:"fromDistributor" firestore:"fromDistributor" bson:"fromDistributor"`
	ToDistributor   string             `json:"toDistributor" firestore:"toDistributor" bson:"toDistributor"`
	Devices         []string           `json:"devices" firestore:"devices" bson:"devices"`
	DeviceCount     int                `json:"deviceCount" firestore:"deviceCount" bson:"deviceCount"`
	Status          DistributionStatus `json:"status" firestore:"status" bson:"status"`
	Notes           string             `json:"notes,omitempty" firestore:"notes" bson:"notes"`
	CreatedBy       string             `json:"createdBy" firestore:"createdBy" bson:"createdBy"`
	CreatedByRole   Role               `json:"createdByRole" firestore:"createdByRole" bson:"createdByRole"`
	CreatedAt       time.Time          `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	DispatchedAt    *time.Time         `json:"dispatchedAt,omitempty" firestore:"dispatchedAt,omitempty" bson:"dispatchedAt,omitempty"`
	ApprovedAt      *time.Time         `json:"approvedAt,omitempty" firestore:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	ApprovedBy      string             `json:"approvedBy,omitempty" firestore:"approvedBy" bson:"approvedBy"`
	RejectedAt      *time.Time         `json:"rejectedAt,omitempty" firestore:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectedBy      string             `json:"rejectedBy,omitempty" firestore:"rejectedBy" bson:"rejectedBy"`
	RejectionReason string             `json:"rejectionReason,omitempty" firestore:"rejectionReason" bson:"rejectionReason"`
	UpdatedAt       time.Time          `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// Approvable reports whether the recipient may still approve or reject.
// in-transit is a display alias of pending.
func (d *Distribution) Approvable() bool {
	return d.Status == DistributionPending || d.Status == DistributionInTransit
}

func (d *Distribution) Clone() *Distribution {
	if d == nil {
		return nil
	}
	c := *d
	c.Devices = append([]string(nil), d.Devices...)
	c.DispatchedAt = cloneTime(d.DispatchedAt)
	c.ApprovedAt = cloneTime(d.ApprovedAt)
	c.RejectedAt = cloneTime(d.RejectedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
