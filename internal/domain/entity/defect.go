package entity

import "time"

type DefectType string

const (
	DefectHardware DefectType = "Hardware"
	DefectSoftware DefectType = "Software"
	DefectCosmetic DefectType = "Cosmetic"
	DefectOther    DefectType = "Other"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type DefectStatus string

const (
	DefectOpen        DefectStatus = "open"
	DefectUnderReview DefectStatus = "under-review"
	DefectResolved    DefectStatus = "resolved"
	DefectClosed      DefectStatus = "closed"
)

type DefectReport struct {
	ID                 string       `json:"id" firestore:"id" bson:"_id"`
	DeviceID           string       `json:"deviceId" firestore:"deviceId" bson:"deviceId"`
	ReportedBy         string       `json:"reportedBy" firestore:"reportedBy" bson:"reportedBy"`
	ReporterRole       Role         `json:"reporterRole" firestore:"reporterRole" bson:"reporterRole"`
	Holder             string       `json:"holder" firestore:"holder" bson:"holder"`
	DefectType         DefectType   `json:"defectType" firestore:"defectType" bson:"defectType"`
	Severity           Severity     `json:"severity" firestore:"severity" bson:"severity"`
	Description        string       `json:"description" firestore:"description" bson:"description"`
	Photos             []string     `json:"photos" firestore:"photos" bson:"photos"`
	Status             DefectStatus `json:"status" firestore:"status" bson:"status"`
	ReviewedBy         string       `json:"reviewedBy,omitempty" firestore:"reviewedBy" bson:"reviewedBy"`
	ReviewComments     string       `json:"reviewComments,omitempty" firestore:"reviewComments" bson:"reviewComments"`
	ReviewedAt         *time.Time   `json:"reviewedAt,omitempty" firestore:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	DeviceStatusBefore DeviceStatus `json:"deviceStatusBefore" firestore:"deviceStatusBefore" bson:"deviceStatusBefore"`
	ReturnRequestID    string       `json:"returnRequestId,omitempty" firestore:"returnRequestId" bson:"returnRequestId"`
	ReportedAt         time.Time    `json:"reportedAt" firestore:"reportedAt" bson:"reportedAt"`
	UpdatedAt          time.Time    `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// Pending reports whether a reviewer still has a decision to make.
func (r *DefectReport) Pending() bool {
	return r.Status == DefectOpen || r.Status == DefectUnderReview
}

func (r *DefectReport) Clone() *DefectReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Photos = append([]string(nil), r.Photos...)
	c.ReviewedAt = cloneTime(r.ReviewedAt)
	return &c
}
