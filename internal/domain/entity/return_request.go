package entity

import "time"

type ReturnStatus string

const (
	ReturnPending     ReturnStatus = "pending"
	ReturnUnderReview ReturnStatus = "under-review"
	ReturnApproved    ReturnStatus = "approved"
	ReturnRejected    ReturnStatus = "rejected"
	ReturnCancelled   ReturnStatus = "cancelled"
)

type RequestedAction string

const (
	ActionReplace RequestedAction = "Replace"
	ActionRepair  RequestedAction = "Repair"
	ActionRefund  RequestedAction = "Refund"
)

// ReasonDefective requires any linked defect report to be resolved.
const ReasonDefective = "Defective device"

type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// ApprovalStep is one role-scoped sign-off in a return's approval chain.
type ApprovalStep struct {
	Role     Role       `json:"role" firestore:"role" bson:"role"`
	Status   StepStatus `json:"status" firestore:"status" bson:"status"`
	By       string     `json:"by,omitempty" firestore:"by" bson:"by"`
	At       *time.Time `json:"at,omitempty" firestore:"at,omitempty" bson:"at,omitempty"`
	Comments string     `json:"comments,omitempty" firestore:"comments" bson:"comments"`
}

type ReturnRequest struct {
	ID              string          `json:"id" firestore:"id" bson:"_id"`
	DeviceID        string          `json:"deviceId" firestore:"deviceId" bson:"deviceId"`
	InitiatedBy     string          `json:"initiatedBy" firestore:"initiatedBy" bson:"initiatedBy"`
	InitiatorRole   Role            `json:"initiatorRole" firestore:"initiatorRole" bson:"initiatorRole"`
	Holder          string          `json:"holder" firestore:"holder" bson:"holder"`
	Reason          string          `json:"reason" firestore:"reason" bson:"reason"`
	DefectReportID  string          `json:"defectReportId,omitempty" firestore:"defectReportId" bson:"defectReportId"`
	RequestedAction RequestedAction `json:"requestedAction" firestore:"requestedAction" bson:"requestedAction"`
	Status          ReturnStatus    `json:"status" firestore:"status" bson:"status"`
	ApprovalChain   []ApprovalStep  `json:"approvalChain" firestore:"approvalChain" bson:"approvalChain"`
	CurrentStep     int             `json:"currentStep" firestore:"currentStep" bson:"currentStep"`
	CurrentApprover Role            `json:"currentApprover,omitempty" firestore:"currentApprover" bson:"currentApprover"`
	Notes           string          `json:"notes,omitempty" firestore:"notes" bson:"notes"`
	CreatedAt       time.Time       `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty" firestore:"completedAt,omitempty" bson:"completedAt,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// ChainFor builds the approval chain for a request initiated by role.
// Returns nil for roles that may not initiate returns.
func ChainFor(initiator Role) []ApprovalStep {
	var roles []Role
	switch initiator {
	case RoleOperator:
		roles = []Role{RoleSubDistributor, RoleDistributor}
	case RoleSubDistributor:
		roles = []Role{RoleDistributor}
	default:
		return nil
	}

	steps := make([]ApprovalStep, len(roles))
	for i, r := range roles {
		steps[i] = ApprovalStep{Role: r, Status: StepPending}
	}
	return steps
}

func (r *ReturnRequest) Terminal() bool {
	switch r.Status {
	case ReturnApproved, ReturnRejected, ReturnCancelled:
		return true
	}
	return false
}

// InChain reports whether role owns any step of the chain.
func (r *ReturnRequest) InChain(role Role) bool {
	for _, s := range r.ApprovalChain {
		if s.Role == role {
			return true
		}
	}
	return false
}

// ApproveStep signs off the current step and moves the pointer forward.
// It reports whether the chain is now complete.
func (r *ReturnRequest) ApproveStep(by, comments string, at time.Time) bool {
	step := &r.ApprovalChain[r.CurrentStep]
	step.Status = StepApproved
	step.By = by
	step.At = &at
	step.Comments = comments
	r.UpdatedAt = at

	r.CurrentStep++
	if r.CurrentStep >= len(r.ApprovalChain) {
		r.Status = ReturnApproved
		r.CurrentApprover = ""
		r.CompletedAt = &at
		return true
	}
	r.Status = ReturnUnderReview
	r.CurrentApprover = r.ApprovalChain[r.CurrentStep].Role
	return false
}

// RejectStep rejects the current step, which ends the whole request.
func (r *ReturnRequest) RejectStep(by, comments string, at time.Time) {
	step := &r.ApprovalChain[r.CurrentStep]
	step.Status = StepRejected
	step.By = by
	step.At = &at
	step.Comments = comments

	r.Status = ReturnRejected
	r.CurrentApprover = ""
	r.CompletedAt = &at
	r.UpdatedAt = at
}

func (r *ReturnRequest) Clone() *ReturnRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.ApprovalChain = make([]ApprovalStep, len(r.ApprovalChain))
	for i, s := range r.ApprovalChain {
		s.At = cloneTime(s.At)
		c.ApprovalChain[i] = s
	}
	c.CompletedAt = cloneTime(r.CompletedAt)
	return &c
}
