package entity

import "time"

// InventoryReport is a point-in-time summary of devices and open workflow items.
type InventoryReport struct {
	TotalDevices   int            `json:"totalDevices"`
	ByStatus       map[string]int `json:"byStatus"`
	ByLocation     map[string]int `json:"byLocation"`
	ByHolder       map[string]int `json:"byHolder"`
	Distributions  map[string]int `json:"distributions"`
	DefectReports  map[string]int `json:"defectReports"`
	ReturnRequests map[string]int `json:"returnRequests"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type HolderCount struct {
	Holder  string `json:"holder"`
	Devices int    `json:"devices"`
}

type DistributionSummary struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"byStatus"`
	ByMonth       []MonthCount   `json:"byMonth"`
	TopRecipients []HolderCount  `json:"topRecipients"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

type DefectSummary struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	BySeverity  map[string]int `json:"bySeverity"`
	ByType      map[string]int `json:"byType"`
	ByMonth     []MonthCount   `json:"byMonth"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type ReturnSummary struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	ByAction    map[string]int `json:"byAction"`
	ByMonth     []MonthCount   `json:"byMonth"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// DashboardStats counts what an actor can see. Scope is empty for the
// system-wide view and the holder name otherwise.
type DashboardStats struct {
	Scope                 string         `json:"scope,omitempty"`
	TotalDevices          int            `json:"totalDevices"`
	Devices               map[string]int `json:"devices"`
	Distributions         map[string]int `json:"distributions"`
	DistributionsSent     int            `json:"distributionsSent"`
	DistributionsReceived int            `json:"distributionsReceived"`
	DefectReports         map[string]int `json:"defectReports"`
	ReturnRequests        map[string]int `json:"returnRequests"`
	PendingApprovals      int            `json:"pendingApprovals"`
}

type AlertLevel string

const (
	AlertError   AlertLevel = "error"
	AlertWarning AlertLevel = "warning"
)

type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Link    string     `json:"link"`
}
