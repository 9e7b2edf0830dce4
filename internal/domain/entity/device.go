package entity

import (
	"net"
	"strings"
	"time"
)

type DeviceStatus string

const (
	DeviceActive    DeviceStatus = "active"
	DeviceInUse     DeviceStatus = "in-use"
	DeviceStored    DeviceStatus = "stored"
	DeviceDefective DeviceStatus = "defective"
	DeviceInTransit DeviceStatus = "in-transit"
	DevicePending   DeviceStatus = "pending"
	DeviceReturned  DeviceStatus = "returned"
)

type DeviceCondition string

const (
	ConditionNew         DeviceCondition = "new"
	ConditionRefurbished DeviceCondition = "refurbished"
	ConditionDefective   DeviceCondition = "defective"
)

// Device is a tracked networking unit. Placement fields change only through
// workflow transitions.
type Device struct {
	ID              string          `json:"id" firestore:"id" bson:"_id"`
	MACAddress      string          `json:"macAddress" firestore:"macAddress" bson:"macAddress"`
	SerialNumber    string          `json:"serialNumber" firestore:"serialNumber" bson:"serialNumber"`
	Model           string          `json:"model" firestore:"model" bson:"model"`
	Manufacturer    string          `json:"manufacturer" firestore:"manufacturer" bson:"manufacturer"`
	HardwareVersion string          `json:"hardwareVersion,omitempty" firestore:"hardwareVersion" bson:"hardwareVersion"`
	FirmwareVersion string          `json:"firmwareVersion,omitempty" firestore:"firmwareVersion" bson:"firmwareVersion"`
	Condition       DeviceCondition `json:"condition" firestore:"condition" bson:"condition"`
	Status          DeviceStatus    `json:"status" firestore:"status" bson:"status"`
	CurrentLocation Location        `json:"currentLocation" firestore:"currentLocation" bson:"currentLocation"`
	CurrentHolder   string          `json:"currentHolder" firestore:"currentHolder" bson:"currentHolder"`
	RegisteredBy    string          `json:"registeredBy" firestore:"registeredBy" bson:"registeredBy"`
	RegisteredAt    time.Time       `json:"registeredAt" firestore:"registeredAt" bson:"registeredAt"`
	UpdatedAt       time.Time       `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// NormalizeMAC renders a 48-bit MAC in upper-case colon form. Input that does
// not parse is only upper-cased and dash-separated groups become colons.
func NormalizeMAC(mac string) string {
	mac = strings.TrimSpace(mac)
	if hw, err := net.ParseMAC(mac); err == nil && len(hw) == 6 {
		return strings.ToUpper(hw.String())
	}
	return strings.ReplaceAll(strings.ToUpper(mac), "-", ":")
}

// DeviceEvent is one entry in a device's custody history.
type DeviceEvent struct {
	ID           string       `json:"id" firestore:"id" bson:"_id"`
	DeviceID     string       `json:"deviceId" firestore:"deviceId" bson:"deviceId"`
	Action       string       `json:"action" firestore:"action" bson:"action"`
	FromHolder   string       `json:"fromHolder,omitempty" firestore:"fromHolder" bson:"fromHolder"`
	ToHolder     string       `json:"toHolder,omitempty" firestore:"toHolder" bson:"toHolder"`
	StatusBefore DeviceStatus `json:"statusBefore,omitempty" firestore:"statusBefore" bson:"statusBefore"`
	StatusAfter  DeviceStatus `json:"statusAfter,omitempty" firestore:"statusAfter" bson:"statusAfter"`
	Location     Location     `json:"location" firestore:"location" bson:"location"`
	Reference    string       `json:"reference,omitempty" firestore:"reference" bson:"reference"`
	PerformedBy  string       `json:"performedBy" firestore:"performedBy" bson:"performedBy"`
	At           time.Time    `json:"at" firestore:"at" bson:"at"`
}

const (
	EventRegistered     = "registered"
	EventDistributed    = "distributed"
	EventDefectReported = "defect-reported"
	EventDefectClosed   = "defect-closed"
	EventReturned       = "returned"
)
