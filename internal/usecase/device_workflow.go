package usecase

import (
	"context"
	"strings"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/pkg/errors"
	"dms/pkg/logger"
)

type RegisterDeviceInput struct {
	MACAddress      string                 `json:"macAddress" validate:"required,mac"`
	SerialNumber    string                 `json:"serialNumber" validate:"required,max=64"`
	Model           string                 `json:"model" validate:"required,max=100"`
	Manufacturer    string                 `json:"manufacturer" validate:"required,max=100"`
	HardwareVersion string                 `json:"hardwareVersion" validate:"max=50"`
	FirmwareVersion string                 `json:"firmwareVersion" validate:"max=50"`
	Condition       entity.DeviceCondition `json:"condition" validate:"omitempty,oneof=new refurbished defective"`
}

// DeviceTrace is a device together with its movement history, newest first.
type DeviceTrace struct {
	Device *entity.Device        `json:"device"`
	Events []*entity.DeviceEvent `json:"events"`
}

func (uc *WorkflowUseCase) RegisterDevice(ctx context.Context, input RegisterDeviceInput, by *entity.Actor) (*entity.Device, error) {
	if err := authorize(by, policy.OpRegisterDevice); err != nil {
		return nil, err
	}

	input.MACAddress = entity.NormalizeMAC(input.MACAddress)
	input.SerialNumber = strings.TrimSpace(input.SerialNumber)
	if err := uc.check(input); err != nil {
		return nil, err
	}
	if input.Condition == "" {
		input.Condition = entity.ConditionNew
	}

	unlock, err := uc.lock(ctx, "mac:"+input.MACAddress, "serial:"+input.SerialNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	fields := map[string]string{}
	exists, err := present(uc.store.FindDeviceByMAC(ctx, input.MACAddress))
	if err != nil {
		return nil, err
	}
	if exists {
		fields["macAddress"] = "MAC address is already registered"
	}
	exists, err = present(uc.store.FindDeviceBySerial(ctx, input.SerialNumber))
	if err != nil {
		return nil, err
	}
	if exists {
		fields["serialNumber"] = "serial number is already registered"
	}
	if len(fields) > 0 {
		return nil, errors.Validation("Duplicate device identifiers", fields)
	}

	now := uc.now()
	device := &entity.Device{
		ID:              uc.newID(),
		MACAddress:      input.MACAddress,
		SerialNumber:    input.SerialNumber,
		Model:           input.Model,
		Manufacturer:    input.Manufacturer,
		HardwareVersion: input.HardwareVersion,
		FirmwareVersion: input.FirmwareVersion,
		Condition:       input.Condition,
		Status:          entity.DeviceActive,
		CurrentLocation: entity.LocationMainDistribution,
		CurrentHolder:   entity.MainDistribution,
		RegisteredBy:    by.ID,
		RegisteredAt:    now,
		UpdatedAt:       now,
	}

	cs := &changeset{}
	cs.device(device)
	cs.events(uc.event(device, entity.EventRegistered, "", "", "", by, now))
	if err := uc.commit(ctx, cs.build()); err != nil {
		return nil, err
	}

	logger.Transition("device", device.ID, "register", by.ID)
	return device, nil
}

func (uc *WorkflowUseCase) GetDevice(ctx context.Context, id string, by *entity.Actor) (*entity.Device, error) {
	if err := authorize(by, policy.OpReadDevices); err != nil {
		return nil, err
	}
	return uc.store.GetDevice(ctx, id)
}

// TrackDevice resolves query as a MAC address, then a serial number, then an id.
func (uc *WorkflowUseCase) TrackDevice(ctx context.Context, query string, by *entity.Actor) (*DeviceTrace, error) {
	if err := authorize(by, policy.OpReadDevices); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Field("q", "q is required")
	}

	lookups := []func() (*entity.Device, error){
		func() (*entity.Device, error) { return uc.store.FindDeviceByMAC(ctx, entity.NormalizeMAC(query)) },
		func() (*entity.Device, error) { return uc.store.FindDeviceBySerial(ctx, query) },
		func() (*entity.Device, error) { return uc.store.GetDevice(ctx, query) },
	}

	for _, lookup := range lookups {
		device, err := lookup()
		if ok, err := found(err); err != nil {
			return nil, err
		} else if !ok {
			continue
		}

		events, err := uc.store.ListDeviceEvents(ctx, device.ID)
		if err != nil {
			return nil, err
		}
		return &DeviceTrace{Device: device, Events: events}, nil
	}

	return nil, errors.NotFound("Device", nil)
}
