package usecase

import (
	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
)

// changeset collects the writes of one transition. Devices are keyed by id so
// a device touched twice is written once with its final state.
type changeset struct {
	devices   []*entity.Device
	deviceIdx map[string]int
	cs        repository.Changeset
}

func (c *changeset) device(devices ...*entity.Device) {
	if c.deviceIdx == nil {
		c.deviceIdx = make(map[string]int)
	}
	for _, d := range devices {
		if i, ok := c.deviceIdx[d.ID]; ok {
			c.devices[i] = d
			continue
		}
		c.deviceIdx[d.ID] = len(c.devices)
		c.devices = append(c.devices, d)
	}
}

func (c *changeset) distribution(d *entity.Distribution) {
	c.cs.Distributions = append(c.cs.Distributions, d)
}

func (c *changeset) defect(r *entity.DefectReport) {
	c.cs.DefectReports = append(c.cs.DefectReports, r)
}

func (c *changeset) returnRequest(r *entity.ReturnRequest) {
	c.cs.ReturnRequests = append(c.cs.ReturnRequests, r)
}

func (c *changeset) events(e ...*entity.DeviceEvent) {
	c.cs.DeviceEvents = append(c.cs.DeviceEvents, e...)
}

func (c *changeset) notifications(n ...*entity.Notification) {
	c.cs.Notifications = append(c.cs.Notifications, n...)
}

func (c *changeset) build() *repository.Changeset {
	out := c.cs
	out.Devices = c.devices
	return &out
}
