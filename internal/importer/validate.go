package importer

import (
	"strings"

	"tricity/internal/devices"
)

// Column keys as they appear after header normalization. "model" is the
// historical header name for the device model column.
const (
	headerSection         = "section"
	headerDeviceType      = "devicetype"
	headerBrand           = "brand"
	headerModel           = "model"
	headerLeadAccessories = "lead/accessories"
	headerMRICompatible   = "mricompatible"
	headerMRICondition    = "mricondition"
)

// BuildRecord converts one raw row into a device record stamped with the
// job's organization, or returns the validation error naming the missing
// fields. A failed row is rejected on its own; it never fails the import.
func BuildRecord(row RawRow, organizationID string) (devices.DeviceRecord, error) {
	record := devices.DeviceRecord{
		Section:         strings.TrimSpace(row[headerSection]),
		DeviceType:      strings.TrimSpace(row[headerDeviceType]),
		Brand:           strings.TrimSpace(row[headerBrand]),
		DeviceModel:     strings.TrimSpace(row[headerModel]),
		LeadAccessories: strings.TrimSpace(row[headerLeadAccessories]),
		MRICompatible:   devices.TruthyBool(row[headerMRICompatible]),
		MRICondition:    strings.TrimSpace(row[headerMRICondition]),
		OrganizationID:  organizationID,
	}
	if err := record.Validate(); err != nil {
		return devices.DeviceRecord{}, err
	}
	return record, nil
}
