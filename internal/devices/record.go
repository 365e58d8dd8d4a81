package devices

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DeviceRecord is a validated device row eligible for persistence. The
// combination of every field except the id is unique per organization.
type DeviceRecord struct {
	Section         string `json:"section"`
	DeviceType      string `json:"deviceType"`
	Brand           string `json:"brand"`
	DeviceModel     string `json:"deviceModel"`
	LeadAccessories string `json:"leadAccessories"`
	MRICompatible   bool   `json:"mriCompatible"`
	MRICondition    string `json:"mriCondition"`
	OrganizationID  string `json:"organizationId"`
}

// Validate reports which required fields are missing or empty.
// MRICompatible is derived and can never fail validation.
func (r DeviceRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Section, validation.Required),
		validation.Field(&r.DeviceType, validation.Required),
		validation.Field(&r.Brand, validation.Required),
		validation.Field(&r.DeviceModel, validation.Required),
		validation.Field(&r.LeadAccessories, validation.Required),
		validation.Field(&r.MRICondition, validation.Required),
	)
}

// TruthyBool maps a raw spreadsheet cell to the compatibility flag. The
// mapping is the contract spreadsheet authors rely on: only "true" and
// "yes" (any case) mean true, every other value means false. It is lossy
// and non-symmetric on purpose, and it is total: no input is an error.
func TruthyBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes":
		return true
	default:
		return false
	}
}
