// Package sales implements the sale validation rules and the commission
// policy used to derive net revenue.
package sales

import "github.com/AgencyDesk/AgencyDesk/internal/db/models"

// DefaultCommissionRate is the agency cut withheld from gross sales when
// neither the configuration nor the agency overrides it.
const DefaultCommissionRate = 0.20

// RateFor returns the commission rate for an agency: the agency override
// when set, otherwise the configured default, otherwise the historic 20%.
func RateFor(agency *models.Agency, configuredDefault float64) float64 {
	if agency != nil && agency.CommissionRate != nil {
		return *agency.CommissionRate
	}

	if configuredDefault > 0 {
		return configuredDefault
	}

	return DefaultCommissionRate
}

// Net derives the net revenue of a gross amount under the given rate.
// Net is never stored: it is recomputed on every read so a rate change
// needs no migration of historical data.
func Net(gross, rate float64) float64 {
	return gross * (1 - rate)
}
