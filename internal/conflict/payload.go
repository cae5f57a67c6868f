package conflict

import "github.com/UnknownOlympus/registrar/internal/models"

// PlaceholderIIN is sent in place of a national ID for non-citizens who have none.
const PlaceholderIIN = "000000000000"

// NormalizePayload applies the non-citizen placeholder rule. It is applied before every
// call that carries the payload and is idempotent.
func NormalizePayload(payload models.CreateEmployeeRequest) models.CreateEmployeeRequest {
	if payload.NotCitizen && payload.IIN == "" {
		payload.IIN = PlaceholderIIN
	}
	return payload
}
