// Package docs LexFlow API.
//
// Documentation of the LexFlow court registry API.
//
//	Schemes: https
//	BasePath: /
//	Version: 1.0.0
//	Host: https://api.lexflow.app
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Security:
//	- basic
//
//	SecurityDefinitions:
//	basic:
//	  type: basic
//
// swagger:meta
package docs

import (
	"github.com/lexflow/lexflow-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the health of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/case/{case_id} case caseByIDEndpointID
// Returns a case by its id.
// responses:
//   200: caseResponse

// A single case record.
// swagger:response caseResponse
type caseResponseWrapper struct {
	// in:body
	Body models.Case
}

// swagger:route GET /api/v1/hearings/case/{case_id} hearing hearingsByCaseEndpointID
// Returns a case's hearings in date order.
// responses:
//   200: hearingsResponse

// The hearings of one case.
// swagger:response hearingsResponse
type hearingsResponseWrapper struct {
	// in:body
	Body []models.Hearing
}

// swagger:route GET /api/v1/requests/lawyer/{lawyer_id} request requestsByLawyerEndpointID
// Returns the representation requests targeting a lawyer.
// responses:
//   200: requestsResponse

// The representation requests of one lawyer.
// swagger:response requestsResponse
type requestsResponseWrapper struct {
	// in:body
	Body []models.RepresentationRequest
}
