package commissioner

import (
	"fmt"

	"github.com/meshcop-go/commissioner/internal/coap"
)

// PetitionFailedError is returned when the petition response code is
// not Changed (2.04).
type PetitionFailedError struct {
	Code coap.Code
}

func (e *PetitionFailedError) Error() string {
	return fmt.Sprintf("petition failed: response code %s", e.Code)
}

// DatasetRequestFailedError is returned when the MGMT_ACTIVE_GET
// response code is neither Changed (2.04) nor Content (2.05), or the
// payload on a success code is empty.
type DatasetRequestFailedError struct {
	Code coap.Code
}

func (e *DatasetRequestFailedError) Error() string {
	return fmt.Sprintf("dataset request failed: response code %s", e.Code)
}
