package echoapi

import (
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	// SessionResponse echoes a freshly created session along with its PIN,
	// the only time the PIN leaves the server.
	SessionResponse struct {
		attendance.Session
		PIN string `json:"pin,omitempty"`
	}

	CheckInRequest struct {
		PIN string `json:"pin"`
	}

	RecordUpdateRequest struct {
		Status attendance.Status `json:"status" validate:"required"`
		Note   string            `json:"note"`
	}

	ReportRequest struct {
		ClassName string `query:"class_name" validate:"required"`
		DateFrom  string `query:"date_from" validate:"omitempty,date_"`
		DateTo    string `query:"date_to" validate:"omitempty,date_"`
		Email     string `query:"email" validate:"omitempty,email"`
	}
)

func (r *LoginRequest) Validate() error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	return core.Validate.Struct(r)
}

func (r *RecordUpdateRequest) Validate() error {
	r.Note = core.CleanString(r.Note)
	return core.Validate.Struct(r)
}

func (r *ReportRequest) Validate() error {
	r.ClassName = core.CleanString(r.ClassName)
	r.DateFrom = core.CleanString(r.DateFrom)
	r.DateTo = core.CleanString(r.DateTo)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}
