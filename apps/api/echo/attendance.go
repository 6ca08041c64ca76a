package echoapi

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
	reportsvc "github.com/trezcool/mahudhurio/services/report"
)

type attendanceApi struct {
	svc    *attendance.Service
	usrSvc *user.Service
	report *reportsvc.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, report *reportsvc.Service, usrSvc *user.Service) {
	api := attendanceApi{svc: svc, report: report, usrSvc: usrSvc}

	sg := g.Group("/sessions", jwt)
	sg.POST("", api.createSession, lecturerMiddleware())
	sg.GET("", api.mySessions, lecturerMiddleware())
	sg.GET("/:id", api.retrieveSession)
	sg.POST("/:id/close", api.closeSession, lecturerMiddleware())
	sg.GET("/:id/roster", api.roster, roleMiddleware(user.RoleLecturer, user.RoleAdmin))
	sg.POST("/:id/check-in", api.checkIn, studentMiddleware())
	sg.POST("/:id/mark-all-present", api.markAllPresent, roleMiddleware(user.RoleLecturer, user.RoleAdmin))
	sg.PUT("/:id/records/:studentID", api.updateRecord, roleMiddleware(user.RoleLecturer, user.RoleAdmin))
	sg.DELETE("/:id/records/:studentID", api.deleteRecord, adminMiddleware())

	ag := g.Group("/attendance", jwt)
	ag.GET("/history", api.history, studentMiddleware())
	ag.GET("/summary", api.classSummary, roleMiddleware(user.RoleLecturer, user.RoleAdmin))
	ag.GET("/report", api.exportReport, roleMiddleware(user.RoleLecturer, user.RoleAdmin))
	ag.GET("/search", api.search, adminMiddleware())
}

func (api *attendanceApi) createSession(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}

	// lecturer may ask for a PIN without supplying one
	var generated string
	if data.RequirePIN && data.PIN == "" {
		pin, err := generatePIN()
		if err != nil {
			return errors.Wrap(err, "generating PIN")
		}
		data.PIN = pin
		generated = pin
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	sess, err := api.svc.CreateSession(usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SessionResponse{Session: sess, PIN: generated})
}

func (api *attendanceApi) mySessions(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	sessions, err := api.svc.LecturerSessions(usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *attendanceApi) retrieveSession(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) closeSession(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if err := api.svc.CloseSession(usr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Session closed."})
}

func (api *attendanceApi) roster(ctx echo.Context) error {
	if err := api.checkSessionAccess(ctx); err != nil {
		return err
	}
	entries, err := api.svc.Roster(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data CheckInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	rec, err := api.svc.CheckIn(usr, ctx.Param("id"), data.PIN)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) markAllPresent(ctx echo.Context) error {
	if err := api.checkSessionAccess(ctx); err != nil {
		return err
	}
	if err := api.svc.MarkAllPresent(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "All students marked present."})
}

func (api *attendanceApi) updateRecord(ctx echo.Context) error {
	var data RecordUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordUpdateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := api.checkSessionAccess(ctx); err != nil {
		return err
	}

	rec, err := api.svc.SetStudentStatus(ctx.Param("id"), ctx.Param("studentID"), data.Status, data.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) deleteRecord(ctx echo.Context) error {
	if err := api.svc.DeleteRecord(ctx.Param("id"), ctx.Param("studentID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	var filter attendance.HistoryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to HistoryFilter")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	items, summary, err := api.svc.History(usr.ID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"items": items, "summary": summary})
}

func (api *attendanceApi) classSummary(ctx echo.Context) error {
	var data ReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReportRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rows, err := api.svc.SummarizeClass(data.ClassName, data.DateFrom, data.DateTo)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *attendanceApi) exportReport(ctx echo.Context) error {
	var data ReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReportRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if data.Email != "" {
		if err := api.report.Email(data.ClassName, data.DateFrom, data.DateTo, mail.Address{Address: data.Email}); err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Report will be emailed shortly."})
	}

	content, filename, err := api.report.Generate(data.ClassName, data.DateFrom, data.DateTo)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func (api *attendanceApi) search(ctx echo.Context) error {
	var filter attendance.SearchFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to SearchFilter")
	}

	results, err := api.svc.Search(filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, results)
}

// checkSessionAccess lets admins through and requires lecturers to own the
// session.
func (api *attendanceApi) checkSessionAccess(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if usr.IsAdmin() {
		return nil
	}
	sess, err := api.svc.GetSession(ctx.Param("id"))
	if err != nil {
		return err
	}
	if sess.LecturerID != usr.ID {
		return attendance.ErrPermissionDenied
	}
	return nil
}

// generatePIN returns a random 4-digit numeric PIN.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
