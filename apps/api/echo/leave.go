package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/leave"
	"github.com/trezcool/mahudhurio/core/user"
)

type leaveApi struct {
	svc    *leave.Service
	usrSvc *user.Service
}

func registerLeaveAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *leave.Service, usrSvc *user.Service) {
	api := leaveApi{svc: svc, usrSvc: usrSvc}

	lg := g.Group("/leave", jwt)
	lg.POST("", api.submit, studentMiddleware())
	lg.GET("", api.myRequests, studentMiddleware())
	lg.GET("/pending-count", api.myPendingCount, studentMiddleware())
	lg.GET("/inbox", api.inbox, lecturerMiddleware())
	lg.GET("/inbox/pending-count", api.inboxPendingCount, lecturerMiddleware())
	lg.POST("/:id/decide", api.decide, lecturerMiddleware())
}

func (api *leaveApi) submit(ctx echo.Context) error {
	var data leave.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	req, err := api.svc.Submit(usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *leaveApi) myRequests(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	reqs, err := api.svc.ForStudent(usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *leaveApi) myPendingCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	count, err := api.svc.PendingCountForStudent(usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

func (api *leaveApi) inbox(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	pendingOnly, _ := strconv.ParseBool(ctx.QueryParam("pending"))
	reqs, err := api.svc.ForLecturer(usr.ID, pendingOnly)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *leaveApi) inboxPendingCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	count, err := api.svc.PendingCountForLecturer(usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

func (api *leaveApi) decide(ctx echo.Context) error {
	var data leave.Decision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	req, err := api.svc.Decide(usr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}
