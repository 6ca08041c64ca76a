package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/core/warning"
)

type warningApi struct {
	svc    *warning.Service
	usrSvc *user.Service
}

func registerWarningAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *warning.Service, usrSvc *user.Service) {
	api := warningApi{svc: svc, usrSvc: usrSvc}

	wg := g.Group("/warnings", jwt)
	wg.GET("", api.myWarnings, studentMiddleware())
	wg.GET("/count", api.myWarningCount, studentMiddleware())
}

func (api *warningApi) myWarnings(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	warnings, err := api.svc.ForStudent(usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, warnings)
}

func (api *warningApi) myWarningCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	count, err := api.svc.CountForStudent(usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}
