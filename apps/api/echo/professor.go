package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core/professor"
)

type professorApi struct {
	svc      *professor.Service
	validate *validator.Validate
}

func registerProfessorAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *professor.Service, validate *validator.Validate) {
	api := professorApi{svc: svc, validate: validate}

	pg := g.Group("/professors", jwt)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)

	// staff management (university staff / admin)
	mg := pg.Group("", schedulerMiddleware())
	mg.POST("", api.create)
	mg.PUT("/:id", api.update)
	mg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *professorApi) create(ctx echo.Context) error {
	var data professor.NewProfessor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfessor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating professor")
	}
	return ctx.JSON(http.StatusCreated, prof)
}

func (api *professorApi) query(ctx echo.Context) error {
	profs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying professors")
	}
	if profs == nil {
		profs = []professor.Professor{}
	}
	return ctx.JSON(http.StatusOK, profs)
}

func (api *professorApi) retrieve(ctx echo.Context) error {
	prof, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding professor by ID")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *professorApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding professor by ID")
	}

	var data professor.UpdateProfessor
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfessor")
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	prof, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating professor")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *professorApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting professor")
	}
	return ctx.NoContent(http.StatusNoContent)
}
