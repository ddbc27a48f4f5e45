package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core/subject"
)

type subjectApi struct {
	svc      *subject.Service
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *subject.Service, validate *validator.Validate) {
	api := subjectApi{svc: svc, validate: validate}

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.propose, proposerMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)

	// moderation (university staff / admin)
	mg := sg.Group("/:id", schedulerMiddleware())
	mg.PUT("/approve", api.approve)
	mg.PUT("/reject", api.reject)
	mg.PUT("/assign", api.assignStudent)
}

// Handlers

func (api *subjectApi) propose(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subj, err := api.svc.Propose(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "proposing subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *subjectApi) query(ctx echo.Context) error {
	filter := new(subject.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []subject.Subject{})
	}

	subjs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjs == nil {
		subjs = []subject.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjs)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	subj, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding subject by ID")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) approve(ctx echo.Context) error {
	subj, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) reject(ctx echo.Context) error {
	var data RejectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}

	subj, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "rejecting subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) assignStudent(ctx echo.Context) error {
	var data AssignStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignStudentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	subj, err := api.svc.AssignStudent(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "assigning student")
	}
	return ctx.JSON(http.StatusOK, subj)
}

type AssignStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
