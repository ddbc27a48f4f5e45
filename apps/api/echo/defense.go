package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/defense"
)

type defenseApi struct {
	svc      *defense.Service
	validate *validator.Validate
}

func registerDefenseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *defense.Service, validate *validator.Validate) {
	api := defenseApi{svc: svc, validate: validate}

	dg := g.Group("/defense", jwt)

	// scheduler endpoints (university staff / admin)
	sg := dg.Group("", schedulerMiddleware())
	sg.GET("/allProfessorAvailability", api.allProfessorAvailability)
	sg.GET("/professoravailable", api.availableProfessors)
	sg.POST("/updateDefenseAndJury", api.schedule)
	sg.PUT("/:id/complete", api.complete)

	// professor decisions
	dg.PUT("/:id/accept", api.accept)
	dg.PUT("/:id/reject", api.reject)

	// portal endpoints
	dg.POST("", api.request)
	dg.GET("", api.query)
	dg.GET("/:id", api.retrieve)
}

// Handlers

func (api *defenseApi) allProfessorAvailability(ctx echo.Context) error {
	startDate := core.CleanString(ctx.QueryParam("startDate"))
	endDate := core.CleanString(ctx.QueryParam("endDate"))

	availability, err := api.svc.Availability(ctx.Request().Context(), startDate, endDate)
	if err != nil {
		return errors.Wrap(err, "resolving availability")
	}
	return ctx.JSON(http.StatusOK, AvailabilityResponse{Success: true, Availability: availability})
}

func (api *defenseApi) availableProfessors(ctx echo.Context) error {
	defenseID := core.CleanString(ctx.QueryParam("defenseId"))
	date := core.CleanString(ctx.QueryParam("date"))
	tm := core.CleanString(ctx.QueryParam("time"))

	entries, err := api.svc.AvailableProfessors(ctx.Request().Context(), defenseID, date, tm)
	if err != nil {
		return errors.Wrap(err, "listing available professors")
	}
	if entries == nil {
		entries = []defense.AvailabilityEntry{}
	}
	return ctx.JSON(http.StatusOK, AvailableProfessorsResponse{Success: true, Data: entries})
}

func (api *defenseApi) schedule(ctx echo.Context) error {
	var data defense.ScheduleDefense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleDefense")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.Schedule(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "scheduling defense")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "defense and jury updated successfully"})
}

func (api *defenseApi) accept(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsProfessor || claims.IsUniversity || claims.IsAdmin) {
		return errHttpForbidden
	}

	def, err := api.svc.Accept(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "accepting defense")
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *defenseApi) reject(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsProfessor || claims.IsUniversity || claims.IsAdmin) {
		return errHttpForbidden
	}

	var data RejectRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}

	def, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Reason)
	if err != nil {
		return errors.Wrap(err, "rejecting defense")
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *defenseApi) complete(ctx echo.Context) error {
	def, err := api.svc.Complete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing defense")
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *defenseApi) request(ctx echo.Context) error {
	var data defense.NewDefense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDefense")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	def, err := api.svc.Request(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "requesting defense")
	}
	return ctx.JSON(http.StatusCreated, def)
}

func (api *defenseApi) query(ctx echo.Context) error {
	filter := new(defense.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []defense.Defense{})
	}

	defs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying defenses")
	}
	if defs == nil {
		defs = []defense.Defense{}
	}
	return ctx.JSON(http.StatusOK, defs)
}

func (api *defenseApi) retrieve(ctx echo.Context) error {
	def, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding defense by ID")
	}
	return ctx.JSON(http.StatusOK, def)
}

type (
	AvailabilityResponse struct {
		Success      bool                                   `json:"success"`
		Availability map[string][]defense.AvailabilityEntry `json:"availability"`
	}

	AvailableProfessorsResponse struct {
		Success bool                        `json:"success"`
		Data    []defense.AvailabilityEntry `json:"data"`
	}

	MessageResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	RejectRequest struct {
		Reason string `json:"reason"`
	}
)
