package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/student"
)

const (
	opAttend       = "attend"
	opHomework     = "homework"
	opQuizGrade    = "quiz_grade"
	opMessageState = "message_state"

	qrCodeSize = 256
)

var errMessageNotDelivered = echo.NewHTTPError(http.StatusBadGateway, "the message could not be delivered")

type studentApi struct {
	service   *student.Service
	messenger core.Messenger
	logger    core.Logger
	metrics   *Metrics
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		service:   deps.StudentSvc,
		messenger: deps.Messenger,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	cached := cacheMiddleware(deps.Conf.Server.CacheMaxAge)

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, cached)
	sg.POST("", api.create)
	sg.GET("/history", api.history, cached)

	// detail endpoints
	sg.GET("/:id", api.retrieve, cached)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/qr", api.qrCode, cached)

	// week endpoints
	sg.POST("/:id/attend", api.attend)
	sg.POST("/:id/hw", api.homework)
	sg.POST("/:id/quiz_degree", api.quizGrade)
	sg.POST("/:id/message_state", api.messageState)
	sg.POST("/:id/send-whatsapp", api.sendWhatsApp)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	ord := new(Ordering)
	ord.Bind(ctx)

	views, err := api.service.QueryAll(ctx.Request().Context(), ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *studentApi) history(ctx echo.Context) error {
	entries, err := api.service.History(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *studentApi) create(ctx echo.Context) error {
	data := new(createStudentRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	s, err := api.service.Create(ctx.Request().Context(), data.toNewStudent())
	if err != nil {
		return err
	}
	markInvalidated(ctx, s.ID)
	return ctx.JSON(http.StatusCreated, createdResponse{ID: s.ID})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	s, err := api.service.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student.Project(s))
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(updateStudentRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	s, err := api.service.Update(ctx.Request().Context(), id, data.toUpdateStudent())
	if err != nil {
		return err
	}
	markInvalidated(ctx, id)
	return ctx.JSON(http.StatusOK, student.Project(s))
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.service.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	markInvalidated(ctx, id)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) qrCode(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if _, err = api.service.GetByID(ctx.Request().Context(), id); err != nil {
		return err
	}
	png, err := qrcode.Encode(strconv.Itoa(id), qrcode.Medium, qrCodeSize)
	if err != nil {
		return errors.Wrap(err, "encoding qr code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *studentApi) attend(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(attendRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	wr, err := api.service.ApplyAttendance(ctx.Request().Context(), id, data.Center, data.timestamp(), data.Week.intPtr())
	return api.weekUpdated(ctx, opAttend, id, wr, err)
}

func (api *studentApi) homework(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(homeworkRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	wr, err := api.service.ApplyHomework(ctx.Request().Context(), id, data.homework(), data.Week.intPtr())
	return api.weekUpdated(ctx, opHomework, id, wr, err)
}

func (api *studentApi) quizGrade(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(quizRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	wr, err := api.service.ApplyQuizGrade(ctx.Request().Context(), id, data.QuizDegree, data.Week.intPtr())
	return api.weekUpdated(ctx, opQuizGrade, id, wr, err)
}

func (api *studentApi) messageState(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(messageStateRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if data.MessageState == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "message_state", Error: "message_state is required"})
	}
	wr, err := api.service.ApplyMessageState(ctx.Request().Context(), id, *data.MessageState, data.Week.intPtr())
	return api.weekUpdated(ctx, opMessageState, id, wr, err)
}

// sendWhatsApp delivers the weekly report to the parents, then marks the week as messaged.
func (api *studentApi) sendWhatsApp(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(sendWhatsAppRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	s, err := api.service.GetByID(reqCtx, id)
	if err != nil {
		return err
	}
	week := s.CurrentWeek().Week
	if w := data.Week.intPtr(); w != nil {
		if !student.ValidWeek(*w) {
			return core.NewValidationError(nil, core.FieldError{Field: "week", Error: "week must be between 1 and 20"})
		}
		week = *w
	}
	view := student.ProjectWeek(s, week)

	msg := core.Message{To: s.ParentsPhone, Body: student.ParentReport(view)}
	if err = api.messenger.Send(reqCtx, msg); err != nil {
		api.logger.Error("sending whatsapp report", err, map[string]interface{}{"student_id": id})
		return errMessageNotDelivered
	}

	wr, err := api.service.ApplyMessageState(reqCtx, id, true, &week)
	return api.weekUpdated(ctx, opMessageState, id, wr, err)
}

func (api *studentApi) weekUpdated(ctx echo.Context, op string, id int, wr student.WeekRecord, err error) error {
	api.metrics.observeWeekUpdate(op, err)
	if err != nil {
		return err
	}
	markInvalidated(ctx, id)
	return ctx.JSON(http.StatusOK, weekResponse{StudentID: id, WeekRecord: wr})
}
