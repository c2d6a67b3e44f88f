package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/helpers"
	"evalgo.org/contentupgrade/internal/operations"
)

// actionHandler executes a batch of upgrade tasks. It accepts a JSON body or a
// multipart form with the request in the "request" field and optional
// task_<n>_content files holding the content envelope of task n.
func (a *app) actionHandler(c echo.Context) error {
	var (
		req *domain.UpgradeRequest
		err error
	)

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		req, err = bindMultipartRequest(c)
	} else {
		req, err = bindJSONRequest(c)
	}
	if err != nil {
		return err
	}

	result, err := a.operations.Execute(c.Request().Context(), req, callerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// upgradeHandler upgrades a single content envelope
func (a *app) upgradeHandler(c echo.Context) error {
	var env domain.ContentEnvelope
	if err := c.Bind(&env); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := env.Validate(); err != nil {
		return httpError(err)
	}

	result, err := a.operations.Handle(c.Request().Context(), domain.Task{Action: domain.ActionUpgrade, Content: &env})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// planHandler lists the pending steps for ?contentType=&from=&to=
func (a *app) planHandler(c echo.Context) error {
	result, err := a.plan(c.QueryParam("contentType"), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// contentTypesHandler lists the content types with registered upgrade steps
func (a *app) contentTypesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"content_types": a.steps.ContentTypes(),
	})
}

func bindJSONRequest(c echo.Context) (*domain.UpgradeRequest, error) {
	var req domain.UpgradeRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return &req, nil
}

func bindMultipartRequest(c echo.Context) (*domain.UpgradeRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to parse multipart form")
	}
	defer func() { _ = form.RemoveAll() }()

	fields, exists := form.Value[helpers.MultipartRequestField]
	if !exists || len(fields) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Missing 'request' field in form data")
	}

	var req domain.UpgradeRequest
	if err := json.Unmarshal([]byte(fields[0]), &req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON in request field: "+err.Error())
	}

	cleanup := helpers.NewFileCleanup()
	defer func() { _ = cleanup.Cleanup() }()

	for i := range req.Tasks {
		key := fmt.Sprintf(helpers.MultipartContentKeyFormat, i)
		headers := form.File[key]
		if len(headers) == 0 {
			continue
		}
		helpers.DebugLog("Task %d content files: %v", i, helpers.GetFileNames(headers))

		env, err := loadUploadedEnvelope(headers[0], cleanup)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Task %d: %v", i, err))
		}
		req.Tasks[i].Content = mergeEnvelope(req.Tasks[i].Content, env)
	}

	return &req, nil
}

// loadUploadedEnvelope stores an uploaded content file and decodes it.
func loadUploadedEnvelope(header *multipart.FileHeader, cleanup *helpers.FileCleanup) (*domain.ContentEnvelope, error) {
	path, err := helpers.SaveMultipartFileWithCleanup(header, helpers.TempFileContentPrefix, cleanup)
	if err != nil {
		return nil, err
	}

	var env domain.ContentEnvelope
	if err := helpers.DecodeContentFile(path, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// mergeEnvelope fills the fields an uploaded envelope leaves empty from the inline one.
func mergeEnvelope(inline, uploaded *domain.ContentEnvelope) *domain.ContentEnvelope {
	if inline == nil {
		return uploaded
	}
	if uploaded.ContentType == "" {
		uploaded.ContentType = inline.ContentType
	}
	if uploaded.Version == "" {
		uploaded.Version = inline.Version
	}
	if uploaded.TargetVersion == "" {
		uploaded.TargetVersion = inline.TargetVersion
	}
	if uploaded.Params == nil {
		uploaded.Params = inline.Params
	}
	if uploaded.Extras == nil {
		uploaded.Extras = inline.Extras
	}
	return uploaded
}

func callerFrom(c echo.Context) operations.Caller {
	return operations.Caller{
		User:      GetPrincipal(c).Subject,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// httpError maps domain errors to HTTP status codes.
func httpError(err error) error {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		unknown    *domain.UnknownContentTypeError
		stepErr    *domain.StepError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &unknown), errors.As(err, &stepErr):
		status = http.StatusUnprocessableEntity
	}

	return echo.NewHTTPError(status, map[string]interface{}{
		"error":      err.Error(),
		"error_type": operations.ErrorType(err),
	})
}
