package cmd

// This file contains Swagger/OpenAPI documentation annotations for all API endpoints.
// The actual handler implementations are in other files. docs/docs.go holds the
// rendered document served under /swagger/.

// @title Content Upgrade Service API
// @version 1.0
// @description Upgrades stored interactive content documents to the current schema version of their content type.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// Health endpoint
// @Summary Health check
// @Description Returns the health status of the service
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "status: healthy"
// @Router /health [get]
func swaggerHealthCheck() {}

// Action handler (main API endpoint)
// @Summary Execute content upgrade tasks
// @Description Execute one or more tasks. Each task carries a content envelope
// @Description (contentType, version, targetVersion, params, extras).
// @Description
// @Description Supported actions:
// @Description - content-upgrade: Run the pending upgrade steps and return the upgraded params
// @Description - content-plan: List the pending upgrade steps without running them
// @Description
// @Description Multipart requests carry the JSON request in the "request" field and may attach
// @Description task_<n>_content files (JSON or YAML envelopes) for task n.
// @Tags Upgrade
// @Accept json,mpfd
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param request body domain.UpgradeRequest true "Upgrade request"
// @Success 200 {object} operations.BatchResult "Per-task results"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /v1/api/action [post]
func swaggerActionHandler() {}

// Single upgrade
// @Summary Upgrade one content document
// @Tags Upgrade
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param content body domain.ContentEnvelope true "Content envelope"
// @Success 200 {object} map[string]interface{} "Upgrade result"
// @Failure 400 {object} map[string]interface{} "Invalid envelope"
// @Failure 422 {object} map[string]interface{} "Unknown content type or failed step"
// @Router /v1/api/upgrade [post]
func swaggerUpgradeHandler() {}

// Plan
// @Summary List pending upgrade steps
// @Tags Upgrade
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param contentType query string true "Content type machine name"
// @Param from query string true "Current version"
// @Param to query string false "Target version"
// @Success 200 {object} planOutput "Pending steps"
// @Failure 400 {object} map[string]interface{} "Invalid version"
// @Failure 422 {object} map[string]interface{} "Unknown content type"
// @Router /v1/api/plan [get]
func swaggerPlanHandler() {}

// Content types
// @Summary List supported content types
// @Tags Upgrade
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} map[string][]string "Content types"
// @Router /v1/api/content-types [get]
func swaggerContentTypesHandler() {}

// Journal sessions
// @Summary List finished sessions of a day
// @Tags Journal
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), default today"
// @Param user query string false "Filter by user"
// @Param status query string false "Filter by status"
// @Param limit query int false "Maximum sessions (default 50)"
// @Success 200 {object} map[string]interface{} "Sessions"
// @Router /v1/api/journal/sessions [get]
func swaggerListSessions() {}

// Active sessions
// @Summary Get active upgrade sessions
// @Tags Journal
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Active sessions"
// @Router /v1/api/journal/active [get]
func swaggerActiveSessions() {}

// Session details
// @Summary Get upgrade session details
// @Tags Journal
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} journal.Session "Session"
// @Failure 404 {object} map[string]interface{} "Session not found"
// @Router /v1/api/journal/session/{id} [get]
func swaggerGetSession() {}

// Daily summary
// @Summary Get daily upgrade summary
// @Tags Journal
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} journal.DailySummary "Summary"
// @Router /v1/api/journal/summary/{date} [get]
func swaggerDailySummary() {}

// Statistics
// @Summary Get upgrade statistics
// @Tags Journal
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param days query int false "Days including today (default 7)"
// @Success 200 {object} map[string]interface{} "Statistics"
// @Router /v1/api/journal/stats [get]
func swaggerStats() {}

// Rotate
// @Summary Archive old daily summaries
// @Description Admin only
// @Tags Journal
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Rotation result"
// @Failure 403 {object} map[string]string "Admin access required"
// @Router /v1/api/journal/rotate [post]
func swaggerRotate() {}
