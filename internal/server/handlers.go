package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/spigell/jobgenius/internal/service"
)

type handlers struct {
	svc      *service.Service
	validate *validator.Validate
}

func (h *handlers) register(app *fiber.App) {
	app.Get("/health", h.health)

	api := app.Group("/api")

	api.Post("/skills", h.createSkill)
	api.Put("/skills/:id", h.updateSkill)
	api.Delete("/skills/:id", h.deleteSkill)

	api.Get("/jobs", h.listJobs)
	api.Post("/jobs", h.createJob)
	api.Get("/jobs/:id", h.getJob)
	api.Post("/jobs/:jobId/optimize-resume", h.optimizeResume)

	api.Post("/applications", h.createApplication)
	api.Put("/applications/:id", h.updateApplication)

	api.Post("/resumes", h.createResume)

	api.Post("/ai-chat", h.chat)

	users := api.Group("/users/:userId")
	users.Get("/skills", h.listSkills)
	users.Get("/jobs", h.recommend)
	users.Post("/jobs/match", h.matchJobs)
	users.Get("/jobs/:jobId/match", h.matchJob)
	users.Post("/analyze-skills-gap", h.analyzeSkillsGap)
	users.Get("/ai-settings", h.getSettings)
	users.Put("/ai-settings", h.updateSettings)
	users.Get("/applications", h.listApplications)
	users.Get("/resumes", h.listResumes)
	users.Get("/resumes/default", h.defaultResume)
}

func idParam(c fiber.Ctx, name, label string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid "+label+" ID", err)
	}
	return id, nil
}

// userParam parses :userId and records it for request logging.
func userParam(c fiber.Ctx) (int64, error) {
	id, err := idParam(c, "userId", "user")
	if err != nil {
		return 0, err
	}
	c.Locals(localUserID, id)
	return id, nil
}

func jobQuery(c fiber.Ctx) service.Query {
	return service.Query{
		External: c.Query("external") == "true",
		Text:     strings.TrimSpace(c.Query("query")),
	}
}

// bind decodes the JSON body into req and validates it.
func (h *handlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().Body(req); err != nil {
		return badRequest("Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return NewAppError(fiber.StatusBadRequest, validationMessage(err), nil, err)
	}
	return nil
}

func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return fmt.Sprintf("validation error: %s - %s", errs[0].Field(), errs[0].Tag())
	}
	return "validation error: invalid request"
}

func (h *handlers) health(c fiber.Ctx) error {
	return success(c, fiber.StatusOK, healthResponse{Status: "ok"})
}

func (h *handlers) listSkills(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	list, err := h.svc.Skills(c.Context(), userID)
	if err != nil {
		return fromService(err, "get skills")
	}
	return success(c, fiber.StatusOK, list)
}

func (h *handlers) createSkill(c fiber.Ctx) error {
	var req createSkillRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	c.Locals(localUserID, req.UserID)

	skill, err := h.svc.CreateSkill(c.Context(), req.toSkill())
	if err != nil {
		return fromService(err, "create skill")
	}
	return success(c, fiber.StatusCreated, skill)
}

func (h *handlers) updateSkill(c fiber.Ctx) error {
	id, err := idParam(c, "id", "skill")
	if err != nil {
		return err
	}
	var req updateSkillRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	skill, err := h.svc.UpdateSkill(c.Context(), id, req.toPatch())
	if err != nil {
		return fromService(err, "update skill")
	}
	return success(c, fiber.StatusOK, skill)
}

func (h *handlers) deleteSkill(c fiber.Ctx) error {
	id, err := idParam(c, "id", "skill")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSkill(c.Context(), id); err != nil {
		return fromService(err, "delete skill")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) listJobs(c fiber.Ctx) error {
	return success(c, fiber.StatusOK, h.svc.Jobs(c.Context(), jobQuery(c)))
}

func (h *handlers) getJob(c fiber.Ctx) error {
	id, err := idParam(c, "id", "job")
	if err != nil {
		return err
	}
	job, err := h.svc.Job(c.Context(), id)
	if err != nil {
		return fromService(err, "get job")
	}
	return success(c, fiber.StatusOK, job)
}

func (h *handlers) createJob(c fiber.Ctx) error {
	var req createJobRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	job, err := h.svc.CreateJob(c.Context(), req.toJob())
	if err != nil {
		return fromService(err, "create job")
	}
	return success(c, fiber.StatusCreated, job)
}

func (h *handlers) recommend(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return badRequest("Invalid limit", err)
		}
	}

	matches, err := h.svc.Recommend(c.Context(), userID, limit)
	if err != nil {
		return fromService(err, "get jobs for user")
	}
	return success(c, fiber.StatusOK, matches)
}

func (h *handlers) matchJobs(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	matches, err := h.svc.MatchJobs(c.Context(), userID, jobQuery(c))
	if err != nil {
		return fromService(err, "match jobs")
	}
	return success(c, fiber.StatusOK, matches)
}

func (h *handlers) matchJob(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	jobID, err := idParam(c, "jobId", "job")
	if err != nil {
		return err
	}
	match, err := h.svc.MatchJob(c.Context(), userID, jobID)
	if err != nil {
		return fromService(err, "match job")
	}
	return success(c, fiber.StatusOK, match)
}

func (h *handlers) analyzeSkillsGap(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	report, err := h.svc.AnalyzeSkillsGap(c.Context(), userID, jobQuery(c))
	if err != nil {
		return fromService(err, "analyze skills gap")
	}
	return success(c, fiber.StatusOK, report)
}

func (h *handlers) chat(c fiber.Ctx) error {
	var req chatRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	reply := h.svc.Chat(c.Context(), req.Message, req.PreviousMessages)
	return success(c, fiber.StatusOK, chatResponse{Response: reply})
}

func (h *handlers) getSettings(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	settings, err := h.svc.Settings(c.Context(), userID)
	if err != nil {
		return fromService(err, "get AI settings")
	}
	return success(c, fiber.StatusOK, settings)
}

func (h *handlers) updateSettings(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	var req updateSettingsRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	settings, err := h.svc.UpdateSettings(c.Context(), userID, req.toPatch())
	if err != nil {
		return fromService(err, "update AI settings")
	}
	return success(c, fiber.StatusOK, settings)
}

func (h *handlers) listApplications(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	views, err := h.svc.Applications(c.Context(), userID, c.Query("status"))
	if err != nil {
		return fromService(err, "get applications")
	}
	return success(c, fiber.StatusOK, views)
}

func (h *handlers) createApplication(c fiber.Ctx) error {
	var req createApplicationRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	c.Locals(localUserID, req.UserID)

	app, err := h.svc.CreateApplication(c.Context(), req.toApplication())
	if err != nil {
		return fromService(err, "create application")
	}
	return success(c, fiber.StatusCreated, app)
}

func (h *handlers) updateApplication(c fiber.Ctx) error {
	id, err := idParam(c, "id", "application")
	if err != nil {
		return err
	}
	var req updateApplicationRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	app, err := h.svc.UpdateApplication(c.Context(), id, req.toPatch())
	if err != nil {
		return fromService(err, "update application")
	}
	return success(c, fiber.StatusOK, app)
}

func (h *handlers) listResumes(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	list, err := h.svc.Resumes(c.Context(), userID)
	if err != nil {
		return fromService(err, "get resumes")
	}
	return success(c, fiber.StatusOK, list)
}

func (h *handlers) defaultResume(c fiber.Ctx) error {
	userID, err := userParam(c)
	if err != nil {
		return err
	}
	resume, err := h.svc.DefaultResume(c.Context(), userID)
	if err != nil {
		return fromService(err, "get default resume")
	}
	return success(c, fiber.StatusOK, resume)
}

func (h *handlers) createResume(c fiber.Ctx) error {
	var req createResumeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	c.Locals(localUserID, req.UserID)

	resume, err := h.svc.CreateResume(c.Context(), req.toResume())
	if err != nil {
		return fromService(err, "create resume")
	}
	return success(c, fiber.StatusCreated, resume)
}

func (h *handlers) optimizeResume(c fiber.Ctx) error {
	jobID, err := idParam(c, "jobId", "job")
	if err != nil {
		return err
	}
	var req optimizeResumeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	c.Locals(localUserID, req.UserID)

	result, err := h.svc.OptimizeResume(c.Context(), req.UserID, req.ResumeID, jobID)
	if err != nil {
		return fromService(err, "optimize resume")
	}
	return success(c, fiber.StatusOK, result)
}
