package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/shared"
)

type ContentHandler struct {
	learningSvc LearningServiceInterface
}

func NewContentHandler(learningSvc LearningServiceInterface) *ContentHandler {
	return &ContentHandler{learningSvc: learningSvc}
}

// @Summary List courses
// @Description Course catalog, optionally filtered by subject
// @Tags courses
// @Produce json
// @Param subject query string false "Subject filter"
// @Success 200 {object} shared.Response{data=[]model.Course}
// @Router /api/v1/courses [get]
func (h *ContentHandler) GetCourses(c *fiber.Ctx) error {
	courses, err := h.learningSvc.GetCourses(c.Query("subject"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Cours", courses)
}

// @Summary Create a course
// @Description Teachers upload a course with its lessons
// @Tags courses
// @Accept json
// @Produce json
// @Security Bearer
// @Param createCourseRequest body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} shared.Response{data=model.Course}
// @Router /api/v1/courses [post]
func (h *ContentHandler) CreateCourse(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	course, err := h.learningSvc.CreateCourse(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Cours créé", course)
}
