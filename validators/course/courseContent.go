package courseValidator

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

func MarkContentComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := parsePositiveID(c, "course_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		contentID, ok := parsePositiveID(c, "content_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Content ID!", nil)
		}

		c.Locals("courseID", courseID)
		c.Locals("contentID", contentID)
		return c.Next()
	}
}
