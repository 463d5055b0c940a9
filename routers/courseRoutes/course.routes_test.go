package courseRoutes

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"lms/config"
	controllers "lms/controllers/course"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRoutes(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	course := courseModels.Course{Title: "Arithmetic", Status: "ACTIVE"}
	require.NoError(t, db.Create(&course).Error)
	content := courseModels.CourseContent{CourseID: course.ID, Title: "Intro", IsPublished: true}
	require.NoError(t, db.Create(&content).Error)

	app := fiber.New()
	SetupCourseRoutes(app, controllers.NewProgressController(progress.NewTracker(db, nil)))

	token, err := middleware.GenerateJWT(501, middleware.RoleStudent)
	require.NoError(t, err)

	call := func(method, path string) (int, map[string]interface{}) {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	status, _ := call("GET", fmt.Sprintf("/course/%d/progress", course.ID))
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call("POST", fmt.Sprintf("/course/%d/enroll", course.ID))
	require.Equal(t, fiber.StatusOK, status)
	status, _ = call("POST", fmt.Sprintf("/course/%d/enroll", course.ID))
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call("POST", "/course/0/enroll")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := call("GET", fmt.Sprintf("/course/%d/progress", course.ID))
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["progress_percentage"])
	assert.Nil(t, data["final_grade"])
}
