package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/workflow"
)

// RegisterWorkflowRoutes exposes the callbacks invoked by the workflow service.
func RegisterWorkflowRoutes(app *fiber.App, onboarding *workflow.Onboarding) {
	app.Post(workflow.OnboardingPath, onboarding.Handle)
}
