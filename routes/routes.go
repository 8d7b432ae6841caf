package routes

import (
	"flagnest/config"
	controller "flagnest/controllers"
	"flagnest/middleware"
	"flagnest/service"
	"flagnest/store"
	"flagnest/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	st := store.New(db)

	// Invite emails are optional; without an SMTP relay invites are
	// code-only
	var mailer service.InviteMailer
	if config.AppConfig.SMTP.Host != "" {
		mailer = utils.NewMailer(config.AppConfig.SMTP)
	}

	environmentService := service.NewEnvironmentService(st, utils.Logger)
	featureService := service.NewFeatureService(st, utils.Logger)
	teamService := service.NewTeamService(st, mailer, utils.Logger)

	environmentController := controller.NewEnvironmentController(environmentService, utils.Logger)
	featureController := controller.NewFeatureController(featureService, utils.Logger)
	teamController := controller.NewTeamController(teamService, utils.Logger)
	stateController := controller.NewStateController(featureService, utils.Logger)

	setupAuthRoutes(app)
	setupAPIRoutes(app, environmentController, featureController, teamController)
	setupStateRoutes(app, stateController)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	utils.Logger.Info("routes initialized successfully")
}

func setupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)
	protectedAuth.Put("/me", controller.UpdateProfile)
}

func setupAPIRoutes(
	app *fiber.App,
	environmentController *controller.EnvironmentController,
	featureController *controller.FeatureController,
	teamController *controller.TeamController,
) {
	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Environment routes
	environment := api.Group("/environments")
	environment.Post("/", environmentController.CreateEnvironment)
	environment.Get("/", environmentController.GetEnvironments)
	environment.Get("/:id", environmentController.GetEnvironment)
	environment.Put("/:id", environmentController.UpdateEnvironment)
	environment.Delete("/:id", environmentController.DeleteEnvironment)

	// Feature routes
	feature := api.Group("/features")
	feature.Post("/", featureController.CreateFeature)
	feature.Get("/", featureController.GetFeatures)
	feature.Get("/:id", featureController.GetFeature)
	feature.Put("/:id", featureController.UpdateFeature)
	feature.Delete("/:id", featureController.DeleteFeature)
	feature.Post("/:id/environments/:environmentID/toggle", featureController.ToggleFeature)

	// Team routes
	team := api.Group("/teams")
	team.Post("/", teamController.CreateTeam)
	team.Get("/", teamController.GetTeams)
	team.Get("/:id", teamController.GetTeam)
	team.Put("/:id", teamController.UpdateTeam)
	team.Delete("/:id", teamController.DeleteTeam)
	team.Post("/:id/join", teamController.JoinTeam)
	team.Post("/:id/leave", teamController.LeaveTeam)
	team.Post("/:id/features/:featureID/environments/:environmentID/toggle", teamController.ToggleTeamFeature)

	// Invite routes
	team.Post("/:id/invites", teamController.CreateInvite)
	team.Get("/:id/invites", teamController.GetInvites)
	api.Post("/invites/accept", teamController.AcceptInvite)
}

func setupStateRoutes(app *fiber.App, stateController *controller.StateController) {
	// Public flag evaluation, rate limited per caller
	state := app.Group("/state", middleware.StateRateLimiter())
	state.Get("/:environmentID/:key", stateController.GetState)

	state.Use("/:environmentID/:key/watch", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	state.Get("/:environmentID/:key/watch", stateController.WatchState())
}
