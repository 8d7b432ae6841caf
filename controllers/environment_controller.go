package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"flagnest/service"
	"flagnest/utils"
)

type EnvironmentController struct {
	svc *service.EnvironmentService
	log *logrus.Logger
}

func NewEnvironmentController(svc *service.EnvironmentService, log *logrus.Logger) *EnvironmentController {
	return &EnvironmentController{svc: svc, log: log}
}

type CreateEnvironmentRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"omitempty,max=500"`
	ShareWithTeam bool   `json:"share_with_team"`
}

type UpdateEnvironmentRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=500"`
	ShareWithTeam *bool   `json:"share_with_team"`
}

func (ec *EnvironmentController) CreateEnvironment(c *fiber.Ctx) error {
	var req CreateEnvironmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	env, err := ec.svc.CreateEnvironment(c.Context(), currentUser(c).ID, service.CreateEnvironmentInput{
		Name:          req.Name,
		Description:   req.Description,
		ShareWithTeam: req.ShareWithTeam,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(env)
}

func (ec *EnvironmentController) GetEnvironments(c *fiber.Ctx) error {
	envs, err := ec.svc.ListEnvironments(c.Context(), currentUser(c).ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(envs)
}

func (ec *EnvironmentController) GetEnvironment(c *fiber.Ctx) error {
	env, err := ec.svc.GetEnvironment(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(env)
}

func (ec *EnvironmentController) UpdateEnvironment(c *fiber.Ctx) error {
	var req UpdateEnvironmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	env, err := ec.svc.UpdateEnvironment(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")), service.UpdateEnvironmentInput{
		Name:          req.Name,
		Description:   req.Description,
		ShareWithTeam: req.ShareWithTeam,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(env)
}

func (ec *EnvironmentController) DeleteEnvironment(c *fiber.Ctx) error {
	if err := ec.svc.DeleteEnvironment(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id"))); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Environment deleted successfully",
	})
}
