package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"flagnest/service"
	"flagnest/utils"
)

type FeatureController struct {
	svc *service.FeatureService
	log *logrus.Logger
}

func NewFeatureController(svc *service.FeatureService, log *logrus.Logger) *FeatureController {
	return &FeatureController{svc: svc, log: log}
}

type CreateFeatureRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Key            string `json:"key" validate:"required,max=100"`
	Description    string `json:"description" validate:"omitempty,max=500"`
	ShareWithTeam  bool   `json:"share_with_team"`
	EnvironmentIDs []uint `json:"environment_ids"`
}

type UpdateFeatureRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=100"`
	Key            *string `json:"key" validate:"omitempty,max=100"`
	Description    *string `json:"description" validate:"omitempty,max=500"`
	ShareWithTeam  *bool   `json:"share_with_team"`
	EnvironmentIDs *[]uint `json:"environment_ids"`
}

func (fc *FeatureController) CreateFeature(c *fiber.Ctx) error {
	var req CreateFeatureRequest
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

	feature, err := fc.svc.CreateFeature(c.Context(), currentUser(c).ID, service.CreateFeatureInput{
		Name:           req.Name,
		Key:            req.Key,
		Description:    req.Description,
		ShareWithTeam:  req.ShareWithTeam,
		EnvironmentIDs: req.EnvironmentIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(feature)
}

func (fc *FeatureController) GetFeatures(c *fiber.Ctx) error {
	features, err := fc.svc.ListFeatures(c.Context(), currentUser(c).ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(features)
}

func (fc *FeatureController) GetFeature(c *fiber.Ctx) error {
	feature, err := fc.svc.GetFeature(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feature)
}

func (fc *FeatureController) UpdateFeature(c *fiber.Ctx) error {
	var req UpdateFeatureRequest
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

	feature, err := fc.svc.UpdateFeature(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")), service.UpdateFeatureInput{
		Name:           req.Name,
		Key:            req.Key,
		Description:    req.Description,
		ShareWithTeam:  req.ShareWithTeam,
		EnvironmentIDs: req.EnvironmentIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feature)
}

func (fc *FeatureController) DeleteFeature(c *fiber.Ctx) error {
	if err := fc.svc.DeleteFeature(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id"))); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Feature deleted successfully",
	})
}

// ToggleFeature flips the feature's state in one environment and reports the
// new state. The result body is returned for failed toggles too, so clients
// always learn the reason.
func (fc *FeatureController) ToggleFeature(c *fiber.Ctx) error {
	featureID := utils.ParseUint(c.Params("id"))
	environmentID := utils.ParseUint(c.Params("environmentID"))

	result, err := fc.svc.Toggle(c.Context(), currentUser(c).ID, featureID, environmentID)
	if err != nil {
		if se, ok := service.AsError(err); ok && se.Code == service.CodeNotFound {
			return c.Status(fiber.StatusNotFound).JSON(result)
		}
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
