package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"flagnest/service"
	"flagnest/utils"
)

type TeamController struct {
	svc *service.TeamService
	log *logrus.Logger
}

func NewTeamController(svc *service.TeamService, log *logrus.Logger) *TeamController {
	return &TeamController{svc: svc, log: log}
}

type CreateTeamRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	AllCanManage bool   `json:"all_can_manage"`
	InviteOnly   bool   `json:"invite_only"`
}

type UpdateTeamRequest struct {
	Name         *string                         `json:"name" validate:"omitempty,max=100"`
	Description  *string                         `json:"description" validate:"omitempty,max=500"`
	AllCanManage *bool                           `json:"all_can_manage"`
	InviteOnly   *bool                           `json:"invite_only"`
	Features     *[]service.TeamFeatureInput     `json:"features"`
	Environments *[]service.TeamEnvironmentInput `json:"environments"`
}

type CreateInviteRequest struct {
	ValidityDays int    `json:"validity_days" validate:"omitempty,gte=1,lte=90"`
	Email        string `json:"email" validate:"omitempty,email"`
}

type AcceptInviteRequest struct {
	Code string `json:"code" validate:"required"`
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	var req CreateTeamRequest
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

	team, err := tc.svc.CreateTeam(c.Context(), currentUser(c).ID, service.CreateTeamInput{
		Name:         req.Name,
		Description:  req.Description,
		AllCanManage: req.AllCanManage,
		InviteOnly:   req.InviteOnly,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

func (tc *TeamController) GetTeams(c *fiber.Ctx) error {
	teams, err := tc.svc.ListTeams(c.Context(), currentUser(c).ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(teams)
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	team, err := tc.svc.GetTeam(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(team)
}

// UpdateTeam applies configuration and sharing changes. A partial sharing
// sync still succeeds; the skipped resources surface as a warning in the
// response body.
func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	var req UpdateTeamRequest
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

	team, warning, err := tc.svc.UpdateTeam(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")), service.UpdateTeamInput{
		Name:         req.Name,
		Description:  req.Description,
		AllCanManage: req.AllCanManage,
		InviteOnly:   req.InviteOnly,
		Features:     req.Features,
		Environments: req.Environments,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	if warning != "" {
		return c.JSON(fiber.Map{
			"team":    team,
			"warning": warning,
		})
	}
	return c.JSON(fiber.Map{
		"team": team,
	})
}

func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	if err := tc.svc.DeleteTeam(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id"))); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Team deleted successfully",
	})
}

func (tc *TeamController) JoinTeam(c *fiber.Ctx) error {
	team, err := tc.svc.JoinTeam(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(team)
}

func (tc *TeamController) LeaveTeam(c *fiber.Ctx) error {
	if err := tc.svc.LeaveTeam(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id"))); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Left team successfully",
	})
}

func (tc *TeamController) ToggleTeamFeature(c *fiber.Ctx) error {
	teamID := utils.ParseUint(c.Params("id"))
	featureID := utils.ParseUint(c.Params("featureID"))
	environmentID := utils.ParseUint(c.Params("environmentID"))

	result, err := tc.svc.ToggleTeamFeature(c.Context(), currentUser(c).ID, teamID, featureID, environmentID)
	if err != nil {
		if se, ok := service.AsError(err); ok && se.Code == service.CodeNotFound && result.Reason != "" {
			return c.Status(fiber.StatusNotFound).JSON(result)
		}
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

func (tc *TeamController) CreateInvite(c *fiber.Ctx) error {
	var req CreateInviteRequest
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

	invite, err := tc.svc.CreateInvite(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")), req.ValidityDays, req.Email)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

func (tc *TeamController) GetInvites(c *fiber.Ctx) error {
	invites, err := tc.svc.ListInvites(c.Context(), currentUser(c).ID, utils.ParseUint(c.Params("id")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invites)
}

func (tc *TeamController) AcceptInvite(c *fiber.Ctx) error {
	var req AcceptInviteRequest
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

	team, err := tc.svc.AcceptInvite(c.Context(), currentUser(c).ID, req.Code)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(team)
}
