package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"flagnest/service"
	"flagnest/utils"
)

// StateController serves runtime flag evaluation for client SDKs. These
// endpoints are public: they answer by flag key and environment id only and
// never expose who owns the flag.
type StateController struct {
	svc *service.FeatureService
	log *logrus.Logger
}

func NewStateController(svc *service.FeatureService, log *logrus.Logger) *StateController {
	return &StateController{svc: svc, log: log}
}

type StateResponse struct {
	Key           string `json:"key"`
	EnvironmentID uint   `json:"environment_id"`
	IsActive      bool   `json:"is_active"`
	Found         bool   `json:"found"`
}

func (sc *StateController) GetState(c *fiber.Ctx) error {
	key := c.Params("key")
	environmentID := utils.ParseUint(c.Params("environmentID"))

	isActive, found, err := sc.svc.GetFeatureState(c.Context(), key, environmentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(StateResponse{
		Key:           key,
		EnvironmentID: environmentID,
		IsActive:      isActive,
		Found:         found,
	})
}

// WatchState streams flag state over a websocket. The first message carries
// the current state; afterwards a message is pushed whenever the state
// changes.
func (sc *StateController) WatchState() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		key := conn.Params("key")
		environmentID := utils.ParseUint(conn.Params("environmentID"))
		ctx := context.Background()

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var last *StateResponse
		for {
			isActive, found, err := sc.svc.GetFeatureState(ctx, key, environmentID)
			if err != nil {
				sc.log.WithFields(logrus.Fields{
					"key":            key,
					"environment_id": environmentID,
				}).WithError(err).Error("state watch lookup failed")
				return
			}

			state := StateResponse{
				Key:           key,
				EnvironmentID: environmentID,
				IsActive:      isActive,
				Found:         found,
			}
			if last == nil || *last != state {
				if err := conn.WriteJSON(state); err != nil {
					return
				}
				last = &state
			}

			<-ticker.C
		}
	})
}
