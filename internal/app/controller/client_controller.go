package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dishshot-intake/internal/app/service"
	apperrors "github.com/ikkim/dishshot-intake/internal/errors"
	"github.com/ikkim/dishshot-intake/internal/middleware"
)

// ClientController serves the logged in user's client and submission history.
type ClientController struct {
	clientService service.ClientService
}

func NewClientController(clientService service.ClientService) *ClientController {
	return &ClientController{
		clientService: clientService,
	}
}

// GetMyClient handles GET /api/v1/clients/me
func (ctrl *ClientController) GetMyClient(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, apperrors.AuthTokenInvalid, "Sign in to continue")
		return
	}

	overview, err := ctrl.clientService.GetMine(c.Request.Context(), userID)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to load client for user", map[string]interface{}{
			"auth_user_id": userID,
			"error":        err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetClient handles GET /api/v1/clients/:id
func (ctrl *ClientController) GetClient(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, apperrors.AuthTokenInvalid, "Sign in to continue")
		return
	}

	overview, err := ctrl.clientService.GetOwned(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to load client", map[string]interface{}{
			"client_id":    c.Param("id"),
			"auth_user_id": userID,
			"error":        err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
