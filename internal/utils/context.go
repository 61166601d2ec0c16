package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func GetAuthContext(ctx *gin.Context) (*authz.Context, error) {
	value, exists := ctx.Get(types.ContextAuthKey)

	if !exists {
		return nil, fmt.Errorf("User not authenticated")
	}

	actor, ok := value.(*authz.Context)

	if !ok {
		return nil, fmt.Errorf("Invalid auth context type")
	}

	return actor, nil
}

func GetCurrentAccountID(ctx *gin.Context) (uint, error) {
	actor, err := GetAuthContext(ctx)

	if err != nil {
		return 0, err
	}

	return actor.AccountID, nil
}
