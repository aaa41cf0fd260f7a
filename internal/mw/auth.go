package mw

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/auth"
)

const principalKey = "principal"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (auth.Principal, error)
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and stores the
// caller's principal on the context.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
			abort(c, apperror.Unauthorized("Missing or malformed bearer token"))
			return
		}

		p, err := tokens.Parse(fields[1])
		if err != nil {
			abort(c, apperror.Unauthorized("Could not validate credentials").Wrap(err))
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

func abort(c *gin.Context, err *apperror.AppError) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(err.HTTPStatus, err.Response())
}
