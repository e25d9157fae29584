package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"tubedigest/domain/dto"
	"tubedigest/usecase"
)

// SessionCookieName carries the dashboard session JWT.
const SessionCookieName = "td_session"

// Auth accepts the session token from either the Authorization header or
// the td_session cookie, verifies it and stores the identity on the gin
// context as "email" and "user_id".
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		tokenString := bearerToken(ctx)
		if tokenString == "" {
			if cookie, err := ctx.Cookie(SessionCookieName); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		claims, err := usecase.ParseClaims(tokenString, secretKey)
		if err != nil {
			res.ResponseMessage = describe(err)
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		ctx.Set("email", claims.Email)
		ctx.Set("user_id", claims.Issuer)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	authorization := ctx.Request.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.Split(authorization, "Bearer ")
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func describe(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "That's not even a token"
		}
		if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return "Timing is everything"
		}
	}
	return "Unauthorized"
}
