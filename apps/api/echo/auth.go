package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
)

var (
	tokenContextKey = "userToken"
	audience        = "Dashboard"
	nowFunc         = time.Now // mockable

	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// Actor converts verified claims into the caller identity passed to the services.
func (c Claims) Actor() (core.Actor, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id == 0 {
		return core.Actor{}, errUnauthorized
	}
	return core.Actor{ID: id, Username: c.Username, IsAdmin: c.IsAdmin}, nil
}

type authenticator struct {
	conf      *core.Config
	svc       *assistant.Service
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, svc *assistant.Service) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

func (auth *authenticator) claims(a assistant.Assistant) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    auth.conf.AppName,
			Subject:   strconv.Itoa(a.ID),
			Audience:  audience,
			ExpiresAt: now.Add(auth.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: a.Username,
		Name:     a.Name,
		IsAdmin:  a.IsAdmin(),
	}
}

// generateToken generates a signed JWT token string representing the assistant's Claims.
func (auth *authenticator) generateToken(a assistant.Assistant) (string, error) {
	method := jwt.GetSigningMethod(auth.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, auth.claims(a))

	ss, err := token.SignedString(auth.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// middleware verifies the bearer token and stores the caller in the request context.
func (auth *authenticator) middleware() echo.MiddlewareFunc {
	verify := middleware.JWTWithConfig(auth.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			actor, err := claims.Actor()
			if err != nil {
				return err
			}
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(core.WithActor(req.Context(), actor)))
			return next(ctx)
		})
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
