package http

import (
	"github.com/formrelay-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/formrelay-api/internal/infrastructure/jwt"
	"github.com/formrelay-api/internal/infrastructure/smtp"
	"github.com/formrelay-api/internal/pkg/password"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo *dynamo.AccountRepo
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
	Hasher      *password.Hasher
}
