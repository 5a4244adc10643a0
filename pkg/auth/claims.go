package auth

import (
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	WorkerID uuid.UUID
	Role     enums.WorkerRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by back-office workers.
type AccessTokenClaims struct {
	WorkerID uuid.UUID        `json:"worker_id"`
	Role     enums.WorkerRole `json:"role"`
	jwt.RegisteredClaims
}
