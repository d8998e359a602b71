package jwt

import (
	"chef-agent-api/domain"
	"chef-agent-api/internal/utils"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type (
	// JWTService validates bearer tokens issued by the identity provider.
	JWTService interface {
		ValidateToken(token string) (domain.Identity, error)
		GenerateToken(identity domain.Identity, ttl time.Duration) (string, error)
	}

	identityClaims struct {
		Email      string `json:"email"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		audience  string
	}
)

func NewJWTService() JWTService {
	return NewJWTServiceWithKey(
		utils.GetConfig("JWT_SECRET"),
		utils.GetConfig("JWT_ISSUER"),
		utils.GetConfig("JWT_AUDIENCE"),
	)
}

func NewJWTServiceWithKey(secretKey, issuer, audience string) JWTService {
	return &jwtService{
		secretKey: secretKey,
		issuer:    issuer,
		audience:  audience,
	}
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateToken(token string) (domain.Identity, error) {
	if j.secretKey == "" {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	t_Token, err := jwt.ParseWithClaims(token, &identityClaims{}, j.parseToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	claims := t_Token.Claims.(*identityClaims)
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if j.audience != "" && !claims.VerifyAudience(j.audience, true) {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if claims.Subject == "" || claims.Email == "" {
		return domain.Identity{}, domain.ErrTokenClaims
	}

	name := claims.GivenName
	if name == "" {
		name = claims.Name
	}
	return domain.Identity{
		AuthID:  claims.Subject,
		Email:   claims.Email,
		Name:    name,
		Surname: claims.FamilyName,
		Picture: claims.Picture,
	}, nil
}

// GenerateToken signs a token the way the identity provider would. Used for
// local development and tests.
func (j *jwtService) GenerateToken(identity domain.Identity, ttl time.Duration) (string, error) {
	if j.secretKey == "" {
		return "", domain.ErrTokenNoSecret
	}
	claims := identityClaims{
		Email:      identity.Email,
		GivenName:  identity.Name,
		FamilyName: identity.Surname,
		Picture:    identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.AuthID,
			Issuer:    j.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}
