// Package auth mints and verifies the HS256 access tokens used by the API.
package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// AccessTokenPayload is what the caller knows when minting; JTI is optional.
type AccessTokenPayload struct {
	UserID uint
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims is the token body. Subject repeats UserID as a string.
type AccessTokenClaims struct {
	UserID uint       `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) check() error {
	if c.UserID == 0 {
		return fmt.Errorf("token missing user_id")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("token carries invalid role %q", c.Role)
	}
	if c.Subject != strconv.FormatUint(uint64(c.UserID), 10) {
		return fmt.Errorf("token subject %q does not match user_id %d", c.Subject, c.UserID)
	}
	return nil
}
