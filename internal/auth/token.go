/******************************************************************************
*
*  Copyright 2026 SAP SE
*
*  Licensed under the Apache License, Version 2.0 (the "License");
*  you may not use this file except in compliance with the License.
*  You may obtain a copy of the License at
*
*      http://www.apache.org/licenses/LICENSE-2.0
*
*  Unless required by applicable law or agreed to in writing, software
*  distributed under the License is distributed on an "AS IS" BASIS,
*  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*  See the License for the specific language governing permissions and
*  limitations under the License.
*
******************************************************************************/

package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/sapcc/restbind/internal/restbind"
	uuid "github.com/satori/go.uuid"
)

//Issuer issues and validates the HS256-signed bearer tokens that the
//extension accepts.
type Issuer struct {
	Secret      []byte
	UserIDClaim string
	RolesClaim  string
	//lifetime of issued tokens (default 4 hours)
	Lifetime time.Duration
}

//NewIssuer builds an Issuer from the "jwt" section of the settings.
func NewIssuer(settings *restbind.Settings) (*Issuer, error) {
	cfg := settings.Config.JWT
	if cfg.Secret == "" {
		return nil, fmt.Errorf("missing jwt.secret in settings")
	}
	return &Issuer{
		Secret:      []byte(cfg.Secret),
		UserIDClaim: cfg.UserIDClaim,
		RolesClaim:  cfg.RolesClaim,
		Lifetime:    4 * time.Hour,
	}, nil
}

//Issue renders the given user into a signed token. User fields become
//additional claims.
func (i *Issuer) Issue(u restbind.User) (string, error) {
	now := time.Now()
	lifetime := i.Lifetime
	if lifetime <= 0 {
		lifetime = 4 * time.Hour
	}

	claims := jwt.MapClaims{}
	for key, value := range u.Fields {
		claims[key] = value
	}
	claims["jti"] = uuid.NewV4().String()
	claims["iat"] = now.Unix()
	claims["nbf"] = now.Unix()
	claims["exp"] = now.Add(lifetime).Unix()
	claims[i.UserIDClaim] = u.ID
	claims[i.RolesClaim] = u.Roles

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

//registered claims that do not end up in User.Fields
var registeredClaims = []string{"aud", "exp", "iat", "iss", "jti", "nbf"}

//Parse validates a token and extracts the user from it.
func (i *Issuer) Parse(tokenStr string) (*restbind.User, *restbind.Error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		//check that the signing method matches what we generate
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.Secret, nil
	})
	if err != nil {
		return nil, restbind.ErrAuthenticationFailed.With(err.Error())
	}
	if !token.Valid {
		return nil, restbind.ErrAuthenticationFailed.With("token invalid")
	}
	if _, exists := claims["exp"]; !exists {
		return nil, restbind.ErrAuthenticationFailed.With("token does not expire")
	}

	userID, _ := claims[i.UserIDClaim].(string)
	if userID == "" {
		return nil, restbind.ErrAuthenticationFailed.With("token does not identify a user (missing %q claim)", i.UserIDClaim)
	}
	roles, err := parseRoles(claims[i.RolesClaim])
	if err != nil {
		return nil, restbind.ErrAuthenticationFailed.With("malformed %q claim: %s", i.RolesClaim, err.Error())
	}

	u := &restbind.User{ID: userID, Roles: roles, Fields: map[string]interface{}{}}
	for key, value := range claims {
		if key == i.UserIDClaim || key == i.RolesClaim || containsString(registeredClaims, key) {
			continue
		}
		u.Fields[key] = value
	}
	return u, nil
}

//parseRoles accepts a list of strings or a comma-separated string.
func parseRoles(value interface{}) ([]string, error) {
	switch value := value.(type) {
	case nil:
		return nil, nil
	case string:
		var roles []string
		for _, role := range strings.Split(value, ",") {
			role = strings.TrimSpace(role)
			if role != "" {
				roles = append(roles, role)
			}
		}
		return roles, nil
	case []interface{}:
		roles := make([]string, 0, len(value))
		for _, elem := range value {
			role, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", elem)
			}
			roles = append(roles, role)
		}
		return roles, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
