package server

import (
	"errors"
	"net/http"
	"strings"
)

var errNoPlayer = errors.New("no player credential")

// playerFromRequest extracts the caller's player id from the Authorization
// header. The id minted at join time doubles as the opaque credential; the
// protocol assumes cooperating peers and does not verify identity.
func playerFromRequest(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", errNoPlayer
	}
	return token, nil
}
