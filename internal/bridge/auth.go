package bridge

import (
	"goftp.io/server/v2"

	"ftpbridge/pkg/errors"
	"ftpbridge/pkg/logger"
)

// Principal is the result of a successful credential check. The bridge has
// exactly one configured identity, not a user directory, so it carries
// nothing beyond the authenticated name.
type Principal struct {
	Name string
}

// Authenticator verifies a presented identity/secret pair against the single
// configured credential.
type Authenticator struct {
	username string
	password string
	logger   *logger.Logger
}

func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{
		username: username,
		password: password,
		logger:   logger.WithField("component", "authenticator"),
	}
}

// Authenticate yields a Principal or one of ErrBadPassword / ErrBadUser.
// The distinction exists for server-side logging; callers must not disclose
// which check failed to the remote peer.
func (a *Authenticator) Authenticate(username, password string) (Principal, error) {
	if password != a.password {
		a.logger.Warn("provided password doesn't match", "user", username)
		return Principal{}, errors.ErrBadPassword
	}
	if username != a.username {
		a.logger.Warn("provided username doesn't match", "user", username)
		return Principal{}, errors.ErrBadUser
	}

	a.logger.Info("successfully authenticated", "user", username)
	return Principal{Name: username}, nil
}

// ftpAuth adapts the Authenticator to the FTP engine's Auth contract. Any
// failure collapses to a plain "no" so the peer only ever sees a generic
// login rejection.
type ftpAuth struct {
	auth *Authenticator
}

var _ server.Auth = (*ftpAuth)(nil)

func (a *ftpAuth) CheckPasswd(_ *server.Context, name, password string) (bool, error) {
	if _, err := a.auth.Authenticate(name, password); err != nil {
		return false, nil
	}
	return true, nil
}
