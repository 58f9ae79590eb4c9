package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/cloudcfg/internal/auth"
)

// tokenCommand mints a bearer token for the diagnostic API.
type tokenCommand struct {
	app *app

	Subject string        `long:"subject" default:"operator" description:"Token subject, recorded in API logs"`
	Role    string        `long:"role" default:"operator" choice:"viewer" choice:"operator" description:"Role granted by the token"`
	TTL     time.Duration `long:"ttl" description:"Token lifetime, defaults to security.jwt.token_ttl"`
}

// Execute implements flags.Commander.
func (c *tokenCommand) Execute(_ []string) error {
	cfg, err := c.app.appConfig()
	if err != nil {
		return err
	}
	if cfg.Security.JWT.Secret == "" {
		return errors.New("security.jwt.secret is not set (set CLOUDCFG_JWT_SECRET)")
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = cfg.GetTokenTTL()
	}

	token, err := auth.GenerateToken(c.Subject, auth.Role(c.Role), cfg.Security.JWT.Secret, ttl)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}
	_, err = fmt.Fprintln(c.app.stdout, token)
	return err
}
