package config

import (
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

// Env holds credentials read from the process environment.
type Env struct {
	NEYNAR_API_KEY    string `zog:"NEYNAR_API_KEY"`
	VERCEL_TOKEN      string `zog:"VERCEL_TOKEN"`
	VERCEL_TEAM_ID    string `zog:"VERCEL_TEAM_ID"`
	VERCEL_PROJECT_ID string `zog:"VERCEL_PROJECT_ID"`
	STATUS_PORT       int    `zog:"POLLSTATE_STATUS_PORT"`
}

var envSchema = z.Struct(z.Shape{
	"NEYNAR_API_KEY":    z.String().Optional(),
	"VERCEL_TOKEN":      z.String().Optional(),
	"VERCEL_TEAM_ID":    z.String().Optional(),
	"VERCEL_PROJECT_ID": z.String().Optional(),
	"STATUS_PORT":       z.Int().Optional().GTE(0).LTE(65535),
})

// LoadEnv parses credentials from the environment.
//
// All variables are optional; a malformed POLLSTATE_STATUS_PORT is an error.
func LoadEnv() (Env, error) {
	var env Env
	if issues := envSchema.Parse(zenv.NewDataProvider(), &env); len(issues) > 0 {
		return Env{}, fmt.Errorf("invalid environment:\n%s", z.Issues.Prettify(issues))
	}
	return env, nil
}

// ApplyEnv fills settings the file left empty from env.
func (c *Config) ApplyEnv(env Env) {
	if c.Neynar.APIKey == "" {
		c.Neynar.APIKey = env.NEYNAR_API_KEY
	}
	if c.Vercel.Token == "" {
		c.Vercel.Token = env.VERCEL_TOKEN
	}
	if c.Vercel.TeamID == "" {
		c.Vercel.TeamID = env.VERCEL_TEAM_ID
	}
	if c.Vercel.ProjectID == "" {
		c.Vercel.ProjectID = env.VERCEL_PROJECT_ID
	}
	if c.StatusPort == 0 {
		c.StatusPort = env.STATUS_PORT
	}
}
