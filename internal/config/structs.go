package config

import (
	"time"

	"github.com/AgencyDesk/AgencyDesk/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode    bool // enable dev mode for development
	DB         DB
	Log        logger.Log
	Title      string
	Webserver  Webserver
	Auth       Auth
	Metrics    Metrics
	Commission Commission
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Auth holds the authentication provider settings.
type Auth struct {
	LocalDB LocalDBAuth
	OIDC    OIDCAuth
}

// LocalDBAuth enables username/password login against the local database.
type LocalDBAuth struct {
	Enabled bool
}

// OIDCAuth holds the OpenID Connect provider settings used for hosted login.
type OIDCAuth struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Metrics holds the prometheus listener settings.
type Metrics struct {
	Enabled bool
	Addr    string // listen address, e.g. ":9100"
}

// Commission holds the revenue split policy.
type Commission struct {
	// DefaultRate is the agency cut withheld from gross sales (0.20 = 20%).
	// Individual agencies may override it.
	DefaultRate float64
}
