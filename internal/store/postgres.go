package store

import (
	"fmt"
	"net/url"
	"sort"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

// Option defines connection options for PostgreSQL.
type Option struct {
	Host       string            `json:"host" yaml:"host"`
	Port       int               `json:"port" yaml:"port"`
	User       string            `json:"user" yaml:"user"`
	Password   string            `json:"password" yaml:"password"`
	Database   string            `json:"database" yaml:"database"`
	SSLMode    string            `json:"sslMode" yaml:"ssl_mode"`
	Params     map[string]string `json:"params" yaml:"params"`
	ConnString string            `json:"connString" yaml:"conn_string"`
	Config     *gorm.Config      `json:"-" yaml:"-"`
}

// Enabled reports whether enough is set to attempt a connection.
func (opt Option) Enabled() bool {
	return opt.ConnString != "" || opt.Database != ""
}

// DSN builds a postgres URL. ConnString wins when set.
func (opt Option) DSN() string {
	if opt.ConnString != "" {
		return opt.ConnString
	}

	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}
	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	keys := make([]string, 0, len(opt.Params))
	for key := range opt.Params {
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		query.Set(key, opt.Params[key])
	}
	u.RawQuery = query.Encode()

	return u.String()
}

func openPostgres(opt Option) (*gorm.DB, error) {
	config := opt.Config
	if config == nil {
		config = &gorm.Config{}
	}
	return gorm.Open(postgres.Open(opt.DSN()), config)
}
