package config

import "github.com/iliyamo/movie-catalog/internal/database"

// DatabaseOptions maps the DB_* settings onto database.Options.
func (c Config) DatabaseOptions() database.Options {
	return database.Options{
		Driver: c.DBDriver,
		User:   c.DBUser,
		Pass:   c.DBPass,
		Host:   c.DBHost,
		Port:   c.DBPort,
		Name:   c.DBName,
		Path:   c.DBPath,
	}
}
