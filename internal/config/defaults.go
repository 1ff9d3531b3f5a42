package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatasetPath == "" {
		cfg.Storage.DatasetPath = "/usr/local/var/susume/data/dataset/movies.csv"
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = "/usr/local/var/susume/data/cache/catalog.gob"
	}
	if cfg.Storage.MatrixPath == "" {
		cfg.Storage.MatrixPath = "/usr/local/var/susume/data/cache/similarity.bin"
	}
	if cfg.Storage.FreshnessPath == "" {
		cfg.Storage.FreshnessPath = "/usr/local/var/susume/data/cache/last_modified.txt"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/susume/data/db/users.db"
	}
	if cfg.Storage.TitleIndexPath == "" {
		cfg.Storage.TitleIndexPath = "/usr/local/var/susume/data/indices/titles"
	}
	if cfg.Poster.BaseURL == "" {
		cfg.Poster.BaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.Poster.ImageBaseURL == "" {
		cfg.Poster.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	if cfg.Poster.TimeoutSeconds == 0 {
		cfg.Poster.TimeoutSeconds = 5
	}
	if cfg.Recommend.TopN == 0 {
		cfg.Recommend.TopN = 10
	}
	if cfg.Auth.MinUsernameLen == 0 {
		cfg.Auth.MinUsernameLen = 3
	}
	if cfg.Auth.MinPasswordLen == 0 {
		cfg.Auth.MinPasswordLen = 6
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Auth.SessionTTLMinutes == 0 {
		cfg.Auth.SessionTTLMinutes = 12 * 60
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
}
