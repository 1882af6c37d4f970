package config

type App struct {
	Port          string `env:"APP_PORT" default:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	LibServiceURL string `env:"LIB_SERVICE_URL" default:"http://lib-service:8081"`
	Env           string `env:"APP_ENV" default:"dev"`
}
