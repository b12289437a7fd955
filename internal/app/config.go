package app

import "os"

type Config struct {
	Env  string
	Port string

	MongoURL string
	MongoDB  string

	TelegramBotToken string
	JWTSecret        string

	// Optional integrations; empty means disabled.
	AMQPURL   string
	RedisAddr string
	ImgBBKey  string
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func LoadConfig() Config {
	return Config{
		Env:              getEnv("APP_ENV", "dev"),
		Port:             getEnv("APP_PORT", "8080"),
		MongoURL:         getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDB:          getEnv("MONGODB_DB", "agrolink"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		ImgBBKey:         os.Getenv("IMGBB_API_KEY"),
	}
}
