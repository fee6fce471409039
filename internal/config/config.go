package config

import "github.com/shopspring/decimal"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database Database `envPrefix:"DB_"`
	PayMongo PayMongo `envPrefix:"PAYMONGO_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
}

type PayMongo struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.paymongo.com"`
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	// Test environments only. Every bypassed request is logged loudly.
	SkipSignatureVerification bool `env:"SKIP_SIGNATURE_VERIFICATION" envDefault:"false"`

	SuccessURL string `env:"SUCCESS_URL"`
	CancelURL  string `env:"CANCEL_URL"`
}

type Checkout struct {
	DeliverySurcharge decimal.Decimal `env:"DELIVERY_SURCHARGE" envDefault:"50.00"`
	Currency          string          `env:"CURRENCY" envDefault:"PHP"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:checkout.db"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
