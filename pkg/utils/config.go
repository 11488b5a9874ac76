package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	MTNMoMo     MTNMoMoConfig
	OrangeMoney OrangeMoneyConfig
	Card        CardConfig
	PayPal      PayPalConfig
	Rules       PaymentRules
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// MTNMoMoConfig holds the collection API credentials (mobile money A).
type MTNMoMoConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	Environment     string // sandbox | production
	CallbackURL     string
}

// OrangeMoneyConfig holds the web payment credentials (mobile money B).
type OrangeMoneyConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MerchantKey  string
	Environment  string
}

// CardConfig holds the card processor credentials. WebhookHash is the shared
// secret the processor sends back in the verif-hash header.
type CardConfig struct {
	BaseURL     string
	SecretKey   string
	WebhookHash string
	Environment string
}

type PayPalConfig struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	Environment   string
}

// PaymentRules are the method/currency rules enforced before a transaction is
// created. They are injected into the transaction service so tests construct
// their own rules instead of flipping a process-wide mode.
type PaymentRules struct {
	LocalCurrency     string   // e.g. XAF
	MajorCurrencies   []string // accepted beside local for card/wallet methods
	SubscriberPrefix  string   // leading digit of a valid mobile subscriber
	SubscriberNumLen  int      // digits in a subscriber number
	ReferencePrefix   string   // prefix of generated transaction references
	NotifyMaxAttempts int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("MOMO_ENVIRONMENT", "sandbox")
	viper.SetDefault("OM_ENVIRONMENT", "sandbox")
	viper.SetDefault("CARD_ENVIRONMENT", "sandbox")
	viper.SetDefault("PAYPAL_ENVIRONMENT", "sandbox")
	viper.SetDefault("LOCAL_CURRENCY", "XAF")
	viper.SetDefault("MAJOR_CURRENCIES", []string{"USD", "EUR", "GBP"})
	viper.SetDefault("SUBSCRIBER_PREFIX", "6")
	viper.SetDefault("SUBSCRIBER_NUM_LEN", 9)
	viper.SetDefault("REFERENCE_PREFIX", "TXN")
	viper.SetDefault("NOTIFY_MAX_ATTEMPTS", 3)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		MTNMoMo: MTNMoMoConfig{
			BaseURL:         viper.GetString("MOMO_BASE_URL"),
			SubscriptionKey: viper.GetString("MOMO_SUBSCRIPTION_KEY"),
			APIUser:         viper.GetString("MOMO_API_USER"),
			APIKey:          viper.GetString("MOMO_API_KEY"),
			Environment:     viper.GetString("MOMO_ENVIRONMENT"),
			CallbackURL:     viper.GetString("MOMO_CALLBACK_URL"),
		},
		OrangeMoney: OrangeMoneyConfig{
			BaseURL:      viper.GetString("OM_BASE_URL"),
			ClientID:     viper.GetString("OM_CLIENT_ID"),
			ClientSecret: viper.GetString("OM_CLIENT_SECRET"),
			MerchantKey:  viper.GetString("OM_MERCHANT_KEY"),
			Environment:  viper.GetString("OM_ENVIRONMENT"),
		},
		Card: CardConfig{
			BaseURL:     viper.GetString("CARD_BASE_URL"),
			SecretKey:   viper.GetString("CARD_SECRET_KEY"),
			WebhookHash: viper.GetString("CARD_WEBHOOK_HASH"),
			Environment: viper.GetString("CARD_ENVIRONMENT"),
		},
		PayPal: PayPalConfig{
			BaseURL:       viper.GetString("PAYPAL_BASE_URL"),
			ClientID:      viper.GetString("PAYPAL_CLIENT_ID"),
			ClientSecret:  viper.GetString("PAYPAL_CLIENT_SECRET"),
			WebhookSecret: viper.GetString("PAYPAL_WEBHOOK_SECRET"),
			Environment:   viper.GetString("PAYPAL_ENVIRONMENT"),
		},
		Rules: PaymentRules{
			LocalCurrency:     viper.GetString("LOCAL_CURRENCY"),
			MajorCurrencies:   viper.GetStringSlice("MAJOR_CURRENCIES"),
			SubscriberPrefix:  viper.GetString("SUBSCRIBER_PREFIX"),
			SubscriberNumLen:  viper.GetInt("SUBSCRIBER_NUM_LEN"),
			ReferencePrefix:   viper.GetString("REFERENCE_PREFIX"),
			NotifyMaxAttempts: viper.GetInt("NOTIFY_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}
