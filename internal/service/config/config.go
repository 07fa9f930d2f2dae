package config

type Config struct {
	// идентификаторы пользователей, по движку на каждого
	Users []string `envconfig:"USERS"`
	// получатель покупки: user:recipient,...; по умолчанию сам пользователь
	Recipients map[string]string `envconfig:"RECIPIENTS"`

	// Ограничения и бюджеты для пользователя без сохранённого состояния
	DefaultMinPrice          int64    `envconfig:"DEFAULT_MIN_PRICE" default:"0"`
	DefaultMaxPrice          int64    `envconfig:"DEFAULT_MAX_PRICE" default:"0"`
	DefaultAllowIDs          []string `envconfig:"DEFAULT_ALLOW_IDS"`
	DefaultAllowKeywords     []string `envconfig:"DEFAULT_ALLOW_KEYWORDS"`
	DefaultWindow            string   `envconfig:"DEFAULT_WINDOW"`
	DefaultNotifyOnlyOverCap bool     `envconfig:"DEFAULT_NOTIFY_ONLY_OVER_CAP" default:"false"`
	DefaultLimitedOnly       bool     `envconfig:"DEFAULT_LIMITED_ONLY" default:"false"`
	DefaultDailyBudget       int64    `envconfig:"DEFAULT_DAILY_BUDGET" default:"0"`
	DefaultOverallLimit      int64    `envconfig:"DEFAULT_OVERALL_LIMIT" default:"0"`
	DefaultSupplyLimit       int64    `envconfig:"DEFAULT_SUPPLY_LIMIT" default:"0"`
	DefaultCycles            int64    `envconfig:"DEFAULT_CYCLES" default:"500"`
	DefaultNotifications     bool     `envconfig:"DEFAULT_NOTIFICATIONS" default:"true"`

	HistoryLimit int `envconfig:"PURCHASES_LIMIT" default:"50"`
}
