// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values shared with other packages
const (
	DefaultBaseURL   = "https://test.api.vectorcam.org"
	DefaultTimeout   = 120 * time.Second
	DefaultBatchSize = 500
)

// setDefaultConfig registers default values on v.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("api.baseurl", DefaultBaseURL)
	v.SetDefault("api.key", "")
	v.SetDefault("api.keyfile", "")
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("api.useragent", "vectorinsight")

	v.SetDefault("paths.raw", "data/raw")
	v.SetDefault("paths.exports", "data/exports")
	v.SetDefault("paths.logs", "data/logs")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "data/vectorinsight.db")
	v.SetDefault("database.batchsize", DefaultBatchSize)
	v.SetDefault("database.slowquery", 200*time.Millisecond)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.passwordfile", "")
	v.SetDefault("database.mysql.database", "vectorinsight")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", true)
	v.SetDefault("logging.file_output.path", "") // derived from paths.logs
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("observability.textfile", "")

	v.SetDefault("telemetry.sentrydsn", "")
	v.SetDefault("telemetry.environment", "production")
}
