package util

import (
	"strings"

	"github.com/spf13/viper"
)

// SetKeyValue sets a config value from an environment variable. The
// prefix is removed and the remaining key lowercased, a double underscore
// marks a nested key: SB_RATE_LIMITER__RATE sets rate_limiter.rate
func SetKeyValue(vi *viper.Viper, key string, value interface{}) bool {
	i := strings.IndexByte(key, '_')
	if i == -1 || i == len(key)-1 {
		return false
	}
	key = strings.ToLower(key[i+1:])
	key = strings.ReplaceAll(key, "__", ".")

	vi.Set(key, value)
	return true
}
