// internal/app/bootstrap/toolconfig.go
package bootstrap

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/waffle/config"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LoadToolConfig loads AppConfig for command-line tools such as
// cmd/assignmigrate. It reads the same keys and sources as LoadConfig, with
// the same precedence (env > config file > defaults): a .env file in dir,
// config.yaml|yml|json|toml in dir and CAMPSTAFF_* environment variables.
// Command-line flags are left to the tool.
func LoadToolConfig(dir string, logger *zap.Logger) (AppConfig, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
		logger.Info("loaded .env file", zap.String("dir", dir))
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range appConfigKeys {
		v.SetDefault(k.Name, k.Default)
	}

	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := filepath.Join(dir, "config."+ext)
		b, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return AppConfig{}, fmt.Errorf("read %s: %w", file, err)
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			return AppConfig{}, fmt.Errorf("decode %s: %w", file, err)
		}
		logger.Info("loaded config file", zap.String("file", file))
	}

	values := make(config.AppConfigValues, len(appConfigKeys))
	for _, k := range appConfigKeys {
		values[k.Name] = v.Get(k.Name)
	}
	return appConfigFrom(values), nil
}
