package storage

import "github.com/smallbiznis/nel3/internal/config"

func configWithDriver(driver string) config.Config {
	return config.Config{StorageDriver: driver, AppName: "nel3"}
}
