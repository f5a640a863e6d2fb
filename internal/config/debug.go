package config

import "os"

func IsDebug() bool {
	return os.Getenv("TEAMBOT_DEBUG") == "1"
}
