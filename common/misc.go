package common

import (
	"os"
	"strconv"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

func NextId(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

// NewIdWorker falls back to the process id as machine id when no private ip address is available.
func NewIdWorker() *sonyflake.Sonyflake {
	if worker := sonyflake.NewSonyflake(sonyflake.Settings{}); worker != nil {
		return worker
	}
	return sonyflake.NewSonyflake(sonyflake.Settings{
		MachineID: func() (uint16, error) {
			return uint16(os.Getpid()), nil
		},
	})
}

func GetServiceName() string {
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		return name
	}
	return "formflow"
}

func GetServiceInstance() string {
	if instance := os.Getenv("SERVICE_INSTANCE"); instance != "" {
		return instance
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// EnvInt returns the integer value of the environment variable, or def if absent or malformed.
func EnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// EnvDuration parses values like "500ms" or "2s", returns def if absent or malformed.
func EnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
