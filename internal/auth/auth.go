package auth

import (
	"github.com/safeguardhq/trustguard/pkg/logger"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"gorm.io/gorm"
)

type Options struct {
	DB      *gorm.DB
	Rclient *storage.RedisClient
	Logger  *logger.Logger
}
