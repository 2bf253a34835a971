package v1

import (
	"github.com/safeguardhq/trustguard/internal/content"
	"github.com/safeguardhq/trustguard/pkg/logger"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	Redis     *storage.RedisClient
	Logger    *logger.Logger
	Registry  *content.Registry
	EmailCfg  utils.EmailConfig
	Validator = utils.NewValidator()
)

// Init wires the handler package's shared dependencies.
func Init(db *gorm.DB, rclient *storage.RedisClient, log *logger.Logger, registry *content.Registry, emailCfg utils.EmailConfig) {
	DB = db
	Redis = rclient
	Logger = log
	Registry = registry
	EmailCfg = emailCfg
}
