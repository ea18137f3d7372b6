package services

import (
	"fmt"

	"failarchive/internal/ai"
	"failarchive/internal/config"
	"failarchive/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const galleryCacheSize = 500

// Bundle 进程内所有服务，由 main 构建一次后注入路由
type Bundle struct {
	Accounts      *AccountService
	Tokens        *TokenService
	Identities    *IdentityResolver
	Gate          *ModerationGate
	Enricher      *Enricher
	Submissions   *SubmissionService
	Reuse         *ReuseLedger
	PreMortem     *PreMortemService
	Notifications *NotificationService
}

func NewBundle(db *gorm.DB, client ai.Client, cfg *config.Config, log *zap.Logger) (*Bundle, error) {
	cache, err := utils.NewCache(galleryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create gallery cache: %w", err)
	}

	b := &Bundle{
		Accounts:      NewAccountService(db, cfg.AdminEmails, log),
		Tokens:        NewTokenService(db, cfg.AnonTokenTTL),
		Identities:    NewIdentityResolver(),
		Gate:          NewModerationGate(db, client, cfg.AI.Timeout, cache, log),
		Enricher:      NewEnricher(db, client, cfg.AI.Timeout, cfg.EnrichmentQueueSize, log),
		Reuse:         NewReuseLedger(db, cache),
		PreMortem:     NewPreMortemService(db, client, cfg.AI.Timeout, log),
		Notifications: NewNotificationService(db),
	}
	b.Submissions = NewSubmissionService(db, b.Identities, b.Tokens, b.Gate, b.Enricher, cache, log)
	return b, nil
}

// Close 等待后台任务结束
func (b *Bundle) Close() {
	b.Enricher.Close()
}
