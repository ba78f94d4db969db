package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const AdminSecretHeader = "X-Admin-Secret"

// AdminSecretHash returns the bcrypt hash the admin middleware checks
// against: ADMIN_SECRET_HASH as given, or ADMIN_SECRET hashed at startup. It
// returns nil when neither is configured.
func AdminSecretHash(cfg *config.Config) ([]byte, error) {
	if cfg.AdminSecretHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.AdminSecretHash)); err != nil {
			return nil, errors.New("ADMIN_SECRET_HASH is not a bcrypt hash")
		}
		return []byte(cfg.AdminSecretHash), nil
	}
	if cfg.AdminSecret == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(cfg.AdminSecret), bcrypt.DefaultCost)
}

// AdminAuth admits requests whose X-Admin-Secret header matches hash. With no
// hash configured every admin request is refused.
func AdminAuth(hash []byte, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(AdminSecretHeader)
		if secret == "" {
			abortUnauthorized(c, "Admin secret required")
			return
		}
		if len(hash) == 0 {
			log.Warn("admin request refused: no admin secret configured")
			abortUnauthorized(c, "Admin access is not configured")
			return
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
			log.WithField("client_ip", c.ClientIP()).Warn("admin request with invalid secret")
			abortUnauthorized(c, "Invalid admin secret")
			return
		}
		c.Next()
	}
}
