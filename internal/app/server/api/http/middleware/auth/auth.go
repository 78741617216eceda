package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/tenant"
)

// Auth authenticates requests by API key. The X-Api-Key header carries
// "<pharmacy_id>:<secret>"; the secret is checked against the stored hash.
type Auth struct {
	tenants tenant.Servicer
	log     *slog.Logger
}

func New(tenants tenant.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		tenants: tenants,
		log:     log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const TenantIDKey contextKey = "tenantID"

func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := ctx.Header("X-Api-Key")

		id, secret, ok := splitKey(key)
		if !ok {
			a.log.Debug("malformed api key")
			reject(ctx)
			return
		}

		p, err := a.tenants.Verify(ctx.Context(), id, secret)
		if err != nil {
			a.log.Debug("api key rejected", "tenant_id", id, "error", err)
			reject(ctx)
			return
		}

		newCtx := context.WithValue(ctx.Context(), TenantIDKey, p.ID)
		next(huma.WithContext(ctx, newCtx))
	}
}

func splitKey(key string) (int64, string, bool) {
	idPart, secret, found := strings.Cut(key, ":")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, secret, true
}

func reject(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "Unauthorized",
	})
}

func GetTenantID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TenantIDKey).(int64)
	return id, ok
}
