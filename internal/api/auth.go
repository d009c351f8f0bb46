package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"jetcharter/internal/config"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	permReadAirports      = "read:airports"
	permExportRateCard    = "export:rate_card"
	permManageAccounts    = "manage:accounts"
	clientKeyUnknown      = "unknown"
)

var (
	errMissingAPIKey    = errors.New("missing api key headers")
	errInvalidAPIKey    = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
)

// apiKeys checks the key and extra header pair configured per API client.
type apiKeys struct {
	headerKey   string
	headerExtra string
	clients     map[string]config.APIClientKey
}

func newAPIKeys(cfg config.APIAuthConfig) *apiKeys {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}

	headerKey := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if headerKey == "" {
		headerKey = apiKeyHeaderDefault
	}
	headerExtra := strings.ToLower(strings.TrimSpace(cfg.HeaderExtra))
	if headerExtra == "" {
		headerExtra = apiExtraHeaderDefault
	}

	return &apiKeys{headerKey: headerKey, headerExtra: headerExtra, clients: m}
}

func (k *apiKeys) verify(apiKey, extra, required string) (config.APIClientKey, error) {
	apiKey = strings.TrimSpace(apiKey)
	extra = strings.TrimSpace(extra)
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingAPIKey
	}

	client, ok := k.clients[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidExtra
	}
	if !permitted(client, required) {
		return config.APIClientKey{}, errPermissionDenied
	}
	return client, nil
}

// permitted treats an empty permission list as allow-all.
func permitted(client config.APIClientKey, required string) bool {
	if required == "" || len(client.Permissions) == 0 {
		return true
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return true
		}
	}
	return false
}

// AuthInterceptor guards the gRPC services with the API keys and a per-client
// rate limit.
type AuthInterceptor struct {
	enabled bool
	keys    *apiKeys
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		enabled: cfg.Auth.Enabled,
		keys:    newAPIKeys(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.enabled {
			if err := a.checkAuth(ctx, info.FullMethod); err != nil {
				return nil, err
			}
		}
		if !a.limiter.allow(a.clientKey(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) error {
	required := requiredPermission(fullMethod)
	if required == "" {
		return nil
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	_, err := a.keys.verify(first(md.Get(a.keys.headerKey)), first(md.Get(a.keys.headerExtra)), required)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

// requiredPermission returns "" for methods open to anyone, such as health.
func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case airportLookupSuggestMethod, airportLookupValidateMethod:
		return permReadAirports
	default:
		return ""
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if apiKey := first(md.Get(a.keys.headerKey)); apiKey != "" {
		return apiKey
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// RequireAPIKey is the HTTP counterpart of AuthInterceptor for admin routes.
func RequireAPIKey(cfg config.APIAuthConfig, permission string) gin.HandlerFunc {
	keys := newAPIKeys(cfg)
	return func(c *gin.Context) {
		client, err := keys.verify(c.GetHeader(keys.headerKey), c.GetHeader(keys.headerExtra), permission)
		if err != nil {
			code := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				code = http.StatusForbidden
			}
			c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
			return
		}
		c.Set(apiClientKey, client.Name)
		c.Next()
	}
}
