package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kgkhs001/BrighamWomensApp/internal/config"
)

// Claims 身份提供方签发的 JWT 声明
type Claims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	jwt.RegisteredClaims
}

// TokenValidator 令牌校验器
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// NewValidator 根据配置创建校验器，认证关闭时返回 nil
func NewValidator(cfg config.AuthConfig) (TokenValidator, error) {
	if cfg.Disabled {
		return nil, nil
	}
	if cfg.HMACSecret != "" {
		return NewHMACValidator([]byte(cfg.HMACSecret), cfg.Issuer, cfg.Audience), nil
	}
	if cfg.Issuer == "" && cfg.JWKSURL == "" {
		return nil, errors.New("auth: issuer or jwks_url is required")
	}
	return NewJWKSValidator(cfg.Issuer, cfg.JWKSURL, cfg.Audience), nil
}

// parserOptions 公共的 issuer、audience 和过期校验选项
func parserOptions(issuer, audience string, methods ...string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func checkClaims(token *jwt.Token) (*Claims, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, authError("invalid token", nil)
	}
	if claims.Subject == "" {
		return nil, authError("token has no subject", nil)
	}
	return claims, nil
}

// HMACValidator 共享密钥（HS256）校验器
type HMACValidator struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewHMACValidator 创建共享密钥校验器
func NewHMACValidator(secret []byte, issuer, audience string) *HMACValidator {
	return &HMACValidator{
		secret: secret,
		opts:   parserOptions(issuer, audience, jwt.SigningMethodHS256.Alg()),
	}
}

// ValidateToken 校验令牌
func (v *HMACValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, authError("invalid token", err)
	}
	return checkClaims(token)
}

// JWKSValidator 通过 JWKS 端点获取 RSA 公钥的校验器
type JWKSValidator struct {
	issuer     string
	jwksURL    string
	jwksCache  *sync.Map
	httpClient *http.Client
	opts       []jwt.ParserOption
}

// NewJWKSValidator 创建 JWKS 校验器，jwksURL 为空时按 OpenID Connect 约定由 issuer 推导
func NewJWKSValidator(issuer, jwksURL, audience string) *JWKSValidator {
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(issuer, "/") + "/protocol/openid-connect/certs"
	}
	return &JWKSValidator{
		issuer:     issuer,
		jwksURL:    jwksURL,
		jwksCache:  &sync.Map{},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		opts:       parserOptions(issuer, audience, "RS256", "RS384", "RS512"),
	}
}

// Issuer 返回 Issuer URL
func (v *JWKSValidator) Issuer() string {
	return v.issuer
}

// ValidateToken 校验令牌
func (v *JWKSValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}
		return v.GetPublicKey(kid)
	}, v.opts...)
	if err != nil {
		return nil, authError("invalid token", err)
	}
	return checkClaims(token)
}

// GetPublicKey 获取公钥（缓存未命中时请求 JWKS）
func (v *JWKSValidator) GetPublicKey(kid string) (*rsa.PublicKey, error) {
	if cached, ok := v.jwksCache.Load(kid); ok {
		return cached.(*rsa.PublicKey), nil
	}

	resp, err := v.httpClient.Get(v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	for _, key := range jwks.Keys {
		if key.Kid != kid || key.Kty != "RSA" {
			continue
		}
		publicKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		v.jwksCache.Store(kid, publicKey)
		return publicKey, nil
	}

	return nil, fmt.Errorf("key not found in JWKS: %s", kid)
}

// parseRSAPublicKey 解析 RSA 公钥
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode n: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode e: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
