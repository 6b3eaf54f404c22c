package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"proof_of_existence/pkg/logger"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	LoginMessagePrefix = "Proof of Existence login: "
	AddressHeader      = "X-Wallet-Address"
	ContextKey         = "wallet_user"

	maxClockSkew = time.Minute
)

var (
	ErrInvalidAddress    = errors.New("invalid wallet address")
	ErrInvalidMessage    = errors.New("invalid login message")
	ErrMessageExpired    = errors.New("login message expired")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrSignatureMismatch = errors.New("signature does not match address")
	ErrInvalidToken      = errors.New("invalid token")
)

type Config struct {
	JWTSecret          string        `json:"jwtSecret"`
	TokenTTL           time.Duration `json:"tokenTTL"`
	LoginMaxAge        time.Duration `json:"loginMaxAge"`
	AllowAddressHeader bool          `json:"allowAddressHeader"`
}

type WalletAuth struct {
	secret             []byte
	tokenTTL           time.Duration
	loginMaxAge        time.Duration
	allowAddressHeader bool
	now                func() time.Time
}

func NewWalletAuth(cfg Config) *WalletAuth {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	maxAge := cfg.LoginMaxAge
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}

	return &WalletAuth{
		secret:             []byte(cfg.JWTSecret),
		tokenTTL:           ttl,
		loginMaxAge:        maxAge,
		allowAddressHeader: cfg.AllowAddressHeader,
		now:                time.Now,
	}
}

type WalletUserData struct {
	Address common.Address
	Method  string
}

// Key is the lowercase hex form used as the database key.
func (w *WalletUserData) Key() string {
	return NormalizeAddress(w.Address)
}

func NormalizeAddress(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

func LoginMessage(at time.Time) string {
	return LoginMessagePrefix + strconv.FormatInt(at.Unix(), 10)
}

// VerifyLogin checks an EIP-191 personal_sign signature over a login message
// and returns the signing address.
func (w *WalletAuth) VerifyLogin(address, message, signature string) (common.Address, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return common.Address{}, err
	}

	if !strings.HasPrefix(message, LoginMessagePrefix) {
		return common.Address{}, ErrInvalidMessage
	}
	issued, err := strconv.ParseInt(strings.TrimPrefix(message, LoginMessagePrefix), 10, 64)
	if err != nil {
		return common.Address{}, ErrInvalidMessage
	}

	now := w.now()
	issuedAt := time.Unix(issued, 0)
	if issuedAt.After(now.Add(maxClockSkew)) || now.Sub(issuedAt) > w.loginMaxAge {
		return common.Address{}, ErrMessageExpired
	}

	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if crypto.PubkeyToAddress(*pub) != addr {
		return common.Address{}, ErrSignatureMismatch
	}

	return addr, nil
}

func (w *WalletAuth) IssueToken(address common.Address) (string, time.Time, error) {
	now := w.now()
	expires := now.Add(w.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   NormalizeAddress(address),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(w.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expires, nil
}

func (w *WalletAuth) ParseToken(tokenString string) (common.Address, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return w.secret, nil
	}, jwt.WithTimeFunc(w.now))
	if err != nil || !token.Valid {
		return common.Address{}, ErrInvalidToken
	}

	addr, err := ParseAddress(claims.Subject)
	if err != nil {
		return common.Address{}, ErrInvalidToken
	}

	return addr, nil
}

func (w *WalletAuth) WalletAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			addr, err := w.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Info("invalid bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}

			c.Set(ContextKey, &WalletUserData{Address: addr, Method: "bearer"})
			c.Next()
			return
		}

		if w.allowAddressHeader {
			if header := c.GetHeader(AddressHeader); header != "" {
				addr, err := ParseAddress(header)
				if err != nil {
					log.Info("invalid wallet address header", zap.String("header", header))
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid wallet address"})
					return
				}

				c.Set(ContextKey, &WalletUserData{Address: addr, Method: "address"})
				c.Next()
				return
			}
		}

		log.Info("missing authorization header")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
	}
}

// WalletUser returns the authenticated wallet stored by the middleware.
func WalletUser(c *gin.Context) (*WalletUserData, bool) {
	v, exists := c.Get(ContextKey)
	if !exists {
		return nil, false
	}
	u, ok := v.(*WalletUserData)
	return u, ok
}
