package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// initDataMaxAge is how long a Mini App launch stays valid
const initDataMaxAge = 24 * time.Hour

var errUnauthorized = errors.New("unauthorized")

// InitDataValidator checks Telegram Mini App launch data against the bot token
type InitDataValidator struct {
	token        string
	allowedUsers map[int64]bool
	now          func() time.Time
}

// NewInitDataValidator creates a validator that accepts only allowedUserIDs
func NewInitDataValidator(token string, allowedUserIDs []int64) *InitDataValidator {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &InitDataValidator{
		token:        token,
		allowedUsers: allowed,
		now:          time.Now,
	}
}

// Validate verifies the initData signature and returns the Telegram user ID
func (v *InitDataValidator) Validate(initData string) (int64, error) {
	if initData == "" {
		return 0, fmt.Errorf("missing initData")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("invalid initData format: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(signInitData(v.token, values)), []byte(hash)) {
		return 0, fmt.Errorf("invalid hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("missing or invalid auth_date")
	}
	if v.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return 0, fmt.Errorf("initData is too old")
	}

	userStr := values.Get("user")
	if userStr == "" {
		return 0, fmt.Errorf("missing user data")
	}
	var userData struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userStr), &userData); err != nil {
		return 0, fmt.Errorf("invalid user data: %w", err)
	}

	if !v.allowedUsers[userData.ID] {
		return 0, fmt.Errorf("user %d not allowed", userData.ID)
	}
	return userData.ID, nil
}

// signInitData computes the hex HMAC Telegram attaches to initData.
// The data-check-string is every field but hash, sorted by key, joined by newlines.
func signInitData(token string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(token))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// Middleware rejects requests without a valid "Authorization: tma <initData>" header
func (v *InitDataValidator) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "tma ") {
				requestLogger(r.Context(), logger).Warn("Missing or invalid authorization header")
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}

			userID, err := v.Validate(strings.TrimPrefix(authHeader, "tma "))
			if err != nil {
				requestLogger(r.Context(), logger).Warn("Failed to validate initData", zap.Error(err))
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}

			requestLogger(r.Context(), logger).Debug("Authenticated request",
				zap.Int64("user_id", userID),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}
