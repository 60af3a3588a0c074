package middleware

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CallerHeader carries the caller principal on every mutating request.
const CallerHeader = "X-Caller-Address"

const callerContextKey = "callerAddress"

// RequireCaller extracts the caller principal from the request header and
// rejects requests where it is missing or not a valid hex address. The
// address is only an identity claim here; verifying it cryptographically
// is the transport's concern, not the ledger's.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CallerHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + CallerHeader + " header"})
			return
		}

		if !common.IsHexAddress(raw) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed caller address"})
			return
		}

		c.Set(callerContextKey, common.HexToAddress(raw))
		c.Next()
	}
}

// CallerFromContext returns the caller principal set by RequireCaller.
func CallerFromContext(c *gin.Context) (common.Address, bool) {
	value, ok := c.Get(callerContextKey)
	if !ok {
		return common.Address{}, false
	}

	caller, ok := value.(common.Address)
	return caller, ok
}
