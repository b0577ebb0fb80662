package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"golang.org/x/time/rate"
)

// RateLimitRule limits one endpoint per client IP
type RateLimitRule struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	// Headers adds X-RateLimit-* headers to every response
	Headers bool
}

// Default rules
var (
	LoginRateLimit = RateLimitRule{
		Name: "login", Max: 5, Window: 15 * time.Minute, Headers: true,
		Message: "Too many login attempts. Please try again later.",
	}
	SubmitRateLimit = RateLimitRule{
		Name: "submit", Max: 10, Window: time.Hour, Headers: true,
		Message: "Too many application submissions. Please try again later.",
	}
	DraftRateLimit = RateLimitRule{
		Name: "draft", Max: 30, Window: time.Hour,
		Message: "Too many requests. Please slow down.",
	}
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client IP. The bucket holds Max tokens and
// refills one every Window/Max, so Max requests fit in any Window.
type RateLimiter struct {
	rule RateLimitRule
	now  func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter creates a limiter for rule
func NewRateLimiter(rule RateLimitRule) *RateLimiter {
	if rule.Max <= 0 {
		rule.Max = 1
	}
	if rule.Window <= 0 {
		rule.Window = time.Minute
	}
	if rule.Message == "" {
		rule.Message = "Too many requests. Please slow down."
	}
	return &RateLimiter{
		rule:     rule,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

type decision struct {
	allowed    bool
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

func (l *RateLimiter) allow(ip string) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	key := ip + ":" + l.rule.Name
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.rule.Window/time.Duration(l.rule.Max)), l.rule.Max)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)
	perToken := l.rule.Window / time.Duration(l.rule.Max)

	d := decision{
		allowed:   allowed,
		remaining: int(math.Max(0, math.Floor(tokens))),
		reset:     now.Add(time.Duration((float64(l.rule.Max) - tokens) * float64(perToken))),
	}
	if !allowed {
		d.retryAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	return d
}

// sweep drops visitors idle for a full window; their buckets are full again anyway
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.rule.Window {
		return
	}
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.rule.Window {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

// Middleware enforces the rule
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := l.allow(c.ClientIP())

		if l.rule.Headers {
			h := c.Writer.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.rule.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.reset.Unix(), 10))
		}

		if !d.allowed {
			retryAfter := int(math.Ceil(d.retryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			detail := dto.NewErrorDetail(dto.ErrorCodeTooManyRequests, l.rule.Message).
				WithSeverity(dto.ErrorSeverityWarning).
				WithDetails(map[string]interface{}{"retryAfter": retryAfter})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(detail))
			return
		}
		c.Next()
	}
}
