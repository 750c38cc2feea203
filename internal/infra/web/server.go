package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"code-redemption/internal/infra/metrics"
	"code-redemption/internal/usecase"
)

// Limiter is satisfied by the redis fixed-window rate limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	cardUC    usecase.CardUseCase
	codeUC    usecase.CodeUseCase
	orderUC   usecase.OrderUseCase
	ledgerUC  usecase.LedgerUseCase
	channelUC usecase.ChannelUseCase
	auth      *AuthManager
	limiter   Limiter
	// checkPerMinute caps code checks per client IP; 0 or a nil limiter disables it
	checkPerMinute int
	timeout        time.Duration
	log            *zerolog.Logger
}

func NewServer(
	cardUC usecase.CardUseCase,
	codeUC usecase.CodeUseCase,
	orderUC usecase.OrderUseCase,
	ledgerUC usecase.LedgerUseCase,
	channelUC usecase.ChannelUseCase,
	auth *AuthManager,
	limiter Limiter,
	checkPerMinute int,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Server{
		cardUC:         cardUC,
		codeUC:         codeUC,
		orderUC:        orderUC,
		ledgerUC:       ledgerUC,
		channelUC:      channelUC,
		auth:           auth,
		limiter:        limiter,
		checkPerMinute: checkPerMinute,
		timeout:        timeout,
		log:            logger,
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.timeout), Authenticate(s.auth, s.log))

		r.Delete("/session", s.logout)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.listCards)
			r.Post("/", s.createCard)
			r.Route("/{cardID}", func(r chi.Router) {
				r.Get("/", s.getCard)
				r.Patch("/", s.updateCard)
				r.Delete("/", s.deleteCard)
				r.Get("/stock", s.cardStock)
				r.Post("/purchase", s.purchase)
				r.Get("/codes", s.listCodes)
				r.Post("/codes", s.generateCodes)
				r.Delete("/codes", s.deleteCodes)
			})
		})

		r.Route("/codes", func(r chi.Router) {
			r.With(s.rateLimit("code_check")).Get("/check", s.checkCode)
			r.Post("/export", s.exportCodes)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.listOrders)
			r.Post("/redeem", s.redeem)
			r.Get("/stats", s.orderStats)
			r.Get("/mine", s.myOrders)
			r.Get("/queue", s.orderQueue)
			r.Get("/{orderID}", s.getOrder)
			r.Post("/{orderID}/start", s.startOrder)
			r.Post("/{orderID}/complete", s.completeOrder)
		})

		r.Route("/channels", func(r chi.Router) {
			r.Get("/", s.listChannels)
			r.Post("/", s.createChannel)
			r.Get("/{channelID}", s.getChannel)
			r.Patch("/{channelID}", s.updateChannel)
			r.Delete("/{channelID}", s.deleteChannel)
		})

		r.Get("/sales", s.listSales)
		r.Get("/sales/stats", s.salesStats)
		r.Get("/revenue", s.revenue)
	})
	return r
}

func (s *Server) rateLimit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if s.limiter == nil || s.checkPerMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := s.limiter.Allow(r.Context(), clientKey(scope, r), s.checkPerMinute, time.Minute)
			if err != nil {
				// fail open
				s.log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			} else if !ok {
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
