package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAudit "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/audit"
	appAuth "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/auth"
	appBid "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/bid"
	appDispute "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/dispute"
	appLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/lot"
	appResource "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/resource"
	appTender "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/tender"
	appUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/user"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain"
	domainBid "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/bid"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
	domainLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/lot"
	domainResource "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/resource"
	domainTender "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
	domainUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/sse"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/ws"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tenderSvc           *appTender.Service
	lotSvc              *appLot.Service
	bidSvc              *appBid.Service
	resourceSvc         *appResource.Service
	disputeSvc          *appDispute.Service
	auditSvc            *appAudit.Service
	authSvc             *appAuth.Service
	userSvc             *appUser.Service
	sseHub              *sse.Hub
	wsHub               *ws.Hub
	sessionCookieName   string
	sessionCookieSecure bool
}

func NewServer(
	tenderSvc *appTender.Service,
	lotSvc *appLot.Service,
	bidSvc *appBid.Service,
	resourceSvc *appResource.Service,
	disputeSvc *appDispute.Service,
	auditSvc *appAudit.Service,
	authSvc *appAuth.Service,
	userSvc *appUser.Service,
	sseHub *sse.Hub,
	wsHub *ws.Hub,
	sessionCookieName string,
	sessionCookieSecure bool,
) *Server {
	return &Server{
		tenderSvc:           tenderSvc,
		lotSvc:              lotSvc,
		bidSvc:              bidSvc,
		resourceSvc:         resourceSvc,
		disputeSvc:          disputeSvc,
		auditSvc:            auditSvc,
		authSvc:             authSvc,
		userSvc:             userSvc,
		sseHub:              sseHub,
		wsHub:               wsHub,
		sessionCookieName:   sessionCookieName,
		sessionCookieSecure: sessionCookieSecure,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/bootstrap", s.bootstrapAdmin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.logout)
				r.Get("/me", s.me)
			})
		})

		// Public session watch. Citizens follow the live dispute without
		// an account.
		r.Get("/session/watch", s.watchEndpoint)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/tenders", func(r chi.Router) {
				r.Post("/", s.createTender)
				r.Get("/", s.listTenders)
				r.Get("/{tenderId}", s.getTender)
				r.Post("/{tenderId}/publish", s.publishTender)
				r.Post("/{tenderId}/start-session", s.startTenderSession)
				r.Post("/{tenderId}/finish-session", s.finishTenderSession)
				r.Post("/{tenderId}/chat", s.setChat)
				r.Post("/{tenderId}/lots", s.createLot)
				r.Get("/{tenderId}/lots", s.listLots)
			})

			r.Route("/lots/{lotId}", func(r chi.Router) {
				r.Get("/", s.getLot)
				r.Post("/open-proposals", s.openProposals)
				r.Post("/start-dispute", s.startDispute)
				r.Post("/end-dispute", s.endDispute)
				r.Post("/start-negotiation", s.startNegotiation)
				r.Post("/declare-winner", s.declareWinner)
				r.Post("/open-resource-phase", s.openResourcePhase)
				r.Post("/adjudicate", s.adjudicate)
				r.Post("/homologate", s.homologate)
				r.Post("/revoke", s.revokeLot)
				r.Post("/cancel", s.cancelLot)
				r.Post("/timer", s.startLotTimer)
				r.Delete("/timer", s.cancelLotTimer)

				r.Post("/participations", s.registerParticipation)
				r.Get("/participations", s.listParticipations)
				r.Post("/participations/{participationId}/disqualify", s.disqualifySupplier)
				r.Post("/participations/{participationId}/reclassify", s.reclassifySupplier)

				r.Post("/bids", s.submitBid)
				r.Get("/bids", s.listBids)
				r.Get("/best-bid", s.bestBid)

				r.Post("/resources", s.manifestResource)
				r.Get("/resources", s.listResources)
			})

			r.Post("/bids/{bidId}/cancel", s.cancelBid)

			r.Route("/resources/{resourceId}", func(r chi.Router) {
				r.Post("/submit", s.submitResource)
				r.Post("/counter-arguments", s.submitCounterArgument)
				r.Get("/counter-arguments", s.listCounterArguments)
				r.Post("/judge", s.judgeResource)
			})

			r.Route("/session", func(r chi.Router) {
				r.Post("/messages", s.postMessage)
				r.Get("/messages", s.listMessages)
				r.Get("/events", s.listEvents)
				r.Get("/stream", s.streamEndpoint)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Post("/", s.createUser)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Get("/", s.listUsers)
				r.Get("/{userId}", s.getUser)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Patch("/{userId}", s.updateUser)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Put("/{userId}/password", s.setUserPassword)
			})

			r.Route("/admin", func(r chi.Router) {
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Get("/audit", s.queryAudit)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Get("/audit/{auditId}", s.getAudit)
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondDomainError maps sentinel errors onto the HTTP error envelope.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	respondError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domainUser.ErrUnauthorized):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domainLot.ErrTerminalState):
		return http.StatusConflict, "TERMINAL_STATE"
	case errors.Is(err, domainLot.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domainLot.ErrNoClassifiedSuppliers),
		errors.Is(err, domainLot.ErrNoActiveBids),
		errors.Is(err, domainLot.ErrNoWinner),
		errors.Is(err, domainLot.ErrJustificationRequired),
		errors.Is(err, domainLot.ErrInvalidParticipation),
		errors.Is(err, domainLot.ErrSupplierAlreadyJoined),
		errors.Is(err, domainLot.ErrParticipationNotOnLot):
		return http.StatusUnprocessableEntity, "INVALID_PARAM"
	case errors.Is(err, domainBid.ErrNotCompetitive):
		return http.StatusUnprocessableEntity, "BID_NOT_COMPETITIVE"
	case errors.Is(err, domainBid.ErrNotPending),
		errors.Is(err, domainBid.ErrInvalidValue):
		return http.StatusUnprocessableEntity, "INVALID_PARAM"
	case errors.Is(err, domainBid.ErrNotSubmitter):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domainResource.ErrDeadlinePassed):
		return http.StatusUnprocessableEntity, "DEADLINE_PASSED"
	case errors.Is(err, domainResource.ErrPhaseViolation):
		return http.StatusConflict, "PHASE_VIOLATION"
	case errors.Is(err, domainResource.ErrOwnResource),
		errors.Is(err, domainResource.ErrWinnerCannotAppeal),
		errors.Is(err, domainResource.ErrInvalidDecision),
		errors.Is(err, domainResource.ErrContentRequired):
		return http.StatusUnprocessableEntity, "INVALID_PARAM"
	case errors.Is(err, dispute.ErrChatDisabled):
		return http.StatusConflict, "CHAT_DISABLED"
	case errors.Is(err, domainTender.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domainTender.ErrInvalidCriteria),
		errors.Is(err, domainTender.ErrInvalidPolicy):
		return http.StatusUnprocessableEntity, "INVALID_PARAM"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func parseUUID(val string) (uuid.UUID, error) {
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
