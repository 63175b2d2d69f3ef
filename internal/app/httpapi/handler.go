// Package httpapi exposes the gateway's REST surface.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/services/finance"
	"github.com/hustleboard/hustleboard/internal/app/services/identity"
	"github.com/hustleboard/hustleboard/internal/app/services/projects"
	"github.com/hustleboard/hustleboard/internal/app/services/tracker"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/httputil"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// Handler serves the v1 API.
type Handler struct {
	identity *identity.Service
	projects *projects.Service
	tracker  *tracker.Service
	finance  *finance.Service
	log      *logging.Logger
	started  time.Time
}

// New creates the handler.
func New(id *identity.Service, proj *projects.Service, trk *tracker.Service, fin *finance.Service, log *logging.Logger) *Handler {
	return &Handler{
		identity: id,
		projects: proj,
		tracker:  trk,
		finance:  fin,
		log:      log,
		started:  time.Now(),
	}
}

// Routes registers all v1 routes on the router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/v1/auth/nonce", h.handleNonce).Methods(http.MethodPost)
	r.HandleFunc("/v1/auth/signin", h.handleSignIn).Methods(http.MethodPost)

	r.HandleFunc("/v1/me", h.handleMe).Methods(http.MethodGet)

	r.HandleFunc("/v1/projects", h.handleListProjects).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects", h.handleCreateProject).Methods(http.MethodPost)
	r.HandleFunc("/v1/projects/{id}", h.handleGetProject).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects/{id}", h.handleUpdateProject).Methods(http.MethodPatch)
	r.HandleFunc("/v1/projects/{id}", h.handleDeleteProject).Methods(http.MethodDelete)
	r.HandleFunc("/v1/projects/{id}/signal", h.handleSetSignal).Methods(http.MethodPut)
	r.HandleFunc("/v1/projects/{id}/sessions", h.handleListProjectSessions).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects/{id}/income", h.handleListIncome).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects/{id}/income", h.handleRecordIncome).Methods(http.MethodPost)
	r.HandleFunc("/v1/projects/{id}/expenses", h.handleListExpenses).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects/{id}/expenses", h.handleRecordExpense).Methods(http.MethodPost)

	r.HandleFunc("/v1/sessions", h.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions", h.handleStartSession).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/active", h.handleActiveSession).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{id}/stop", h.handleStopSession).Methods(http.MethodPost)

	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return errors.Validation("invalid request body").WithDetails("reason", err.Error())
	}
	return nil
}

func userID(r *http.Request) string {
	return logging.GetUserID(r.Context())
}

func (h *Handler) handleNonce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	nonce, err := h.identity.Nonce(r.Context(), req.WalletAddress)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"nonce": nonce})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		Signature     string `json:"signature"`
		FarcasterFID  string `json:"farcaster_fid"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	token, u, err := h.identity.SignIn(r.Context(), req.WalletAddress, req.Signature)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	if req.FarcasterFID != "" {
		if _, err := h.identity.ResolveOrCreate(r.Context(), req.WalletAddress, req.FarcasterFID); err != nil {
			h.log.WithError(err).Warn("attach farcaster fid failed")
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.identity.GetUser(r.Context(), userID(r))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.List(r.Context(), userID(r))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	views := make([]*projectView, 0, len(list))
	for _, p := range list {
		views = append(views, newProjectView(p))
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	p, err := h.projects.Create(r.Context(), userID(r), req.Name, req.Category)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newProjectView(p))
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newProjectView(p))
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Status   *string `json:"status"`
		Category *string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	patch := project.Patch{Name: req.Name}
	if req.Status != nil {
		s := project.Status(*req.Status)
		patch.Status = &s
	}
	if req.Category != nil {
		c := project.Category(*req.Category)
		patch.Category = &c
	}

	p, err := h.projects.Update(r.Context(), userID(r), mux.Vars(r)["id"], patch)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newProjectView(p))
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetSignal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Signal string `json:"signal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	p, err := h.projects.SetSignal(r.Context(), userID(r), mux.Vars(r)["id"], project.Signal(req.Signal))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newProjectView(p))
}

func (h *Handler) handleListProjectSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.tracker.ListForProject(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteServiceError(w, errors.Validation("from must be RFC3339"))
			return
		}
		from = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteServiceError(w, errors.Validation("to must be RFC3339"))
			return
		}
		to = &t
	}

	list, err := h.tracker.ListForUser(r.Context(), userID(r), from, to)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
		Category  string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	sess, err := h.tracker.Start(r.Context(), userID(r), req.ProjectID, req.Category)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleStopSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OnChainProof string `json:"on_chain_proof"`
	}
	// Stop allows an empty body.
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			httputil.WriteServiceError(w, err)
			return
		}
	}

	sess, err := h.tracker.Stop(r.Context(), userID(r), mux.Vars(r)["id"], req.OnChainProof)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.tracker.Active(r.Context(), userID(r))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	if sess == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newActiveSessionView(sess, h.tracker.Elapsed(sess)))
}

func (h *Handler) handleRecordIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    float64   `json:"amount"`
		Source    string    `json:"source"`
		Date      time.Time `json:"date"`
		Recurring bool      `json:"is_recurring"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	e, err := h.finance.RecordIncome(r.Context(), userID(r), mux.Vars(r)["id"], req.Amount, req.Source, req.Date, req.Recurring)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleListIncome(w http.ResponseWriter, r *http.Request) {
	list, err := h.finance.ListIncome(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   float64   `json:"amount"`
		Category string    `json:"category"`
		Date     time.Time `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}

	e, err := h.finance.RecordExpense(r.Context(), userID(r), mux.Vars(r)["id"], req.Amount, req.Category, req.Date)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := h.finance.ListExpenses(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}
