package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
)

// GetActions lists the configured actions of a router.
// GET /api/v1/routers/{name}/actions
func (h *Handler) GetActions(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	out := make([]ActionInfo, 0, len(inst.Actions))
	for _, n := range inst.Actions {
		out = append(out, ActionInfo{
			Name:        n.Name,
			Kind:        n.Action.Kind(),
			Description: n.Action.String(),
		})
	}
	writeJSONData(w, out)
}

// RunAction executes a configured action and waits for the router to accept it.
// POST /api/v1/routers/{name}/actions/{action}
func (h *Handler) RunAction(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "action")
	action, found := actions.Find(inst.Actions, name)
	if !found {
		WriteNotFound(w, "action "+name)
		return
	}

	if err := inst.Dispatcher.Run(r.Context(), action); err != nil {
		WriteRouterError(w, err)
		return
	}
	writeJSONData(w, ActionResponse{Router: inst.Name(), Action: action.String(), Status: "sent"})
}

// ExecuteAction resolves an ad-hoc action and runs it in the background.
// The outcome is logged and counted, never reported back.
// POST /api/v1/routers/{name}/actions
func (h *Handler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	var req ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid request body: "+err.Error())
		return
	}

	action, err := actions.Resolve(req.Kind, req.Params)
	if err != nil {
		WriteRouterError(w, err)
		return
	}

	ctx, cancel := detached(r.Context())
	h.spawn(func() {
		defer cancel()
		inst.Dispatcher.Execute(ctx, action)
	})

	writeJSON(w, http.StatusAccepted, ActionResponse{Router: inst.Name(), Action: action.String(), Status: "accepted"})
}
