package api

import (
	"net/http"

	"github.com/maksimkurb/openwrt-monitor/src/internal/coordinator"
)

// GetRouters lists every router with its poll status.
// GET /api/v1/routers
func (h *Handler) GetRouters(w http.ResponseWriter, r *http.Request) {
	deps := h.provider.Dependencies()
	statuses := []coordinator.Status{}
	if deps != nil {
		for _, inst := range deps.Instances() {
			statuses = append(statuses, inst.Coordinator.Status())
		}
	}
	writeJSONData(w, statuses)
}

// GetSnapshot returns the last good snapshot.
// GET /api/v1/routers/{name}/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	snap := inst.Coordinator.Data()
	if snap == nil {
		WriteUnavailable(w, "no data has been fetched from router "+inst.Name()+" yet")
		return
	}

	writeJSONData(w, SnapshotResponse{
		Router:    inst.Name(),
		Mode:      snap.Mode,
		FetchedAt: snap.FetchedAt,
		Identity:  snap.Identity,
		Values:    snap,
	})
}

// GetDevice returns the identity of the router.
// GET /api/v1/routers/{name}/device
func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	snap := inst.Coordinator.Data()
	if snap == nil {
		WriteUnavailable(w, "device identity of router "+inst.Name()+" is not known yet")
		return
	}
	writeJSONData(w, snap.Identity.WithDefaults())
}

// Refresh runs a poll cycle now and returns its snapshot.
// Concurrent refreshes of one router share a single cycle.
// POST /api/v1/routers/{name}/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	snap, err := inst.Coordinator.Refresh(r.Context())
	if err != nil {
		WriteRouterError(w, err)
		return
	}

	writeJSONData(w, SnapshotResponse{
		Router:    inst.Name(),
		Mode:      snap.Mode,
		FetchedAt: snap.FetchedAt,
		Identity:  snap.Identity,
		Values:    snap,
	})
}
