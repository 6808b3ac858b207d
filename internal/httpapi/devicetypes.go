package httpapi

import (
	"net/http"

	"procodus.dev/fleet-inventory/internal/inventory"
)

func (a *api) createDeviceType(w http.ResponseWriter, r *http.Request) {
	var req createDeviceTypeRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	dt, err := a.svc.CreateDeviceType(r.Context(), inventory.CreateDeviceTypeInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dt)
}

func (a *api) listDeviceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := a.svc.ListDeviceTypes(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (a *api) getDeviceType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	dt, err := a.svc.GetDeviceType(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dt)
}

func (a *api) updateDeviceType(w http.ResponseWriter, r *http.Request) {
	id, paramErr := parseIntParam(r, "id")

	var req updateDeviceTypeRequest
	if err := collectValidation(paramErr, decodeBody(r, &req)); err != nil {
		a.writeError(w, r, err)
		return
	}

	dt, err := a.svc.UpdateDeviceType(r.Context(), id, inventory.UpdateDeviceTypeInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dt)
}

func (a *api) deleteDeviceType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.DeleteDeviceType(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
