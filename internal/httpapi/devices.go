package httpapi

import (
	"net/http"

	"procodus.dev/fleet-inventory/internal/inventory"
)

func (a *api) createDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	dev, err := a.svc.CreateDevice(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

func (a *api) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := a.svc.ListDevices(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (a *api) listOrphanDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := a.svc.ListOrphanDevices(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (a *api) getDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	dev, err := a.svc.GetDevice(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (a *api) updateDevice(w http.ResponseWriter, r *http.Request) {
	id, paramErr := parseUUIDParam(r, "id")

	var req updateDeviceRequest
	if err := collectValidation(paramErr, decodeBody(r, &req)); err != nil {
		a.writeError(w, r, err)
		return
	}

	in := inventory.UpdateDeviceInput{
		Vendor:       req.Vendor,
		LastSeenAt:   req.LastSeenAt,
		DeviceTypeID: req.DeviceTypeID,
	}
	if req.Status != nil {
		status := inventory.DeviceStatus(*req.Status)
		in.Status = &status
	}

	dev, err := a.svc.UpdateDevice(r.Context(), id, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (a *api) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.DeleteDevice(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
