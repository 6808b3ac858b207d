package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"procodus.dev/fleet-inventory/internal/inventory"
)

func (a *api) createGateway(w http.ResponseWriter, r *http.Request) {
	var req createGatewayRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	gw, err := a.svc.CreateGateway(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gw)
}

func (a *api) listGateways(w http.ResponseWriter, r *http.Request) {
	gateways, err := a.svc.ListGateways(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gateways)
}

func (a *api) getGateway(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	gw, err := a.svc.GetGateway(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gw)
}

func (a *api) updateGateway(w http.ResponseWriter, r *http.Request) {
	id, paramErr := parseUUIDParam(r, "id")

	var req updateGatewayRequest
	if err := collectValidation(paramErr, decodeBody(r, &req)); err != nil {
		a.writeError(w, r, err)
		return
	}

	in := inventory.UpdateGatewayInput{
		Name:        req.Name,
		IPv4Address: req.IPv4Address,
		Location:    req.Location,
	}
	if req.Status != nil {
		status := inventory.GatewayStatus(*req.Status)
		in.Status = &status
	}

	gw, err := a.svc.UpdateGateway(r.Context(), id, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gw)
}

func (a *api) deleteGateway(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.DeleteGateway(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) attachDevice(w http.ResponseWriter, r *http.Request) {
	gatewayID, paramErr := parseUUIDParam(r, "id")

	var req attachDeviceRequest
	if err := collectValidation(paramErr, decodeBody(r, &req)); err != nil {
		a.writeError(w, r, err)
		return
	}
	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		a.writeError(w, r, singleIssue("body.deviceId", "Invalid UUID", codeInvalidFormat))
		return
	}

	dev, err := a.svc.AttachDevice(r.Context(), gatewayID, deviceID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (a *api) detachDevice(w http.ResponseWriter, r *http.Request) {
	gatewayID, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	deviceID, err := parseUUIDParam(r, "deviceId")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	dev, err := a.svc.DetachDevice(r.Context(), gatewayID, deviceID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (a *api) listGatewayLogs(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	logs, err := a.svc.ListGatewayLogs(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (a *api) listAllLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.ListAllLogs(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
