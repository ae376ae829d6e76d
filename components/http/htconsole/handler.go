package htconsole

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
	"github.com/open-peripheral-systems/device-console/components/device/devnet"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/device/devusb"
	"github.com/open-peripheral-systems/device-console/components/http/htcore"
	"github.com/open-peripheral-systems/device-console/components/scan"
	"github.com/open-peripheral-systems/device-console/components/status"
	"github.com/open-peripheral-systems/device-console/components/storage/stcore"
)

// HandlerParams groups the collaborators of the console API.
type HandlerParams struct {
	Registry    *devreg.Registry
	Manager     *devnet.Manager
	Controller  *devusb.Controller
	Bridge      *devusb.Bridge
	Runner      *scan.Runner
	History     *scan.History
	Extractions *scan.ExtractionHistory
	AI          aicore.Client

	// Settings is the opaque key-value settings store,
	// bucket stcore.BucketSettings.
	Settings stcore.DB
}

// Handler is the HTTP surface of the console.
//
// The handler is glue: every endpoint decodes the request, delegates to a
// collaborator and maps the result onto the wire.
type Handler struct {
	params HandlerParams
}

// NewHandler is a Handler initialization.
func NewHandler(params HandlerParams) *Handler {
	return &Handler{params: params}
}

// Router builds the API route table.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)

		r.Get("/devices", h.handleListDevices)
		r.Get("/devices/{id}", h.handleGetDevice)
		r.Post("/devices/network", h.handleAddNetworkDevice)
		r.Put("/devices/network/{id}", h.handleEditNetworkDevice)
		r.Delete("/devices/network/{id}", h.handleRemoveNetworkDevice)

		r.Post("/devices/{id}/connect", h.handleConnect)
		r.Post("/devices/{id}/disconnect", h.handleDisconnect)
		r.Post("/devices/{id}/scan", h.handleScan)
		r.Post("/devices/{id}/print", h.handlePrint)

		r.Get("/scans", h.handleScanHistory)
		r.Get("/extractions", h.handleExtractionHistory)
		r.Get("/extractions/export", h.handleExtractionExport)

		r.Post("/ai/troubleshoot", h.handleTroubleshoot)
		r.Post("/ai/analyze", h.handleAnalyze)
		r.Post("/ai/extract", h.handleExtract)
		r.Post("/ai/image", h.handleGenerateImage)
		r.Get("/ai/chat", h.handleChat)

		r.Get("/events", h.handleEvents)

		r.Get("/settings", h.handleGetSettings)
		r.Put("/settings", h.handlePutSettings)
	})

	return r
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	htcore.WriteJSON(w, http.StatusOK, map[string]any{
		"usb_supported": h.params.Bridge.Supported(),
	})
}

func (h *Handler) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := h.params.Registry.Devices()

	htcore.WriteJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := h.params.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, dev)
}

func (h *Handler) handleAddNetworkDevice(w http.ResponseWriter, r *http.Request) {
	var payload devnet.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	dev, err := h.params.Manager.Add(r.Context(), payload)
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusCreated, dev)
}

func (h *Handler) handleEditNetworkDevice(w http.ResponseWriter, r *http.Request) {
	var payload devnet.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	dev, err := h.params.Manager.Edit(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, dev)
}

func (h *Handler) handleRemoveNetworkDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.params.Manager.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeOpError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.params.Controller.Connect(id); err != nil {
		writeOpError(w, err)

		return
	}

	dev, err := h.params.Registry.Get(id)
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, dev)
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.params.Controller.Disconnect(id); err != nil {
		writeOpError(w, err)

		return
	}

	dev, err := h.params.Registry.Get(id)
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, dev)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	record, err := h.params.Runner.Scan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	record, err := h.params.Runner.Print(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleScanHistory(w http.ResponseWriter, _ *http.Request) {
	records, err := h.params.History.List()
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (h *Handler) handleExtractionHistory(w http.ResponseWriter, _ *http.Request) {
	records, err := h.params.Extractions.List()
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (h *Handler) handleExtractionExport(w http.ResponseWriter, _ *http.Request) {
	records, err := h.params.Extractions.List()
	if err != nil {
		writeOpError(w, err)

		return
	}

	buf := scan.ExportCSV(records)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="extractions.csv"`)
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(buf)
}

func (h *Handler) handleTroubleshoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceName string `json:"device_name"`
		Issue      string `json:"issue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	steps, err := h.params.AI.TroubleshootSteps(r.Context(), req.DeviceName, req.Issue)
	if err != nil {
		writeAIError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, map[string]any{"steps": steps})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeImageRequest(w, r)
	if !ok {
		return
	}

	text, err := h.params.AI.AnalyzeImage(r.Context(), req.image, req.MIMEType, req.Prompt)
	if err != nil {
		writeAIError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeImageRequest(w, r)
	if !ok {
		return
	}

	record, err := h.params.AI.ExtractFields(r.Context(), req.image, req.MIMEType)
	if err != nil {
		writeAIError(w, err)

		return
	}

	stored, err := h.params.Extractions.Append(record)
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt      string `json:"prompt"`
		AspectRatio string `json:"aspect_ratio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	image, mimeType, err := h.params.AI.GenerateImage(r.Context(), req.Prompt, req.AspectRatio)
	if err != nil {
		writeAIError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, map[string]string{
		"mime_type": mimeType,
		"image":     base64.StdEncoding.EncodeToString(image),
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	settings := make(map[string]string)

	err := h.params.Settings.ForEach(func(key string, b stcore.Blob) error {
		settings[key] = string(b.Data)

		return nil
	})
	if err != nil {
		writeOpError(w, err)

		return
	}

	htcore.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings map[string]string
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	for key, value := range settings {
		if err := h.params.Settings.Write(key, stcore.Blob{Data: []byte(value)}); err != nil {
			writeOpError(w, err)

			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

type imageRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mime_type"`
	Prompt   string `json:"prompt"`

	image []byte
}

func decodeImageRequest(w http.ResponseWriter, r *http.Request) (imageRequest, bool) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "invalid JSON body")

		return imageRequest{}, false
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		htcore.WriteError(w, http.StatusBadRequest, "image must be base64 encoded")

		return imageRequest{}, false
	}
	if len(image) == 0 {
		htcore.WriteError(w, http.StatusBadRequest, "image must not be empty")

		return imageRequest{}, false
	}

	req.image = image

	if req.MIMEType == "" {
		req.MIMEType = "image/png"
	}

	return req, true
}

// writeOpError maps the error taxonomy onto HTTP status codes.
func writeOpError(w http.ResponseWriter, err error) {
	var validationErr *status.ValidationError
	if errors.As(err, &validationErr) {
		htcore.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})

		return
	}

	var conflictErr *status.ConflictError
	if errors.As(err, &conflictErr) {
		htcore.WriteJSON(w, http.StatusConflict, map[string]string{
			"error": conflictErr.Error(),
			"field": conflictErr.Field,
		})

		return
	}

	switch {
	case errors.Is(err, status.StatusNoData):
		htcore.WriteError(w, http.StatusNotFound, "not found")

	case errors.Is(err, status.StatusNotSupported):
		htcore.WriteError(w, http.StatusNotImplemented, err.Error())

	case errors.Is(err, status.StatusInvalidState):
		htcore.WriteError(w, http.StatusConflict, err.Error())

	default:
		htcore.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeAIError surfaces an external-service failure as a visible message.
//
// AI failures never crash the caller, the response is a labeled error string
// with a gateway status.
func writeAIError(w http.ResponseWriter, err error) {
	htcore.WriteError(w, http.StatusBadGateway, "AI service error: "+err.Error())
}
