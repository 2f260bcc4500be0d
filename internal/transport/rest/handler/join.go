package handler

import (
	"log"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

// JoinHandler serves the join link and its QR code for the host display
type JoinHandler struct {
	baseURL string
}

// NewJoinHandler creates a new join handler
func NewJoinHandler(baseURL string) *JoinHandler {
	return &JoinHandler{baseURL: baseURL}
}

func (h *JoinHandler) joinURL() string {
	return h.baseURL + "/join"
}

// Link handles GET /v1/join/link
func (h *JoinHandler) Link(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": h.joinURL()})
}

// QR handles GET /v1/join/qr, returning a PNG for the lobby screen. An
// optional ?size= overrides the default 256px edge.
func (h *JoinHandler) QR(w http.ResponseWriter, r *http.Request) {
	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	png, err := qrcode.Encode(h.joinURL(), qrcode.Medium, size)
	if err != nil {
		log.Printf("QR encode failed: %v", err)
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
