package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// JoinQR serves a PNG QR code encoding the join link for a room, for hosts to
// put up on a shared screen.
func (h *Handler) JoinQR(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}

	joinURL := fmt.Sprintf("%s/room/%s", h.baseURL(r), actor.Code())
	png, err := generateQRCode(joinURL)
	if err != nil {
		h.logger.Error("qr generation failed", "room", actor.Code(), "error", err)
		http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=300")
	w.Write(png)
}

// generateQRCode renders a URL as a PNG with medium error correction.
func generateQRCode(url string) ([]byte, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// The standard writer only targets files, so go through a temp file.
	tmpFile := fmt.Sprintf("%s/qr_%d.png", os.TempDir(), time.Now().UnixNano())
	wr, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}
	if err := qrc.Save(wr); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	os.Remove(tmpFile)
	return data, nil
}

// baseURL picks the externally visible origin: the configured public base URL
// when set, otherwise derived from the request and its forwarding headers.
func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg != nil && h.cfg.Server.PublicBaseURL != "" {
		return h.cfg.Server.PublicBaseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}
