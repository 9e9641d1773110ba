package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"referral-bot/internal/store"
)

// Server is the minimal web surface for device verification: a health
// check, the verify page and the JSON endpoint the page posts to.
type Server struct {
	Store *store.Store
}

func NewServer(st *store.Store) *Server {
	return &Server{Store: st}
}

func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/verify", s.handleVerifyPage)
	mux.HandleFunc("/api/verify", s.handleVerifyAPI)
	return mux
}

func (s *Server) Start(addr string) error {
	log.Printf("Web verification server listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleVerifyPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(verifyHTML))
}

type verifyRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
}

type verifyResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	TgID    *int64 `json:"tg_id"`
}

func (s *Server) handleVerifyAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Failed to decode verify request: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if req.Token == "" || req.DeviceID == "" {
		writeJSON(w, http.StatusOK, verifyResponse{OK: false, Message: "Missing token/device."})
		return
	}

	tgID, err := s.Store.VerifyDevice(r.Context(), req.Token, req.DeviceID)
	resp := verifyResponse{}
	if tgID != 0 {
		resp.TgID = &tgID
	}

	switch {
	case err == nil:
		resp.OK = true
		resp.Message = "Verified successfully. Now go back and click Check Verification."
	case errors.Is(err, store.ErrInvalidToken):
		resp.Message = "Invalid or expired token."
	case errors.Is(err, store.ErrDeviceConflict):
		resp.Message = "This device is already verified with another account."
	case errors.Is(err, store.ErrAccountConflict):
		resp.Message = "This Telegram ID is already verified on a different device."
	default:
		log.Printf("Verification failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, verifyResponse{Message: "Verification failed. Try again later."})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
