package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatrelay/models"
	"chatrelay/utils"
)

func NewRouter(relay *Relay) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", relay.WsHandler)
	r.HandleFunc("/healthz", relay.Healthz).Methods("GET")
	r.HandleFunc("/api/messages", relay.FetchRecentMessages).Methods("GET")

	return r
}

func (r *Relay) Healthz(w http.ResponseWriter, req *http.Request) {
	utils.HandleSuccess(w, models.SuccessResponse(map[string]interface{}{
		"status": "ok",
		"online": r.registry.Len(),
	}))
}
