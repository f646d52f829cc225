package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chatrelay/models"
	"chatrelay/responses"
	"chatrelay/utils"
)

const defaultHistoryLimit = 50

// FetchRecentMessages serves the newest archived frames. Only available
// when the relay was started with an archive DSN.
func (r *Relay) FetchRecentMessages(w http.ResponseWriter, req *http.Request) {
	if r.archive == nil {
		utils.HandleError(w, responses.NotFoundError{Msg: "Message archive is not configured."})
		return
	}

	limit := defaultHistoryLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.HandleError(w, responses.BadRequestError{Msg: "limit must be a positive integer."})
			return
		}
		limit = n
	}

	messages, err := r.archive.RecentMessages(limit)
	if err != nil {
		r.log.Error("history query failed", zap.Error(err))
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to fetch messages."})
		return
	}

	utils.HandleSuccess(w, models.SuccessResponse(messages))
}
