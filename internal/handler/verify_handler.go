package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// VerifierInterface は購読検証ハンドラーが必要とするサービスインターフェース。
// Botコマンド経路と同一のVerifierインスタンスを共有する。
type VerifierInterface interface {
	// IsAuthorized は利用者IDの購読可否を返す。失敗時はfalseに倒す。
	IsAuthorized(ctx context.Context, telegramUserID int64) bool
}

// VerifyHandler は購読検証のHTTPハンドラー。
type VerifyHandler struct {
	verifier VerifierInterface
}

// NewVerifyHandler はVerifyHandlerを生成する。
func NewVerifyHandler(verifier VerifierInterface) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

// verifyResponse は購読検証のレスポンス。
type verifyResponse struct {
	Subscribed bool `json:"subscribed"`
}

// Verify は利用者の購読可否を検証する。
// GET /api/verify/:telegramUserId
// 判定に失敗した場合もsubscribed=falseの200レスポンスを返す。
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, err := strconv.ParseInt(chi.URLParam(r, "telegramUserId"), 10, 64)
	if err != nil {
		json.NewEncoder(w).Encode(verifyResponse{Subscribed: false})
		return
	}

	json.NewEncoder(w).Encode(verifyResponse{
		Subscribed: h.verifier.IsAuthorized(r.Context(), userID),
	})
}
