// Package tribute はTribute購読レジストリとの連携機能を提供する。
// 固定エンドポイントへの認証付き一括取得APIクライアントを含む。
package tribute

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// apiKeyHeader はTribute APIの認証ヘッダー名。
const apiKeyHeader = "Api-Key"

// Subscriber はレジストリが報告する購読エントリ。
// ExpireAtはワイヤーフォーマットのまま保持し、判定時に解析する。
type Subscriber struct {
	TelegramUserID int64  `json:"telegramUserId"`
	Status         string `json:"status"`
	ExpireAt       string `json:"expireAt"`
}

// listResponse は購読者一括取得APIのレスポンスボディ。
type listResponse struct {
	Result []Subscriber `json:"result"`
}

// IsActive はエントリのステータスが有効購読を示すかを返す。
func (s Subscriber) IsActive() bool {
	return s.Status == "active"
}

// ExpiresAfter は有効期限がnowより厳密に後かを返す。
// 期限がnowと等しい場合は期限切れとして扱う。
// ISO-8601形式（末尾Zは明示的なUTCオフセットに正規化して解析）以外は
// 不正エントリとしてfalseを返し、アクセスを許可しない。
func (s Subscriber) ExpiresAfter(now time.Time) bool {
	raw := s.ExpireAt
	if strings.HasSuffix(raw, "Z") {
		raw = strings.TrimSuffix(raw, "Z") + "+00:00"
	}
	expireAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	return expireAt.After(now)
}

// Client はTribute購読レジストリのAPIクライアント。
// 1回のGETで全購読者を取得する。リトライ・バックオフ・キャッシュは行わない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	apiKey     string
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointには購読者一括取得APIのURL、apiKeyには静的APIキーを指定する。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

// ListSubscribers は全購読者エントリを一括取得する。
// 到達失敗（接続エラー・タイムアウト・非2xx）はREMOTE_UNAVAILABLE、
// レスポンス解析失敗はREMOTE_MALFORMEDのmodel.APIErrorを返す。
func (c *Client) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, model.NewRemoteUnavailableError(err.Error())
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Tribute APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewRemoteUnavailableError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Tribute APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewRemoteUnavailableError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewRemoteUnavailableError(err.Error())
	}

	var result listResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("Tribute APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewRemoteMalformedError(err.Error())
	}
	if result.Result == nil {
		c.logger.Error("Tribute APIのレスポンスにresultフィールドがありません")
		return nil, model.NewRemoteMalformedError("missing result field")
	}

	return result.Result, nil
}
