// Package subscription は購読状態の検証ロジックを提供する。
// ローカル許可リストとTribute購読レジストリを統合した唯一の許可判定を含む。
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/WTWB-none/book-tg-bot/internal/model"
	"github.com/WTWB-none/book-tg-bot/internal/tribute"
)

// AllowListChecker は許可リスト照会のインターフェース。
// repository.SubscriberRepositoryの部分集合として定義する。
type AllowListChecker interface {
	IsAllowed(ctx context.Context, telegramUserID int64) (bool, error)
}

// RegistryClient は購読レジストリ照会のインターフェース。
type RegistryClient interface {
	ListSubscribers(ctx context.Context) ([]tribute.Subscriber, error)
}

// DecisionRecorder は許可判定の結果を記録するインターフェース。
// metrics.Collectorが実装する。
type DecisionRecorder interface {
	RecordVerifyDecision(outcome string)
	RecordRemoteFailure(code string)
}

// 許可判定結果のメトリクスラベル。
const (
	OutcomeAllowList    = "allowlist"
	OutcomeRemoteActive = "remote_active"
	OutcomeDenied       = "denied"
)

// Verifier は購読検証のサービス層。
// Botとウェブ APIの両方がこの同一インスタンスを通じて判定する。
// 判定ロジックの独立した再実装は両者の方針乖離を招くため禁止する。
type Verifier struct {
	allowList AllowListChecker
	registry  RegistryClient
	logger    *slog.Logger
	recorder  DecisionRecorder

	// now はテスト用に差し替え可能な現在時刻取得関数。
	now func() time.Time
}

// NewVerifier はVerifierの新しいインスタンスを生成する。
// recorderはnilを許容する（メトリクス収集なしで動作する）。
func NewVerifier(allowList AllowListChecker, registry RegistryClient, logger *slog.Logger, recorder DecisionRecorder) *Verifier {
	return &Verifier{
		allowList: allowList,
		registry:  registry,
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
	}
}

// IsAuthorized は指定ユーザーがコンテンツにアクセス可能かを返す。
//
// 判定順序:
//  1. 許可リストに存在すればtrue（レジストリ照会を省略する）。
//  2. レジストリを照会し、status == "active" かつ有効期限が現在時刻（UTC）より
//     厳密に後のエントリが見つかればtrue。期限が現在時刻と等しい場合は期限切れ。
//     条件を満たす最初のエントリが採用される。
//
// レジストリ照会の失敗（到達不可・解析不能）はすべてfalseに吸収する
// （フェイルクローズ）。エラーは呼び出し元に伝播しない。
func (v *Verifier) IsAuthorized(ctx context.Context, telegramUserID int64) bool {
	allowed, err := v.allowList.IsAllowed(ctx, telegramUserID)
	if err != nil {
		// 許可リスト照会の失敗はレジストリ照会にフォールバックする
		v.logger.Error("許可リストの照会に失敗しました",
			slog.Int64("telegram_user_id", telegramUserID),
			slog.String("error", err.Error()),
		)
	} else if allowed {
		v.record(OutcomeAllowList)
		return true
	}

	subs, err := v.registry.ListSubscribers(ctx)
	if err != nil {
		v.logger.Warn("レジストリ照会に失敗したためアクセスを拒否します",
			slog.Int64("telegram_user_id", telegramUserID),
			slog.String("error", err.Error()),
		)
		v.recordRemoteFailure(err)
		v.record(OutcomeDenied)
		return false
	}

	now := v.now().UTC()
	for _, sub := range subs {
		if sub.TelegramUserID != telegramUserID {
			continue
		}
		if sub.IsActive() && sub.ExpiresAfter(now) {
			v.record(OutcomeRemoteActive)
			return true
		}
		// 条件を満たさない同一IDエントリは走査を止めない
	}

	v.record(OutcomeDenied)
	return false
}

// record は判定結果をメトリクスに記録する。
func (v *Verifier) record(outcome string) {
	if v.recorder != nil {
		v.recorder.RecordVerifyDecision(outcome)
	}
}

// recordRemoteFailure はレジストリ照会の失敗種別をメトリクスに記録する。
func (v *Verifier) recordRemoteFailure(err error) {
	if v.recorder == nil {
		return
	}
	code := "UNKNOWN"
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	v.recorder.RecordRemoteFailure(code)
}
