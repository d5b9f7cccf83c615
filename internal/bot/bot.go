// Package bot はTelegram Botのロングポーリングアダプタを提供する。
// 購読検証済み利用者へのMini App誘導と、管理者の対話フローの
// 仲介を行う。購読検証はポーリングループから切り離したgoroutineで
// 実行し、リモート照会の遅延がBot全体の応答を塞がないようにする。
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/WTWB-none/book-tg-bot/internal/admin"
)

// TelegramAPI はtgbotapi.BotAPIのうちBotが利用する操作のインターフェース。
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// VerifierService は購読検証サービスのインターフェース。
// HTTP API側と同一のVerifierインスタンスを共有する。
type VerifierService interface {
	IsAuthorized(ctx context.Context, telegramUserID int64) bool
}

// AdminEngineService は管理者対話フローエンジンのインターフェース。
type AdminEngineService interface {
	IsAdmin(userID int64) bool
	Menu(userID int64) admin.Reply
	HandleCallback(ctx context.Context, userID int64, data string) (admin.Reply, bool)
	HandleText(ctx context.Context, userID int64, text string) (admin.Reply, bool)
	Cancel(userID int64) admin.Reply
}

// Config はBotの動作設定。
type Config struct {
	// WebAppURL はMini Appのベースとなる公開URL。
	WebAppURL string
	// MaxConcurrentVerify は購読検証の最大並列数。0以下の場合は16。
	MaxConcurrentVerify int
	// SendRate は1秒あたりのメッセージ送信上限。0以下の場合は25。
	SendRate float64
}

// Bot はTelegram Botのロングポーリングループ。
type Bot struct {
	api      TelegramAPI
	verifier VerifierService
	engine   AdminEngineService
	logger   *slog.Logger

	webAppURL string
	limiter   *rate.Limiter
	verifySem chan struct{}
	wg        sync.WaitGroup
}

// New はBotの新しいインスタンスを生成する。
func New(api TelegramAPI, verifier VerifierService, engine AdminEngineService, logger *slog.Logger, cfg Config) *Bot {
	maxConcurrent := cfg.MaxConcurrentVerify
	if maxConcurrent <= 0 {
		maxConcurrent = 16
	}
	sendRate := cfg.SendRate
	if sendRate <= 0 {
		sendRate = 25
	}
	return &Bot{
		api:       api,
		verifier:  verifier,
		engine:    engine,
		logger:    logger,
		webAppURL: cfg.WebAppURL,
		limiter:   rate.NewLimiter(rate.Limit(sendRate), 1),
		verifySem: make(chan struct{}, maxConcurrent),
	}
}

// Run はロングポーリングループを起動する。
// コンテキストがキャンセルされるまで更新を処理し続ける。
// 停止時は実行中の検証goroutineの完了を待つ。
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Botポーリングを開始しました")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("Botポーリングを停止しました")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate は1件の更新をディスパッチする。
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.dispatchVerify(ctx, msg.Chat.ID, msg.From.ID,
				fmt.Sprintf(textWelcome, msg.From.FirstName), buttonOpenLibrary)
		case "catalog":
			b.dispatchVerify(ctx, msg.Chat.ID, msg.From.ID,
				textCatalog, buttonOpenCatalog)
		case "admin":
			b.sendReply(ctx, msg.Chat.ID, b.engine.Menu(msg.From.ID))
		case "cancel":
			if b.engine.IsAdmin(msg.From.ID) {
				b.sendReply(ctx, msg.Chat.ID, b.engine.Cancel(msg.From.ID))
			}
		}
		return
	}

	// コマンド以外のテキストは進行中の管理フローにのみ渡す
	if reply, handled := b.engine.HandleText(ctx, msg.From.ID, msg.Text); handled {
		b.sendReply(ctx, msg.Chat.ID, reply)
	}
}

// handleCallback はインラインボタンのコールバックを処理する。
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// ボタンのローディング表示を止める
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("コールバック応答に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	if cq.From == nil || cq.Message == nil {
		return
	}

	if reply, handled := b.engine.HandleCallback(ctx, cq.From.ID, cq.Data); handled {
		b.sendReply(ctx, cq.Message.Chat.ID, reply)
	}
}

// dispatchVerify は購読検証をポーリングループ外のgoroutineで実行し、
// 結果に応じてMini App誘導または購読案内を送信する。
// semaphoreの取得もgoroutine側で行うため、並列数の上限に達していても
// ポーリングループは次の更新を処理し続けられる。
func (b *Bot) dispatchVerify(ctx context.Context, chatID, userID int64, grantedText, buttonLabel string) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		b.verifySem <- struct{}{}
		defer func() { <-b.verifySem }()

		if !b.verifier.IsAuthorized(ctx, userID) {
			b.send(ctx, tgbotapi.NewMessage(chatID, textNoSubscription))
			return
		}

		msg := tgbotapi.NewMessage(chatID, grantedText)
		msg.ReplyMarkup = newWebAppKeyboard(buttonLabel, BuildWebAppURL(b.webAppURL, userID))
		b.send(ctx, msg)
	}()
}

// webAppKeyboard はMini Appを開くweb_appボタン1つを持つインラインキーボード。
// 依存ライブラリのInlineKeyboardButtonにはweb_appフィールドがないため、
// reply_markupへそのままJSON化される独自構造体で組み立てる。
type webAppKeyboard struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

type webAppButton struct {
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

func newWebAppKeyboard(label, url string) webAppKeyboard {
	return webAppKeyboard{
		InlineKeyboard: [][]webAppButton{
			{{Text: label, WebApp: webAppInfo{URL: url}}},
		},
	}
}

// sendReply は管理フローエンジンの応答をTelegramメッセージに変換して送信する。
func (b *Bot) sendReply(ctx context.Context, chatID int64, reply admin.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)

	if len(reply.Buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
		for _, row := range reply.Buttons {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.CallbackData))
			}
			rows = append(rows, buttons)
		}
		msg.ReplyMarkup = tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	b.send(ctx, msg)
}

// send はレート制限を適用してメッセージを送信する。
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("メッセージ送信に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// BuildWebAppURL はMini Appの起動URLを組み立てる。
// ベースURLの末尾にスラッシュを補い、uidクエリパラメータを付与する。
func BuildWebAppURL(baseURL string, telegramUserID int64) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return fmt.Sprintf("%s?uid=%d", baseURL, telegramUserID)
}
