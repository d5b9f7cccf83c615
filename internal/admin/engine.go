// Package admin は管理者向けコンテンツ作成フローの会話エンジンを提供する。
// フローはユーザーIDごとに独立した状態機械として管理され、
// 各ステップで入力を検証し、最終ステップでのみ永続化する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// FlowKind は会話フローの種別を表す。
type FlowKind string

const (
	// FlowAddBook は書籍追加フロー。
	FlowAddBook FlowKind = "add_book"
	// FlowAddChapter は章追加フロー。
	FlowAddChapter FlowKind = "add_chapter"
	// FlowAddSubscriber は購読者手動追加フロー。
	FlowAddSubscriber FlowKind = "add_subscriber"
)

// コールバックデータ。Bot側のボタンと対応する。
const (
	CallbackAddBook       = "admin_addbook"
	CallbackAddChapter    = "admin_addchapter"
	CallbackAddSubscriber = "admin_addsubscriber"
	callbackChoosePrefix  = "choose_book_"
)

// step はフロー内の現在位置を表す。
type step int

const (
	stepBookTitle step = iota
	stepBookDescription
	stepBookCover
	stepChooseBook
	stepChapterTitle
	stepChapterContent
	stepSubscriberID
)

// conversation は1ユーザー分の会話状態。
// そのフローで収集済みのフィールドのみを保持する。
type conversation struct {
	flow FlowKind
	step step

	bookTitle       string
	bookDescription string

	chapterBookID int64
	chapterTitle  string
}

// Button は返信に添付するインラインボタンを表す。
type Button struct {
	Label        string
	CallbackData string
}

// Reply はエンジンがトランスポートへ返す応答。
// Buttonsは行ごとのボタン配列（空の場合はテキストのみ）。
type Reply struct {
	Text    string
	Buttons [][]Button
}

// BookStore は書籍の列挙・検証・作成インターフェース。
// repository.BookRepositoryの部分集合として定義する。
type BookStore interface {
	ListSummaries(ctx context.Context) ([]model.BookSummary, error)
	FindByID(ctx context.Context, id int64) (*model.BookSummary, error)
	Create(ctx context.Context, title, description string, coverURL *string) (int64, error)
}

// ChapterCreator は章の作成インターフェース。
type ChapterCreator interface {
	Create(ctx context.Context, bookID int64, title, content string) (int64, error)
}

// AllowListStore は許可リストの照会・追加インターフェース。
type AllowListStore interface {
	IsAllowed(ctx context.Context, telegramUserID int64) (bool, error)
	Add(ctx context.Context, telegramUserID int64) error
}

// FlowRecorder はフロー完了結果を記録するインターフェース。
// metrics.Collectorが実装する。
type FlowRecorder interface {
	RecordFlowCompletion(flow string, result string)
}

// フロー完了結果のメトリクスラベル。
const (
	resultSuccess          = "success"
	resultValidationFailed = "validation_failed"
	resultNotFound         = "not_found"
	resultPersistenceError = "persistence_error"
	resultCancelled        = "cancelled"
)

// noCoverTokens は「表紙なし」を意味する入力（小文字比較）。
var noCoverTokens = map[string]struct{}{
	"нет":  {},
	"no":   {},
	"none": {},
	"":     {},
}

// Engine は管理者会話フローの状態機械。
// 会話状態はユーザーIDをキーとするマップで保持し、
// 他ユーザーの並行フローから参照・変更されることはない。
type Engine struct {
	admins      map[int64]struct{}
	books       BookStore
	chapters    ChapterCreator
	subscribers AllowListStore
	logger      *slog.Logger
	recorder    FlowRecorder

	mu     sync.Mutex
	states map[int64]*conversation
}

// NewEngine はEngineの新しいインスタンスを生成する。
// adminIDsが管理者権限を持つ唯一の識別子集合となる（起動時に固定）。
// recorderはnilを許容する。
func NewEngine(
	adminIDs []int64,
	books BookStore,
	chapters ChapterCreator,
	subscribers AllowListStore,
	logger *slog.Logger,
	recorder FlowRecorder,
) *Engine {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Engine{
		admins:      admins,
		books:       books,
		chapters:    chapters,
		subscribers: subscribers,
		logger:      logger,
		recorder:    recorder,
		states:      make(map[int64]*conversation),
	}
}

// IsAdmin は指定IDが管理者集合に含まれるかを返す。
func (e *Engine) IsAdmin(userID int64) bool {
	_, ok := e.admins[userID]
	return ok
}

// Menu は管理パネルの応答を返す。
// 管理者以外には拒否メッセージを返し、状態は作成しない。
func (e *Engine) Menu(userID int64) Reply {
	if !e.IsAdmin(userID) {
		return Reply{Text: textNoAccess}
	}
	return Reply{
		Text: textMenu,
		Buttons: [][]Button{
			{{Label: buttonAddBook, CallbackData: CallbackAddBook}},
			{{Label: buttonAddChapter, CallbackData: CallbackAddChapter}},
			{{Label: buttonAddSubscriber, CallbackData: CallbackAddSubscriber}},
		},
	}
}

// HandleCallback はインラインボタン押下を処理する。
// フロー起動（admin_*）と書籍選択（choose_book_*）を受け付ける。
// 未知のデータの場合はhandled=falseを返し、応答は送信しない。
func (e *Engine) HandleCallback(ctx context.Context, userID int64, data string) (Reply, bool) {
	switch data {
	case CallbackAddBook:
		return e.startFlow(ctx, userID, FlowAddBook), true
	case CallbackAddChapter:
		return e.startFlow(ctx, userID, FlowAddChapter), true
	case CallbackAddSubscriber:
		return e.startFlow(ctx, userID, FlowAddSubscriber), true
	}

	if bookID, ok := parseChooseBook(data); ok {
		return e.handleBookChosen(ctx, userID, bookID)
	}

	return Reply{}, false
}

// HandleText はテキスト入力を処理する。
// アクティブな会話が存在しない場合はhandled=falseを返す。
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (Reply, bool) {
	e.mu.Lock()
	conv, ok := e.states[userID]
	e.mu.Unlock()
	if !ok {
		return Reply{}, false
	}

	switch conv.step {
	case stepBookTitle:
		return e.handleBookTitle(userID, conv, text), true
	case stepBookDescription:
		return e.handleBookDescription(userID, conv, text), true
	case stepBookCover:
		return e.handleBookCover(ctx, userID, conv, text), true
	case stepChooseBook:
		// 書籍はボタンで選択する。テキスト入力には選択肢を再提示する。
		return e.presentBookChoices(ctx, userID), true
	case stepChapterTitle:
		return e.handleChapterTitle(userID, conv, text), true
	case stepChapterContent:
		return e.handleChapterContent(ctx, userID, conv, text), true
	case stepSubscriberID:
		return e.handleSubscriberID(ctx, userID, text), true
	}

	return Reply{}, false
}

// Cancel は進行中のフローを中断し、収集済みフィールドを破棄する。
// 任意の非アイドル状態から有効。フローがない場合も同じ応答を返す。
func (e *Engine) Cancel(userID int64) Reply {
	e.mu.Lock()
	conv, hadFlow := e.states[userID]
	delete(e.states, userID)
	e.mu.Unlock()

	if hadFlow {
		e.recordCompletion(conv.flow, resultCancelled)
	}
	return Reply{Text: textCancelled}
}

// InFlow は指定ユーザーにアクティブな会話が存在するかを返す。
func (e *Engine) InFlow(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.states[userID]
	return ok
}

// startFlow はフローを起動する。管理者以外は拒否し、状態を作成しない。
// 進行中のフローがある場合は新しいフローで上書きする
// （管理者を固まったフローに閉じ込めないための明示的な方針）。
func (e *Engine) startFlow(ctx context.Context, userID int64, kind FlowKind) Reply {
	if !e.IsAdmin(userID) {
		return Reply{Text: textNoAccess}
	}

	switch kind {
	case FlowAddBook:
		e.setState(userID, &conversation{flow: FlowAddBook, step: stepBookTitle})
		return Reply{Text: textBookTitlePrompt}

	case FlowAddChapter:
		return e.presentBookChoices(ctx, userID)

	case FlowAddSubscriber:
		e.setState(userID, &conversation{flow: FlowAddSubscriber, step: stepSubscriberID})
		return Reply{Text: textSubscriberIDPrompt}
	}

	return Reply{Text: textNoAccess}
}

// presentBookChoices は既存書籍を列挙して選択ボタンを提示する。
// 書籍が1冊もない場合はフローを作成せず即座に終了する。
func (e *Engine) presentBookChoices(ctx context.Context, userID int64) Reply {
	summaries, err := e.books.ListSummaries(ctx)
	if err != nil {
		e.logger.Error("書籍一覧の取得に失敗しました",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		summaries = nil
	}

	if len(summaries) == 0 {
		e.clearState(userID)
		return Reply{Text: textNoBooks}
	}

	buttons := make([][]Button, 0, len(summaries))
	for _, s := range summaries {
		buttons = append(buttons, []Button{{
			Label:        s.Title,
			CallbackData: fmt.Sprintf("%s%d", callbackChoosePrefix, s.ID),
		}})
	}

	e.setState(userID, &conversation{flow: FlowAddChapter, step: stepChooseBook})
	return Reply{Text: textChooseBook, Buttons: buttons}
}

// handleBookChosen は書籍選択コールバックを処理する。
// ChooseBookステップ以外で届いた選択は無視する。
func (e *Engine) handleBookChosen(ctx context.Context, userID, bookID int64) (Reply, bool) {
	e.mu.Lock()
	conv, ok := e.states[userID]
	if !ok || conv.step != stepChooseBook {
		e.mu.Unlock()
		return Reply{}, false
	}
	conv.chapterBookID = bookID
	conv.step = stepChapterTitle
	e.mu.Unlock()

	return Reply{Text: textChapterTitlePrompt}, true
}

// --- 書籍追加フロー ---

func (e *Engine) handleBookTitle(userID int64, conv *conversation, text string) Reply {
	title := strings.TrimSpace(text)
	if title == "" {
		// 空タイトルは検証失敗としてフローを中断する
		e.clearState(userID)
		e.recordCompletion(FlowAddBook, resultValidationFailed)
		return Reply{Text: textBookTitleMissing}
	}

	e.mu.Lock()
	conv.bookTitle = title
	conv.step = stepBookDescription
	e.mu.Unlock()

	return Reply{Text: textBookDescriptionPrompt}
}

func (e *Engine) handleBookDescription(userID int64, conv *conversation, text string) Reply {
	e.mu.Lock()
	conv.bookDescription = strings.TrimSpace(text)
	conv.step = stepBookCover
	e.mu.Unlock()

	return Reply{Text: textBookCoverPrompt}
}

func (e *Engine) handleBookCover(ctx context.Context, userID int64, conv *conversation, text string) Reply {
	coverInput := strings.TrimSpace(text)

	var coverURL *string
	if _, none := noCoverTokens[strings.ToLower(coverInput)]; !none {
		// URLの検証は行わず入力をそのまま保存する
		coverURL = &coverInput
	}

	e.mu.Lock()
	title := conv.bookTitle
	description := conv.bookDescription
	e.mu.Unlock()
	e.clearState(userID)

	bookID, err := e.books.Create(ctx, title, description, coverURL)
	if err != nil {
		e.logger.Error("書籍の作成に失敗しました",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		e.recordCompletion(FlowAddBook, resultPersistenceError)
		return Reply{Text: textBookAddFailed}
	}

	e.logger.Info("書籍を追加しました",
		slog.Int64("user_id", userID),
		slog.Int64("book_id", bookID),
	)
	e.recordCompletion(FlowAddBook, resultSuccess)
	return Reply{Text: fmt.Sprintf(textBookAdded, title, bookID)}
}

// --- 章追加フロー ---

func (e *Engine) handleChapterTitle(userID int64, conv *conversation, text string) Reply {
	title := strings.TrimSpace(text)
	if title == "" {
		e.clearState(userID)
		e.recordCompletion(FlowAddChapter, resultValidationFailed)
		return Reply{Text: textChapterStateLost}
	}

	e.mu.Lock()
	conv.chapterTitle = title
	conv.step = stepChapterContent
	e.mu.Unlock()

	return Reply{Text: textChapterBodyPrompt}
}

func (e *Engine) handleChapterContent(ctx context.Context, userID int64, conv *conversation, text string) Reply {
	e.mu.Lock()
	bookID := conv.chapterBookID
	title := conv.chapterTitle
	e.mu.Unlock()
	e.clearState(userID)

	// 選択から送信までの間に書籍が削除された競合に備え、
	// 永続化前に書籍の存在を再検証する
	book, err := e.books.FindByID(ctx, bookID)
	if err != nil {
		e.logger.Error("書籍の再検証に失敗しました",
			slog.Int64("user_id", userID),
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
		e.recordCompletion(FlowAddChapter, resultPersistenceError)
		return Reply{Text: textChapterAddFailed}
	}
	if book == nil {
		e.recordCompletion(FlowAddChapter, resultNotFound)
		return Reply{Text: textChapterBookNotFound}
	}

	// 本文はマークアップ変換せずそのまま保存する
	chapterID, err := e.chapters.Create(ctx, bookID, title, text)
	if err != nil {
		e.logger.Error("章の作成に失敗しました",
			slog.Int64("user_id", userID),
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
		e.recordCompletion(FlowAddChapter, resultPersistenceError)
		return Reply{Text: textChapterAddFailed}
	}

	e.logger.Info("章を追加しました",
		slog.Int64("user_id", userID),
		slog.Int64("book_id", bookID),
		slog.Int64("chapter_id", chapterID),
	)
	e.recordCompletion(FlowAddChapter, resultSuccess)
	return Reply{Text: fmt.Sprintf(textChapterAdded, title, bookID, chapterID)}
}

// --- 購読者追加フロー ---

// handleSubscriberID は購読者IDの入力を処理する。
// 整数として解析できない入力は状態を変更せず同じステップを再提示する
// （再入力ループを持つ唯一のステップ）。
func (e *Engine) handleSubscriberID(ctx context.Context, userID int64, text string) Reply {
	subscriberID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return Reply{Text: textSubscriberIDInvalid}
	}

	e.clearState(userID)

	exists, err := e.subscribers.IsAllowed(ctx, subscriberID)
	if err != nil {
		e.logger.Error("許可リストの照会に失敗しました",
			slog.Int64("user_id", userID),
			slog.Int64("subscriber_id", subscriberID),
			slog.String("error", err.Error()),
		)
		e.recordCompletion(FlowAddSubscriber, resultPersistenceError)
		return Reply{Text: textSubscriberAddFailed}
	}
	if exists {
		e.recordCompletion(FlowAddSubscriber, resultSuccess)
		return Reply{Text: fmt.Sprintf(textSubscriberExists, subscriberID)}
	}

	if err := e.subscribers.Add(ctx, subscriberID); err != nil {
		e.logger.Error("許可リストへの追加に失敗しました",
			slog.Int64("user_id", userID),
			slog.Int64("subscriber_id", subscriberID),
			slog.String("error", err.Error()),
		)
		e.recordCompletion(FlowAddSubscriber, resultPersistenceError)
		return Reply{Text: textSubscriberAddFailed}
	}

	e.logger.Info("購読者を手動追加しました",
		slog.Int64("user_id", userID),
		slog.Int64("subscriber_id", subscriberID),
	)
	e.recordCompletion(FlowAddSubscriber, resultSuccess)
	return Reply{Text: fmt.Sprintf(textSubscriberAdded, subscriberID)}
}

// --- 状態管理 ---

func (e *Engine) setState(userID int64, conv *conversation) {
	e.mu.Lock()
	e.states[userID] = conv
	e.mu.Unlock()
}

func (e *Engine) clearState(userID int64) {
	e.mu.Lock()
	delete(e.states, userID)
	e.mu.Unlock()
}

func (e *Engine) recordCompletion(flow FlowKind, result string) {
	if e.recorder == nil {
		return
	}
	e.recorder.RecordFlowCompletion(string(flow), result)
}

// parseChooseBook はchoose_book_<id>形式のコールバックデータを解析する。
func parseChooseBook(data string) (int64, bool) {
	if !strings.HasPrefix(data, callbackChoosePrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, callbackChoosePrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
