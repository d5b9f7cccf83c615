package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// --- モック ---

type mockBookStore struct {
	listFn   func(ctx context.Context) ([]model.BookSummary, error)
	findFn   func(ctx context.Context, id int64) (*model.BookSummary, error)
	createFn func(ctx context.Context, title, description string, coverURL *string) (int64, error)
}

func (m *mockBookStore) ListSummaries(ctx context.Context) ([]model.BookSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockBookStore) FindByID(ctx context.Context, id int64) (*model.BookSummary, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return &model.BookSummary{Book: model.Book{ID: id}}, nil
}

func (m *mockBookStore) Create(ctx context.Context, title, description string, coverURL *string) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, title, description, coverURL)
	}
	return 1, nil
}

type mockChapterCreator struct {
	createFn func(ctx context.Context, bookID int64, title, content string) (int64, error)
}

func (m *mockChapterCreator) Create(ctx context.Context, bookID int64, title, content string) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, bookID, title, content)
	}
	return 1, nil
}

type mockAllowListStore struct {
	isAllowedFn func(ctx context.Context, id int64) (bool, error)
	addFn       func(ctx context.Context, id int64) error
	added       []int64
}

func (m *mockAllowListStore) IsAllowed(ctx context.Context, id int64) (bool, error) {
	if m.isAllowedFn != nil {
		return m.isAllowedFn(ctx, id)
	}
	return false, nil
}

func (m *mockAllowListStore) Add(ctx context.Context, id int64) error {
	m.added = append(m.added, id)
	if m.addFn != nil {
		return m.addFn(ctx, id)
	}
	return nil
}

const adminID int64 = 100

func newTestEngine(books *mockBookStore, chapters *mockChapterCreator, subscribers *mockAllowListStore) *Engine {
	if books == nil {
		books = &mockBookStore{}
	}
	if chapters == nil {
		chapters = &mockChapterCreator{}
	}
	if subscribers == nil {
		subscribers = &mockAllowListStore{}
	}
	return NewEngine([]int64{adminID}, books, chapters, subscribers, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

// --- 権限ゲート ---

// TestEngine_Menu_NonAdmin_Denied は管理者以外に拒否応答を返し、
// 状態を作成しないことを検証する。
func TestEngine_Menu_NonAdmin_Denied(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	reply := e.Menu(999)
	if reply.Text != textNoAccess {
		t.Errorf("Text = %q, want %q", reply.Text, textNoAccess)
	}
	if len(reply.Buttons) != 0 {
		t.Error("expected no buttons for non-admin")
	}
}

func TestEngine_Menu_Admin_ThreeActions(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	reply := e.Menu(adminID)
	if reply.Text != textMenu {
		t.Errorf("Text = %q, want %q", reply.Text, textMenu)
	}
	if len(reply.Buttons) != 3 {
		t.Fatalf("buttons rows = %d, want 3", len(reply.Buttons))
	}
}

func TestEngine_StartFlow_NonAdmin_NoStateCreated(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	reply, handled := e.HandleCallback(context.Background(), 999, CallbackAddBook)
	if !handled {
		t.Fatal("expected callback to be handled")
	}
	if reply.Text != textNoAccess {
		t.Errorf("Text = %q, want %q", reply.Text, textNoAccess)
	}
	if e.InFlow(999) {
		t.Error("expected no conversation state for non-admin")
	}
}

// --- 書籍追加フロー ---

// TestEngine_AddBook_NoCover は「нет」入力が表紙なし（nil）として
// 保存されることを検証する。
func TestEngine_AddBook_NoCover(t *testing.T) {
	var gotTitle, gotDescription string
	var gotCover *string
	books := &mockBookStore{
		createFn: func(ctx context.Context, title, description string, coverURL *string) (int64, error) {
			gotTitle, gotDescription, gotCover = title, description, coverURL
			return 5, nil
		},
	}
	e := newTestEngine(books, nil, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleText(ctx, adminID, "T")
	e.HandleText(ctx, adminID, "")
	reply, handled := e.HandleText(ctx, adminID, "нет")

	if !handled {
		t.Fatal("expected text to be handled")
	}
	if gotTitle != "T" {
		t.Errorf("title = %q, want %q", gotTitle, "T")
	}
	if gotDescription != "" {
		t.Errorf("description = %q, want empty", gotDescription)
	}
	if gotCover != nil {
		t.Errorf("coverURL = %v, want nil", *gotCover)
	}
	want := fmt.Sprintf(textBookAdded, "T", int64(5))
	if reply.Text != want {
		t.Errorf("Text = %q, want %q", reply.Text, want)
	}
	if e.InFlow(adminID) {
		t.Error("expected flow to be finished")
	}
}

// TestEngine_AddBook_CoverTokens は表紙なしトークンの大文字小文字無視を検証する。
func TestEngine_AddBook_CoverTokens(t *testing.T) {
	for _, token := range []string{"НЕТ", "No", "NONE", ""} {
		t.Run("token_"+token, func(t *testing.T) {
			var gotCover *string
			created := false
			books := &mockBookStore{
				createFn: func(ctx context.Context, title, description string, coverURL *string) (int64, error) {
					created = true
					gotCover = coverURL
					return 1, nil
				},
			}
			e := newTestEngine(books, nil, nil)
			ctx := context.Background()

			e.HandleCallback(ctx, adminID, CallbackAddBook)
			e.HandleText(ctx, adminID, "Book")
			e.HandleText(ctx, adminID, "desc")
			e.HandleText(ctx, adminID, token)

			if !created {
				t.Fatal("expected book to be created")
			}
			if gotCover != nil {
				t.Errorf("coverURL = %q, want nil", *gotCover)
			}
		})
	}
}

// TestEngine_AddBook_CoverURLStoredVerbatim は表紙URLが検証なしで
// そのまま保存されることを検証する。
func TestEngine_AddBook_CoverURLStoredVerbatim(t *testing.T) {
	var gotCover *string
	books := &mockBookStore{
		createFn: func(ctx context.Context, title, description string, coverURL *string) (int64, error) {
			gotCover = coverURL
			return 1, nil
		},
	}
	e := newTestEngine(books, nil, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleText(ctx, adminID, "T")
	e.HandleText(ctx, adminID, "d")
	e.HandleText(ctx, adminID, "http://x/y.png")

	if gotCover == nil || *gotCover != "http://x/y.png" {
		t.Errorf("coverURL = %v, want %q", gotCover, "http://x/y.png")
	}
}

// TestEngine_AddBook_EmptyTitle_Aborts は空タイトルがフローを中断することを検証する。
func TestEngine_AddBook_EmptyTitle_Aborts(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddBook)
	reply, _ := e.HandleText(ctx, adminID, "   ")

	if reply.Text != textBookTitleMissing {
		t.Errorf("Text = %q, want %q", reply.Text, textBookTitleMissing)
	}
	if e.InFlow(adminID) {
		t.Error("expected flow to be aborted")
	}
}

// TestEngine_AddBook_PersistenceFailure はストレージ失敗時に汎用メッセージを返し、
// 状態をクリアすることを検証する。
func TestEngine_AddBook_PersistenceFailure(t *testing.T) {
	books := &mockBookStore{
		createFn: func(ctx context.Context, title, description string, coverURL *string) (int64, error) {
			return 0, errors.New("insert failed")
		},
	}
	e := newTestEngine(books, nil, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleText(ctx, adminID, "T")
	e.HandleText(ctx, adminID, "d")
	reply, _ := e.HandleText(ctx, adminID, "нет")

	if reply.Text != textBookAddFailed {
		t.Errorf("Text = %q, want %q", reply.Text, textBookAddFailed)
	}
	if e.InFlow(adminID) {
		t.Error("expected flow state to be cleared after persistence failure")
	}
}

// --- 章追加フロー ---

// TestEngine_AddChapter_NoBooks は書籍が存在しない場合に
// フローを作成せず即座に終了することを検証する。
func TestEngine_AddChapter_NoBooks(t *testing.T) {
	books := &mockBookStore{
		listFn: func(ctx context.Context) ([]model.BookSummary, error) {
			return nil, nil
		},
	}
	e := newTestEngine(books, nil, nil)

	reply, handled := e.HandleCallback(context.Background(), adminID, CallbackAddChapter)
	if !handled {
		t.Fatal("expected callback to be handled")
	}
	if reply.Text != textNoBooks {
		t.Errorf("Text = %q, want %q", reply.Text, textNoBooks)
	}
	if e.InFlow(adminID) {
		t.Error("expected no conversation state when no books exist")
	}
}

// TestEngine_AddChapter_FullFlow は章追加フローの正常系を検証する。
func TestEngine_AddChapter_FullFlow(t *testing.T) {
	books := &mockBookStore{
		listFn: func(ctx context.Context) ([]model.BookSummary, error) {
			return []model.BookSummary{
				{Book: model.Book{ID: 7, Title: "Seven"}},
				{Book: model.Book{ID: 8, Title: "Eight"}},
			}, nil
		},
	}
	var gotBookID int64
	var gotTitle, gotContent string
	chapters := &mockChapterCreator{
		createFn: func(ctx context.Context, bookID int64, title, content string) (int64, error) {
			gotBookID, gotTitle, gotContent = bookID, title, content
			return 3, nil
		},
	}
	e := newTestEngine(books, chapters, nil)
	ctx := context.Background()

	reply, _ := e.HandleCallback(ctx, adminID, CallbackAddChapter)
	if reply.Text != textChooseBook {
		t.Errorf("Text = %q, want %q", reply.Text, textChooseBook)
	}
	if len(reply.Buttons) != 2 {
		t.Fatalf("buttons rows = %d, want 2", len(reply.Buttons))
	}
	if reply.Buttons[0][0].CallbackData != "choose_book_7" {
		t.Errorf("CallbackData = %q, want %q", reply.Buttons[0][0].CallbackData, "choose_book_7")
	}

	reply, handled := e.HandleCallback(ctx, adminID, "choose_book_7")
	if !handled || reply.Text != textChapterTitlePrompt {
		t.Fatalf("choose_book reply = %q (handled=%v)", reply.Text, handled)
	}

	e.HandleText(ctx, adminID, "Глава 1")
	reply, _ = e.HandleText(ctx, adminID, "<b>текст</b> главы")

	if gotBookID != 7 {
		t.Errorf("bookID = %d, want 7", gotBookID)
	}
	if gotTitle != "Глава 1" {
		t.Errorf("title = %q, want %q", gotTitle, "Глава 1")
	}
	if gotContent != "<b>текст</b> главы" {
		t.Errorf("content = %q, want verbatim input", gotContent)
	}
	want := fmt.Sprintf(textChapterAdded, "Глава 1", int64(7), int64(3))
	if reply.Text != want {
		t.Errorf("Text = %q, want %q", reply.Text, want)
	}
}

// TestEngine_AddChapter_BookDeletedBeforePersist は選択後に書籍が削除された場合、
// 永続化せずに中断することを検証する。
func TestEngine_AddChapter_BookDeletedBeforePersist(t *testing.T) {
	books := &mockBookStore{
		listFn: func(ctx context.Context) ([]model.BookSummary, error) {
			return []model.BookSummary{{Book: model.Book{ID: 7, Title: "Seven"}}}, nil
		},
		findFn: func(ctx context.Context, id int64) (*model.BookSummary, error) {
			return nil, nil // 削除済み
		},
	}
	chapterCreated := false
	chapters := &mockChapterCreator{
		createFn: func(ctx context.Context, bookID int64, title, content string) (int64, error) {
			chapterCreated = true
			return 1, nil
		},
	}
	e := newTestEngine(books, chapters, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddChapter)
	e.HandleCallback(ctx, adminID, "choose_book_7")
	e.HandleText(ctx, adminID, "Глава")
	reply, _ := e.HandleText(ctx, adminID, "текст")

	if chapterCreated {
		t.Error("expected no chapter row to be created")
	}
	if reply.Text != textChapterBookNotFound {
		t.Errorf("Text = %q, want %q", reply.Text, textChapterBookNotFound)
	}
	if e.InFlow(adminID) {
		t.Error("expected flow state to be cleared")
	}
}

// TestEngine_ChooseBookCallback_OutsideFlow_Ignored はフロー外の
// 書籍選択コールバックが無視されることを検証する。
func TestEngine_ChooseBookCallback_OutsideFlow_Ignored(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	_, handled := e.HandleCallback(context.Background(), adminID, "choose_book_7")
	if handled {
		t.Error("expected choose_book outside a flow to be ignored")
	}
}

// --- 購読者追加フロー ---

// TestEngine_AddSubscriber_InvalidInput_Reprompts は非数値入力が状態を変えず
// 同じステップを再提示することを検証する。
func TestEngine_AddSubscriber_InvalidInput_Reprompts(t *testing.T) {
	subscribers := &mockAllowListStore{}
	e := newTestEngine(nil, nil, subscribers)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddSubscriber)
	reply, handled := e.HandleText(ctx, adminID, "abc")

	if !handled {
		t.Fatal("expected text to be handled")
	}
	if reply.Text != textSubscriberIDInvalid {
		t.Errorf("Text = %q, want %q", reply.Text, textSubscriberIDInvalid)
	}
	if !e.InFlow(adminID) {
		t.Fatal("expected flow to remain active after invalid input")
	}

	// 再入力で成功する
	reply, _ = e.HandleText(ctx, adminID, "42")
	want := fmt.Sprintf(textSubscriberAdded, int64(42))
	if reply.Text != want {
		t.Errorf("Text = %q, want %q", reply.Text, want)
	}
	if len(subscribers.added) != 1 || subscribers.added[0] != 42 {
		t.Errorf("added = %v, want [42]", subscribers.added)
	}
}

// TestEngine_AddSubscriber_AlreadyPresent は既存IDの重複挿入を行わず、
// 「既に存在する」旨を報告することを検証する。
func TestEngine_AddSubscriber_AlreadyPresent(t *testing.T) {
	subscribers := &mockAllowListStore{
		isAllowedFn: func(ctx context.Context, id int64) (bool, error) {
			return true, nil
		},
	}
	e := newTestEngine(nil, nil, subscribers)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddSubscriber)
	reply, _ := e.HandleText(ctx, adminID, "42")

	want := fmt.Sprintf(textSubscriberExists, int64(42))
	if reply.Text != want {
		t.Errorf("Text = %q, want %q", reply.Text, want)
	}
	if len(subscribers.added) != 0 {
		t.Errorf("added = %v, want no insertions", subscribers.added)
	}
}

// --- 横断的な規則 ---

// TestEngine_Cancel_ClearsCollectedFields はキャンセルが収集済みフィールドを
// 破棄し、次のフローが空の状態から始まることを検証する。
func TestEngine_Cancel_ClearsCollectedFields(t *testing.T) {
	var gotTitle string
	books := &mockBookStore{
		createFn: func(ctx context.Context, title, description string, coverURL *string) (int64, error) {
			gotTitle = title
			return 1, nil
		},
	}
	e := newTestEngine(books, nil, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleText(ctx, adminID, "Старое название")

	reply := e.Cancel(adminID)
	if reply.Text != textCancelled {
		t.Errorf("Text = %q, want %q", reply.Text, textCancelled)
	}
	if e.InFlow(adminID) {
		t.Fatal("expected state to be cleared after cancel")
	}

	// 新しいフローは空の状態から始まる
	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleText(ctx, adminID, "Новое название")
	e.HandleText(ctx, adminID, "d")
	e.HandleText(ctx, adminID, "нет")

	if gotTitle != "Новое название" {
		t.Errorf("title = %q, want %q (no leakage from cancelled attempt)", gotTitle, "Новое название")
	}
}

// TestEngine_IdentityIsolation は複数ユーザーの並行フローが互いに
// 干渉しないことを検証する。
func TestEngine_IdentityIsolation(t *testing.T) {
	const otherAdmin int64 = 200
	var titles []string
	books := &mockBookStore{
		createFn: func(ctx context.Context, title, description string, coverURL *string) (int64, error) {
			titles = append(titles, title)
			return int64(len(titles)), nil
		},
	}
	e := NewEngine([]int64{adminID, otherAdmin}, books, &mockChapterCreator{}, &mockAllowListStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	ctx := context.Background()

	// 2人の管理者のフローを交互に進める
	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleCallback(ctx, otherAdmin, CallbackAddBook)
	e.HandleText(ctx, adminID, "Книга А")
	e.HandleText(ctx, otherAdmin, "Книга Б")
	e.HandleText(ctx, adminID, "описание А")
	e.HandleText(ctx, otherAdmin, "описание Б")
	e.HandleText(ctx, adminID, "нет")
	e.HandleText(ctx, otherAdmin, "нет")

	if len(titles) != 2 {
		t.Fatalf("created books = %d, want 2", len(titles))
	}
	if titles[0] != "Книга А" || titles[1] != "Книга Б" {
		t.Errorf("titles = %v, want [Книга А Книга Б]", titles)
	}
}

// TestEngine_SecondFlowOverwritesFirst は進行中フロー中の新規フロー起動が
// 既存状態を上書きすることを検証する。
func TestEngine_SecondFlowOverwritesFirst(t *testing.T) {
	subscribers := &mockAllowListStore{}
	e := newTestEngine(nil, nil, subscribers)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddBook)
	e.HandleText(ctx, adminID, "T")

	// 書籍追加の途中で購読者追加を起動する
	reply, _ := e.HandleCallback(ctx, adminID, CallbackAddSubscriber)
	if reply.Text != textSubscriberIDPrompt {
		t.Fatalf("Text = %q, want %q", reply.Text, textSubscriberIDPrompt)
	}

	reply, _ = e.HandleText(ctx, adminID, "42")
	want := fmt.Sprintf(textSubscriberAdded, int64(42))
	if reply.Text != want {
		t.Errorf("Text = %q, want %q", reply.Text, want)
	}
}

// TestEngine_HandleText_NoActiveFlow はフロー外のテキストが
// 処理されないことを検証する。
func TestEngine_HandleText_NoActiveFlow(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	_, handled := e.HandleText(context.Background(), adminID, "случайный текст")
	if handled {
		t.Error("expected text outside a flow to be unhandled")
	}
}

// TestEngine_ChooseBookStep_TextReprompts はChooseBookステップでの
// テキスト入力に選択肢を再提示することを検証する。
func TestEngine_ChooseBookStep_TextReprompts(t *testing.T) {
	books := &mockBookStore{
		listFn: func(ctx context.Context) ([]model.BookSummary, error) {
			return []model.BookSummary{{Book: model.Book{ID: 7, Title: "Seven"}}}, nil
		},
	}
	e := newTestEngine(books, nil, nil)
	ctx := context.Background()

	e.HandleCallback(ctx, adminID, CallbackAddChapter)
	reply, handled := e.HandleText(ctx, adminID, "seven please")

	if !handled {
		t.Fatal("expected text to be handled")
	}
	if reply.Text != textChooseBook {
		t.Errorf("Text = %q, want %q", reply.Text, textChooseBook)
	}
	if len(reply.Buttons) != 1 {
		t.Errorf("buttons rows = %d, want 1", len(reply.Buttons))
	}
	if !strings.HasPrefix(reply.Buttons[0][0].CallbackData, "choose_book_") {
		t.Errorf("CallbackData = %q, want choose_book_ prefix", reply.Buttons[0][0].CallbackData)
	}
}
