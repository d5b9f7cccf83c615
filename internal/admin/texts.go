package admin

// 利用者向けメッセージ（ロシア語）。
// Bot利用者に表示される文言をここに集約する。
const (
	textNoAccess = "У вас нет доступа к админ панели."
	textMenu     = "Выберите действие:"

	buttonAddBook       = "Добавить книгу"
	buttonAddChapter    = "Добавить главу"
	buttonAddSubscriber = "Добавить подписчика"

	textBookTitlePrompt       = "Введите название книги:"
	textBookDescriptionPrompt = "Введите краткое описание (можно оставить пустым):"
	textBookCoverPrompt       = "Если у книги есть обложка, отправьте URL обложки. " +
		"Если обложка не нужна, отправьте 'нет'."
	textBookTitleMissing = "Название книги не найдено. Попробуйте снова."
	textBookAdded        = "Книга '%s' добавлена с id %d."
	textBookAddFailed    = "Не удалось добавить книгу. Произошла ошибка."

	textNoBooks             = "Нет книг. Сначала добавьте книгу."
	textChooseBook          = "Выберите книгу:"
	textChapterTitlePrompt  = "Введите название главы:"
	textChapterBodyPrompt   = "Введите текст главы (поддерживается Markdown или HTML, будет показан как есть):"
	textChapterStateLost    = "Что-то пошло не так. Глава не сохранена. Попробуйте снова."
	textChapterBookNotFound = "Книга не найдена. Попробуйте снова."
	textChapterAdded        = "Глава '%s' добавлена в книгу с id %d. Id главы: %d."
	textChapterAddFailed    = "Не удалось добавить главу. Произошла ошибка."

	textSubscriberIDPrompt = "Введите Telegram user ID пользователя, " +
		"которого вы хотите добавить в список подписчиков:"
	textSubscriberIDInvalid = "Пожалуйста, введите числовой Telegram ID (целое число). Попробуйте снова:"
	textSubscriberExists    = "Пользователь %d уже находится в списке подписчиков."
	textSubscriberAdded     = "Пользователь %d добавлен в список подписчиков."
	textSubscriberAddFailed = "Произошла ошибка при добавлении пользователя."

	textCancelled = "Действие отменено."
)
