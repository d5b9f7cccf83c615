package bot

// 利用者向けのメッセージ文言。
const (
	textWelcome = "Привет, %s! Добро пожаловать в библиотеку. " +
		"Нажмите на кнопку ниже, чтобы открыть каталог:"
	textCatalog = "Откройте каталог книг:"

	textNoSubscription = "К сожалению, у вас нет активной подписки. Чтобы читать книги, " +
		"оформите подписку и попробуйте снова."

	buttonOpenLibrary = "📚 Открыть библиотеку"
	buttonOpenCatalog = "📚 Открыть каталог"
)
