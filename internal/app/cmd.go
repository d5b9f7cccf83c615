package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandBot はTelegram Botモードで起動することを示す。
	CommandBot Command = "bot"
	// CommandAll はAPIサーバーとBotを同一プロセスで起動することを示す。
	CommandAll Command = "all"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandAllを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandAll
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "bot":
		return CommandBot
	case "all":
		return CommandAll
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandAll
	}
}
