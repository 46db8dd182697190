package messages

// Greetings
const (
	MsgStart   = "Привет! Я бот-модератор. Я буду следить за порядком в этом чате."
	MsgWelcome = "Добро пожаловать в чат, %s!"
)

// Moderation notices
const (
	MsgSpamMuted        = "Пользователь %s был заглушен на %s за спам."
	MsgSpamSoftMuted    = "Пользователь %s не может писать в чат %s за спам."
	MsgForbiddenWord    = "Сообщение от %s удалено, т.к. содержит запрещенное слово."
	MsgLinkForbidden    = "Сообщение от %s удалено (ссылки запрещены)."
	MsgForwardForbidden = "Сообщение от %s удалено (пересылка запрещена)."
	MsgNoPermission     = "⚠️ У бота недостаточно прав для модерации этого чата. Выдайте боту права администратора."
)

// Night mode
const (
	MsgNightOn         = "🌙 Включаю ночной режим. Чат закрыт для сообщений до %s."
	MsgNightOff        = "☀️ Доброе утро! Чат снова открыт для общения."
	MsgNightEnabled    = "Ночной режим успешно включен. Чат будет закрываться с %s до %s (по времени %s)."
	MsgNightDisabled   = "Ночной режим отключен. Чат теперь работает 24/7."
	MsgNightAlreadyOn  = "Ночной режим уже включен в этом чате."
	MsgNightNotEnabled = "Ночной режим не был включен в этом чате."
)

// Admin commands
const (
	MsgAdminOnly           = "Эта команда доступна только администраторам."
	MsgReplyRequired       = "Эту команду нужно использовать в ответ на сообщение пользователя."
	MsgCannotTargetAdmin   = "Эту команду нельзя применить к администратору."
	MsgKicked              = "Пользователь %s был исключен из чата."
	MsgKickFailed          = "Не удалось исключить пользователя. Ошибка: %v"
	MsgBanned              = "Пользователь %s забанен."
	MsgBanFailed           = "Не удалось забанить пользователя. Ошибка: %v"
	MsgMuted               = "Пользователь %s лишен права голоса на %s."
	MsgMuteFailed          = "Не удалось ограничить пользователя. Ошибка: %v"
	MsgMuteDurationInvalid = "Некорректная длительность. Использование: /mute [минуты]"
	MsgUnmuted             = "С пользователя %s сняты ограничения."
	MsgUnmuteFailed        = "Не удалось снять ограничения. Ошибка: %v"
	MsgWordsReloaded       = "✅ Список стоп-слов успешно перезагружен. Загружено слов: %d."
	MsgWordsReloadFailed   = "❌ Не удалось перезагрузить список стоп-слов, оставлен прежний (%d слов). Ошибка: %v"
	MsgUnsupported         = "Эта команда не поддерживается на данной платформе."
)

const MsgChatStatistics = `📊 Статистика чата %d на %s

🚫 Спам: %s
🤬 Запрещённые слова: %s
🔗 Ссылки: %s
↪️ Пересылки: %s
🔇 Мьюты: %s
🌙 Смены ночного режима: %d
👮 Сейчас заглушено: %s`

const MsgStatsFailed = "Не удалось загрузить статистику."
