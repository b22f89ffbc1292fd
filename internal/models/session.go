package models

// Session представляет контекст пользователя, от имени которого
// выполняется бронирование. Значение неизменяемо в рамках запроса:
// операций login/logout в системе нет.
type Session struct {
	UserName      string `json:"user_name"`
	Authenticated bool   `json:"authenticated"`
}
