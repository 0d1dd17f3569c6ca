package entity

// Models возвращает все модели в порядке создания таблиц
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Quiz{},
		&Question{},
		&Session{},
	}
}
