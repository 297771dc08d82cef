package models

// AllModels lists every persisted type, parents before dependents so GORM
// auto-migration creates referenced tables first.
func AllModels() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Room{},
		&SymmetricKey{},
		&Message{},
		&UploadedFile{},
	}
}
