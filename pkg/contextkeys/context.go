package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому в gin.Context хранится *gorm.DB
	DBContextKey = contextKey("db")
	// ClaimsContextKey - JWT оператора после AuthMiddleware
	ClaimsContextKey = contextKey("claims")
)
